package review

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxreview/internal/config"
	"taxreview/internal/document"
	"taxreview/internal/export"
	"taxreview/internal/ingest"
	"taxreview/internal/state"
	"taxreview/internal/watch"
)

// =============================================================================
// LOADING
// =============================================================================

func TestView_BeforeResize(t *testing.T) {
	m := New(Options{StartDir: t.TempDir()})
	assert.Equal(t, "Initializing...", m.View())
}

func TestView_NoRecord(t *testing.T) {
	m := newTestModel(t, Options{})
	assert.Contains(t, m.View(), "No record loaded")
}

func TestFrance_EndToEnd(t *testing.T) {
	m := loaded(t, franceFixture)
	view := m.View()

	assert.Contains(t, view, "France")
	assert.Contains(t, view, "value added tax")
	assert.Contains(t, view, "20%")
	assert.Contains(t, view, "Standard")
	assert.NotContains(t, view, "Reduced Rates")
	assert.NotContains(t, view, "Exemptions")
	assert.NotContains(t, view, "Sources (")

	banner, isErr := m.Banner()
	assert.False(t, isErr)
	assert.Equal(t, "Loaded: France - value added tax", banner)
	assert.Contains(t, view, "france.json")
}

func TestLoad_ShapeErrorKeepsRecord(t *testing.T) {
	m := loaded(t, franceFixture)
	before := m.Record()

	bad := writeFile(t, "bad.json", `{"jurisdiction":{},"vertical":{}}`)
	m.LoadPath(bad)

	banner, isErr := m.Banner()
	assert.True(t, isErr)
	assert.Equal(t, "Invalid data structure. Missing required fields (jurisdiction, vertical, or provision).", banner)
	assert.Same(t, before, m.Record())
	assert.NotContains(t, m.View(), "france.json", "selected file is cleared on failure")
	assert.Contains(t, m.View(), "20%")
}

func TestLoad_ParseError(t *testing.T) {
	m := newTestModel(t, Options{})
	m.LoadPath(writeFile(t, "broken.json", `{"jurisdiction":`))

	banner, isErr := m.Banner()
	assert.True(t, isErr)
	assert.Equal(t, "Invalid JSON format. Please check your file.", banner)
	assert.Nil(t, m.Record())
}

func TestLoad_UnsupportedFileType(t *testing.T) {
	m := newTestModel(t, Options{})
	m.LoadPath(writeFile(t, "notes.txt", `{"jurisdiction":{},"vertical":{},"provision":{}}`))

	banner, isErr := m.Banner()
	assert.True(t, isErr)
	assert.Equal(t, "Please upload a JSON file (.json)", banner)
	assert.Nil(t, m.Record())
}

func TestLoad_ReplacesWholeRecord(t *testing.T) {
	slot := state.NewSlot()
	m := newTestModel(t, Options{Slot: slot})
	m.LoadPath(franceFixture)
	m = press(m, "tab", "c")

	m.LoadPath(germanyFixture)
	assert.Equal(t, "Germany", m.Record().Jurisdiction.Name)
	assert.Equal(t, uint64(2), slot.Load().Version)
	assert.Equal(t, 0, m.ViewState().Focus, "view state resets with the record")
	assert.False(t, m.ViewState().Block(blockStandard).Citations)
	assert.NotContains(t, m.View(), "France")
}

func TestNew_ShowsSlotRecord(t *testing.T) {
	rec, err := ingest.LoadFile(franceFixture)
	require.NoError(t, err)
	slot := state.NewSlot()
	slot.Replace(rec, franceFixture)

	m := newTestModel(t, Options{Slot: slot})
	assert.Same(t, rec, m.Record())
	assert.Contains(t, m.View(), "20%")
}

// =============================================================================
// VIEW STATE
// =============================================================================

func TestNativeToggle(t *testing.T) {
	m := loaded(t, franceFixture)
	assert.True(t, m.ViewState().ShowNative, "native quotes are on by default")
	assert.Contains(t, m.View(), "Sont soumises")
	assert.Contains(t, m.View(), "Supplies of goods")

	m = press(m, "n")
	assert.False(t, m.ViewState().ShowNative)
	view := m.View()
	assert.NotContains(t, view, "Sont soumises")
	assert.Contains(t, view, "Supplies of goods")
	// c1 has no translation so its original stays visible.
	assert.Equal(t, []string{"Le taux normal est fixé à 20 %."}, m.body.texts(document.RoleQuote))

	m = press(m, "n")
	assert.Contains(t, m.View(), "Sont soumises")
}

func TestNativeToggle_FromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UI.ShowNative = false
	m := newTestModel(t, Options{Config: cfg})
	m.LoadPath(franceFixture)
	assert.False(t, m.ViewState().ShowNative)
}

func TestTruncation_PerBlock(t *testing.T) {
	m := loaded(t, germanyFixture)
	view := m.View()
	// standard: 4 cited sources, 4 applies-to items; reduced: 5 applies-to.
	assert.Contains(t, view, "… 1 more (c to show all citations)")
	assert.Contains(t, view, "… 1 more (a to show all applies-to)")
	assert.Contains(t, view, "… 2 more (a to show all applies-to)")
	assert.NotContains(t, view, "Hotel stays")

	m = press(m, "tab", "c")
	assert.Equal(t, blockStandard, m.ViewState().Focused())
	assert.True(t, m.ViewState().Block(blockStandard).Citations)
	assert.False(t, m.ViewState().Block(blockStandard).AppliesTo)
	assert.NotContains(t, m.View(), "c to show all citations")
	assert.Contains(t, m.View(), "Eins b")
	assert.NotContains(t, m.View(), "Eins a", "second pinpoint into s1 is a duplicate")

	m = press(m, "tab", "a")
	assert.Equal(t, reducedBlock(0), m.ViewState().Focused())
	assert.True(t, m.ViewState().Block(reducedBlock(0)).AppliesTo)
	assert.False(t, m.ViewState().Block(blockStandard).AppliesTo, "other blocks are unaffected")
	assert.Contains(t, m.View(), "Hotel stays")
	assert.Contains(t, m.View(), "… 1 more (a to show all applies-to)", "standard applies-to still collapsed")
}

func TestTruncation_PreviewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UI.Theme = "light"
	cfg.UI.PreviewItems = 2
	m := newTestModel(t, Options{Config: cfg})
	m.LoadPath(germanyFixture)
	assert.Contains(t, m.View(), "… 2 more (c to show all citations)")
}

func TestFocus_Wraps(t *testing.T) {
	m := loaded(t, germanyFixture)
	order := m.ViewState().Order
	require.Equal(t, []string{blockVertical, blockStandard, reducedBlock(0), exemptionBlock(0)}, order)

	m = press(m, "shift+tab")
	assert.Equal(t, exemptionBlock(0), m.ViewState().Focused())
	m = press(m, "tab")
	assert.Equal(t, blockVertical, m.ViewState().Focused())
}

func TestRecordNeverMutated(t *testing.T) {
	m := loaded(t, germanyFixture)
	fresh, err := ingest.LoadFile(germanyFixture)
	require.NoError(t, err)

	m = expandAll(press(m, "n"))
	if diff := cmp.Diff(fresh, m.Record()); diff != "" {
		t.Errorf("record changed by view interactions (-want +got):\n%s", diff)
	}
}

// =============================================================================
// CROSS-RENDERER CONSISTENCY
// =============================================================================

func TestExpandedView_MatchesDocument(t *testing.T) {
	for _, fixture := range []string{franceFixture, germanyFixture} {
		t.Run(filepath.Base(fixture), func(t *testing.T) {
			m := expandAll(loaded(t, fixture))
			doc := document.Build(m.Record(), time.Time{})

			for _, role := range []document.Role{
				document.RoleAppliesTo,
				document.RoleCondition,
				document.RoleCitationRef,
				document.RoleTranslation,
				document.RoleQuote,
				document.RoleSourceID,
			} {
				if diff := cmp.Diff(doc.Collect(role), m.body.texts(role)); diff != "" {
					t.Errorf("%s differs between document and screen (-doc +screen):\n%s", role, diff)
				}
			}
		})
	}
}

func TestHeader_MatchesDocument(t *testing.T) {
	m := loaded(t, germanyFixture)
	doc := document.Build(m.Record(), time.Time{})
	sub := doc.Find(func(b *document.Box) bool { return b.Style == document.StyleSubtitle })
	require.NotNil(t, sub)

	assert.Equal(t, "VAT • Value Added Tax", sub.Text)
	assert.Contains(t, m.renderHeader(), "Germany  "+sub.Text)
}

func TestExpandedView_SourceOrder(t *testing.T) {
	m := expandAll(loaded(t, germanyFixture))
	assert.Equal(t, []string{"s1", "s2", "s10"}, m.body.texts(document.RoleSourceID))

	view := m.View()
	i2 := strings.Index(view, "UStG § 12")
	i10 := strings.Index(view, "Anlage 2 UStG")
	require.True(t, i2 >= 0 && i10 >= 0)
	assert.Less(t, i2, i10)
	assert.NotContains(t, view, "duplicate of s2")
}

// =============================================================================
// EXPORT
// =============================================================================

func exporterModel(t *testing.T, engine stubEngine) (Model, string) {
	t.Helper()
	dir := t.TempDir()
	exp := export.New(engine, dir, export.WithClock(func() time.Time {
		return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	}))
	m := newTestModel(t, Options{Exporter: exp})
	m.LoadPath(franceFixture)
	return m, dir
}

func TestExport_Success(t *testing.T) {
	m, dir := exporterModel(t, stubEngine{data: []byte("%PDF-stub")})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	m = next.(Model)
	assert.True(t, m.Exporting())
	assert.Contains(t, m.View(), "Exporting PDF")

	next, _ = m.Update(runExport(t, cmd))
	m = next.(Model)
	assert.False(t, m.Exporting())

	want := filepath.Join(dir, "tax-research-France-value-added-tax-2024-03-09.pdf")
	banner, isErr := m.Banner()
	assert.False(t, isErr)
	assert.Equal(t, "Exported: "+want, banner)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-stub", string(data))
}

func TestExport_InFlightDisablesTrigger(t *testing.T) {
	m, _ := exporterModel(t, stubEngine{data: []byte("%PDF-stub")})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	m = next.(Model)
	require.NotNil(t, cmd)

	next, again := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	m = next.(Model)
	assert.Nil(t, again, "second export is not started while one is in flight")
	assert.True(t, m.Exporting())
}

// blockingEngine renders once it is released.
type blockingEngine struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingEngine) Name() string { return "blocking" }

func (b blockingEngine) Render(ctx context.Context, doc *document.Box) ([]byte, error) {
	close(b.started)
	<-b.release
	return []byte("%PDF-blocking"), nil
}

func TestExport_SharedExporterBusy(t *testing.T) {
	engine := blockingEngine{started: make(chan struct{}), release: make(chan struct{})}
	exp := export.New(engine, t.TempDir())
	m := newTestModel(t, Options{Exporter: exp})
	m.LoadPath(franceFixture)

	done := make(chan error, 1)
	go func() {
		_, err := exp.Export(context.Background(), m.Record())
		done <- err
	}()
	<-engine.started

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.False(t, m.Exporting())
	banner, isErr := m.Banner()
	assert.True(t, isErr)
	assert.Equal(t, export.ErrExportInFlight.Error(), banner)

	close(engine.release)
	require.NoError(t, <-done)
}

func TestExport_FailureShowsBlockingAlert(t *testing.T) {
	m, dir := exporterModel(t, stubEngine{err: errors.New("renderer crashed")})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	next, _ := m.Update(runExport(t, cmd))
	m = next.(Model)

	assert.False(t, m.Exporting(), "pending state is cleared")
	assert.Contains(t, m.Alert(), "renderer crashed")
	assert.Contains(t, m.View(), "Export failed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial file")

	// Keys other than dismiss are swallowed.
	m = press(m, "n")
	assert.True(t, m.ViewState().ShowNative)
	m = press(m, "enter")
	assert.Empty(t, m.Alert())
	m = press(m, "n")
	assert.False(t, m.ViewState().ShowNative)
}

func TestExport_NoRecord(t *testing.T) {
	m := newTestModel(t, Options{Exporter: export.New(stubEngine{}, t.TempDir())})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	assert.Nil(t, cmd)
	assert.False(t, next.(Model).Exporting())
}

func TestExport_NoExporter(t *testing.T) {
	m := loaded(t, franceFixture)
	m = press(m, "e")
	assert.False(t, m.Exporting())
	assert.Contains(t, m.Alert(), export.ErrExportFailure.Error())
}

// =============================================================================
// OVERLAYS, WATCH
// =============================================================================

func TestHelpOverlay(t *testing.T) {
	m := loaded(t, franceFixture)
	m = press(m, "?")
	assert.Equal(t, HelpView, m.Mode())
	assert.NotEmpty(t, m.View())
	assert.Contains(t, m.helpMarkdown(), "| `e` | export PDF |")

	m = press(m, "esc")
	assert.Equal(t, ReviewView, m.Mode())
}

func TestPicker_OpenAndCancel(t *testing.T) {
	m := loaded(t, franceFixture)
	m = press(m, "o")
	assert.Equal(t, PickerView, m.Mode())
	assert.Contains(t, m.View(), "Select a JSON file")

	m = press(m, "esc")
	assert.Equal(t, ReviewView, m.Mode())
	assert.Equal(t, "France", m.Record().Jurisdiction.Name)
}

func TestQuit(t *testing.T) {
	m := loaded(t, franceFixture)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestReload_FailureKeepsRecord(t *testing.T) {
	m := loaded(t, franceFixture)
	next, _ := m.Update(reloadMsg(watch.Reload{
		Path: franceFixture,
		Err:  &ingest.ValidationError{Kind: ingest.ParseError, Message: "Invalid JSON format. Please check your file."},
	}))
	m = next.(Model)

	banner, isErr := m.Banner()
	assert.True(t, isErr)
	assert.Equal(t, "Invalid JSON format. Please check your file.", banner)
	assert.Equal(t, "France", m.Record().Jurisdiction.Name)
}

func TestReload_Success(t *testing.T) {
	m := loaded(t, franceFixture)
	rec, err := ingest.LoadFile(germanyFixture)
	require.NoError(t, err)

	next, _ := m.Update(reloadMsg(watch.Reload{Path: germanyFixture, Record: rec}))
	m = next.(Model)
	assert.Same(t, rec, m.Record())
	banner, _ := m.Banner()
	assert.Equal(t, "Loaded: Germany - value added tax", banner)
}

func TestStatus_WatcherCounts(t *testing.T) {
	path := writeFile(t, "record.json", `{"jurisdiction": {"jurisdiction_name": "France"}, "vertical": {}, "provision": {}}`)
	w, err := watch.New(path, watch.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	m := newTestModel(t, Options{Watcher: w})
	m.LoadPath(path)
	assert.Contains(t, m.renderStatus(), "watching: 0 reloaded, 0 rejected")

	require.NoError(t, os.WriteFile(path, []byte(`{"jurisdiction": {}}`), 0644))
	reloaded := make(chan tea.Msg, 1)
	go func() { reloaded <- waitForReload(w)() }()
	var msg tea.Msg
	select {
	case msg = <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	next, _ := m.Update(msg)
	m = next.(Model)

	assert.Equal(t, "France", m.Record().Jurisdiction.Name)
	assert.Regexp(t, `watching: 0 reloaded, [1-9]\d* rejected`, m.renderStatus())
}

func TestUpdate_OddWindowSizes(t *testing.T) {
	m := loaded(t, franceFixture)
	for _, size := range []tea.WindowSizeMsg{{Width: 0, Height: 0}, {Width: -1, Height: -1}, {Width: 30, Height: 10}} {
		next, _ := m.Update(size)
		assert.NotPanics(t, func() { _ = next.(Model).View() })
	}
}

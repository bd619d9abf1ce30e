// Package review implements the interactive review screen: a scrollable,
// partially collapsible rendering of the loaded tax record with upload,
// native-quote toggle and PDF export.
package review

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"taxreview/cmd/taxreview/ui"
	"taxreview/internal/config"
	"taxreview/internal/export"
	"taxreview/internal/ingest"
	"taxreview/internal/logging"
	"taxreview/internal/state"
	"taxreview/internal/taxrecord"
	"taxreview/internal/watch"
)

// ViewMode is the active screen.
type ViewMode int

const (
	ReviewView ViewMode = iota
	PickerView
	HelpView
)

// Options configures a Model.
type Options struct {
	Config   *config.Config
	Exporter *export.Exporter
	// Slot holds the current record. A fresh slot is used when nil.
	Slot *state.Slot
	// Watcher, when set, feeds reloads of the watched file.
	Watcher *watch.Watcher
	// Loader reads a record from disk. Defaults to ingest.LoadFile.
	Loader func(path string) (*taxrecord.Record, error)
	// StartDir is where the file picker opens.
	StartDir string
	Styles   *ui.Styles
}

// Model is the bubbletea model of the review screen.
type Model struct {
	cfg      *config.Config
	styles   ui.Styles
	layout   ui.LayoutConfig
	keys     keyMap
	help     help.Model
	viewport viewport.Model
	spinner  spinner.Model
	picker   filepicker.Model
	renderer *glamour.TermRenderer
	cache    *ui.RenderCache

	slot     *state.Slot
	snap     *state.Snapshot
	view     ViewState
	body     body
	exporter *export.Exporter
	watcher  *watch.Watcher
	loader   func(path string) (*taxrecord.Record, error)
	startDir string

	mode      ViewMode
	ready     bool
	exporting bool

	// banner is the last load/export outcome; bannerErr marks it as an error.
	banner       string
	bannerErr    bool
	selectedFile string
	// alert is a blocking message that must be dismissed.
	alert string
}

// New creates the review model. Any record already in the slot is shown.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	styles := ui.NewStyles(ui.ThemeFor(cfg.UI.Theme))
	if opts.Styles != nil {
		styles = *opts.Styles
	}
	slot := opts.Slot
	if slot == nil {
		slot = state.NewSlot()
	}
	loader := opts.Loader
	if loader == nil {
		loader = ingest.LoadFile
	}
	startDir := opts.StartDir
	if startDir == "" {
		startDir, _ = os.Getwd()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	h := help.New()
	h.ShowAll = false

	m := Model{
		cfg:      cfg,
		styles:   styles,
		keys:     defaultKeyMap(),
		help:     h,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		picker:   newPicker(startDir),
		cache:    ui.NewRenderCache(32),
		slot:     slot,
		snap:     slot.Load(),
		exporter: opts.Exporter,
		watcher:  opts.Watcher,
		loader:   loader,
		startDir: startDir,
	}
	m.view = NewViewState(m.snap.Record, cfg.UI.ShowNative)
	m.renderer = newMarkdownRenderer(styles.Theme, 80)
	return m
}

func newPicker(dir string) filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = ingest.AcceptedExtensions
	fp.CurrentDirectory = dir
	fp.ShowHidden = false
	return fp
}

func newMarkdownRenderer(theme ui.Theme, width int) *glamour.TermRenderer {
	style := "light"
	if theme.IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(max(width, 20)),
	)
	if err != nil {
		logging.Get(logging.CategoryUI).Warn("markdown renderer unavailable: %v", err)
		return nil
	}
	return r
}

// Init starts listening for watched-file reloads.
func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return waitForReload(m.watcher)
	}
	return nil
}

// Record returns the record on screen, or nil.
func (m Model) Record() *taxrecord.Record { return m.snap.Record }

// ViewState returns the current view state.
func (m Model) ViewState() ViewState { return m.view }

// Exporting reports whether an export is in flight.
func (m Model) Exporting() bool { return m.exporting }

// Banner returns the status banner and whether it reports an error.
func (m Model) Banner() (string, bool) { return m.banner, m.bannerErr }

// Alert returns the blocking alert, or "".
func (m Model) Alert() string { return m.alert }

// Mode returns the active screen.
func (m Model) Mode() ViewMode { return m.mode }

// exportCmd runs the export off the UI loop.
func exportCmd(exp *export.Exporter, rec *taxrecord.Record) tea.Cmd {
	return func() tea.Msg {
		res, err := exp.Export(context.Background(), rec)
		return exportDoneMsg{result: res, err: err}
	}
}

// waitForReload blocks until the watcher publishes a reload.
func waitForReload(w *watch.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-w.Reloads()
		if !ok {
			return nil
		}
		return reloadMsg(r)
	}
}

type exportDoneMsg struct {
	result *export.Result
	err    error
}

type reloadMsg watch.Reload

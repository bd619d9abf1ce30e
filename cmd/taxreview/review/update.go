package review

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"taxreview/cmd/taxreview/ui"
	"taxreview/internal/derive"
	"taxreview/internal/export"
	"taxreview/internal/ingest"
	"taxreview/internal/logging"
	"taxreview/internal/taxrecord"
)

// Update handles messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case exportDoneMsg:
		m.exporting = false
		if msg.err != nil {
			m.alert = msg.err.Error()
			logging.UI("export failed: %v", msg.err)
			return m, nil
		}
		m.setBanner(fmt.Sprintf("Exported: %s", msg.result.Path), false)
		return m, nil

	case reloadMsg:
		m.applyLoad(msg.Path, msg.Record, msg.Err)
		return m, waitForReload(m.watcher)

	case spinner.TickMsg:
		if !m.exporting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.mode == PickerView {
		return m.updatePicker(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.layout = ui.NewLayoutConfig(width, height)
	m.viewport.Width = m.layout.ContentWidth()
	m.viewport.Height = m.layout.BodyHeight()
	m.picker.Height = max(height-ui.HeaderHeight-ui.FooterHeight-2, 3)
	m.help.Width = width
	if !m.ready || m.renderer == nil {
		m.renderer = newMarkdownRenderer(m.styles.Theme, m.layout.ContentWidth()-4)
	}
	m.ready = true
	m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// A blocking alert swallows everything until dismissed.
	if m.alert != "" {
		switch {
		case key.Matches(msg, m.keys.Dismiss):
			m.alert = ""
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.mode {
	case HelpView:
		if key.Matches(msg, m.keys.Dismiss, m.keys.Help) {
			m.mode = ReviewView
		} else if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	case PickerView:
		if msg.String() == "esc" {
			m.mode = ReviewView
			return m, nil
		}
		return m.updatePicker(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.mode = HelpView
		return m, nil

	case key.Matches(msg, m.keys.Open):
		m.mode = PickerView
		m.picker = newPicker(m.startDir)
		m.picker.Height = max(m.layout.TerminalHeight-ui.HeaderHeight-ui.FooterHeight-2, 3)
		return m, m.picker.Init()

	case key.Matches(msg, m.keys.Export):
		return m.startExport()

	case key.Matches(msg, m.keys.Native):
		m.view.ShowNative = !m.view.ShowNative
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.view.Move(1)
		m.refreshAndFocus()
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		m.view.Move(-1)
		m.refreshAndFocus()
		return m, nil

	case key.Matches(msg, m.keys.Citations):
		m.view.ToggleCitations()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.AppliesTo):
		m.view.ToggleAppliesTo()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		m.mode = ReviewView
		m.LoadPath(path)
		return m, cmd
	}

	if didSelect, path := m.picker.DidSelectDisabledFile(msg); didSelect {
		m.mode = ReviewView
		m.applyLoad(path, nil, ingest.CheckFileType(path))
		return m, cmd
	}

	return m, cmd
}

// LoadPath ingests path and, on success, replaces the record on screen.
func (m *Model) LoadPath(path string) {
	rec, err := m.loader(path)
	m.applyLoad(path, rec, err)
}

// applyLoad is the single place the displayed record changes. A failed load
// clears the selected file and leaves the record untouched.
func (m *Model) applyLoad(path string, rec *taxrecord.Record, err error) {
	if err == nil && rec == nil {
		err = fmt.Errorf("%w: loader returned no record", ingest.ErrShape)
	}
	if err != nil {
		m.selectedFile = ""
		m.setBanner(ingest.UserMessage(err), true)
		logging.UI("load of %s rejected: %v", path, err)
		return
	}

	m.snap = m.slot.Replace(rec, path)
	m.view = NewViewState(rec, m.view.ShowNative)
	m.selectedFile = filepath.Base(path)
	m.setBanner(fmt.Sprintf("Loaded: %s - %s", rec.Jurisdiction.Name, derive.HumanizeLabel(rec.Vertical.Label)), false)
	logging.UIDebug("record v%d on screen from %s", m.snap.Version, path)
	m.refresh()
	m.viewport.GotoTop()
}

func (m Model) startExport() (tea.Model, tea.Cmd) {
	if m.exporting || m.snap.Empty() {
		return m, nil
	}
	if m.exporter == nil {
		m.alert = errors.Join(export.ErrExportFailure, errors.New("no exporter configured")).Error()
		return m, nil
	}
	// The exporter may be shared with another caller.
	if m.exporter.InFlight() {
		m.setBanner(export.ErrExportInFlight.Error(), true)
		return m, nil
	}
	m.exporting = true
	return m, tea.Batch(m.spinner.Tick, exportCmd(m.exporter, m.snap.Record))
}

func (m *Model) setBanner(msg string, isErr bool) {
	m.banner = msg
	m.bannerErr = isErr
}

// refresh re-renders the body for the current record and view state.
func (m *Model) refresh() {
	if m.snap.Empty() {
		m.body = body{}
		m.viewport.SetContent(m.styles.Muted.Render("No record loaded. Press o to open a JSON file."))
		return
	}
	r := &bodyRenderer{
		styles:   m.styles,
		width:    m.viewport.Width,
		preview:  m.cfg.UI.Preview(),
		view:     m.view,
		markdown: m.renderer,
		cache:    m.cache,
	}
	m.body = renderBody(m.snap.Record, r)
	m.viewport.SetContent(m.body.Content)
}

func (m *Model) refreshAndFocus() {
	m.refresh()
	if off, ok := m.body.Offsets[m.view.Focused()]; ok {
		m.viewport.SetYOffset(off)
	}
}

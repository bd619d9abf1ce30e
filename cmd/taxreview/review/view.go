package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taxreview/cmd/taxreview/ui"
	"taxreview/internal/derive"
)

// View renders the active screen.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.layout.TooSmall() {
		return m.styles.Warning.Render(fmt.Sprintf("Terminal too small (need %dx%d)",
			ui.MinimumTerminalWidth, ui.MinimumTerminalHeight))
	}

	var screen string
	switch m.mode {
	case PickerView:
		title := m.styles.Header.Render(" Select a JSON file ")
		content := m.styles.Content.Render(m.picker.View())
		hint := m.styles.Footer.Render("enter: open • esc: cancel")
		screen = lipgloss.JoinVertical(lipgloss.Left, title, content, hint)
	case HelpView:
		screen = m.renderHelp()
	default:
		screen = lipgloss.JoinVertical(lipgloss.Left,
			m.renderHeader(),
			m.renderStatus(),
			m.styles.Content.Render(m.viewport.View()),
			m.styles.Footer.Render(m.help.View(m.keys)),
		)
	}

	if m.alert != "" {
		return m.renderAlert()
	}
	return screen
}

func (m Model) renderHeader() string {
	width := m.layout.TerminalWidth
	if m.snap.Empty() {
		return m.styles.Header.Width(width).Render("Tax Review") + "\n" + m.styles.RenderDivider(width)
	}
	h := derive.HeaderOf(m.snap.Record)
	line := h.Jurisdiction + "  " + h.Subtitle()
	if h.Confidence != "" {
		line += "  (confidence " + h.Confidence + ")"
	}
	return m.styles.Header.Width(width).Render(line) + "\n" + m.styles.RenderDivider(width)
}

func (m Model) renderStatus() string {
	var parts []string
	if m.banner != "" {
		if m.bannerErr {
			parts = append(parts, m.styles.Error.Render(m.banner))
		} else {
			parts = append(parts, m.styles.Success.Render(m.banner))
		}
	}
	if m.selectedFile != "" {
		parts = append(parts, m.styles.Muted.Render(m.selectedFile))
	}
	if m.exporting {
		parts = append(parts, m.spinner.View()+m.styles.Info.Render(" Exporting PDF…"))
	}
	native := "off"
	if m.view.ShowNative {
		native = "on"
	}
	parts = append(parts, m.styles.Muted.Render("native quotes: "+native))
	if m.watcher != nil {
		st := m.watcher.Stats()
		parts = append(parts, m.styles.Muted.Render(fmt.Sprintf("watching: %d reloaded, %d rejected", st.Reloads, st.Failures)))
	}
	return m.styles.Content.Render(strings.Join(parts, "  │  "))
}

// helpMarkdown lists the key map as a markdown table.
func (m Model) helpMarkdown() string {
	var b strings.Builder
	b.WriteString("# Keys\n\n| Key | Action |\n|---|---|\n")
	for _, group := range m.keys.FullHelp() {
		for _, k := range group {
			h := k.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\nCollapsed lists show the first items only; expand state is kept per block.\n")
	return b.String()
}

func (m Model) renderHelp() string {
	width := m.layout.OverlayWidth(ui.HelpMaxWidth)
	md := m.helpMarkdown()
	content := m.cache.GetOrCompute(ui.ComputeKey("help", width, m.styles.Theme.IsDark), func() string {
		r := newMarkdownRenderer(m.styles.Theme, width)
		if r == nil {
			return md
		}
		out, err := r.Render(md)
		if err != nil {
			return md
		}
		return out
	})
	box := lipgloss.NewStyle().Width(width).Render(content)
	return lipgloss.Place(m.layout.TerminalWidth, m.layout.TerminalHeight, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderAlert() string {
	width := m.layout.OverlayWidth(ui.AlertMaxWidth)
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Error.Render("Export failed"),
		"",
		m.styles.Body.Width(width-6).Render(m.alert),
		"",
		m.styles.Muted.Render("press enter to dismiss"),
	)
	box := m.styles.Alert.Width(width).Render(content)
	return lipgloss.Place(m.layout.TerminalWidth, m.layout.TerminalHeight, lipgloss.Center, lipgloss.Center, box)
}

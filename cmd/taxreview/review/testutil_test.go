package review

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"taxreview/internal/config"
	"taxreview/internal/document"
)

const (
	franceFixture  = "../../../internal/ingest/testdata/france.json"
	germanyFixture = "testdata/germany.json"
)

// newTestModel returns a model tall enough to show the whole body, with a
// light theme and no exporter.
func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
		opts.Config.UI.Theme = "light"
	}
	if opts.StartDir == "" {
		opts.StartDir = t.TempDir()
	}
	m := New(opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 1000})
	return next.(Model)
}

func loaded(t *testing.T, path string) Model {
	t.Helper()
	m := newTestModel(t, Options{})
	m.LoadPath(path)
	_, isErr := m.Banner()
	require.False(t, isErr, "fixture %s should load", path)
	return m
}

// press feeds keys to the model. Single characters are sent as runes.
func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// expandAll opens citations and applies-to of every block using the keys.
func expandAll(m Model) Model {
	for range m.ViewState().Order {
		m = press(m, "c", "a", "tab")
	}
	return m
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// stubEngine returns fixed bytes or an error.
type stubEngine struct {
	data []byte
	err  error
}

func (s stubEngine) Name() string { return "stub" }

func (s stubEngine) Render(ctx context.Context, doc *document.Box) ([]byte, error) {
	return s.data, s.err
}

// runExport executes the batched export command and returns its result.
func runExport(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return msg
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if out, ok := c().(exportDoneMsg); ok {
			return out
		}
	}
	t.Fatal("no export result in batch")
	return nil
}

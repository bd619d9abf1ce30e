// Package pdf paginates a document tree into A4 PDF bytes. Two engines are
// available: a native engine that lays out the tree directly with fpdf, and
// a chrome engine that prints an HTML rendition through headless Chrome.
package pdf

import (
	"context"
	"fmt"
	"time"

	"taxreview/internal/document"
)

// Engine names accepted by New.
const (
	EngineNative = "native"
	EngineChrome = "chrome"
)

// A4 paper size.
const (
	A4WidthMM    = 210.0
	A4HeightMM   = 297.0
	A4WidthInch  = 8.27
	A4HeightInch = 11.69
)

// Engine renders a document tree to PDF bytes. Render must not return
// partial output on error.
type Engine interface {
	Name() string
	Render(ctx context.Context, doc *document.Box) ([]byte, error)
}

// ChromeOptions configures the chrome engine.
type ChromeOptions struct {
	Bin      string
	Headless bool
	Timeout  time.Duration
}

// DefaultChromeOptions returns headless Chrome with a 60s budget.
func DefaultChromeOptions() ChromeOptions {
	return ChromeOptions{Headless: true, Timeout: 60 * time.Second}
}

// New returns the engine registered under name.
func New(name string, chrome ChromeOptions) (Engine, error) {
	switch name {
	case "", EngineNative:
		return NewNative(), nil
	case EngineChrome:
		return NewChrome(chrome), nil
	default:
		return nil, fmt.Errorf("unknown pdf engine %q", name)
	}
}

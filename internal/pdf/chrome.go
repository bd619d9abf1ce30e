package pdf

import (
	"context"
	"fmt"
	"io"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"taxreview/internal/document"
	"taxreview/internal/logging"
)

// ChromeEngine prints the HTML rendition of a document through a headless
// Chrome it launches for each render.
type ChromeEngine struct {
	opts ChromeOptions
}

// NewChrome creates the chrome engine.
func NewChrome(opts ChromeOptions) *ChromeEngine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultChromeOptions().Timeout
	}
	return &ChromeEngine{opts: opts}
}

func (e *ChromeEngine) Name() string { return EngineChrome }

// Render launches Chrome, loads the document HTML and prints it to A4.
func (e *ChromeEngine) Render(ctx context.Context, doc *document.Box) ([]byte, error) {
	html, err := RenderHTML(doc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	launch := launcher.New().Context(ctx).Headless(e.opts.Headless)
	if e.opts.Bin != "" {
		launch = launch.Bin(e.opts.Bin)
	}
	defer launch.Cleanup()

	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	logging.PDFDebug("chrome launched at %s", controlURL)

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:          floatPtr(A4WidthInch),
		PaperHeight:         floatPtr(A4HeightInch),
		MarginTop:           floatPtr(0),
		MarginBottom:        floatPtr(0),
		MarginLeft:          floatPtr(0),
		MarginRight:         floatPtr(0),
		PrintBackground:     true,
		PreferCSSPageSize:   true,
		DisplayHeaderFooter: false,
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf stream: %w", err)
	}
	logging.PDFDebug("chrome engine rendered %d bytes", len(data))
	return data, nil
}

func floatPtr(v float64) *float64 { return &v }

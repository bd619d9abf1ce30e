package pdf

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"

	"github.com/go-pdf/fpdf"

	"taxreview/internal/document"
	"taxreview/internal/logging"
)

// DejaVu Sans Condensed covers Latin, Greek and Cyrillic. The core PDF
// fonts only cover cp1252.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegularTTF []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBoldTTF []byte
	//go:embed fonts/DejaVuSansCondensed-Oblique.ttf
	fontObliqueTTF []byte
)

const fontFamily = "DejaVu"

const (
	marginMM    = 15.0
	indentStep  = 4.0
	lineHeight  = 5.0
	cardMinRoom = 30.0
)

type font struct {
	style string
	size  float64
	color [3]int
}

var (
	fontBody      = font{"", 10, [3]int{31, 41, 55}}
	fontTitle     = font{"B", 20, [3]int{17, 24, 39}}
	fontSubtitle  = font{"", 12, [3]int{75, 85, 99}}
	fontSection   = font{"B", 14, [3]int{17, 24, 39}}
	fontGroup     = font{"B", 11, [3]int{31, 41, 55}}
	fontLabel     = font{"B", 8, [3]int{107, 114, 128}}
	fontMuted     = font{"", 9, [3]int{107, 114, 128}}
	fontBold      = font{"B", 10, [3]int{17, 24, 39}}
	fontRateValue = font{"B", 18, [3]int{29, 78, 216}}
	fontLink      = font{"U", 9, [3]int{29, 78, 216}}
	fontNative    = font{"I", 9, [3]int{55, 65, 81}}
	fontBadge     = font{"B", 8, [3]int{55, 65, 81}}
)

// NativeEngine lays out the tree with fpdf and an embedded Unicode font.
type NativeEngine struct{}

// NewNative creates the native engine.
func NewNative() *NativeEngine { return &NativeEngine{} }

func (e *NativeEngine) Name() string { return EngineNative }

// Render paginates doc into an A4 PDF.
func (e *NativeEngine) Render(ctx context.Context, doc *document.Box) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := newNativeRenderer(doc)
	if err != nil {
		return nil, err
	}
	r.box(doc, 0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("native pdf output: %w", err)
	}
	logging.PDFDebug("native engine rendered %d pages, %d bytes", r.pdf.PageNo(), buf.Len())
	return buf.Bytes(), nil
}

type nativeRenderer struct {
	pdf   *fpdf.Fpdf
	width float64
}

func newNativeRenderer(doc *document.Box) (*nativeRenderer, error) {
	p := fpdf.New("P", "mm", "A4", "")
	p.AddUTF8FontFromBytes(fontFamily, "", fontRegularTTF)
	p.AddUTF8FontFromBytes(fontFamily, "B", fontBoldTTF)
	p.AddUTF8FontFromBytes(fontFamily, "I", fontObliqueTTF)
	if err := p.Error(); err != nil {
		return nil, fmt.Errorf("load pdf font: %w", err)
	}
	p.SetMargins(marginMM, marginMM, marginMM)
	p.SetAutoPageBreak(true, marginMM)
	p.SetTitle(doc.Title, true)
	if sub := doc.Find(func(b *document.Box) bool { return b.Style == document.StyleSubtitle }); sub != nil {
		p.SetSubject(sub.Text, true)
	}
	p.SetCreator("taxreview", true)
	p.AliasNbPages("")

	r := &nativeRenderer{
		pdf:   p,
		width: A4WidthMM - 2*marginMM,
	}
	p.SetFooterFunc(func() {
		p.SetY(-12)
		r.setFont(fontMuted)
		p.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", p.PageNo()), "", 0, "C", false, 0, "")
	})
	p.AddPage()
	return r, nil
}

func (r *nativeRenderer) setFont(f font) {
	r.pdf.SetFont(fontFamily, f.style, f.size)
	r.pdf.SetTextColor(f.color[0], f.color[1], f.color[2])
}

func (r *nativeRenderer) write(indent float64, f font, s string) {
	if s == "" {
		return
	}
	r.setFont(f)
	r.pdf.SetX(marginMM + indent)
	r.pdf.MultiCell(r.width-indent, f.size*0.5, s, "", "L", false)
}

// ensureRoom starts a new page when less than h millimetres remain.
func (r *nativeRenderer) ensureRoom(h float64) {
	_, pageH := r.pdf.GetPageSize()
	if r.pdf.GetY()+h > pageH-marginMM {
		r.pdf.AddPage()
	}
}

func (r *nativeRenderer) rule(indent float64) {
	y := r.pdf.GetY() + 1
	r.pdf.SetDrawColor(229, 231, 235)
	r.pdf.SetLineWidth(0.3)
	r.pdf.Line(marginMM+indent, y, marginMM+r.width, y)
	r.pdf.Ln(3)
}

func (r *nativeRenderer) box(b *document.Box, indent float64) {
	switch b.Kind {
	case document.KindDocument:
		r.children(b, indent)

	case document.KindHeader:
		r.children(b, indent)
		r.rule(0)

	case document.KindSection:
		r.ensureRoom(20)
		r.pdf.Ln(4)
		r.write(indent, fontSection, b.Title)
		r.rule(indent)
		r.children(b, indent)

	case document.KindGroup:
		r.ensureRoom(12)
		r.pdf.Ln(2)
		r.write(indent, fontGroup, b.Title)
		r.pdf.Ln(1)
		r.children(b, indent)

	case document.KindCard:
		r.ensureRoom(cardMinRoom)
		r.pdf.Ln(2)
		page, top := r.pdf.PageNo(), r.pdf.GetY()
		r.write(indent+indentStep, fontBold, b.Title)
		r.children(b, indent+indentStep)
		if r.pdf.PageNo() == page {
			r.pdf.SetDrawColor(209, 213, 219)
			r.pdf.SetLineWidth(0.6)
			x := marginMM + indent + 1
			r.pdf.Line(x, top, x, r.pdf.GetY())
		}
		r.pdf.Ln(1)

	case document.KindText:
		r.write(indent, textFont(b.Style), b.Text)

	case document.KindField:
		r.write(indent, fontLabel, b.Label)
		r.write(indent, fontBody, b.Text)
		r.pdf.Ln(1)

	case document.KindGrid:
		r.grid(b, indent)

	case document.KindList:
		for i, it := range b.Children {
			prefix := "• "
			if b.Ordered {
				prefix = fmt.Sprintf("%d. ", i+1)
			}
			r.write(indent+indentStep, fontBody, prefix+it.Text)
			r.children(it, indent+2*indentStep)
		}

	case document.KindItem:
		r.write(indent, fontBody, "• "+b.Text)
		r.children(b, indent+indentStep)

	case document.KindQuote:
		f := fontBody
		if b.Style == document.StyleNative {
			f = fontNative
		}
		r.setFont(f)
		r.pdf.SetFillColor(243, 244, 246)
		r.pdf.SetX(marginMM + indent)
		r.pdf.MultiCell(r.width-indent, f.size*0.5, b.Text, "", "L", true)
		r.pdf.Ln(1)

	case document.KindBadge:
		r.badges([]*document.Box{b}, indent)
	}
}

// children renders the children of b, laying out runs of badges inline.
func (r *nativeRenderer) children(b *document.Box, indent float64) {
	var run []*document.Box
	flush := func() {
		if len(run) > 0 {
			r.badges(run, indent)
			run = nil
		}
	}
	for _, c := range b.Children {
		if c.Kind == document.KindBadge {
			run = append(run, c)
			continue
		}
		flush()
		r.box(c, indent)
	}
	flush()
}

func (r *nativeRenderer) badges(bs []*document.Box, indent float64) {
	r.setFont(fontBadge)
	r.pdf.SetFillColor(229, 231, 235)
	x := marginMM + indent
	r.pdf.SetX(x)
	for _, b := range bs {
		s := b.Text
		w := r.pdf.GetStringWidth(s) + 4
		if r.pdf.GetX()+w > marginMM+r.width {
			r.pdf.Ln(lineHeight + 1)
			r.pdf.SetX(x)
		}
		r.pdf.CellFormat(w, lineHeight, s, "", 0, "C", true, 0, "")
		r.pdf.SetX(r.pdf.GetX() + 2)
	}
	r.pdf.Ln(lineHeight + 1)
}

// grid lays fields out in equal columns: one row of labels, then the values
// wrapped inside their column.
func (r *nativeRenderer) grid(b *document.Box, indent float64) {
	if len(b.Children) == 0 {
		return
	}
	cols := len(b.Children)
	if cols > 3 {
		cols = 3
	}
	colW := (r.width - indent) / float64(cols)
	for start := 0; start < len(b.Children); start += cols {
		end := start + cols
		if end > len(b.Children) {
			end = len(b.Children)
		}
		row := b.Children[start:end]

		r.setFont(fontBold)
		values := make([][]string, len(row))
		height := 1
		for i, f := range row {
			values[i] = r.wrap(f.Text, colW-2)
			height = max(height, len(values[i]))
		}
		r.ensureRoom(lineHeight * float64(height+1))

		r.setFont(fontLabel)
		r.pdf.SetX(marginMM + indent)
		for _, f := range row {
			r.pdf.CellFormat(colW, lineHeight, f.Label, "", 0, "L", false, 0, "")
		}
		r.pdf.Ln(lineHeight)

		r.setFont(fontBold)
		for line := 0; line < height; line++ {
			r.pdf.SetX(marginMM + indent)
			for _, v := range values {
				s := ""
				if line < len(v) {
					s = v[line]
				}
				r.pdf.CellFormat(colW, lineHeight, s, "", 0, "L", false, 0, "")
			}
			r.pdf.Ln(lineHeight)
		}
		r.pdf.Ln(1)
	}
}

// wrap splits s into lines no wider than w in the current font.
func (r *nativeRenderer) wrap(s string, w float64) []string {
	lines := r.pdf.SplitText(s, w)
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func textFont(s document.Style) font {
	switch s {
	case document.StyleTitle:
		return fontTitle
	case document.StyleSubtitle:
		return fontSubtitle
	case document.StyleMuted:
		return fontMuted
	case document.StyleBold:
		return fontBold
	case document.StyleRateValue:
		return fontRateValue
	case document.StyleLink:
		return fontLink
	case document.StyleNative:
		return fontNative
	default:
		return fontBody
	}
}

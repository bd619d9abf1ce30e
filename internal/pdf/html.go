package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"taxreview/internal/document"
)

const pageCSS = `
@page { size: A4; margin: 15mm; }
body { font-family: Helvetica, Arial, sans-serif; font-size: 10pt; color: #1f2937; }
header { border-bottom: 1px solid #e5e7eb; padding-bottom: 8pt; margin-bottom: 8pt; }
.title { font-size: 20pt; font-weight: bold; color: #111827; }
.subtitle { font-size: 12pt; color: #4b5563; }
section > h2 { font-size: 14pt; border-bottom: 1px solid #e5e7eb; padding-bottom: 2pt; break-after: avoid; }
.group > h3 { font-size: 11pt; margin: 8pt 0 4pt; break-after: avoid; }
.card { border-left: 2px solid #d1d5db; padding: 2pt 0 2pt 8pt; margin: 6pt 0; break-inside: avoid; }
.card > h4 { font-size: 10pt; margin: 0 0 2pt; }
.field .label { font-size: 8pt; font-weight: bold; color: #6b7280; }
.grid { display: flex; gap: 12pt; }
.grid .field { flex: 1; }
.muted { font-size: 9pt; color: #6b7280; }
.bold { font-weight: bold; }
.rate-value { font-size: 18pt; font-weight: bold; color: #1d4ed8; }
.link { font-size: 9pt; color: #1d4ed8; text-decoration: underline; }
blockquote { background: #f3f4f6; margin: 2pt 0; padding: 4pt 6pt; }
blockquote.native { font-style: italic; font-size: 9pt; border-left: 3px solid #a78bfa; }
blockquote.translation { border-left: 3px solid #60a5fa; }
.badge { display: inline-block; background: #e5e7eb; font-size: 8pt; font-weight: bold; padding: 1pt 4pt; margin: 0 2pt 2pt 0; }
`

var htmlTemplate = template.Must(template.New("doc").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title><style>` + pageCSS + `</style></head>
<body>{{range .Children}}{{template "box" .}}{{end}}</body></html>
{{define "box"}}
{{- if eq .Kind "header"}}<header>{{range .Children}}{{template "box" .}}{{end}}</header>
{{- else if eq .Kind "section"}}<section class="{{.Role}}"><h2>{{.Title}}</h2>{{range .Children}}{{template "box" .}}{{end}}</section>
{{- else if eq .Kind "group"}}<div class="group"><h3>{{.Title}}</h3>{{range .Children}}{{template "box" .}}{{end}}</div>
{{- else if eq .Kind "card"}}<div class="card {{.Role}}">{{if .Title}}<h4>{{.Title}}</h4>{{end}}{{range .Children}}{{template "box" .}}{{end}}</div>
{{- else if eq .Kind "text"}}<div class="{{.Style}} {{.Role}}">{{.Text}}</div>
{{- else if eq .Kind "field"}}<div class="field"><div class="label">{{.Label}}</div><div>{{.Text}}</div></div>
{{- else if eq .Kind "grid"}}<div class="grid">{{range .Children}}{{template "box" .}}{{end}}</div>
{{- else if eq .Kind "list"}}{{if .Ordered}}<ol>{{else}}<ul>{{end}}{{range .Children}}{{template "box" .}}{{end}}{{if .Ordered}}</ol>{{else}}</ul>{{end}}
{{- else if eq .Kind "item"}}<li class="{{.Role}}">{{.Text}}{{range .Children}}{{template "box" .}}{{end}}</li>
{{- else if eq .Kind "quote"}}<blockquote class="{{.Style}} {{.Role}}">{{.Text}}</blockquote>
{{- else if eq .Kind "badge"}}<span class="badge {{.Role}}">{{.Text}}</span>
{{- end}}
{{- end}}`))

// RenderHTML renders doc as a standalone print-ready HTML page.
func RenderHTML(doc *document.Box) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

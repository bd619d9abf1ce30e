package review

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"taxreview/cmd/taxreview/ui"
	"taxreview/internal/derive"
	"taxreview/internal/document"
	"taxreview/internal/taxrecord"
)

// traceItem is one piece of record content as it was rendered. The trace
// uses the document roles so the screen and the PDF can be compared.
type traceItem struct {
	Role document.Role
	Text string
}

// body is the rendered scrollable content plus where each block starts.
type body struct {
	Content string
	Offsets map[string]int
	Trace   []traceItem
}

// texts returns the traced text for role, in render order.
func (b body) texts(role document.Role) []string {
	var out []string
	for _, t := range b.Trace {
		if t.Role == role {
			out = append(out, t.Text)
		}
	}
	return out
}

// bodyRenderer lays out a record for the viewport. It applies the same
// derivation rules as document.Build and additionally honours the view
// state's truncation and native toggle.
type bodyRenderer struct {
	styles   ui.Styles
	width    int
	preview  int
	view     ViewState
	markdown *glamour.TermRenderer
	cache    *ui.RenderCache

	chunks  []string
	lines   int
	offsets map[string]int
	trace   []traceItem
}

func (r *bodyRenderer) emit(s string) {
	r.chunks = append(r.chunks, s)
	r.lines += lipgloss.Height(s)
}

func (r *bodyRenderer) note(role document.Role, text string) {
	r.trace = append(r.trace, traceItem{Role: role, Text: text})
}

func (r *bodyRenderer) wrap(style lipgloss.Style, s string, indent int) string {
	return style.Width(max(r.width-indent, 10)).Render(s)
}

func renderBody(rec *taxrecord.Record, r *bodyRenderer) body {
	r.offsets = make(map[string]int)
	if r.preview <= 0 {
		r.preview = derive.DefaultPreview
	}

	r.evaluation(rec)
	r.jurisdiction(rec)
	r.vertical(rec.Vertical)
	r.provision(rec.Provision)
	r.sources(rec.Sources)

	return body{
		Content: strings.Join(r.chunks, "\n"),
		Offsets: r.offsets,
		Trace:   r.trace,
	}
}

func (r *bodyRenderer) evaluation(rec *taxrecord.Record) {
	ev := rec.Evaluation
	if ev == nil || strings.TrimSpace(ev.Reasoning) == "" {
		return
	}
	r.emit(r.styles.Section.Render("Evaluation"))
	if ev.ConfidenceScore != "" {
		r.emit(r.styles.Label.Render("Confidence Score ") + r.styles.Bold.Render(ev.ConfidenceScore))
	}
	r.emit(r.renderMarkdown(ev.Reasoning))
}

// renderMarkdown renders reasoning text through glamour, falling back to
// plain wrapped text.
func (r *bodyRenderer) renderMarkdown(md string) string {
	if r.markdown == nil {
		return r.wrap(r.styles.Body, md, 0)
	}
	compute := func() string {
		out, err := r.markdown.Render(md)
		if err != nil {
			return r.wrap(r.styles.Body, md, 0)
		}
		return strings.TrimRight(out, "\n")
	}
	if r.cache == nil {
		return compute()
	}
	return r.cache.GetOrCompute(ui.ComputeKey(md, r.width, r.styles.Theme.IsDark), compute)
}

func (r *bodyRenderer) jurisdiction(rec *taxrecord.Record) {
	j := rec.Jurisdiction
	r.emit(r.styles.Section.Render("Jurisdiction"))
	r.emit(ui.NewFieldGrid().
		Add("Country Name", j.Name).
		Add("Level", derive.Capitalize(j.LevelName)).
		Add("ISO Code", j.CountryISO).
		View(r.styles, r.width))
	if len(j.ParentHierarchy) > 0 {
		r.emit(r.field("Parent Jurisdictions", strings.Join(j.ParentHierarchy, " › ")))
	}
	if j.FIPS != "" {
		r.emit(r.field("FIPS", j.FIPS))
	}
	if a := rec.Applicability; a != nil {
		lines := []string{r.styles.Group.Render("Jurisdictional Applicability")}
		if a.ApplicableAtCurrentLevel != "" {
			lines = append(lines, r.field("Applicable at This Level", a.ApplicableAtCurrentLevel))
		}
		lines = append(lines, r.field("Dig Deeper", strconv.FormatBool(a.ShouldDig)))
		if a.NextApplicableLevel != "" {
			lines = append(lines, r.field("Next Applicable Level", derive.Capitalize(a.NextApplicableLevel)))
		}
		if a.Reason != "" {
			lines = append(lines, r.field("Reason", a.Reason))
		}
		r.emit(strings.Join(lines, "\n"))
	}
}

func (r *bodyRenderer) field(label, value string) string {
	return r.styles.Label.Render(label+": ") + r.styles.Body.Render(value)
}

func (r *bodyRenderer) chips(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, r.styles.Chip.Render(v))
	}
	return strings.Join(out, " ")
}

func (r *bodyRenderer) vertical(v taxrecord.Vertical) {
	r.emit(r.styles.Section.Render("Vertical"))
	var lines []string
	lines = append(lines, r.field("Label", derive.HumanizeLabel(v.Label)))
	if v.Definition.Description != "" {
		lines = append(lines, r.wrap(r.styles.Body, v.Definition.Description, 4))
	}
	if len(v.TaxTypes) > 0 {
		lines = append(lines, r.styles.Group.Render("Tax Types"), r.chips(v.TaxTypes))
	}
	if len(v.TaxNames) > 0 {
		lines = append(lines, r.styles.Group.Render("Tax Names"), r.chips(v.TaxNames))
	}
	lines = append(lines, r.citations(v.Definition.Citations, r.view.Block(blockVertical).Citations)...)
	r.card(blockVertical, lines)
}

// card emits a block, highlighting it when focused, and records its offset.
func (r *bodyRenderer) card(id string, lines []string) {
	style := r.styles.Card
	if r.view.Focused() == id {
		style = r.styles.FocusedCard
	}
	r.offsets[id] = r.lines
	r.emit(style.Render(strings.Join(lines, "\n")))
}

func (r *bodyRenderer) provision(p taxrecord.Provision) {
	r.emit(r.styles.Section.Render("Provision"))
	r.rate(blockStandard, "Standard Rate", p.StandardRate, true, nil, "", "")
	if len(p.ReducedRates) > 0 {
		r.emit(r.styles.Group.Render(fmt.Sprintf("Reduced Rates (%d)", len(p.ReducedRates))))
		for i, rr := range p.ReducedRates {
			r.rate(reducedBlock(i), rr.Name, rr.Rate, false, rr.Conditions, rr.EffectiveStart, rr.EffectiveEnd)
		}
	}
	if len(p.Exemptions) > 0 {
		r.emit(r.styles.Group.Render(fmt.Sprintf("Exemptions (%d)", len(p.Exemptions))))
		for i, e := range p.Exemptions {
			r.exemption(exemptionBlock(i), e)
		}
	}
}

func (r *bodyRenderer) rate(id, title string, rate taxrecord.Rate, standard bool, conditions []string, start, end string) {
	state := r.view.Block(id)
	head := r.styles.Title.Render(title)
	if standard {
		head += " " + r.styles.Badge.Render("Standard")
	}
	lines := []string{head, r.styles.RateValue.Render(derive.RateValue(rate))}
	if rate.RateType != "" {
		lines = append(lines, r.styles.Muted.Render(derive.RateTypeLabel(rate.RateType)))
	}
	if eff := derive.EffectiveRange(start, end); eff != "" {
		lines = append(lines, r.field("Effective", eff))
	}
	lines = append(lines, r.appliesTo(rate.AppliesTo, state)...)
	lines = append(lines, r.conditions(conditions)...)
	lines = append(lines, r.citations(rate.Citations, state.Citations)...)
	r.card(id, lines)
}

func (r *bodyRenderer) exemption(id string, e taxrecord.Exemption) {
	state := r.view.Block(id)
	lines := []string{r.styles.Title.Render(e.Name)}
	if eff := derive.EffectiveRange(e.EffectiveStart, e.EffectiveEnd); eff != "" {
		lines = append(lines, r.field("Effective", eff))
	}
	lines = append(lines, r.appliesTo(e.AppliesTo, state)...)
	lines = append(lines, r.conditions(e.Conditions)...)
	lines = append(lines, r.citations(e.Citations, state.Citations)...)
	r.card(id, lines)
}

// appliesTo is the single dispatch over both applies_to shapes.
func (r *bodyRenderer) appliesTo(a taxrecord.AppliesTo, state BlockState) []string {
	if a.Empty() {
		return nil
	}
	lines := []string{r.styles.Group.Render("Applies To")}
	var hidden int
	switch a.Shape {
	case taxrecord.AppliesToFlat:
		var visible []string
		visible, hidden = derive.Truncate(a.Flat, state.AppliesTo, r.preview)
		for _, s := range visible {
			r.note(document.RoleAppliesTo, s)
			lines = append(lines, r.wrap(r.styles.Body, "• "+s, 6))
		}
	case taxrecord.AppliesToStructured:
		var visible []taxrecord.AppliesToItem
		visible, hidden = derive.Truncate(a.Items, state.AppliesTo, r.preview)
		for i, it := range visible {
			r.note(document.RoleAppliesTo, it.Item)
			lines = append(lines, r.wrap(r.styles.Bold, fmt.Sprintf("%d. %s", i+1, it.Item), 6))
			var sub []string
			sub = append(sub, r.conditions(it.Conditions)...)
			sub = append(sub, r.citations(it.Citations, state.Citations)...)
			if len(sub) > 0 {
				lines = append(lines, lipgloss.NewStyle().PaddingLeft(ui.NestedIndent).Render(strings.Join(sub, "\n")))
			}
		}
	}
	lines = append(lines, r.more(hidden, state.AppliesTo, len(a.Flat)+len(a.Items) > r.preview, "a", "applies-to")...)
	return lines
}

func (r *bodyRenderer) conditions(conditions []string) []string {
	if len(conditions) == 0 {
		return nil
	}
	lines := []string{r.styles.Group.Render("Conditions")}
	for _, c := range conditions {
		r.note(document.RoleCondition, c)
		lines = append(lines, r.wrap(r.styles.Body, "• "+c, 6))
	}
	return lines
}

func (r *bodyRenderer) citations(in []taxrecord.Citation, expanded bool) []string {
	cs := derive.Citations(in)
	if len(cs) == 0 {
		return nil
	}
	lines := []string{r.styles.Group.Render(fmt.Sprintf("Citations (%d)", len(cs)))}
	visible, hidden := derive.Truncate(cs, expanded, r.preview)
	for i, c := range visible {
		lines = append(lines, r.citation(i+1, c))
	}
	lines = append(lines, r.more(hidden, expanded, len(cs) > r.preview, "c", "citations")...)
	return lines
}

func (r *bodyRenderer) citation(n int, c taxrecord.Citation) string {
	head := r.styles.Bold.Render(fmt.Sprintf("%d.", n))
	if c.SourceID != "" {
		r.note(document.RoleCitationRef, c.SourceID)
		head += " " + r.styles.Chip.Render(derive.SourceRef(c))
	}
	lines := []string{head}
	if l := derive.LocatorLine(c); l != "" {
		lines = append(lines, r.wrap(r.styles.Muted, l, 8))
	}
	for _, q := range derive.QuoteLines(c, r.view.ShowNative) {
		if q.Locator != "" {
			lines = append(lines, r.wrap(r.styles.Muted, q.Locator, 8))
		}
		if q.Native {
			r.note(document.RoleQuote, q.Text)
			lines = append(lines, r.wrap(r.styles.Native, q.Text, 8))
		} else {
			r.note(document.RoleTranslation, q.Text)
			lines = append(lines, r.wrap(r.styles.Translation, q.Text, 8))
		}
	}
	return lipgloss.NewStyle().PaddingLeft(ui.NestedIndent).Render(strings.Join(lines, "\n"))
}

// more renders the expand affordance of a truncated list.
func (r *bodyRenderer) more(hidden int, expanded, long bool, keyName, what string) []string {
	switch {
	case hidden > 0:
		return []string{r.styles.Toggle.Render(fmt.Sprintf("… %d more (%s to show all %s)", hidden, keyName, what))}
	case expanded && long:
		return []string{r.styles.Toggle.Render(fmt.Sprintf("(%s to collapse %s)", keyName, what))}
	default:
		return nil
	}
}

func (r *bodyRenderer) sources(in []taxrecord.Source) {
	ss := derive.Sources(in)
	if len(ss) == 0 {
		return
	}
	r.emit(r.styles.Section.Render(fmt.Sprintf("Sources (%d)", len(ss))))
	for _, src := range ss {
		r.note(document.RoleSourceID, src.ID)
		head := r.styles.Badge.Render(src.ID)
		if src.Title != "" {
			head += " " + r.styles.Title.Render(src.Title)
		}
		lines := []string{head}
		if src.URL != "" {
			lines = append(lines, r.styles.Link.Render(src.URL))
		}
		if src.Snippet != "" {
			lines = append(lines, r.wrap(r.styles.Body, src.Snippet, 4))
		}
		grid := ui.NewFieldGrid()
		if src.Author != "" {
			grid.Add("Author", src.Author)
		}
		if src.Publisher != "" {
			grid.Add("Publisher", src.Publisher)
		}
		if src.PublishedAt != "" {
			grid.Add("Published", derive.FormatDate(src.PublishedAt))
		}
		if src.UpdatedAt != "" {
			grid.Add("Updated", derive.FormatDate(src.UpdatedAt))
		}
		if src.AccessedAt != "" {
			grid.Add("Accessed", derive.FormatDate(src.AccessedAt))
		}
		if src.Score != nil {
			grid.Add("Score", strconv.FormatFloat(*src.Score, 'f', -1, 64))
		}
		if g := grid.View(r.styles, r.width-4); g != "" {
			lines = append(lines, g)
		}
		r.emit(r.styles.Card.Render(strings.Join(lines, "\n")))
	}
}

package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"taxreview/internal/derive"
	"taxreview/internal/logging"
	"taxreview/internal/taxrecord"
)

// Build maps rec to a fully expanded document tree. generated is printed in
// the header; pass the export time.
func Build(rec *taxrecord.Record, generated time.Time) *Box {
	doc := &Box{Kind: KindDocument, Title: derive.Title(rec)}
	doc.Add(
		header(rec, generated),
		jurisdictionSection(rec),
		verticalSection(rec.Vertical),
		provisionSection(rec.Provision),
		sourcesSection(rec.Sources),
	)
	logging.RenderDebug("document built: %d top-level blocks for %q", len(doc.Children), doc.Title)
	return doc
}

func header(rec *taxrecord.Record, generated time.Time) *Box {
	h := derive.HeaderOf(rec)
	b := &Box{Kind: KindHeader}
	b.Add(
		text(StyleTitle, derive.Title(rec)),
		text(StyleSubtitle, h.Subtitle()),
	)
	if h.Confidence != "" {
		b.Add(field("Confidence Score", h.Confidence))
	}
	if rec.Evaluation != nil && strings.TrimSpace(rec.Evaluation.Reasoning) != "" {
		b.Add(field("Reasoning", rec.Evaluation.Reasoning))
	}
	if !generated.IsZero() {
		b.Add(text(StyleMuted, "Generated "+generated.UTC().Format("2006-01-02")))
	}
	return b
}

func jurisdictionSection(rec *taxrecord.Record) *Box {
	j := rec.Jurisdiction
	s := section("Jurisdiction", grid(
		field("Country Name", j.Name),
		field("Level", derive.Capitalize(j.LevelName)),
		field("ISO Code", j.CountryISO),
	))
	if len(j.ParentHierarchy) > 0 {
		s.Add(field("Parent Jurisdictions", strings.Join(j.ParentHierarchy, " › ")))
	}
	if j.FIPS != "" {
		s.Add(field("FIPS", j.FIPS))
	}
	if a := rec.Applicability; a != nil {
		g := group("Jurisdictional Applicability")
		if a.ApplicableAtCurrentLevel != "" {
			g.Add(field("Applicable at This Level", a.ApplicableAtCurrentLevel))
		}
		g.Add(field("Dig Deeper", strconv.FormatBool(a.ShouldDig)))
		if a.NextApplicableLevel != "" {
			g.Add(field("Next Applicable Level", derive.Capitalize(a.NextApplicableLevel)))
		}
		if a.Reason != "" {
			g.Add(field("Reason", a.Reason))
		}
		s.Add(g)
	}
	return s
}

func verticalSection(v taxrecord.Vertical) *Box {
	s := section("Vertical", field("Label", derive.HumanizeLabel(v.Label)))
	if v.Definition.Description != "" {
		s.Add(field("Definition", v.Definition.Description))
	}
	if len(v.TaxTypes) > 0 {
		s.Add(badges("Tax Types", v.TaxTypes))
	}
	if len(v.TaxNames) > 0 {
		s.Add(badges("Tax Names", v.TaxNames))
	}
	s.Add(citationsGroup("Citations", v.Definition.Citations))
	return s
}

func badges(title string, values []string) *Box {
	g := group(title)
	for _, v := range values {
		g.Add(badge(v))
	}
	return g
}

func provisionSection(p taxrecord.Provision) *Box {
	s := section("Provision", rateCard(p.StandardRate, "Standard Rate", true, nil, "", ""))
	if len(p.ReducedRates) > 0 {
		g := group(fmt.Sprintf("Reduced Rates (%d)", len(p.ReducedRates)))
		for _, r := range p.ReducedRates {
			g.Add(rateCard(r.Rate, r.Name, false, r.Conditions, r.EffectiveStart, r.EffectiveEnd))
		}
		s.Add(g)
	}
	if len(p.Exemptions) > 0 {
		g := group(fmt.Sprintf("Exemptions (%d)", len(p.Exemptions)))
		for _, e := range p.Exemptions {
			g.Add(exemptionCard(e))
		}
		s.Add(g)
	}
	return s
}

func rateCard(r taxrecord.Rate, title string, standard bool, conditions []string, start, end string) *Box {
	role := RoleRate
	if standard {
		role = RoleStandardRate
	}
	c := card(role, title, text(StyleRateValue, derive.RateValue(r)))
	if r.RateType != "" {
		c.Add(text(StyleMuted, derive.RateTypeLabel(r.RateType)))
	}
	if standard {
		c.Add(badge("Standard"))
	}
	if eff := derive.EffectiveRange(start, end); eff != "" {
		c.Add(field("Effective", eff))
	}
	c.Add(
		appliesTo(r.AppliesTo),
		conditionsGroup(conditions),
		citationsGroup("Citations", r.Citations),
	)
	return c
}

func exemptionCard(e taxrecord.Exemption) *Box {
	c := card(RoleExemption, e.Name)
	if eff := derive.EffectiveRange(e.EffectiveStart, e.EffectiveEnd); eff != "" {
		c.Add(field("Effective", eff))
	}
	c.Add(
		appliesTo(e.AppliesTo),
		conditionsGroup(e.Conditions),
		citationsGroup("Citations", e.Citations),
	)
	return c
}

// appliesTo is the single dispatch over both applies_to shapes.
func appliesTo(a taxrecord.AppliesTo) *Box {
	switch a.Shape {
	case taxrecord.AppliesToFlat:
		l := list(false)
		for _, s := range a.Flat {
			l.Add(item(RoleAppliesTo, s))
		}
		return group("Applies To", l)
	case taxrecord.AppliesToStructured:
		l := list(true)
		for _, it := range a.Items {
			l.Add(item(RoleAppliesTo, it.Item,
				conditionsGroup(it.Conditions),
				citationsGroup("Citations", it.Citations),
			))
		}
		return group("Applies To", l)
	default:
		return nil
	}
}

func conditionsGroup(conditions []string) *Box {
	if len(conditions) == 0 {
		return nil
	}
	l := list(false)
	for _, c := range conditions {
		l.Add(item(RoleCondition, c))
	}
	return group("Conditions", l)
}

func citationsGroup(title string, citations []taxrecord.Citation) *Box {
	cs := derive.Citations(citations)
	if len(cs) == 0 {
		return nil
	}
	g := group(fmt.Sprintf("%s (%d)", title, len(cs)))
	for i, c := range cs {
		g.Add(citationCard(i+1, c))
	}
	return g
}

func citationCard(n int, c taxrecord.Citation) *Box {
	b := card(RoleCitation, fmt.Sprintf("%d.", n))
	if c.SourceID != "" {
		b.Add(&Box{Kind: KindText, Style: StyleMuted, Role: RoleCitationRef, Text: c.SourceID})
	}
	if h := derive.LocatorLine(c); h != "" {
		b.Add(text(StyleBold, h))
	}
	for _, q := range derive.QuoteLines(c, true) {
		if q.Locator != "" {
			b.Add(text(StyleBold, q.Locator))
		}
		if q.Native {
			b.Add(&Box{Kind: KindQuote, Style: StyleNative, Role: RoleQuote, Text: q.Text})
		} else {
			b.Add(&Box{Kind: KindQuote, Style: StyleTranslate, Role: RoleTranslation, Text: q.Text})
		}
	}
	return b
}

func sourcesSection(sources []taxrecord.Source) *Box {
	ss := derive.Sources(sources)
	if len(ss) == 0 {
		return nil
	}
	s := section(fmt.Sprintf("Sources (%d)", len(ss)))
	for _, src := range ss {
		s.Add(sourceCard(src))
	}
	return s
}

func sourceCard(src taxrecord.Source) *Box {
	c := card(RoleSource, src.Title)
	c.Add(&Box{Kind: KindBadge, Role: RoleSourceID, Text: src.ID})
	if src.URL != "" {
		c.Add(text(StyleLink, src.URL))
	}
	if src.Snippet != "" {
		c.Add(text(StyleNormal, src.Snippet))
	}
	var meta []*Box
	if src.Author != "" {
		meta = append(meta, field("Author", src.Author))
	}
	if src.Publisher != "" {
		meta = append(meta, field("Publisher", src.Publisher))
	}
	if src.PublishedAt != "" {
		meta = append(meta, field("Published", derive.FormatDate(src.PublishedAt)))
	}
	if src.UpdatedAt != "" {
		meta = append(meta, field("Updated", derive.FormatDate(src.UpdatedAt)))
	}
	if src.AccessedAt != "" {
		meta = append(meta, field("Accessed", derive.FormatDate(src.AccessedAt)))
	}
	if src.Score != nil {
		meta = append(meta, field("Score", strconv.FormatFloat(*src.Score, 'f', -1, 64)))
	}
	if len(meta) > 0 {
		c.Add(grid(meta...))
	}
	return c
}

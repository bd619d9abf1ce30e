package taxrecord

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Normalize converts a decoded JSON document into the canonical Record.
//
// The input is the generic value produced by encoding/json with UseNumber.
// Normalization is permissive: nested fields of an unexpected type are
// treated as absent rather than rejected, and the two historical encodings
// of citations and applies_to are folded into one shape here so that
// renderers never see them.
func Normalize(doc map[string]any) *Record {
	rec := &Record{
		Title:        text(doc["title"]),
		Jurisdiction: normalizeJurisdiction(object(doc["jurisdiction"])),
		Vertical:     normalizeVertical(object(doc["vertical"])),
		Provision:    normalizeProvision(object(doc["provision"])),
		Sources:      normalizeSources(list(doc["sources"])),
	}
	if ev := object(doc["evaluation"]); ev != nil {
		rec.Evaluation = &Evaluation{
			ConfidenceScore: text(ev["confidence_score"]),
			Reasoning:       text(ev["reasoning"]),
		}
	}
	if ja := object(doc["jurisdictional_applicability"]); ja != nil {
		rec.Applicability = &Applicability{
			ApplicableAtCurrentLevel: text(ja["applicable_at_current_jurisdiction_level"]),
			ShouldDig:                boolean(ja["should_dig"]),
			NextApplicableLevel:      text(ja["next_applicable_level"]),
			Reason:                   text(ja["reason"]),
		}
	}
	return rec
}

func normalizeJurisdiction(m map[string]any) Jurisdiction {
	return Jurisdiction{
		Name:            text(m["jurisdiction_name"]),
		LevelName:       text(m["level_name"]),
		LevelNumber:     integer(m["level_number"]),
		CountryISO:      text(m["country_iso"]),
		ParentHierarchy: texts(m["parent_jurisdiction_hierarchy"]),
		FIPS:            text(m["jurisdiction_fips"]),
	}
}

func normalizeVertical(m map[string]any) Vertical {
	def := object(m["definition"])
	v := Vertical{
		Label:    text(m["label"]),
		TaxTypes: texts(m["tax_types_at_this_level"]),
		TaxNames: texts(m["tax_names"]),
	}
	if def != nil {
		v.Definition = Definition{
			Description: text(def["description"]),
			Citations:   normalizeCitations(def["citations"]),
		}
	} else if s, ok := m["definition"].(string); ok {
		v.Definition.Description = s
	}
	return v
}

func normalizeProvision(m map[string]any) Provision {
	p := Provision{
		StandardRate: normalizeRate(object(m["standard_rate"])),
	}
	for _, raw := range list(m["reduced_rates"]) {
		rm := object(raw)
		if rm == nil {
			continue
		}
		p.ReducedRates = append(p.ReducedRates, ReducedRate{
			Rate:           normalizeRate(rm),
			Name:           text(rm["name"]),
			Conditions:     texts(rm["conditions"]),
			EffectiveStart: text(rm["effective_start_date"]),
			EffectiveEnd:   text(rm["effective_end_date"]),
		})
	}
	for _, raw := range list(m["exemptions"]) {
		em := object(raw)
		if em == nil {
			continue
		}
		p.Exemptions = append(p.Exemptions, Exemption{
			Name:           text(em["name"]),
			AppliesTo:      normalizeAppliesTo(em["applies_to"]),
			Conditions:     texts(em["conditions"]),
			EffectiveStart: text(em["effective_start_date"]),
			EffectiveEnd:   text(em["effective_end_date"]),
			Citations:      normalizeCitations(em["citations"]),
		})
	}
	return p
}

func normalizeRate(m map[string]any) Rate {
	return Rate{
		RateType:  text(m["rate_type"]),
		Amount:    Amount(text(m["amount"])),
		Unit:      text(m["unit"]),
		AppliesTo: normalizeAppliesTo(m["applies_to"]),
		Citations: normalizeCitations(m["citations"]),
	}
}

// normalizeAppliesTo decides between the flat and structured encodings.
// An array of only strings is flat; any object element makes the whole
// list structured, with bare strings promoted to items.
func normalizeAppliesTo(v any) AppliesTo {
	if s, ok := v.(string); ok {
		if strings.TrimSpace(s) == "" {
			return AppliesTo{}
		}
		return FlatAppliesTo(s)
	}
	entries := list(v)
	if len(entries) == 0 {
		return AppliesTo{}
	}

	structured := false
	for _, e := range entries {
		if _, ok := e.(map[string]any); ok {
			structured = true
			break
		}
	}

	if !structured {
		flat := make([]string, 0, len(entries))
		for _, e := range entries {
			if e == nil {
				continue
			}
			flat = append(flat, text(e))
		}
		return FlatAppliesTo(flat...)
	}

	items := make([]AppliesToItem, 0, len(entries))
	for _, e := range entries {
		switch ev := e.(type) {
		case map[string]any:
			items = append(items, AppliesToItem{
				Item:       text(ev["item"]),
				Conditions: texts(ev["conditions"]),
				Citations:  normalizeCitations(ev["citations"]),
			})
		case nil:
		default:
			items = append(items, AppliesToItem{Item: text(ev)})
		}
	}
	return StructuredAppliesTo(items...)
}

func normalizeCitations(v any) []Citation {
	entries := list(v)
	if len(entries) == 0 {
		return nil
	}
	out := make([]Citation, 0, len(entries))
	for _, e := range entries {
		m := object(e)
		if m == nil {
			continue
		}
		out = append(out, normalizeCitation(m))
	}
	return out
}

// normalizeCitation folds both citation encodings into Citation. The
// source_id/pinpoint encoding wins when both sets of keys are present.
func normalizeCitation(m map[string]any) Citation {
	_, hasSourceID := m["source_id"]
	_, hasPinpoint := m["pinpoint"]
	if hasSourceID || hasPinpoint {
		return Citation{
			Shape:           CitationSourcePinpoint,
			SourceID:        firstNonEmpty(text(m["source_id"]), text(m["docId"])),
			Locator:         firstNonEmpty(text(m["pinpoint"]), text(m["path"])),
			Quote:           text(m["quote"]),
			TranslatedQuote: text(m["translated_quote"]),
		}
	}
	return Citation{
		Shape:             CitationDocPath,
		SourceID:          text(m["docId"]),
		Locator:           text(m["path"]),
		TranslatedLocator: text(m["translated_path"]),
		Quote:             text(m["quote"]),
		TranslatedQuote:   text(m["translated_quote"]),
	}
}

func normalizeSources(entries []any) []Source {
	if len(entries) == 0 {
		return nil
	}
	out := make([]Source, 0, len(entries))
	for _, e := range entries {
		m := object(e)
		if m == nil {
			continue
		}
		out = append(out, Source{
			ID:          text(m["id"]),
			DocID:       text(m["docId"]),
			URL:         text(m["url"]),
			Title:       text(m["title"]),
			Snippet:     text(m["snippet"]),
			Author:      text(m["author"]),
			Publisher:   text(m["publisher"]),
			PublishedAt: text(m["publishedAt"]),
			UpdatedAt:   text(m["updatedAt"]),
			AccessedAt:  text(m["accessedAt"]),
			Score:       number(m["score"]),
		})
	}
	return out
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

// text renders scalars as strings. Objects, arrays and null become "".
func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// texts accepts a list of scalars or a single string.
func texts(v any) []string {
	if s, ok := v.(string); ok {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	entries := list(v)
	if len(entries) == 0 {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		out = append(out, text(e))
	}
	return out
}

func integer(v any) int {
	f := number(v)
	if f == nil {
		return 0
	}
	return int(*f)
}

func number(v any) *float64 {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case float64:
		return &t
	case string:
		s = strings.TrimSpace(t)
	default:
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func boolean(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package derive holds the display rules shared by the interactive view and
// the exported document. Every function is pure; both renderers call these
// and nothing else so that labels, ordering and dedup never drift apart.
package derive

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"taxreview/internal/taxrecord"
)

// DefaultUnit is used when a rate carries no unit.
const DefaultUnit = "%"

// DefaultTaxType is shown when a vertical lists no tax types.
const DefaultTaxType = "VAT"

// HumanizeLabel replaces every underscore with a single space. Nothing else
// changes, case included.
func HumanizeLabel(label string) string {
	return strings.ReplaceAll(label, "_", " ")
}

// DashedLabel replaces every underscore with a dash, for file names.
func DashedLabel(label string) string {
	return strings.ReplaceAll(label, "_", "-")
}

// Capitalize upper-cases the first letter of every word and leaves the rest
// untouched.
func Capitalize(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// FormatRate concatenates amount and unit, defaulting the unit to "%".
// Numeric amounts are printed in their shortest form ("20.0" becomes "20").
func FormatRate(amount taxrecord.Amount, unit string) string {
	a := strings.TrimSpace(string(amount))
	if a == "" {
		return "n/a"
	}
	if f, ok := amount.Float(); ok {
		a = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if strings.TrimSpace(unit) == "" {
		unit = DefaultUnit
	}
	return a + unit
}

// RateValue formats the amount and unit of r.
func RateValue(r taxrecord.Rate) string {
	return FormatRate(r.Amount, r.Unit)
}

// RateTypeLabel lower-cases rate_type and capitalizes it for display.
func RateTypeLabel(rateType string) string {
	return Capitalize(strings.ToLower(HumanizeLabel(rateType)))
}

// PrimaryTaxType is the first tax type of v, or DefaultTaxType.
func PrimaryTaxType(v taxrecord.Vertical) string {
	for _, t := range v.TaxTypes {
		if strings.TrimSpace(t) != "" {
			return t
		}
	}
	return DefaultTaxType
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders a timestamp as YYYY-MM-DD when it parses and returns
// the input unchanged otherwise.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// EffectiveRange renders "start – end", using "…" for a missing bound.
// It returns "" when both bounds are empty.
func EffectiveRange(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return ""
	}
	if start == "" {
		start = "…"
	}
	if end == "" {
		end = "…"
	}
	return FormatDate(start) + " – " + FormatDate(end)
}

// Header is the computed header line shared by both renderers.
type Header struct {
	Jurisdiction string
	TaxType      string
	Vertical     string // humanized, not capitalized
	Confidence   string
}

// HeaderOf derives the header fields of rec.
func HeaderOf(rec *taxrecord.Record) Header {
	h := Header{
		Jurisdiction: rec.Jurisdiction.Name,
		TaxType:      PrimaryTaxType(rec.Vertical),
		Vertical:     HumanizeLabel(rec.Vertical.Label),
	}
	if rec.Evaluation != nil {
		h.Confidence = rec.Evaluation.ConfidenceScore
	}
	return h
}

// Subtitle is the "tax type • Vertical" line shown under the jurisdiction.
func (h Header) Subtitle() string {
	v := Capitalize(h.Vertical)
	switch {
	case h.TaxType == "":
		return v
	case v == "":
		return h.TaxType
	}
	return h.TaxType + " • " + v
}

// Title is the document title: the record title, or a derived one.
func Title(rec *taxrecord.Record) string {
	if t := strings.TrimSpace(rec.Title); t != "" {
		return t
	}
	h := HeaderOf(rec)
	return h.Jurisdiction + " " + h.TaxType
}

// Package taxrecord defines the canonical in-memory shape of a tax
// determination record. Values are built once by Normalize and are treated
// as read-only by every consumer; a new upload replaces the whole Record.
package taxrecord

import (
	"strconv"
	"strings"
)

// Record is the root aggregate of one tax determination.
type Record struct {
	Title         string
	Jurisdiction  Jurisdiction
	Vertical      Vertical
	Provision     Provision
	Evaluation    *Evaluation
	Applicability *Applicability
	Sources       []Source
}

// Jurisdiction identifies where the determination applies.
type Jurisdiction struct {
	Name            string
	LevelName       string
	LevelNumber     int
	CountryISO      string
	ParentHierarchy []string
	FIPS            string
}

// Vertical is the tax category evaluated at the jurisdiction level.
type Vertical struct {
	// Label is an enum-like, underscore-delimited string such as
	// "value_added_tax". It is stored verbatim and humanized at render time.
	Label      string
	Definition Definition
	TaxTypes   []string
	TaxNames   []string
}

// Definition describes a vertical with its supporting citations.
type Definition struct {
	Description string
	Citations   []Citation
}

// Provision groups the rates and exemptions of a vertical.
type Provision struct {
	StandardRate Rate
	ReducedRates []ReducedRate
	Exemptions   []Exemption
}

// Rate is the common shape of standard and reduced rates.
type Rate struct {
	RateType  string
	Amount    Amount
	Unit      string
	AppliesTo AppliesTo
	Citations []Citation
}

// ReducedRate is a named rate that applies under conditions.
type ReducedRate struct {
	Rate
	Name           string
	Conditions     []string
	EffectiveStart string
	EffectiveEnd   string
}

// Exemption removes a scope from taxation.
type Exemption struct {
	Name           string
	AppliesTo      AppliesTo
	Conditions     []string
	EffectiveStart string
	EffectiveEnd   string
	Citations      []Citation
}

// Amount is the textual form of a rate amount as it appeared in the source
// document. The empty Amount means the field was absent.
type Amount string

// Float returns the numeric value of the amount, if it parses.
func (a Amount) Float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(a)), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// AppliesToShape discriminates the two historical applies_to encodings.
type AppliesToShape int

const (
	// AppliesToNone means the field was absent or empty.
	AppliesToNone AppliesToShape = iota
	// AppliesToFlat is the legacy string[] encoding.
	AppliesToFlat
	// AppliesToStructured is the {item, conditions, citations}[] encoding.
	AppliesToStructured
)

func (s AppliesToShape) String() string {
	switch s {
	case AppliesToFlat:
		return "flat"
	case AppliesToStructured:
		return "structured"
	default:
		return "none"
	}
}

// AppliesTo is a discriminated union over the flat and structured
// applies_to encodings. Exactly one of Flat or Items is populated,
// according to Shape.
type AppliesTo struct {
	Shape AppliesToShape
	Flat  []string
	Items []AppliesToItem
}

// Len returns the number of entries regardless of shape.
func (a AppliesTo) Len() int {
	switch a.Shape {
	case AppliesToFlat:
		return len(a.Flat)
	case AppliesToStructured:
		return len(a.Items)
	default:
		return 0
	}
}

// Empty reports whether there is nothing to render.
func (a AppliesTo) Empty() bool { return a.Len() == 0 }

// FlatAppliesTo builds a legacy-shaped AppliesTo.
func FlatAppliesTo(items ...string) AppliesTo {
	if len(items) == 0 {
		return AppliesTo{}
	}
	return AppliesTo{Shape: AppliesToFlat, Flat: items}
}

// StructuredAppliesTo builds a structured AppliesTo.
func StructuredAppliesTo(items ...AppliesToItem) AppliesTo {
	if len(items) == 0 {
		return AppliesTo{}
	}
	return AppliesTo{Shape: AppliesToStructured, Items: items}
}

// AppliesToItem is one entry of the structured applies_to encoding.
type AppliesToItem struct {
	Item       string
	Conditions []string
	Citations  []Citation
}

// CitationShape records which source encoding a citation came from.
type CitationShape int

const (
	// CitationDocPath is the {docId, path, translated_path, quote,
	// translated_quote} encoding.
	CitationDocPath CitationShape = iota
	// CitationSourcePinpoint is the {source_id, pinpoint, quote,
	// translated_quote} encoding.
	CitationSourcePinpoint
)

// Citation is a pointer into a source document. Both source encodings are
// folded into the same fields: SourceID holds docId or source_id, Locator
// holds path or pinpoint.
type Citation struct {
	Shape             CitationShape
	SourceID          string
	Locator           string
	TranslatedLocator string
	Quote             string
	TranslatedQuote   string
}

// HasTranslation reports whether a translated quote is available.
func (c Citation) HasTranslation() bool {
	return strings.TrimSpace(c.TranslatedQuote) != ""
}

// Source is a bibliographic reference.
type Source struct {
	ID          string
	DocID       string
	URL         string
	Title       string
	Snippet     string
	Author      string
	Publisher   string
	PublishedAt string
	UpdatedAt   string
	AccessedAt  string
	Score       *float64
}

// Evaluation is the producer's self-assessment of the record.
type Evaluation struct {
	ConfidenceScore string
	Reasoning       string
}

// Applicability records whether the determination should continue at
// another jurisdiction level.
type Applicability struct {
	ApplicableAtCurrentLevel string
	ShouldDig                bool
	NextApplicableLevel      string
	Reason                   string
}

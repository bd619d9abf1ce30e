package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taxreview/internal/taxrecord"
)

func TestHumanizeLabel(t *testing.T) {
	tests := map[string]string{
		"goods_and_services": "goods and services",
		"value_added_tax":    "value added tax",
		"Mixed_Case__x":      "Mixed Case  x",
		"no-underscores":     "no-underscores",
		"":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, HumanizeLabel(in), in)
	}
}

func TestCapitalizeAndDashedLabel(t *testing.T) {
	assert.Equal(t, "Value Added Tax", Capitalize(HumanizeLabel("value_added_tax")))
	assert.Equal(t, "GST Rate", Capitalize(HumanizeLabel("GST_rate")))
	assert.Equal(t, "value-added-tax", DashedLabel("value_added_tax"))
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		amount taxrecord.Amount
		unit   string
		want   string
	}{
		{"7", "", "7%"},
		{"20", "%", "20%"},
		{"20.0", "%", "20%"},
		{"5.5", "   ", "5.5%"},
		{"0.25", "USD/L", "0.25USD/L"},
		{"varies", "", "varies%"},
		{"", "%", "n/a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRate(tt.amount, tt.unit), string(tt.amount))
	}
}

func TestRateTypeLabel(t *testing.T) {
	assert.Equal(t, "Standard", RateTypeLabel("STANDARD"))
	assert.Equal(t, "Super Reduced", RateTypeLabel("SUPER_REDUCED"))
	assert.Equal(t, "", RateTypeLabel(""))
}

func TestPrimaryTaxType(t *testing.T) {
	assert.Equal(t, "GST", PrimaryTaxType(taxrecord.Vertical{TaxTypes: []string{"GST", "PST"}}))
	assert.Equal(t, "VAT", PrimaryTaxType(taxrecord.Vertical{}))
	assert.Equal(t, "VAT", PrimaryTaxType(taxrecord.Vertical{TaxTypes: []string{" "}}))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-03-05", FormatDate("2024-03-05T10:11:12Z"))
	assert.Equal(t, "2024-03-05", FormatDate("2024-03-05"))
	assert.Equal(t, "2024-03-05", FormatDate("2024-03-05 23:59:00"))
	assert.Equal(t, "last spring", FormatDate("last spring"))
}

func TestEffectiveRange(t *testing.T) {
	assert.Equal(t, "", EffectiveRange("", " "))
	assert.Equal(t, "2020-01-01 – …", EffectiveRange("2020-01-01", ""))
	assert.Equal(t, "… – 2021-12-31", EffectiveRange("", "2021-12-31T00:00:00Z"))
}

func TestHeaderOf(t *testing.T) {
	rec := &taxrecord.Record{
		Jurisdiction: taxrecord.Jurisdiction{Name: "France"},
		Vertical:     taxrecord.Vertical{Label: "value_added_tax"},
		Evaluation:   &taxrecord.Evaluation{ConfidenceScore: "0.9"},
	}
	assert.Equal(t, Header{
		Jurisdiction: "France", TaxType: "VAT",
		Vertical: "value added tax", Confidence: "0.9",
	}, HeaderOf(rec))
	assert.Equal(t, "VAT • Value Added Tax", HeaderOf(rec).Subtitle())
	assert.Equal(t, "France VAT", Title(rec))
	assert.Equal(t, "VAT", Header{TaxType: "VAT"}.Subtitle())

	rec.Title = "Custom"
	assert.Equal(t, "Custom", Title(rec))
}

func TestCitationHeading(t *testing.T) {
	a := taxrecord.Citation{Shape: taxrecord.CitationDocPath, SourceID: "c1", Locator: "Art. 1", TranslatedLocator: "Article 1"}
	b := taxrecord.Citation{Shape: taxrecord.CitationSourcePinpoint, SourceID: "c2", Locator: "§4"}
	c := taxrecord.Citation{Quote: "orphan"}

	assert.Equal(t, "Source: c1 • Article 1", CitationHeading(a))
	assert.Equal(t, "Source: c2 • Pinpoint: §4", CitationHeading(b))
	assert.Equal(t, "", CitationHeading(c))
}

func TestQuoteLines(t *testing.T) {
	translated := taxrecord.Citation{
		Shape: taxrecord.CitationDocPath, Locator: "Art. 1", TranslatedLocator: "Article 1",
		Quote: "texte", TranslatedQuote: "text",
	}
	assert.Equal(t, []QuoteLine{
		{Text: "text"},
		{Text: "texte", Native: true, Locator: "Art. 1"},
	}, QuoteLines(translated, true))
	assert.Equal(t, []QuoteLine{{Text: "text"}}, QuoteLines(translated, false))

	untranslated := taxrecord.Citation{Quote: "only original"}
	assert.Equal(t, []QuoteLine{{Text: "only original", Native: true}}, QuoteLines(untranslated, false))
	assert.Nil(t, QuoteLines(taxrecord.Citation{}, true))
}

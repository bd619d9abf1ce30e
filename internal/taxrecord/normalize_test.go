package taxrecord

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	require.NoError(t, dec.Decode(&doc))
	return doc
}

func TestNormalize_France(t *testing.T) {
	doc := decode(t, `{
		"title": "France VAT",
		"jurisdiction": {"jurisdiction_name": "France", "level_name": "country", "level_number": 1, "country_iso": "FR",
			"parent_jurisdiction_hierarchy": ["Europe"]},
		"vertical": {"label": "value_added_tax", "definition": {"description": "Tax on value added",
			"citations": [{"docId": "c1", "path": "Art. 256", "quote": "Sont soumises"}]},
			"tax_types_at_this_level": ["VAT"], "tax_names": ["TVA"]},
		"provision": {"standard_rate": {"rate_type": "STANDARD", "amount": 20, "unit": "%",
			"applies_to": ["goods", "services"], "citations": []},
			"reduced_rates": [], "exemptions": []},
		"evaluation": {"confidence_score": 0.92, "reasoning": "Clear"},
		"sources": []
	}`)

	rec := Normalize(doc)

	assert.Equal(t, "France VAT", rec.Title)
	assert.Equal(t, "France", rec.Jurisdiction.Name)
	assert.Equal(t, 1, rec.Jurisdiction.LevelNumber)
	assert.Equal(t, []string{"Europe"}, rec.Jurisdiction.ParentHierarchy)
	assert.Equal(t, "value_added_tax", rec.Vertical.Label)
	assert.Equal(t, "Tax on value added", rec.Vertical.Definition.Description)
	require.Len(t, rec.Vertical.Definition.Citations, 1)
	assert.Equal(t, CitationDocPath, rec.Vertical.Definition.Citations[0].Shape)
	assert.Equal(t, Amount("20"), rec.Provision.StandardRate.Amount)
	assert.Equal(t, AppliesToFlat, rec.Provision.StandardRate.AppliesTo.Shape)
	assert.Equal(t, []string{"goods", "services"}, rec.Provision.StandardRate.AppliesTo.Flat)
	assert.Empty(t, rec.Provision.StandardRate.Citations)
	assert.Empty(t, rec.Provision.ReducedRates)
	assert.Empty(t, rec.Sources)
	require.NotNil(t, rec.Evaluation)
	assert.Equal(t, "0.92", rec.Evaluation.ConfidenceScore)
	assert.Nil(t, rec.Applicability)
}

func TestNormalize_StructuredAppliesTo(t *testing.T) {
	doc := decode(t, `{
		"jurisdiction": {}, "vertical": {},
		"provision": {"standard_rate": {"amount": "5.5", "applies_to": [
			{"item": "books", "conditions": ["printed"], "citations": [{"source_id": "c2", "pinpoint": "§3", "quote": "livres"}]},
			"newspapers"
		]}}
	}`)

	at := Normalize(doc).Provision.StandardRate.AppliesTo

	require.Equal(t, AppliesToStructured, at.Shape)
	require.Len(t, at.Items, 2)
	assert.Equal(t, "books", at.Items[0].Item)
	assert.Equal(t, []string{"printed"}, at.Items[0].Conditions)
	require.Len(t, at.Items[0].Citations, 1)
	assert.Equal(t, CitationSourcePinpoint, at.Items[0].Citations[0].Shape)
	assert.Equal(t, "c2", at.Items[0].Citations[0].SourceID)
	assert.Equal(t, "§3", at.Items[0].Citations[0].Locator)
	assert.Equal(t, AppliesToItem{Item: "newspapers"}, at.Items[1])
	assert.Nil(t, at.Flat)
}

func TestNormalizeAppliesTo(t *testing.T) {
	tests := []struct {
		name  string
		input any
		shape AppliesToShape
		len   int
	}{
		{"absent", nil, AppliesToNone, 0},
		{"empty list", []any{}, AppliesToNone, 0},
		{"bare string", "all goods", AppliesToFlat, 1},
		{"blank string", "  ", AppliesToNone, 0},
		{"strings", []any{"a", "b", "c"}, AppliesToFlat, 3},
		{"object", []any{map[string]any{"item": "x"}}, AppliesToStructured, 1},
		{"wrong type", json.Number("3"), AppliesToNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeAppliesTo(tt.input)
			assert.Equal(t, tt.shape, got.Shape)
			assert.Equal(t, tt.len, got.Len())
		})
	}
}

func TestNormalizeCitation_Variants(t *testing.T) {
	a := normalizeCitation(map[string]any{
		"docId": "c1", "path": "Art. 1", "translated_path": "Article 1",
		"quote": "texte", "translated_quote": "text",
	})
	assert.Equal(t, Citation{
		Shape: CitationDocPath, SourceID: "c1", Locator: "Art. 1",
		TranslatedLocator: "Article 1", Quote: "texte", TranslatedQuote: "text",
	}, a)
	assert.True(t, a.HasTranslation())

	b := normalizeCitation(map[string]any{"source_id": "c4", "pinpoint": "p. 7", "quote": "q"})
	assert.Equal(t, Citation{Shape: CitationSourcePinpoint, SourceID: "c4", Locator: "p. 7", Quote: "q"}, b)
	assert.False(t, b.HasTranslation())

	mixed := normalizeCitation(map[string]any{"pinpoint": "p. 2", "docId": "c9", "quote": "q"})
	assert.Equal(t, CitationSourcePinpoint, mixed.Shape)
	assert.Equal(t, "c9", mixed.SourceID)
}

func TestNormalize_LenientNestedTypes(t *testing.T) {
	doc := decode(t, `{
		"jurisdiction": {"jurisdiction_name": 42, "level_number": "x"},
		"vertical": {"label": ["bad"], "definition": "plain text", "tax_types_at_this_level": "VAT"},
		"provision": {"standard_rate": "oops", "reduced_rates": [1, {"name": "R"}], "exemptions": {}},
		"sources": [{"id": "c1", "score": null}, {"id": "c2", "score": 0.5}, "junk"]
	}`)

	rec := Normalize(doc)

	assert.Equal(t, "42", rec.Jurisdiction.Name)
	assert.Zero(t, rec.Jurisdiction.LevelNumber)
	assert.Empty(t, rec.Vertical.Label)
	assert.Equal(t, "plain text", rec.Vertical.Definition.Description)
	assert.Equal(t, []string{"VAT"}, rec.Vertical.TaxTypes)
	assert.Equal(t, Rate{}, rec.Provision.StandardRate)
	require.Len(t, rec.Provision.ReducedRates, 1)
	assert.Equal(t, "R", rec.Provision.ReducedRates[0].Name)
	assert.Empty(t, rec.Provision.Exemptions)
	require.Len(t, rec.Sources, 2)
	assert.Nil(t, rec.Sources[0].Score)
	require.NotNil(t, rec.Sources[1].Score)
	assert.InDelta(t, 0.5, *rec.Sources[1].Score, 1e-9)
}

func TestNormalize_Applicability(t *testing.T) {
	doc := decode(t, `{"jurisdiction": {}, "vertical": {}, "provision": {},
		"jurisdictional_applicability": {"applicable_at_current_jurisdiction_level": "yes",
			"should_dig": true, "next_applicable_level": "state", "reason": "local surtax"}}`)

	rec := Normalize(doc)

	require.NotNil(t, rec.Applicability)
	assert.Equal(t, Applicability{
		ApplicableAtCurrentLevel: "yes", ShouldDig: true,
		NextApplicableLevel: "state", Reason: "local surtax",
	}, *rec.Applicability)
}

func TestAmountFloat(t *testing.T) {
	f, ok := Amount("7.5").Float()
	assert.True(t, ok)
	assert.InDelta(t, 7.5, f, 1e-9)

	_, ok = Amount("").Float()
	assert.False(t, ok)
}

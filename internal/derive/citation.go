package derive

import (
	"strings"

	"taxreview/internal/taxrecord"
)

// SourceRef is the "Source: id" chip of a citation, or "".
func SourceRef(c taxrecord.Citation) string {
	if c.SourceID == "" {
		return ""
	}
	return "Source: " + c.SourceID
}

// LocatorLine renders where in the source a citation points. Pinpoints are
// prefixed; document paths prefer their translated form.
func LocatorLine(c taxrecord.Citation) string {
	if c.Shape == taxrecord.CitationSourcePinpoint {
		if c.Locator == "" {
			return ""
		}
		return "Pinpoint: " + c.Locator
	}
	if t := strings.TrimSpace(c.TranslatedLocator); t != "" {
		return t
	}
	return c.Locator
}

// CitationHeading joins the source chip and locator line.
func CitationHeading(c taxrecord.Citation) string {
	parts := make([]string, 0, 2)
	if s := SourceRef(c); s != "" {
		parts = append(parts, s)
	}
	if l := LocatorLine(c); l != "" {
		parts = append(parts, l)
	}
	return strings.Join(parts, " • ")
}

// QuoteLine is one quote paragraph of a citation card.
type QuoteLine struct {
	Text string
	// Native marks the original-language quote.
	Native bool
	// Locator is the untranslated path shown over the native quote when the
	// card also shows a translated path.
	Locator string
}

// QuoteLines lists the quote paragraphs of c in display order: the
// translation first, then the original when showNative is set. A citation
// without a translation always shows its original quote.
func QuoteLines(c taxrecord.Citation, showNative bool) []QuoteLine {
	if !c.HasTranslation() {
		if strings.TrimSpace(c.Quote) == "" {
			return nil
		}
		return []QuoteLine{{Text: c.Quote, Native: true}}
	}
	lines := []QuoteLine{{Text: c.TranslatedQuote}}
	if showNative && strings.TrimSpace(c.Quote) != "" {
		nl := QuoteLine{Text: c.Quote, Native: true}
		if c.Shape == taxrecord.CitationDocPath && c.TranslatedLocator != "" && c.Locator != c.TranslatedLocator {
			nl.Locator = c.Locator
		}
		lines = append(lines, nl)
	}
	return lines
}

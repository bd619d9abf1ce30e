package derive

import (
	"slices"
	"strings"

	"taxreview/internal/taxrecord"
)

// CompareIdentifiers orders document and source identifiers. The first run
// of decimal digits is compared as an integer (0 when there is none), then
// the whole identifier is compared lexicographically. "c2" sorts before
// "c10", and "c1" before "d1".
func CompareIdentifiers(a, b string) int {
	if c := compareDigits(leadingNumber(a), leadingNumber(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// leadingNumber returns the first digit run of id with leading zeros
// removed, or "0".
func leadingNumber(id string) string {
	start := strings.IndexFunc(id, isDigit)
	if start < 0 {
		return "0"
	}
	end := start
	for end < len(id) && isDigit(rune(id[end])) {
		end++
	}
	n := strings.TrimLeft(id[start:end], "0")
	if n == "" {
		return "0"
	}
	return n
}

// compareDigits compares two zero-trimmed decimal strings of any length.
func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// citationKey is the dedup identity of a citation: the source id when one is
// present, otherwise the exact quote. Two pinpoints into the same source
// collapse to the first.
func citationKey(c taxrecord.Citation) string {
	if c.SourceID != "" {
		return "src\x00" + c.SourceID
	}
	return "quote\x00" + c.Quote
}

// DedupCitations keeps the first citation for each citationKey, preserving
// input order. The input slice is not modified.
func DedupCitations(in []taxrecord.Citation) []taxrecord.Citation {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]taxrecord.Citation, 0, len(in))
	for _, c := range in {
		k := citationKey(c)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// CompareCitations orders by source identifier, then locator.
func CompareCitations(a, b taxrecord.Citation) int {
	if c := CompareIdentifiers(a.SourceID, b.SourceID); c != 0 {
		return c
	}
	return strings.Compare(a.Locator, b.Locator)
}

// SortCitations returns a stably sorted copy.
func SortCitations(in []taxrecord.Citation) []taxrecord.Citation {
	out := slices.Clone(in)
	slices.SortStableFunc(out, CompareCitations)
	return out
}

// Citations is the canonical pipeline: dedup first, then sort.
func Citations(in []taxrecord.Citation) []taxrecord.Citation {
	return SortCitations(DedupCitations(in))
}

// DedupSources keeps the first source for each id, preserving input order.
func DedupSources(in []taxrecord.Source) []taxrecord.Source {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]taxrecord.Source, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// compareSourceIDs compares source ids by their first digit run only (0 when
// there is none). Ids with equal numbers compare equal.
func compareSourceIDs(a, b string) int {
	return compareDigits(leadingNumber(a), leadingNumber(b))
}

// SortSources returns a copy stably sorted by compareSourceIDs on id, so ids
// with the same number keep their input order.
func SortSources(in []taxrecord.Source) []taxrecord.Source {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b taxrecord.Source) int {
		return compareSourceIDs(a.ID, b.ID)
	})
	return out
}

// Sources is the canonical pipeline: dedup by id, then sort.
func Sources(in []taxrecord.Source) []taxrecord.Source {
	return SortSources(DedupSources(in))
}

// DefaultPreview is the number of items shown for a collapsed list.
const DefaultPreview = 3

// Truncate returns the visible prefix of items and the number hidden. When
// expanded is true, or the list fits, everything is visible. A preview of
// zero or less means DefaultPreview.
func Truncate[T any](items []T, expanded bool, preview int) ([]T, int) {
	if preview <= 0 {
		preview = DefaultPreview
	}
	if expanded || len(items) <= preview {
		return items, 0
	}
	return items[:preview], len(items) - preview
}

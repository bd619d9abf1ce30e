// Package document builds the static, fully expanded representation of a
// record as a tree of typed boxes. Pagination belongs to the engine that
// consumes the tree (see internal/pdf); this package only decides content,
// order and styling intent.
package document

import "strings"

// Kind is the layout type of a box.
type Kind string

const (
	KindDocument Kind = "document"
	KindHeader   Kind = "header"  // title block at the top of the first page
	KindSection  Kind = "section" // top-level block with a title
	KindGroup    Kind = "group"   // titled sub-block inside a section
	KindCard     Kind = "card"    // bordered block kept on one page when possible
	KindText     Kind = "text"
	KindField    Kind = "field" // label over value
	KindGrid     Kind = "grid"  // fields laid out side by side
	KindList     Kind = "list"
	KindItem     Kind = "item"
	KindQuote    Kind = "quote"
	KindBadge    Kind = "badge"
)

// Style is a styling intent. Engines map it to fonts and colors.
type Style string

const (
	StyleNormal    Style = ""
	StyleTitle     Style = "title"
	StyleSubtitle  Style = "subtitle"
	StyleMuted     Style = "muted"
	StyleBold      Style = "bold"
	StyleRateValue Style = "rate-value"
	StyleLink      Style = "link"
	StyleNative    Style = "native"      // original-language quote
	StyleTranslate Style = "translation" // translated quote
)

// Role tags boxes by meaning so consumers can find them without knowing the
// layout. Engines also use it as a CSS class.
type Role string

const (
	RoleNone         Role = ""
	RoleCitation     Role = "citation"
	RoleCitationRef  Role = "citation-ref"
	RoleQuote        Role = "citation-quote"
	RoleTranslation  Role = "citation-translation"
	RoleAppliesTo    Role = "applies-to"
	RoleCondition    Role = "condition"
	RoleSource       Role = "source"
	RoleSourceID     Role = "source-id"
	RoleRate         Role = "rate"
	RoleExemption    Role = "exemption"
	RoleStandardRate Role = "standard-rate"
)

// Box is one node of the document tree.
type Box struct {
	Kind     Kind
	Style    Style
	Role     Role
	Title    string // section, group and card headings
	Label    string // field label
	Text     string
	Ordered  bool // lists only
	Children []*Box
}

// Add appends non-nil children and returns b.
func (b *Box) Add(children ...*Box) *Box {
	for _, c := range children {
		if c != nil {
			b.Children = append(b.Children, c)
		}
	}
	return b
}

// Walk visits b and its descendants depth-first in document order. Returning
// false from fn skips the children of that box.
func (b *Box) Walk(fn func(*Box) bool) {
	if b == nil || !fn(b) {
		return
	}
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

// Collect returns the Text of every box with the given role, in order.
func (b *Box) Collect(role Role) []string {
	var out []string
	b.Walk(func(x *Box) bool {
		if x.Role == role {
			out = append(out, x.Text)
		}
		return true
	})
	return out
}

// Find returns the first box matching fn, or nil.
func (b *Box) Find(fn func(*Box) bool) *Box {
	var found *Box
	b.Walk(func(x *Box) bool {
		if found != nil {
			return false
		}
		if fn(x) {
			found = x
			return false
		}
		return true
	})
	return found
}

// PlainText flattens the tree into indented lines. Used by the validate
// command and in tests.
func (b *Box) PlainText() string {
	var sb strings.Builder
	b.plain(&sb, 0)
	return sb.String()
}

func (b *Box) plain(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	line := ""
	switch {
	case b.Title != "":
		line = b.Title
	case b.Label != "":
		line = b.Label + ": " + b.Text
	case b.Text != "":
		line = b.Text
	}
	if b.Kind == KindItem && line != "" {
		line = "- " + line
	}
	next := depth
	if line != "" {
		sb.WriteString(indent)
		sb.WriteString(line)
		sb.WriteByte('\n')
		next = depth + 1
	}
	for _, c := range b.Children {
		c.plain(sb, next)
	}
}

func section(title string, children ...*Box) *Box {
	return (&Box{Kind: KindSection, Title: title}).Add(children...)
}

func group(title string, children ...*Box) *Box {
	return (&Box{Kind: KindGroup, Title: title}).Add(children...)
}

func card(role Role, title string, children ...*Box) *Box {
	return (&Box{Kind: KindCard, Role: role, Title: title}).Add(children...)
}

func text(style Style, s string) *Box {
	return &Box{Kind: KindText, Style: style, Text: s}
}

func field(label, value string) *Box {
	return &Box{Kind: KindField, Label: label, Text: value}
}

func grid(fields ...*Box) *Box {
	return (&Box{Kind: KindGrid}).Add(fields...)
}

func badge(s string) *Box {
	return &Box{Kind: KindBadge, Text: s}
}

func list(ordered bool, items ...*Box) *Box {
	return (&Box{Kind: KindList, Ordered: ordered}).Add(items...)
}

func item(role Role, s string, children ...*Box) *Box {
	return (&Box{Kind: KindItem, Role: role, Text: s}).Add(children...)
}

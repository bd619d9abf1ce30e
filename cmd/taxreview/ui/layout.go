// Package ui layout constants for consistent spacing and dimensions
package ui

const (
	// Viewport padding and margins
	ViewportHorizontalPadding = 4

	// Chrome above and below the scrolling body
	HeaderHeight    = 3
	StatusBarHeight = 1
	FooterHeight    = 1

	// Indentation inside the body
	ContentIndent = 2
	ListIndent    = 4
	NestedIndent  = 2

	// Overlays
	AlertMaxWidth = 72
	HelpMaxWidth  = 80

	// Responsive breakpoints
	MinimumTerminalWidth  = 60
	MinimumTerminalHeight = 16
	CompactModeWidth      = 100
)

// LayoutConfig provides computed layout dimensions based on terminal size
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
	IsCompact      bool
}

// NewLayoutConfig creates a layout configuration for the given terminal size
func NewLayoutConfig(width, height int) LayoutConfig {
	return LayoutConfig{
		TerminalWidth:  width,
		TerminalHeight: height,
		IsCompact:      width < CompactModeWidth,
	}
}

// ContentWidth returns the usable content width for the body viewport
func (l LayoutConfig) ContentWidth() int {
	return max(l.TerminalWidth-ViewportHorizontalPadding, 20)
}

// BodyHeight returns the viewport height left after header, status and footer
func (l LayoutConfig) BodyHeight() int {
	return max(l.TerminalHeight-HeaderHeight-StatusBarHeight-FooterHeight, 3)
}

// OverlayWidth clamps an overlay to the terminal and to maxWidth
func (l LayoutConfig) OverlayWidth(maxWidth int) int {
	return max(min(l.TerminalWidth-4, maxWidth), 20)
}

// TooSmall reports whether the terminal is below the supported minimum
func (l LayoutConfig) TooSmall() bool {
	return l.TerminalWidth < MinimumTerminalWidth || l.TerminalHeight < MinimumTerminalHeight
}

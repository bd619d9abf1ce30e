package config

// UIConfig configures the interactive review screen.
type UIConfig struct {
	Theme        string `yaml:"theme"`         // auto, light, dark
	PreviewItems int    `yaml:"preview_items"` // collapsed list prefix length
	ShowNative   bool   `yaml:"show_native"`   // initial native-quote toggle
}

// Preview returns PreviewItems clamped to the supported 2..3 range.
func (c UIConfig) Preview() int {
	switch {
	case c.PreviewItems <= 0:
		return 3
	case c.PreviewItems < 2:
		return 2
	case c.PreviewItems > 3:
		return 3
	default:
		return c.PreviewItems
	}
}

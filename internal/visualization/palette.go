package visualization

import (
	"fmt"
	"strings"

	viz "datalens/domain/visualization"
)

// DefaultPalette is used when a palette name is unknown
const DefaultPalette = "professional"

var palettes = []viz.Palette{
	{Name: "professional", Colors: []string{"#3B82F6", "#1E40AF", "#1E3A8A", "#1D4ED8"}},
	{Name: "vibrant", Colors: []string{"#EF4444", "#F59E0B", "#10B981", "#8B5CF6"}},
	{Name: "pastel", Colors: []string{"#FBBF24", "#F472B6", "#34D399", "#60A5FA"}},
	{Name: "monochrome", Colors: []string{"#374151", "#6B7280", "#9CA3AF", "#D1D5DB"}},
}

// Palettes returns every named color scheme
func Palettes() []viz.Palette {
	out := make([]viz.Palette, len(palettes))
	for i, p := range palettes {
		out[i] = viz.Palette{Name: p.Name, Colors: append([]string(nil), p.Colors...)}
	}
	return out
}

// LookupPalette finds a palette by name, case-insensitively, falling back
// to professional
func LookupPalette(name string) viz.Palette {
	for _, p := range palettes {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return viz.Palette{Name: p.Name, Colors: append([]string(nil), p.Colors...)}
		}
	}
	return LookupPalette(DefaultPalette)
}

// IsKnownPalette reports whether name matches a palette without falling back
func IsKnownPalette(name string) bool {
	for _, p := range palettes {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// Gradient renders the CSS gradient between the first two colors
func Gradient(p viz.Palette) string {
	if len(p.Colors) < 2 {
		return ""
	}
	return fmt.Sprintf("linear-gradient(135deg, %s, %s)", p.Colors[0], p.Colors[1])
}

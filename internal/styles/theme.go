package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines a complete color scheme for the application
type Theme struct {
	Name string
	Dark bool

	// Core colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Background colors
	BgSurface  lipgloss.Color
	BgElevated lipgloss.Color

	// Text colors
	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color
	TextInverse   lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Border lipgloss.Color

	// Sidebar selection
	Selected lipgloss.Color
}

var DarkTheme = Theme{
	Name: "dark",
	Dark: true,

	Primary:   lipgloss.Color("#818CF8"), // Indigo 400
	Secondary: lipgloss.Color("#22D3EE"), // Cyan 400
	Accent:    lipgloss.Color("#F472B6"), // Pink 400

	BgSurface:  lipgloss.Color("#141419"),
	BgElevated: lipgloss.Color("#1E1E2A"),

	TextPrimary:   lipgloss.Color("#F1F5F9"), // Slate 100
	TextSecondary: lipgloss.Color("#94A3B8"), // Slate 400
	TextMuted:     lipgloss.Color("#64748B"), // Slate 500
	TextInverse:   lipgloss.Color("#0B0B0F"),

	Success: lipgloss.Color("#34D399"), // Emerald 400
	Warning: lipgloss.Color("#FBBF24"), // Amber 400
	Error:   lipgloss.Color("#FB7185"), // Rose 400

	Border:   lipgloss.Color("#3F3F46"), // Zinc 700
	Selected: lipgloss.Color("#312E81"), // Indigo 900
}

var LightTheme = Theme{
	Name: "light",
	Dark: false,

	Primary:   lipgloss.Color("#4F46E5"), // Indigo 600
	Secondary: lipgloss.Color("#0891B2"), // Cyan 600
	Accent:    lipgloss.Color("#DB2777"), // Pink 600

	BgSurface:  lipgloss.Color("#FFFFFF"),
	BgElevated: lipgloss.Color("#F4F4F5"), // Zinc 100

	TextPrimary:   lipgloss.Color("#18181B"), // Zinc 900
	TextSecondary: lipgloss.Color("#52525B"), // Zinc 600
	TextMuted:     lipgloss.Color("#A1A1AA"), // Zinc 400
	TextInverse:   lipgloss.Color("#FFFFFF"),

	Success: lipgloss.Color("#10B981"), // Emerald 500
	Warning: lipgloss.Color("#D97706"), // Amber 600
	Error:   lipgloss.Color("#EF4444"), // Red 500

	Border:   lipgloss.Color("#D4D4D8"), // Zinc 300
	Selected: lipgloss.Color("#E0E7FF"), // Indigo 100
}

// CurrentTheme holds the active theme; change it through SetTheme
var CurrentTheme = DarkTheme

// SetTheme switches the palette and rebuilds every derived style.
func SetTheme(dark bool) {
	if dark {
		CurrentTheme = DarkTheme
	} else {
		CurrentTheme = LightTheme
	}
	build(CurrentTheme)
}

// GlamourStyle names the glamour standard style matching the theme.
func GlamourStyle() string {
	if CurrentTheme.Dark {
		return "dark"
	}
	return "light"
}

// DetectDark reports the terminal background, used when no preference is stored
func DetectDark() bool {
	return lipgloss.HasDarkBackground()
}

func init() {
	build(CurrentTheme)
}

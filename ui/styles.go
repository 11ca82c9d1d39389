package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines color scheme for the application
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Highlight  lipgloss.Color
}

// Styles contains all styled components
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Header lipgloss.Style
	Footer lipgloss.Style
	Banner lipgloss.Style
	Panel  lipgloss.Style

	TableHeader lipgloss.Style
	TableRow    lipgloss.Style
	Selected    lipgloss.Style
	TabActive   lipgloss.Style
	Tab         lipgloss.Style
}

// DarkTheme returns a dark color theme
func DarkTheme() Theme {
	return Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Secondary:  lipgloss.Color("#6366F1"), // Indigo
		Success:    lipgloss.Color("#10B981"), // Green
		Warning:    lipgloss.Color("#F59E0B"), // Amber
		Error:      lipgloss.Color("#EF4444"), // Red
		Foreground: lipgloss.Color("#F3F4F6"), // Gray-100
		Muted:      lipgloss.Color("#9CA3AF"), // Gray-400
		Border:     lipgloss.Color("#374151"), // Gray-700
		Highlight:  lipgloss.Color("#FCD34D"), // Yellow-300
	}
}

// LightTheme returns a light color theme
func LightTheme() Theme {
	return Theme{
		Primary:    lipgloss.Color("#7C3AED"),
		Secondary:  lipgloss.Color("#6366F1"),
		Success:    lipgloss.Color("#059669"),
		Warning:    lipgloss.Color("#D97706"),
		Error:      lipgloss.Color("#DC2626"),
		Foreground: lipgloss.Color("#111827"),
		Muted:      lipgloss.Color("#6B7280"),
		Border:     lipgloss.Color("#D1D5DB"),
		Highlight:  lipgloss.Color("#FDE047"),
	}
}

// HighContrastTheme returns a high contrast theme for accessibility
func HighContrastTheme() Theme {
	return Theme{
		Primary:    lipgloss.Color("#FFFFFF"),
		Secondary:  lipgloss.Color("#CCCCCC"),
		Success:    lipgloss.Color("#00FF00"),
		Warning:    lipgloss.Color("#FFFF00"),
		Error:      lipgloss.Color("#FF0000"),
		Foreground: lipgloss.Color("#FFFFFF"),
		Muted:      lipgloss.Color("#808080"),
		Border:     lipgloss.Color("#FFFFFF"),
		Highlight:  lipgloss.Color("#FFFF00"),
	}
}

// ThemeByName resolves a configured theme name; "auto" follows the terminal background
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	case "high-contrast":
		return HighContrastTheme()
	case "auto":
		if !lipgloss.HasDarkBackground() {
			return LightTheme()
		}
	}
	return DarkTheme()
}

// NewStyles creates styles based on a theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),
		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Secondary).
			Bold(true),
		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),
		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(theme.Error).
			Bold(true),

		Header: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.Border{Bottom: "─"}).
			BorderForeground(theme.Border),
		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1).
			Border(lipgloss.Border{Top: "─"}).
			BorderForeground(theme.Border),
		Banner: lipgloss.NewStyle().
			Padding(0, 1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		TableHeader: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),
		TableRow: lipgloss.NewStyle().
			Foreground(theme.Foreground),
		Selected: lipgloss.NewStyle().
			Foreground(theme.Highlight).
			Bold(true),
		TabActive: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Underline(true).
			Padding(0, 1),
		Tab: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),
	}
}

// PlainStyles returns unstyled components for --no-color
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title: plain, Subtitle: plain, Normal: plain, Bold: plain, Muted: plain,
		Success: plain, Warning: plain, Error: plain,
		Header: plain, Footer: plain, Banner: plain, Panel: plain,
		TableHeader: plain, TableRow: plain, Selected: plain,
		TabActive: plain.Padding(0, 1), Tab: plain.Padding(0, 1),
	}
}

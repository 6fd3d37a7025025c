package theme

import (
	"github.com/pterm/pterm"
)

// Theme defines the colour scheme and styling for the application
type Theme struct {
	// terminal log keys
	Info  *pterm.Style
	Muted *pterm.Style

	// StyledLogger highlights
	Counts   *pterm.Style
	Route    *pterm.Style
	Upstream *pterm.Style
	Signal   *pterm.Style
	Good     *pterm.Style
}

// Default returns the default application theme
func Default() *Theme {
	return &Theme{
		Info:  pterm.NewStyle(pterm.FgGreen),
		Muted: pterm.NewStyle(pterm.FgGray),

		Counts:   pterm.NewStyle(pterm.FgLightYellow),
		Route:    pterm.NewStyle(pterm.FgCyan),
		Upstream: pterm.NewStyle(pterm.FgLightBlue, pterm.Underscore),
		Signal:   pterm.NewStyle(pterm.FgLightMagenta, pterm.Bold),
		Good:     pterm.NewStyle(pterm.FgGreen, pterm.Bold),
	}
}

// Dark returns a dark theme variant
func Dark() *Theme {
	return &Theme{
		Info:  pterm.NewStyle(pterm.FgLightGreen),
		Muted: pterm.NewStyle(pterm.FgGray),

		Counts:   pterm.NewStyle(pterm.FgYellow),
		Route:    pterm.NewStyle(pterm.FgLightCyan),
		Upstream: pterm.NewStyle(pterm.FgLightBlue, pterm.Underscore),
		Signal:   pterm.NewStyle(pterm.FgMagenta, pterm.Bold),
		Good:     pterm.NewStyle(pterm.FgLightGreen, pterm.Bold),
	}
}

// Light returns a light theme variant
func Light() *Theme {
	return &Theme{
		Info:  pterm.NewStyle(pterm.FgBlack),
		Muted: pterm.NewStyle(pterm.FgGray),

		Counts:   pterm.NewStyle(pterm.FgBlue),
		Route:    pterm.NewStyle(pterm.FgBlue),
		Upstream: pterm.NewStyle(pterm.FgBlue, pterm.Underscore),
		Signal:   pterm.NewStyle(pterm.FgMagenta, pterm.Bold),
		Good:     pterm.NewStyle(pterm.FgGreen, pterm.Bold),
	}
}

// GetTheme returns the appropriate theme based on preference
func GetTheme(name string) *Theme {
	switch name {
	case "dark":
		return Dark()
	case "light":
		return Light()
	default:
		return Default()
	}
}

// ColourSplash Colours for the splash screen
func ColourSplash(message ...any) string {
	return pterm.LightCyan(message...)
}

// ColourVersion Colours Version numbers, used for the splash screen
func ColourVersion(message ...any) string {
	return pterm.LightYellow(message...)
}

// StyleUrl Colours for URLs and hyperlinks
func StyleUrl(message ...any) string {
	return pterm.LightBlue(message...)
}

// Hyperlink creates a hyperlink in the terminal
func Hyperlink(uri string, text string) string {
	return "\x1b]8;;" + uri + "\x07" + text + "\x1b]8;;\x07" + "\u001b[0m"
}

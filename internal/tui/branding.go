package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pairwatch/internal/config"
	"github.com/pders01/pairwatch/internal/storage"
)

const AppName = "pairwatch"

var LogoLines = []string{
	"█▀▀▄ ▄▀▀▄ ▀█▀ █▀▀▄   █   █ ▄▀▀▄ ▀█▀ ▄▀▀▀ █  █",
	"█▄▄▀ █▄▄█  █  █▄▄▀   █ █ █ █▄▄█  █  █    █▀▀█",
	"█    █  █ ▄█▄ █  █    ▀▄▀▄▀ █  █  █  ▀▄▄▄ █  █",
}

const CompactLogo = `pairwatch ›`

var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#FFA86B"),
	lipgloss.Color("#4ECDC4"),
}

var (
	PrimaryColor   = lipgloss.Color("#FF6B6B")
	SecondaryColor = lipgloss.Color("#4ECDC4")
	AccentColor    = lipgloss.Color("#95E1D3")

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")

	ErrorColor   = lipgloss.Color("#F87171")
	SuccessColor = lipgloss.Color("#4ADE80")
	WarnColor    = lipgloss.Color("#FFE66D")
)

// Styles derived from the palette. Rebuilt by ApplyColors.
var (
	LogoStyle          lipgloss.Style
	TitleStyle         lipgloss.Style
	HeaderStyle        lipgloss.Style
	HelpStyle          lipgloss.Style
	MutedStyle         lipgloss.Style
	SeparatorStyle     lipgloss.Style
	SelectedTitleStyle lipgloss.Style
	ItemTitleStyle     lipgloss.Style
	TagStyle           lipgloss.Style
	ActiveTagStyle     lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
)

func init() {
	buildStyles()
}

// ApplyColors swaps the palette for the configured one. Empty values keep
// the built-in color.
func ApplyColors(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&BackgroundColor, c.Background)
	set(&SurfaceColor, c.Surface)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	HelpStyle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	MutedStyle = lipgloss.NewStyle().Foreground(MutedColor)
	SeparatorStyle = lipgloss.NewStyle().Foreground(MutedColor)

	ItemTitleStyle = lipgloss.NewStyle().Foreground(TextColor).Bold(true)
	SelectedTitleStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(AccentColor).
		Bold(true)

	TagStyle = lipgloss.NewStyle().Foreground(SecondaryColor)
	ActiveTagStyle = lipgloss.NewStyle().Foreground(BackgroundColor).Background(SecondaryColor)

	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(WarnColor)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
}

// StatusColor maps a watch status to its badge color.
func StatusColor(s storage.Status) lipgloss.Color {
	switch s {
	case storage.StatusWatching:
		return WarnColor
	case storage.StatusWatched:
		return SuccessColor
	case storage.StatusDropped:
		return ErrorColor
	default:
		return SecondaryColor
	}
}

func GetWelcomeMessage() string {
	return GetCompactBanner("Nothing here yet. Run `pairwatch import <file>` or `pairwatch import --feed <url>`")
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	return lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, coloredLines...),
		"",
		HelpStyle.Render(message),
	)
}

// Banner renders the logo with a version tagline, as printed by `pairwatch version`.
func Banner(version string) string {
	lines := append(append([]string{}, LogoLines...), "")

	tagline := "shared watchlist"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline = fmt.Sprintf("shared watchlist %s", version)
	}
	lines = append(lines, tagline)

	var colored []string
	for i, line := range lines {
		if line == "" {
			colored = append(colored, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		colored = append(colored, style.Render(line))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Center, colored...))

	return lipgloss.NewStyle().Width(70).Align(lipgloss.Center).Render(box)
}

func ShowBanner(version string) {
	fmt.Println(Banner(version))
}

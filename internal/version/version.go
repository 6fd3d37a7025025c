package version

import (
	"fmt"
	"log"
	"strings"

	"github.com/thushan/relay/theme"
)

var (
	Name        = "relay"
	ShortName   = "relay"
	Authors     = "Thushan Fernando"
	Description = "A tiny reverse-proxy front door"
	Version     = "v0.0.1"
	Commit      = "none"
	Date        = "nowish"
	User        = "local"
)

const (
	GithubHomeText  = "github.com/thushan/relay"
	GithubHomeUri   = "https://github.com/thushan/relay"
	GithubLatestUri = "https://github.com/thushan/relay/releases/latest"
)

// Info is the payload served by the version endpoint
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Commit      string `json:"commit"`
	Date        string `json:"date"`
	User        string `json:"user"`
}

func GetInfo() Info {
	return Info{
		Name:        Name,
		Version:     Version,
		Description: Description,
		Commit:      Commit,
		Date:        Date,
		User:        User,
	}
}

func PrintVersionInfo(extendedInfo bool, vlog *log.Logger) {
	githubUri := theme.Hyperlink(GithubHomeUri, GithubHomeText)
	latestUri := theme.Hyperlink(GithubLatestUri, Version)

	var b strings.Builder

	b.WriteString(theme.ColourSplash(`
╔──────────────────────────────────────────╗
│   ┬─┐┌─┐┬  ┌─┐┬ ┬                        │
│   ├┬┘├┤ │  ├─┤└┬┘   ──▶ ──▶ ──▶          │
│   ┴└─└─┘┴─┘┴ ┴ ┴                         │` + "\n"))

	b.WriteString(theme.ColourSplash("│ "))
	b.WriteString(theme.StyleUrl(githubUri))
	b.WriteString(fmt.Sprintf("%*s", 2, ""))
	b.WriteString(theme.ColourVersion(latestUri))
	b.WriteString(fmt.Sprintf("%*s", max(1, 15-len(Version)), ""))
	b.WriteString(theme.ColourSplash("│\n"))
	b.WriteString(theme.ColourSplash("╚──────────────────────────────────────────╝"))

	if extendedInfo {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(" Commit: %s\n", Commit))
		b.WriteString(fmt.Sprintf("  Built: %s\n", Date))
		b.WriteString(fmt.Sprintf("  Using: %s\n", User))
	}

	vlog.Println(b.String())
}

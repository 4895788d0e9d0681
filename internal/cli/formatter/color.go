package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// CertStatusPill returns a colored indicator for a certification status.
func CertStatusPill(status domain.CertificationStatus) string {
	switch status {
	case domain.CertDraft:
		return StyleBlue.Render("○ DRAFT")
	case domain.CertSubmitted:
		return StyleYellow.Render("◐ SUBMITTED")
	case domain.CertApproved:
		return StyleGreen.Render("● APPROVED")
	case domain.CertRejected:
		return StyleRed.Render("✖ REJECTED")
	case domain.CertVoid:
		return StyleDim.Render("⊘ VOID")
	default:
		return StyleDim.Render(string(status))
	}
}

// VersionBadge marks locked versions with a padlock.
func VersionBadge(t domain.VersionType) string {
	if t.Locked() {
		return StylePurple.Render("■ " + string(t))
	}
	return StyleBlue.Render(string(t))
}

// VarianceIndicator returns a colored variance band such as "▲ OVER".
func VarianceIndicator(status domain.VarianceStatus) string {
	switch status {
	case domain.VarianceOver:
		return StyleRed.Render("▲ OVER")
	case domain.VarianceUnder:
		return StyleYellow.Render("▼ UNDER")
	case domain.VarianceOnTrack:
		return StyleGreen.Render("● ON TRACK")
	default:
		return StyleDim.Render(string(status))
	}
}

// ProjectStatusPill returns a colored indicator for project status.
func ProjectStatusPill(status domain.ProjectStatus) string {
	switch status {
	case domain.ProjectActive:
		return StyleGreen.Render("● Active")
	case domain.ProjectArchived:
		return StyleDim.Render("✖ Archived")
	default:
		return StyleDim.Render(string(status))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}

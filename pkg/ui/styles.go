package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/showroom/pkg/verify"
)

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
)

// Adaptive color palette for light and dark terminals. Light mode colors
// tuned for WCAG AA compliance (contrast ratio >= 4.5:1).
var (
	ColorBg          = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	// Score band badge backgrounds
	ColorScoreCompleteBg = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
	ColorScorePartialBg  = lipgloss.AdaptiveColor{Light: "#FFE8CC", Dark: "#3D2A1A"}
	ColorScoreCriticalBg = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}

	// Verification badge backgrounds
	ColorVerifyOkBg      = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
	ColorVerifyWarnBg    = lipgloss.AdaptiveColor{Light: "#FFF3CD", Dark: "#3D3D1A"}
	ColorVerifyFailBg    = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}
	ColorVerifyNeutralBg = lipgloss.AdaptiveColor{Light: "#E2E3E5", Dark: "#2A2A3D"}
)

// Panel styles for the split layout.
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight)

	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)
)

// RenderScoreBadge returns a styled completeness score badge like " 87".
// Band boundaries follow the quick filter: 100 complete, below 60 critical.
func RenderScoreBadge(score int) string {
	var fg, bg lipgloss.AdaptiveColor
	switch {
	case score >= 100:
		fg, bg = ColorSuccess, ColorScoreCompleteBg
	case score >= 60:
		fg, bg = ColorWarning, ColorScorePartialBg
	default:
		fg, bg = ColorDanger, ColorScoreCriticalBg
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Bold(true).
		Render(fmt.Sprintf("%3d", score))
}

// RenderVerifyBadge returns a styled badge for a verification status.
func RenderVerifyBadge(status verify.Status) string {
	var fg, bg lipgloss.AdaptiveColor
	switch status {
	case verify.StatusMatched:
		fg, bg = ColorSuccess, ColorVerifyOkBg
	case verify.StatusPartialMatch:
		fg, bg = ColorWarning, ColorVerifyWarnBg
	case verify.StatusNoMatch:
		fg, bg = ColorDanger, ColorVerifyFailBg
	case verify.StatusUnverifiable:
		fg, bg = ColorWarning, ColorVerifyNeutralBg
	case verify.StatusValidating, verify.StatusTyping:
		fg, bg = ColorInfo, ColorVerifyNeutralBg
	default:
		fg, bg = ColorMuted, ColorVerifyNeutralBg
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Padding(0, 1).
		Render(status.String())
}

// RenderQueueBadge returns the pending-save indicator for the status bar.
// Empty when nothing is queued.
func RenderQueueBadge(depth int) string {
	if depth <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorInfo).
		Bold(true).
		Render(fmt.Sprintf("⇡%d", depth))
}

// RenderScoreBar renders a mini horizontal bar for a 0-100 score.
func RenderScoreBar(score, width int, t Theme) string {
	if width <= 0 {
		return ""
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	filled := score * width / 100
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return t.Renderer.NewStyle().Foreground(t.ScoreColor(score)).Render(bar)
}

// RenderDivider renders a horizontal divider line.
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}

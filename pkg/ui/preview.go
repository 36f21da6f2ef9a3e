package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/showroom/pkg/export"
)

// ReportView renders the completeness report inside a scrollable viewport.
type ReportView struct {
	viewport viewport.Model
	renderer *glamour.TermRenderer
	theme    Theme
	raw      string
}

// NewReportView creates a report view sized to the terminal.
func NewReportView(width, height int, theme Theme) ReportView {
	wrap := width - 4
	if wrap < 40 {
		wrap = 40
	}
	if wrap > 100 {
		wrap = 100
	}

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)

	vp := viewport.New(width, height)
	return ReportView{
		viewport: vp,
		renderer: renderer,
		theme:    theme,
	}
}

// SetSummary renders the summary as markdown into the viewport.
func (v *ReportView) SetSummary(s export.Summary) {
	v.raw = export.GenerateMarkdown(s, time.Now())

	rendered := v.raw
	if v.renderer != nil {
		if out, err := v.renderer.Render(v.raw); err == nil {
			rendered = out
		}
	}
	v.viewport.SetContent(rendered)
	v.viewport.GotoTop()
}

// Markdown returns the un-rendered report, for clipboard export.
func (v ReportView) Markdown() string { return v.raw }

// SetSize resizes the viewport.
func (v *ReportView) SetSize(width, height int) {
	v.viewport.Width = width
	v.viewport.Height = height
}

// Update forwards scroll keys to the viewport.
func (v ReportView) Update(msg tea.Msg) (ReportView, tea.Cmd) {
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the report pane.
func (v ReportView) View() string {
	return v.viewport.View()
}

package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RowDelegate renders catalog rows in the list.
type RowDelegate struct {
	Theme Theme
}

func (d RowDelegate) Height() int {
	return 1
}

func (d RowDelegate) Spacing() int {
	return 0
}

func (d RowDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Render lays out one row:
// [sel] [pick] [score-badge] [bar] [sku] [title...] [brand] [saving]
func (d RowDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(RowItem)
	if !ok {
		return
	}

	t := d.Theme
	width := m.Width()
	if width <= 0 {
		width = 80
	}
	// Reduce width by 1 to prevent terminal wrapping on the exact edge
	width = width - 1

	isSelected := index == m.Index()

	scoreBadge := RenderScoreBadge(i.Score)
	scoreBadgeWidth := lipgloss.Width(scoreBadge)

	var rightParts []string
	rightWidth := 0
	if i.Saving {
		saving := t.InfoText.Render("saving…")
		rightParts = append(rightParts, saving)
		rightWidth += lipgloss.Width(saving) + 1
	}
	if width > 80 {
		brand := truncateRunesHelper(i.Record.Brand(), 18, "…")
		if brand != "" {
			rightParts = append(rightParts, t.SecondaryText.Render(fmt.Sprintf("%18s", brand)))
			rightWidth += 19
		}
	}

	var barStr string
	if width > 60 {
		barStr = RenderScoreBar(i.Score, 8, t)
	}

	sku := i.Record.SKU()
	skuWidth := lipgloss.Width(sku)
	if skuWidth > 20 {
		sku = truncateRunesHelper(sku, 20, "…")
		skuWidth = 20
	}

	// selector(2) + pick(2) + badge + space + bar + space + sku + space
	leftFixedWidth := 2 + 2 + scoreBadgeWidth + 1 + skuWidth + 1
	if barStr != "" {
		leftFixedWidth += lipgloss.Width(barStr) + 1
	}

	titleWidth := width - leftFixedWidth - rightWidth - 2
	if titleWidth < 5 {
		titleWidth = 5
	}
	title := truncateRunesHelper(i.Title(), titleWidth, "…")
	if cur := lipgloss.Width(title); cur < titleWidth {
		title = title + strings.Repeat(" ", titleWidth-cur)
	}

	var leftSide strings.Builder
	if isSelected {
		leftSide.WriteString(t.PrimaryBold.Render("▸ "))
	} else {
		leftSide.WriteString("  ")
	}
	if i.Picked {
		leftSide.WriteString(t.PrimaryBold.Render("● "))
	} else {
		leftSide.WriteString("  ")
	}

	leftSide.WriteString(scoreBadge)
	leftSide.WriteString(" ")
	if barStr != "" {
		leftSide.WriteString(barStr)
		leftSide.WriteString(" ")
	}

	skuStyle := t.SecondaryText
	if isSelected {
		skuStyle = skuStyle.Bold(true)
	}
	leftSide.WriteString(skuStyle.Render(sku))
	leftSide.WriteString(" ")

	titleStyle := t.Renderer.NewStyle()
	if isSelected {
		titleStyle = titleStyle.Foreground(t.Primary).Bold(true)
	} else {
		titleStyle = titleStyle.Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#E8E8E8"})
	}
	leftSide.WriteString(titleStyle.Render(title))

	rightSide := strings.Join(rightParts, " ")

	leftLen := lipgloss.Width(leftSide.String())
	rightLen := lipgloss.Width(rightSide)
	padding := width - leftLen - rightLen
	if padding < 0 {
		padding = 0
	}

	row := leftSide.String() + strings.Repeat(" ", padding) + rightSide

	rowStyle := t.Renderer.NewStyle().Width(width).MaxWidth(width)
	if isSelected {
		row = rowStyle.Background(t.Highlight).Render(row)
	} else {
		row = rowStyle.Render(row)
	}

	fmt.Fprint(w, row)
}

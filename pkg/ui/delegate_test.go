package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/list"
)

func TestRowDelegateRender(t *testing.T) {
	d := RowDelegate{Theme: TestTheme()}
	l := list.New([]list.Item{sampleItem()}, d, 100, 10)

	var sb strings.Builder
	d.Render(&sb, l, 0, sampleItem())
	row := sb.String()

	for _, want := range []string{"Belfast Sink", "SR-sinks-0007", "80"} {
		if !strings.Contains(row, want) {
			t.Errorf("rendered row missing %q:\n%s", want, row)
		}
	}
}

func TestRowDelegateRenderSaving(t *testing.T) {
	item := sampleItem()
	item.Saving = true

	d := RowDelegate{Theme: TestTheme()}
	l := list.New([]list.Item{item}, d, 100, 10)

	var sb strings.Builder
	d.Render(&sb, l, 0, item)
	if !strings.Contains(sb.String(), "saving…") {
		t.Error("saving indicator missing")
	}
}

func TestRowDelegateIgnoresForeignItems(t *testing.T) {
	d := RowDelegate{Theme: TestTheme()}
	l := list.New(nil, d, 80, 10)

	var sb strings.Builder
	d.Render(&sb, l, 0, nil)
	if sb.Len() != 0 {
		t.Errorf("rendered %q for a non-row item", sb.String())
	}
}

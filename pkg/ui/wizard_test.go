package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewCreateWizardStartsIncomplete(t *testing.T) {
	w := NewCreateWizard(TestTheme(), 80)
	if w.Done() || w.Aborted() {
		t.Error("fresh wizard already finished")
	}
	if got := w.Values(); len(got) != 0 {
		t.Errorf("fresh wizard carries values: %v", got)
	}
}

func TestNextRowIDSkipsExistingKeys(t *testing.T) {
	eng, _ := startedEngine(t)

	if id := nextRowID(eng); id != "4" {
		t.Errorf("next row id = %s, want 4 after rows 1-3", id)
	}
}

func TestCreateWizardOpensAndCancels(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, keyRunes("n"))
	if m.focus != focusCreate || m.wizard == nil {
		t.Fatal("n did not open the create wizard")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.focus != focusList || m.wizard != nil {
		t.Error("esc did not cancel the create wizard")
	}
}

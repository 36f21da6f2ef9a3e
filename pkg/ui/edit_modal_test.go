package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/verify"
)

func modalSchema() fieldmap.Schema {
	return fieldmap.Schema{
		Collection: model.CollectionSinks,
		Required:   []string{model.FieldTitle, model.FieldBrand},
		Optional:   []string{model.FieldSpecSheetURL},
	}
}

func modalRecord() model.Record {
	return model.Record{
		model.FieldTitle: "Belfast Sink",
		model.FieldBrand: "Shaws",
	}
}

func newTestModal(t *testing.T) EditModal {
	t.Helper()
	return NewEditModal("7", modalRecord(), modalSchema(), TestTheme())
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModalFieldsFollowSchemaOrder(t *testing.T) {
	m := newTestModal(t)

	want := []string{model.FieldTitle, model.FieldBrand, model.FieldSpecSheetURL}
	if len(m.fields) != len(want) {
		t.Fatalf("modal has %d fields, want %d", len(m.fields), len(want))
	}
	for i, key := range want {
		if m.fields[i].Key != key {
			t.Errorf("field[%d] = %s, want %s", i, m.fields[i].Key, key)
		}
	}
	if m.urlIdx != 2 {
		t.Errorf("urlIdx = %d, want 2", m.urlIdx)
	}
}

func TestModalFallbackFieldsWhenSchemaEmpty(t *testing.T) {
	m := NewEditModal("7", modalRecord(), fieldmap.Schema{Collection: model.CollectionSinks}, TestTheme())
	if len(m.fields) == 0 {
		t.Fatal("modal has no fields for schema without scoring lists")
	}
}

func TestModalTypingMarksDirty(t *testing.T) {
	m := newTestModal(t)
	if m.Dirty() {
		t.Fatal("fresh modal is dirty")
	}

	m, _ = m.Update(keyRunes("!"))
	if !m.Dirty() {
		t.Error("modal not dirty after typing")
	}
	if got := m.Values()[model.FieldTitle]; got != "Belfast Sink!" {
		t.Errorf("title value = %q", got)
	}
}

func TestModalURLEventsDriveVerification(t *testing.T) {
	m := newTestModal(t)

	// Tab past title and brand onto the spec-sheet field.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})

	m, _ = m.Update(keyRunes("h"))
	ev, ok := m.ConsumeURLEvent()
	if !ok || ev.Kind != URLTyped || ev.Text != "h" {
		t.Fatalf("typed event = %+v (ok=%v)", ev, ok)
	}

	// Event is consumed exactly once.
	if _, ok := m.ConsumeURLEvent(); ok {
		t.Error("url event not cleared after consume")
	}

	// Leaving the field produces a blur event.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	ev, ok = m.ConsumeURLEvent()
	if !ok || ev.Kind != URLBlurred || ev.Text != "h" {
		t.Errorf("blur event = %+v (ok=%v)", ev, ok)
	}
}

func TestModalTypingOtherFieldsEmitsNoURLEvent(t *testing.T) {
	m := newTestModal(t)
	m, _ = m.Update(keyRunes("x"))
	if _, ok := m.ConsumeURLEvent(); ok {
		t.Error("editing the title produced a url event")
	}
}

func TestModalSaveAndCancelFlags(t *testing.T) {
	m := newTestModal(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.IsSaveRequested() {
		t.Error("ctrl+s did not request save")
	}

	m = newTestModal(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !m.IsCancelRequested() {
		t.Error("esc did not request cancel")
	}
}

func TestModalSetValuesRebasesDirty(t *testing.T) {
	m := newTestModal(t)
	m, _ = m.Update(keyRunes("!"))
	if !m.Dirty() {
		t.Fatal("expected dirty modal")
	}

	m.SetValues(model.Record{
		model.FieldTitle: "Butler Sink",
		model.FieldBrand: "Shaws",
	})
	if m.Dirty() {
		t.Error("modal still dirty after server repaint")
	}
	if got := m.Values()[model.FieldTitle]; got != "Butler Sink" {
		t.Errorf("title after repaint = %q", got)
	}
}

func TestModalViewShowsVerifyBadge(t *testing.T) {
	m := newTestModal(t)
	m.SetSize(100, 40)
	m.SetVerifyState(verify.State{Status: verify.StatusMatched, Message: "spec sheet matches"})

	view := m.View()
	if !strings.Contains(view, "matched") {
		t.Error("view missing verification badge")
	}
}

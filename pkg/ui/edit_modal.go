package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/verify"
)

// EditField is a single editable record field.
type EditField struct {
	Label    string
	Key      string // canonical record key
	Input    textinput.Model
	Original string
}

// URLEventKind says how the spec-sheet URL field changed.
type URLEventKind int

const (
	URLTyped URLEventKind = iota
	URLBlurred
)

// URLEvent reports spec-sheet URL field activity so the verification
// session can be driven by the owning model.
type URLEvent struct {
	Kind URLEventKind
	Text string
}

// EditModal provides field-by-field record editing with inline spec-sheet
// verification feedback.
type EditModal struct {
	rowID  model.RowID
	fields []EditField
	urlIdx int // index of the spec-sheet field, -1 if absent

	focusedField int
	width        int
	height       int
	theme        Theme

	verifyState verify.State
	urlEvent    *URLEvent

	dirty           bool
	saveRequested   bool
	cancelRequested bool
}

// editableFields returns the record keys the modal presents, in schema
// order: required, then optional, then force-include extras.
func editableFields(schema fieldmap.Schema) []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(list []string) {
		for _, k := range list {
			if k == model.FieldQualityScore || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	add(schema.Required)
	add(schema.Optional)
	add(schema.ForceInclude)

	if len(keys) == 0 {
		add([]string{
			model.FieldTitle, model.FieldBrand, model.FieldVendor,
			model.FieldProductType, model.FieldSpecSheetURL,
			model.FieldImages, model.FieldDescription,
		})
	}
	return keys
}

// NewEditModal creates an edit modal pre-populated from a record.
func NewEditModal(id model.RowID, rec model.Record, schema fieldmap.Schema, theme Theme) EditModal {
	keys := editableFields(schema)

	fields := make([]EditField, 0, len(keys))
	urlIdx := -1
	for _, key := range keys {
		ti := textinput.New()
		ti.SetValue(rec.Field(key))
		ti.CharLimit = 500
		ti.Width = 50

		if key == model.FieldSpecSheetURL {
			urlIdx = len(fields)
		}
		fields = append(fields, EditField{
			Label:    fieldLabel(key),
			Key:      key,
			Input:    ti,
			Original: rec.Field(key),
		})
	}
	if len(fields) > 0 {
		fields[0].Input.Focus()
	}

	return EditModal{
		rowID:  id,
		fields: fields,
		urlIdx: urlIdx,
		theme:  theme,
	}
}

// RowID returns the row under edit.
func (m EditModal) RowID() model.RowID { return m.rowID }

// Update handles input for the edit modal.
func (m EditModal) Update(msg tea.Msg) (EditModal, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+s":
		m.saveRequested = true
		return m, nil

	case "esc":
		m.cancelRequested = true
		return m, nil

	case "tab":
		m.noteURLBlur()
		m.fields[m.focusedField].Input.Blur()
		m.focusedField = (m.focusedField + 1) % len(m.fields)
		m.fields[m.focusedField].Input.Focus()
		return m, nil

	case "shift+tab":
		m.noteURLBlur()
		m.fields[m.focusedField].Input.Blur()
		m.focusedField = (m.focusedField - 1 + len(m.fields)) % len(m.fields)
		m.fields[m.focusedField].Input.Focus()
		return m, nil
	}

	field := &m.fields[m.focusedField]
	before := field.Input.Value()
	var cmd tea.Cmd
	field.Input, cmd = field.Input.Update(keyMsg)

	if m.focusedField == m.urlIdx && field.Input.Value() != before {
		m.urlEvent = &URLEvent{Kind: URLTyped, Text: field.Input.Value()}
	}
	m.updateDirtyFlag()
	return m, cmd
}

// noteURLBlur records a blur event when focus leaves the spec-sheet field.
func (m *EditModal) noteURLBlur() {
	if m.focusedField == m.urlIdx && m.urlIdx >= 0 {
		m.urlEvent = &URLEvent{Kind: URLBlurred, Text: m.fields[m.urlIdx].Input.Value()}
	}
}

// ConsumeURLEvent returns and clears the pending spec-sheet field event.
func (m *EditModal) ConsumeURLEvent() (URLEvent, bool) {
	if m.urlEvent == nil {
		return URLEvent{}, false
	}
	ev := *m.urlEvent
	m.urlEvent = nil
	return ev, true
}

// SetVerifyState installs the latest verification state for display.
func (m *EditModal) SetVerifyState(st verify.State) {
	m.verifyState = st
}

// SetValues overwrites field contents with server values, for repainting
// when a live update lands on the open row. Originals are rebased so the
// dirty flag reflects edits against the new baseline.
func (m *EditModal) SetValues(rec model.Record) {
	for i := range m.fields {
		v := rec.Field(m.fields[i].Key)
		m.fields[i].Input.SetValue(v)
		m.fields[i].Original = v
	}
	m.updateDirtyFlag()
}

func (m *EditModal) updateDirtyFlag() {
	m.dirty = false
	for _, field := range m.fields {
		if field.Input.Value() != field.Original {
			m.dirty = true
			break
		}
	}
}

// Dirty reports whether any field differs from its original value.
func (m EditModal) Dirty() bool { return m.dirty }

// IsSaveRequested returns true if ctrl+s was pressed.
func (m EditModal) IsSaveRequested() bool { return m.saveRequested }

// IsCancelRequested returns true if esc was pressed.
func (m EditModal) IsCancelRequested() bool { return m.cancelRequested }

// Values returns every field's current content keyed by record key. The
// save path diffs this against the cached record, so unchanged fields are
// harmless to include.
func (m EditModal) Values() map[string]string {
	out := make(map[string]string, len(m.fields))
	for _, field := range m.fields {
		out[field.Key] = field.Input.Value()
	}
	return out
}

// SetSize sets the modal dimensions.
func (m *EditModal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the edit modal.
func (m EditModal) View() string {
	r := m.theme.Renderer

	boxWidth := m.width - 10
	if boxWidth < 60 {
		boxWidth = 60
	}
	if boxWidth > 80 {
		boxWidth = 80
	}

	headerStyle := r.NewStyle().
		Bold(true).
		Foreground(m.theme.Primary)

	title := fmt.Sprintf("Edit row %s", m.rowID)
	if m.dirty {
		title += " *"
	}

	var content strings.Builder
	content.WriteString(headerStyle.Render(title))
	content.WriteString("\n\n")

	labelStyle := r.NewStyle().
		Foreground(m.theme.Secondary).
		Width(16).
		Align(lipgloss.Right)

	focusedLabelStyle := r.NewStyle().
		Foreground(m.theme.Primary).
		Bold(true).
		Width(16).
		Align(lipgloss.Right)

	for i, field := range m.fields {
		if i == m.focusedField {
			content.WriteString(focusedLabelStyle.Render(field.Label + ":"))
		} else {
			content.WriteString(labelStyle.Render(field.Label + ":"))
		}
		content.WriteString(" ")
		content.WriteString(field.Input.View())
		content.WriteString("\n")

		if i == m.urlIdx && m.verifyState.Status != verify.StatusIdle {
			content.WriteString(strings.Repeat(" ", 17))
			content.WriteString(RenderVerifyBadge(m.verifyState.Status))
			if m.verifyState.Message != "" {
				content.WriteString(" ")
				content.WriteString(m.theme.MutedText.Render(truncate(m.verifyState.Message, 50)))
			}
			content.WriteString("\n")
		}
	}

	content.WriteString("\n")
	subtextStyle := r.NewStyle().
		Foreground(m.theme.Subtext).
		Italic(true)
	content.WriteString(subtextStyle.Render("[Tab] Next field   [Ctrl+S] Save   [Esc] Cancel"))

	boxStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(1, 2).
		Width(boxWidth)

	box := boxStyle.Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/showroom/pkg/engine"
	"github.com/vanderheijden86/showroom/pkg/model"
)

// CreateWizard is the guided form for adding a catalog row: identity fields
// only, everything else is filled in through the edit modal afterwards.
type CreateWizard struct {
	form  *huh.Form
	theme Theme
}

func NewCreateWizard(theme Theme, width int) CreateWizard {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key(model.FieldSKU).
				Title("SKU").
				Placeholder("SR-sinks-0000").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("a SKU is required")
					}
					return nil
				}),
			huh.NewInput().
				Key(model.FieldTitle).
				Title("Title"),
			huh.NewInput().
				Key(model.FieldBrand).
				Title("Brand"),
		),
	).
		WithTheme(huh.ThemeDracula()).
		WithShowHelp(true)
	if width > 0 {
		form = form.WithWidth(min(width-4, 72))
	}

	return CreateWizard{form: form, theme: theme}
}

func (w CreateWizard) Init() tea.Cmd { return w.form.Init() }

func (w CreateWizard) Update(msg tea.Msg) (CreateWizard, tea.Cmd) {
	next, cmd := w.form.Update(msg)
	if form, ok := next.(*huh.Form); ok {
		w.form = form
	}
	return w, cmd
}

func (w CreateWizard) Done() bool    { return w.form.State == huh.StateCompleted }
func (w CreateWizard) Aborted() bool { return w.form.State == huh.StateAborted }

// Values returns the identity fields, empty entries dropped.
func (w CreateWizard) Values() map[string]string {
	fields := make(map[string]string, 3)
	for _, key := range []string{model.FieldSKU, model.FieldTitle, model.FieldBrand} {
		if v := strings.TrimSpace(w.form.GetString(key)); v != "" {
			fields[key] = v
		}
	}
	return fields
}

func (w CreateWizard) View() string {
	header := w.theme.Header.Render(" new product ")
	return header + "\n\n" + w.form.View()
}

// nextRowID allocates the next free numeric row key in the loaded catalog.
func nextRowID(eng *engine.Engine) model.RowID {
	max := 0
	for id := range eng.Snapshot() {
		if n, err := strconv.Atoi(id.String()); err == nil && n > max {
			max = n
		}
	}
	return model.RowID(strconv.Itoa(max + 1))
}

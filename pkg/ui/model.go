// Package ui implements the showroom terminal interface: a filterable
// catalog list over the sync engine, a field-level edit modal with inline
// spec-sheet verification, and a completeness report view.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/showroom/pkg/debug"
	"github.com/vanderheijden86/showroom/pkg/engine"
	"github.com/vanderheijden86/showroom/pkg/export"
	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/filter"
	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/queue"
	"github.com/vanderheijden86/showroom/pkg/reconcile"
	"github.com/vanderheijden86/showroom/pkg/verify"
)

// focus represents which UI element has keyboard focus
type focus int

const (
	focusList focus = iota
	focusSearch
	focusEdit
	focusReport
	focusCreate
)

// chrome is the number of terminal rows used outside the list (header,
// search row, status bar).
const chrome = 4

// pollEvery is how often the model checks the cache version for repaints
// that no worker message announces (e.g. deferred refreshes).
const pollEvery = 500 * time.Millisecond

type tickMsg time.Time

// VerifyMsg carries a verification state change for the open edit session.
type VerifyMsg struct{ State verify.State }

// Model is the top-level Bubble Tea model.
type Model struct {
	eng    *engine.Engine
	worker *Worker
	theme  Theme

	list   list.Model
	spec   filter.Spec
	search textinput.Model
	focus  focus

	editing *EditModal
	session *verify.Session
	wizard  *CreateWizard

	report ReportView

	width  int
	height int

	lastVersion uint64
	saving      map[model.RowID]bool
	statusMsg   string
	statusUntil time.Time
}

// NewModel creates the top-level model over a started engine.
func NewModel(eng *engine.Engine, worker *Worker, theme Theme) Model {
	delegate := RowDelegate{Theme: theme}
	l := list.New(nil, delegate, 80, 20)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	search := textinput.New()
	search.Placeholder = "search title, sku, brand…"
	search.CharLimit = 120
	search.Width = 40

	m := Model{
		eng:    eng,
		worker: worker,
		theme:  theme,
		list:   l,
		search: search,
		report: NewReportView(80, 20, theme),
		saving: make(map[model.RowID]bool),
	}
	m.rebuildItems()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(WaitForMessage(m.worker), tick())
}

func tick() tea.Cmd {
	return tea.Tick(pollEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitForVerify delivers the next verification state for the open session.
func waitForVerify(session *verify.Session) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-session.Updates()
		if !ok {
			return nil
		}
		return VerifyMsg{State: st}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-chrome)
		m.report.SetSize(msg.Width, msg.Height-chrome)
		if m.editing != nil {
			m.editing.SetSize(msg.Width, msg.Height)
		}
		return m, nil

	case tickMsg:
		if v := m.eng.Version(); v != m.lastVersion {
			m.lastVersion = v
			m.rebuildItems()
		}
		return m, tick()

	case QueueEventMsg:
		m.handleQueueEvent(msg.Event)
		return m, WaitForMessage(m.worker)

	case NoticeMsg:
		m.handleNotice(msg.Notice)
		return m, WaitForMessage(m.worker)

	case MirrorChangedMsg:
		// Another process rewrote the mirror; the remote store is still
		// authoritative, so just surface it.
		m.setStatus("local snapshot changed on disk")
		return m, WaitForMessage(m.worker)

	case WorkerDoneMsg:
		return m, nil

	case VerifyMsg:
		if m.editing != nil {
			m.editing.SetVerifyState(msg.State)
		}
		if m.session != nil {
			return m, waitForVerify(m.session)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// huh runs on its own internal messages while the create form is open.
	if m.focus == focusCreate && m.wizard != nil {
		return m.updateWizard(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The edit modal sees every key while open.
	if m.focus == focusEdit {
		return m.updateEditModal(msg)
	}

	switch m.focus {
	case focusSearch:
		return m.updateSearch(msg)
	case focusReport:
		return m.updateReport(msg)
	case focusCreate:
		if msg.String() == "esc" {
			m.wizard = nil
			m.focus = focusList
			return m, nil
		}
		return m.updateWizard(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "/":
		m.focus = focusSearch
		m.search.Focus()
		return m, nil

	case "f":
		m.spec.Quick = nextQuick(m.spec.Quick)
		m.rebuildItems()
		return m, nil

	case "m":
		m.spec.Missing = nextMissingCategory(m.spec.Missing)
		m.rebuildItems()
		return m, nil

	case "b":
		if item, ok := m.selectedItem(); ok {
			m.spec.Brand = item.Record.Brand()
			m.rebuildItems()
		}
		return m, nil

	case "B":
		m.spec.Brand = ""
		m.rebuildItems()
		return m, nil

	case " ":
		if item, ok := m.selectedItem(); ok {
			m.eng.ToggleSelected(item.ID)
			m.rebuildItems()
		}
		return m, nil

	case "c":
		m.eng.ClearSelection()
		if m.spec.Quick == filter.QuickSelected {
			m.spec.Quick = filter.QuickAll
		}
		m.rebuildItems()
		return m, nil

	case "enter":
		return m.openEdit()

	case "n":
		wiz := NewCreateWizard(m.theme, m.width)
		m.wizard = &wiz
		m.focus = focusCreate
		return m, m.wizard.Init()

	case "g":
		return m.generate()

	case "y":
		if item, ok := m.selectedItem(); ok {
			if err := clipboard.WriteAll(item.Record.SKU()); err != nil {
				m.setStatus("clipboard unavailable")
			} else {
				m.setStatus(fmt.Sprintf("copied %s", item.Record.SKU()))
			}
		}
		return m, nil

	case "R":
		m.report.SetSummary(m.summary())
		m.focus = focusReport
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.focus = focusList
		m.search.Blur()
		return m, nil
	case "esc":
		m.focus = focusList
		m.search.Blur()
		m.search.SetValue("")
		m.spec.Search = ""
		m.rebuildItems()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.spec.Search != m.search.Value() {
		m.spec.Search = m.search.Value()
		m.rebuildItems()
	}
	return m, cmd
}

func (m Model) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "R", "q":
		m.focus = focusList
		return m, nil
	case "y":
		if err := clipboard.WriteAll(m.report.Markdown()); err != nil {
			m.setStatus("clipboard unavailable")
		} else {
			m.setStatus("report copied as markdown")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.report, cmd = m.report.Update(msg)
	return m, cmd
}

func (m Model) updateEditModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	modal, cmd := m.editing.Update(msg)
	m.editing = &modal

	if ev, ok := m.editing.ConsumeURLEvent(); ok && m.session != nil {
		switch ev.Kind {
		case URLTyped:
			m.session.Input(ev.Text)
		case URLBlurred:
			m.session.Blur(ev.Text)
		}
	}

	if m.editing.IsSaveRequested() {
		id := m.editing.RowID()
		if fields := m.eng.Save(id, m.editing.Values()); len(fields) > 0 {
			m.saving[id] = true
			m.setStatus(fmt.Sprintf("saving %d field(s)", len(fields)))
		}
		return m.closeEdit()
	}
	if m.editing.IsCancelRequested() {
		return m.closeEdit()
	}
	return m, cmd
}

func (m Model) updateWizard(msg tea.Msg) (tea.Model, tea.Cmd) {
	wiz, cmd := m.wizard.Update(msg)
	m.wizard = &wiz

	switch {
	case wiz.Aborted():
		m.wizard = nil
		m.focus = focusList
		return m, nil

	case wiz.Done():
		fields := wiz.Values()
		m.wizard = nil
		m.focus = focusList
		if len(fields) == 0 {
			return m, nil
		}
		id := nextRowID(m.eng)
		if saved := m.eng.Save(id, fields); len(saved) > 0 {
			m.saving[id] = true
		}
		m.setStatus(fmt.Sprintf("created %s", fields[model.FieldSKU]))
		m.rebuildItems()
		return m, nil
	}

	return m, cmd
}

func (m Model) openEdit() (tea.Model, tea.Cmd) {
	item, ok := m.selectedItem()
	if !ok {
		return m, nil
	}

	m.session = m.eng.OpenEdit(context.Background(), item.ID)

	// Re-read after OpenEdit: a deferred refresh may have updated the row.
	rec, _ := m.eng.Record(item.ID)
	modal := NewEditModal(item.ID, rec, m.eng.Schema(), m.theme)
	modal.SetSize(m.width, m.height)
	m.editing = &modal
	m.focus = focusEdit
	return m, waitForVerify(m.session)
}

func (m Model) closeEdit() (tea.Model, tea.Cmd) {
	m.eng.CloseEdit(m.session)
	m.session = nil
	m.editing = nil
	m.focus = focusList
	m.rebuildItems()
	return m, nil
}

func (m Model) generate() (tea.Model, tea.Cmd) {
	item, ok := m.selectedItem()
	if !ok {
		return m, nil
	}

	fields := []string{model.FieldDescription, model.FieldSEOTitle, model.FieldSEODesc}
	if err := m.eng.Generate(context.Background(), item.ID, fields); err != nil {
		m.setStatus(fmt.Sprintf("generate failed: %v", err))
		return m, nil
	}
	if m.eng.Degraded() {
		m.setStatus("content requested; row refreshes on next open")
	} else {
		m.setStatus("content requested")
	}
	return m, nil
}

func (m *Model) handleQueueEvent(ev queue.Event) {
	switch ev.Kind {
	case queue.EventTaskDone:
		delete(m.saving, ev.Task.RowID)
		if ev.Remaining == 0 {
			m.setStatus("all changes saved")
		}
	case queue.EventTaskFailed:
		delete(m.saving, ev.Task.RowID)
		debug.Log("ui: save failed for row %s: %v", ev.Task.RowID, ev.Err)
		m.setStatus(fmt.Sprintf("save failed for %s: %v", ev.Task.RowID, ev.Err))
	case queue.EventIdle:
		// Depth indicator picks this up from QueueDepth.
	}
	m.rebuildItems()
}

func (m *Model) handleNotice(n reconcile.Notice) {
	if n.OpenSession && m.editing != nil && n.RowID == m.editing.RowID() {
		if rec, ok := m.eng.Record(n.RowID); ok {
			m.editing.SetValues(rec)
		}
		m.setStatus("row updated remotely while editing")
	}
	m.rebuildItems()
}

func (m *Model) setStatus(s string) {
	m.statusMsg = s
	m.statusUntil = time.Now().Add(5 * time.Second)
}

func (m Model) selectedItem() (RowItem, bool) {
	item, ok := m.list.SelectedItem().(RowItem)
	return item, ok
}

// rebuildItems re-evaluates the filter spec and refreshes the list,
// preserving the cursor's row where possible.
func (m *Model) rebuildItems() {
	var cursorID model.RowID
	if item, ok := m.selectedItem(); ok {
		cursorID = item.ID
	}

	ids := m.eng.Visible(m.spec)
	items := make([]list.Item, 0, len(ids))
	cursor := -1
	for idx, id := range ids {
		rec, ok := m.eng.Record(id)
		if !ok {
			continue
		}
		if id == cursorID {
			cursor = idx
		}
		items = append(items, RowItem{
			ID:     id,
			Record: rec,
			Score:  m.eng.Score(id),
			Saving: m.saving[id],
			Picked: m.eng.IsSelected(id),
		})
	}
	m.list.SetItems(items)
	if cursor >= 0 {
		m.list.Select(cursor)
	}
	m.lastVersion = m.eng.Version()
}

func (m Model) summary() export.Summary {
	return export.Summarize(m.eng.Collection(), m.eng.Snapshot(), m.eng.Schema(), nil)
}

func (m Model) View() string {
	switch m.focus {
	case focusEdit:
		if m.editing != nil {
			return m.editing.View()
		}
	case focusReport:
		return m.headerView() + "\n" + m.report.View() + "\n" + m.statusBarView()
	case focusCreate:
		if m.wizard != nil {
			return m.wizard.View()
		}
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	if m.focus == focusSearch || m.spec.Search != "" {
		b.WriteString(" / ")
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString(m.statusBarView())
	return b.String()
}

func (m Model) headerView() string {
	t := m.theme

	title := t.Header.Render(fmt.Sprintf(" showroom · %s ", m.eng.Collection()))
	count := t.MutedText.Render(fmt.Sprintf(" %d rows", m.eng.Len()))

	var badges []string
	if m.eng.FromSnapshot() {
		badges = append(badges, t.WarningText.Render("offline snapshot"))
	}
	if m.eng.Degraded() {
		badges = append(badges, t.WarningText.Render("live updates off"))
	}
	if n := m.eng.SelectedCount(); n > 0 {
		badges = append(badges, t.PrimaryBold.Render(fmt.Sprintf("%d selected", n)))
	}

	parts := []string{title, count}
	if len(badges) > 0 {
		parts = append(parts, t.MutedText.Render(" · "), strings.Join(badges, " "))
	}
	return strings.Join(parts, "")
}

func (m Model) statusBarView() string {
	t := m.theme

	var parts []string
	parts = append(parts, t.SecondaryText.Render("filter: "+m.filterSummary()))

	if badge := RenderQueueBadge(m.eng.QueueDepth()); badge != "" {
		parts = append(parts, badge)
	}
	if n := m.eng.StaleCount(); n > 0 {
		parts = append(parts, t.WarningText.Render(fmt.Sprintf("%d stale", n)))
	}
	if m.statusMsg != "" && time.Now().Before(m.statusUntil) {
		parts = append(parts, t.InfoText.Render(m.statusMsg))
	}

	return " " + strings.Join(parts, t.MutedText.Render("  ·  "))
}

func (m Model) filterSummary() string {
	var parts []string
	if m.spec.Quick != filter.QuickAll {
		parts = append(parts, m.spec.Quick.String())
	}
	if m.spec.Brand != "" {
		parts = append(parts, "brand="+m.spec.Brand)
	}
	if m.spec.Missing != "" {
		parts = append(parts, "missing="+string(m.spec.Missing))
	}
	if strings.TrimSpace(m.spec.Search) != "" {
		parts = append(parts, fmt.Sprintf("search=%q", m.spec.Search))
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " ")
}

// nextQuick cycles through the quick filter bands.
func nextQuick(q filter.Quick) filter.Quick {
	switch q {
	case filter.QuickAll:
		return filter.QuickMissingCritical
	case filter.QuickMissingCritical:
		return filter.QuickMissingSome
	case filter.QuickMissingSome:
		return filter.QuickComplete
	case filter.QuickComplete:
		return filter.QuickSelected
	default:
		return filter.QuickAll
	}
}

// nextMissingCategory cycles the missing-info axis, including "off".
func nextMissingCategory(cur fieldmap.MissingCategory) fieldmap.MissingCategory {
	cats := fieldmap.AllMissingCategories()
	if cur == "" {
		return cats[0]
	}
	for i, c := range cats {
		if c == cur {
			if i == len(cats)-1 {
				return ""
			}
			return cats[i+1]
		}
	}
	return ""
}

// Package tui is the interactive full-screen front end: a todo table, an edit
// form and a status line, all driven through the controller.
package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/todo/internal/controller"
	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/ui"
)

// Status keeps the latest controller notice for the status line.
type Status struct {
	notice controller.Notice
}

// Notify implements controller.Notifier.
func (s *Status) Notify(n controller.Notice) { s.notice = n }

// Last returns the latest notice.
func (s *Status) Last() controller.Notice { return s.notice }

// Options tune the TUI.
type Options struct {
	// Timeout bounds each store round trip. Zero means no bound.
	Timeout time.Duration
}

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeConfirmDelete
)

type field int

const (
	fieldTitle field = iota
	fieldDescription
	fieldCompleted
	fieldCount
)

// Model implements tea.Model on top of a controller.
type Model struct {
	ctx    context.Context
	ctl    *controller.Controller
	status *Status
	opts   Options
	keys   keyMap
	help   help.Model

	table     table.Model
	title     textinput.Model
	desc      textarea.Model
	completed bool
	field     field
	mode      mode

	width, height int
}

// New builds the model. The controller should already be refreshed.
func New(ctx context.Context, ctl *controller.Controller, status *Status, opts Options) Model {
	if status == nil {
		status = &Status{}
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Title (required)"
	ti.CharLimit = 200

	ta := textarea.New()
	ta.Placeholder = "Description"
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(3)

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.Current().BorderColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = ui.Current().Selected
	t.SetStyles(styles)

	h := help.New()
	h.Styles.ShortKey = ui.Current().Help.Bold(true)
	h.Styles.ShortDesc = ui.Current().Help
	h.Styles.ShortSeparator = ui.Current().Help

	m := Model{
		ctx:    ctx,
		ctl:    ctl,
		status: status,
		opts:   opts,
		keys:   defaultKeys(),
		help:   h,
		table:  t,
		title:  ti,
		desc:   ta,
		width:  80,
		height: 24,
	}
	m.syncTable()
	return m
}

// Run loads the snapshot and starts the program. It returns when the user quits.
func Run(ctx context.Context, ctl *controller.Controller, status *Status, opts Options) error {
	m := New(ctx, ctl, status, opts)
	m.refresh()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.New):
		m.ctl.Clear()
		return m, m.openForm()
	case key.Matches(msg, m.keys.Edit):
		id, ok := m.cursorID()
		if !ok || m.ctl.Select(id) != nil {
			return m, nil
		}
		return m, m.openForm()
	case key.Matches(msg, m.keys.Toggle):
		if id, ok := m.cursorID(); ok {
			m.do(func(ctx context.Context) error { return m.ctl.ToggleCompleted(ctx, id) })
			m.focusRow(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		id, ok := m.cursorID()
		if !ok {
			m.status.Notify(controller.Notice{Level: controller.LevelWarning, Message: "Select a row to delete"})
			return m, nil
		}
		if m.ctl.Select(id) == nil {
			m.mode = modeConfirmDelete
		}
		return m, nil
	case key.Matches(msg, m.keys.Filter):
		m.ctl.SetFilter(m.ctl.Filter().Next())
		m.syncTable()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		m.ctl.Clear()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.ctl.Clear()
		m.closeForm()
		return m, nil
	case key.Matches(msg, m.keys.Save):
		f := m.syncForm()
		var err error
		if m.ctl.State() == controller.StateSelected {
			err = m.do(func(ctx context.Context) error { return m.ctl.SubmitUpdate(ctx, f) })
		} else {
			err = m.do(func(ctx context.Context) error { return m.ctl.SubmitAdd(ctx, f) })
		}
		if err == nil {
			m.closeForm()
		}
		return m, nil
	case key.Matches(msg, m.keys.SaveAsNew):
		f := m.syncForm()
		if err := m.do(func(ctx context.Context) error { return m.ctl.SubmitAdd(ctx, f) }); err == nil {
			m.closeForm()
		}
		return m, nil
	case key.Matches(msg, m.keys.Next):
		return m, m.focusField((m.field + 1) % fieldCount)
	case key.Matches(msg, m.keys.Prev):
		return m, m.focusField((m.field + fieldCount - 1) % fieldCount)
	}

	var cmd tea.Cmd
	switch m.field {
	case fieldTitle:
		m.title, cmd = m.title.Update(msg)
	case fieldDescription:
		m.desc, cmd = m.desc.Update(msg)
	case fieldCompleted:
		if key.Matches(msg, m.keys.Check) {
			m.completed = !m.completed
		}
	}
	m.syncForm()
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.do(func(ctx context.Context) error { return m.ctl.SubmitDelete(ctx, controller.Confirmed) })
		m.mode = modeBrowse
	case key.Matches(msg, m.keys.No):
		m.do(func(ctx context.Context) error { return m.ctl.SubmitDelete(ctx, controller.Declined) })
		m.mode = modeBrowse
	}
	return m, nil
}

// do runs one controller action bounded by the configured timeout and
// re-renders the table. The controller has already reported any error.
func (m *Model) do(fn func(context.Context) error) error {
	ctx := m.ctx
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}
	err := fn(ctx)
	m.syncTable()
	return err
}

func (m *Model) refresh() {
	m.do(m.ctl.Refresh)
}

func (m *Model) openForm() tea.Cmd {
	f := m.ctl.Form()
	m.title.SetValue(f.Title)
	m.title.CursorEnd()
	m.desc.SetValue(f.Description)
	m.completed = f.Completed
	m.mode = modeEdit
	m.table.Blur()
	return m.focusField(fieldTitle)
}

func (m *Model) closeForm() {
	m.title.SetValue("")
	m.title.Blur()
	m.desc.SetValue("")
	m.desc.Blur()
	m.completed = false
	m.mode = modeBrowse
	m.table.Focus()
}

func (m *Model) focusField(f field) tea.Cmd {
	m.field = f
	m.title.Blur()
	m.desc.Blur()
	switch f {
	case fieldTitle:
		return m.title.Focus()
	case fieldDescription:
		return m.desc.Focus()
	}
	return nil
}

func (m Model) form() controller.Form {
	return controller.Form{
		Title:       m.title.Value(),
		Description: m.desc.Value(),
		Completed:   m.completed,
	}
}

// syncForm hands the widget contents to the controller.
func (m Model) syncForm() controller.Form {
	f := m.form()
	m.ctl.SetForm(f)
	return f
}

func (m Model) cursorID() (int64, bool) {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// syncTable copies the visible rows into the table, keeping the cursor on the
// same todo when it is still visible.
func (m *Model) syncTable() {
	prev, hadPrev := m.cursorID()
	visible := m.ctl.Visible()
	rows := make([]table.Row, 0, len(visible))
	for _, t := range visible {
		rows = append(rows, table.Row(ui.Row(t)))
	}
	m.table.SetRows(rows)
	if hadPrev {
		m.focusRow(prev)
	}
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
	if m.table.Cursor() < 0 && len(rows) > 0 {
		m.table.SetCursor(0)
	}
}

func (m *Model) focusRow(id int64) {
	want := strconv.FormatInt(id, 10)
	for i, row := range m.table.Rows() {
		if len(row) > 0 && row[0] == want {
			m.table.SetCursor(i)
			return
		}
	}
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.table.SetColumns(columns(w - 4))
	m.table.SetWidth(w - 4)
	// header, filter bar, form (6), status, help and borders
	th := h - 16
	if th < 3 {
		th = 3
	}
	m.table.SetHeight(th)
	m.title.Width = w - 20
	m.desc.SetWidth(w - 20)
	m.help.Width = w - 4
}

func columns(width int) []table.Column {
	fixed := 5 + 6 + 16 + 16 + 12 // id, completed, two timestamps, cell padding
	rest := width - fixed
	if rest < 20 {
		rest = 20
	}
	titleW := rest * 2 / 5
	return []table.Column{
		{Title: ui.Columns[0], Width: 5},
		{Title: ui.Columns[1], Width: titleW},
		{Title: ui.Columns[2], Width: rest - titleW},
		{Title: "Done", Width: 6},
		{Title: ui.Columns[4], Width: 16},
		{Title: ui.Columns[5], Width: 16},
	}
}

func (m Model) View() string {
	th := ui.Current()
	done, pending := m.ctl.Stats()

	var b strings.Builder
	b.WriteString(ui.Header(done, pending))
	b.WriteString("\n")
	b.WriteString(m.filterBar())
	b.WriteString("\n\n")
	if len(m.table.Rows()) == 0 {
		b.WriteString(th.Muted.Render("No todos. Press a to add one."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}
	b.WriteString(m.formView())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	var bindings []key.Binding
	switch m.mode {
	case modeEdit:
		bindings = m.keys.formHelp()
	case modeConfirmDelete:
		bindings = m.keys.confirmHelp()
	default:
		bindings = m.keys.browseHelp()
	}
	b.WriteString(m.help.ShortHelpView(bindings))

	return lipgloss.NewStyle().
		Border(th.Border).
		BorderForeground(th.BorderColor).
		Padding(0, 1).
		Render(b.String())
}

func (m Model) filterBar() string {
	th := ui.Current()
	active := m.ctl.Filter()
	parts := make([]string, 0, len(model.Filters))
	for _, f := range model.Filters {
		label := " " + f.String() + " "
		if f == active {
			parts = append(parts, th.Selected.Render(label))
		} else {
			parts = append(parts, th.Muted.Render(label))
		}
	}
	return "Filter: " + strings.Join(parts, " ")
}

func (m Model) formView() string {
	th := ui.Current()
	heading := "Add new todo"
	if sel, ok := m.ctl.Selected(); ok {
		heading = "Edit todo #" + strconv.FormatInt(sel.ID, 10)
	}
	if m.mode == modeConfirmDelete {
		heading = th.Warning.Render(controller.DeletePrompt + " (y/n)")
	}

	check := ui.Checkbox(m.completed) + " Completed"
	if m.mode == modeEdit && m.field == fieldCompleted {
		check = th.Selected.Render(check)
	}

	body := strings.Join([]string{
		th.Title.Render(heading),
		"Title:       " + m.title.View(),
		"Description:",
		m.desc.View(),
		check,
	}, "\n")

	border := th.BorderColor
	if m.mode == modeEdit {
		border = lipgloss.Color("12")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Render(body)
}

func (m Model) statusLine() string {
	th := ui.Current()
	n := m.status.Last()
	switch n.Level {
	case controller.LevelError:
		return th.Error.Render(n.Message)
	case controller.LevelWarning:
		return th.Warning.Render(n.Message)
	default:
		return th.Success.Render(n.Message)
	}
}

package tui

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todo/internal/controller"
	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/ui"
)

type memStore struct {
	now    time.Time
	rows   []model.Todo
	nextID int64
}

func (s *memStore) tick() time.Time {
	s.now = s.now.Add(time.Minute)
	return s.now
}

func (s *memStore) ListAll(context.Context) ([]model.Todo, error) {
	out := append([]model.Todo(nil), s.rows...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) Insert(_ context.Context, d model.Draft) error {
	s.nextID++
	at := s.tick()
	s.rows = append(s.rows, model.Todo{ID: s.nextID, Title: d.Title, Description: d.Description,
		Completed: d.Completed, CreatedAt: at, UpdatedAt: at})
	return nil
}

func (s *memStore) Update(_ context.Context, t model.Todo) error {
	for i := range s.rows {
		if s.rows[i].ID == t.ID {
			s.rows[i].Title, s.rows[i].Description = t.Title, t.Description
			s.rows[i].Completed, s.rows[i].UpdatedAt = t.Completed, t.UpdatedAt
			return nil
		}
	}
	return errors.New("todo not found")
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return errors.New("todo not found")
}

func newTestModel(t *testing.T, titles ...string) (Model, *controller.Controller, *Status) {
	t.Helper()
	store := &memStore{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	status := &Status{}
	ctl := controller.New(store, status, controller.WithClock(func() time.Time { return store.tick() }))
	for _, title := range titles {
		require.NoError(t, ctl.SubmitAdd(context.Background(), controller.Form{Title: title}))
	}
	m := New(context.Background(), ctl, status, Options{Timeout: time.Second})
	return m, ctl, status
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case "ctrl+n":
			msg = tea.KeyMsg{Type: tea.KeyCtrlN}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestAddFromForm(t *testing.T) {
	m, ctl, status := newTestModel(t)

	m = press(t, m, "a")
	require.Equal(t, modeEdit, m.mode)
	m = press(t, m, "B", "u", "y")
	assert.Equal(t, "Buy", ctl.Form().Title, "typing reaches the controller")
	m.title.SetValue("Buy milk")
	m = press(t, m, "tab", "tab", " ", "ctrl+s")

	assert.Equal(t, modeBrowse, m.mode)
	require.Len(t, ctl.Visible(), 1)
	assert.Equal(t, "Buy milk", ctl.Visible()[0].Title)
	assert.True(t, ctl.Visible()[0].Completed)
	assert.Equal(t, "Todo added", status.Last().Message)
	assert.Len(t, m.table.Rows(), 1)
	assert.Empty(t, m.title.Value(), "form is cleared after saving")
}

func TestAddRejectsEmptyTitle(t *testing.T) {
	m, ctl, status := newTestModel(t)

	m = press(t, m, "a", "ctrl+s")
	assert.Equal(t, modeEdit, m.mode, "form stays open")
	assert.Empty(t, ctl.Snapshot())
	assert.Equal(t, controller.LevelWarning, status.Last().Level)
}

func TestEditSelectedRow(t *testing.T) {
	m, ctl, _ := newTestModel(t, "older", "newer")
	require.Equal(t, "newer", ctl.Visible()[0].Title)

	m = press(t, m, "down", "enter")
	require.Equal(t, modeEdit, m.mode)
	assert.Equal(t, "older", m.title.Value())

	m.title.SetValue("older, edited")
	m = press(t, m, "ctrl+s")

	assert.Equal(t, modeBrowse, m.mode)
	titles := []string{ctl.Visible()[0].Title, ctl.Visible()[1].Title}
	assert.Equal(t, []string{"newer", "older, edited"}, titles)
	assert.Equal(t, controller.StateEmpty, ctl.State())
}

func TestSaveAsNewFromSelection(t *testing.T) {
	m, ctl, _ := newTestModel(t, "template")

	m = press(t, m, "enter", "ctrl+n")
	assert.Equal(t, modeBrowse, m.mode)
	assert.Len(t, ctl.Snapshot(), 2)
}

func TestEscapeDiscardsEdits(t *testing.T) {
	m, ctl, _ := newTestModel(t, "keep me")

	m = press(t, m, "enter")
	m = press(t, m, "!")
	assert.Equal(t, "keep me!", ctl.Form().Title)
	m = press(t, m, "esc")

	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "keep me", ctl.Visible()[0].Title)
	assert.Equal(t, controller.StateEmpty, ctl.State())
	assert.Equal(t, controller.Form{}, ctl.Form())
}

func TestToggleCompleted(t *testing.T) {
	m, ctl, _ := newTestModel(t, "a")

	m = press(t, m, " ")
	assert.True(t, ctl.Visible()[0].Completed)
	assert.Equal(t, ui.Checkbox(true), m.table.Rows()[0][3], "row re-rendered")
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, ctl, status := newTestModel(t, "a", "b")

	m = press(t, m, "d")
	require.Equal(t, modeConfirmDelete, m.mode)
	assert.Contains(t, m.View(), controller.DeletePrompt)

	m = press(t, m, "n")
	assert.Equal(t, modeBrowse, m.mode)
	assert.Len(t, ctl.Snapshot(), 2)
	assert.Equal(t, "Delete cancelled", status.Last().Message)

	m = press(t, m, "d", "y")
	assert.Equal(t, modeBrowse, m.mode)
	require.Len(t, ctl.Snapshot(), 1)
	assert.Equal(t, "a", ctl.Snapshot()[0].Title)
	assert.Len(t, m.table.Rows(), 1)
}

func TestFilterCycles(t *testing.T) {
	m, ctl, _ := newTestModel(t, "a", "b")
	m = press(t, m, " ")

	m = press(t, m, "f")
	assert.Equal(t, model.FilterCompleted, ctl.Filter())
	assert.Len(t, m.table.Rows(), 1)

	m = press(t, m, "f")
	assert.Equal(t, model.FilterIncomplete, ctl.Filter())
	assert.Len(t, m.table.Rows(), 1)

	m = press(t, m, "f")
	assert.Equal(t, model.FilterAll, ctl.Filter())
	assert.Len(t, m.table.Rows(), 2)
}

func TestViewAndResize(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Contains(t, m.View(), "No todos")

	m, _, _ = newTestModel(t, "Buy milk")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "Todos")
	assert.Contains(t, view, "Buy milk")
	assert.Contains(t, view, "Filter:")
	assert.Equal(t, 24, m.table.Height())
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

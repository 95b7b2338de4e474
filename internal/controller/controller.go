// Package controller owns the in-memory todo snapshot, the active filter and
// the add/edit/delete workflow. It knows nothing about rendering: a
// presentation layer reads Visible and Form, and forwards user actions.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/todo/internal/model"
)

// Store is the record store as seen by the controller.
type Store interface {
	ListAll(ctx context.Context) ([]model.Todo, error)
	Insert(ctx context.Context, d model.Draft) error
	Update(ctx context.Context, t model.Todo) error
	Delete(ctx context.Context, id int64) error
}

// State is the edit form state.
type State int

const (
	// StateEmpty means the form is cleared and nothing is selected.
	StateEmpty State = iota
	// StateSelected means a row is selected and the form holds its fields.
	StateSelected
)

func (s State) String() string {
	if s == StateSelected {
		return "selected"
	}
	return "empty"
}

// Form holds the editable fields of a todo.
type Form struct {
	Title       string
	Description string
	Completed   bool
}

func (f Form) draft() model.Draft {
	return model.Draft{Title: f.Title, Description: f.Description, Completed: f.Completed}.Trimmed()
}

func formOf(t model.Todo) Form {
	return Form{Title: t.Title, Description: t.Description, Completed: t.Completed}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock replaces time.Now for update timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithFilter sets the initial filter.
func WithFilter(f model.Filter) Option {
	return func(c *Controller) { c.filter = f }
}

// Controller is safe for concurrent use. Every operation holds one lock for
// its whole duration, so store calls never interleave with reads of the
// snapshot they replace.
type Controller struct {
	mu       sync.Mutex
	store    Store
	notifier Notifier
	log      *log.Logger
	now      func() time.Time

	snapshot []model.Todo
	visible  []model.Todo
	filter   model.Filter
	selected *model.Todo
	form     Form
}

// New returns a controller with an empty snapshot. Call Refresh to load it.
func New(store Store, notifier Notifier, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		notifier: notifier,
		log:      log.New(io.Discard),
		now:      time.Now,
		snapshot: []model.Todo{},
		visible:  []model.Todo{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = NotifierFunc(func(Notice) {})
	}
	return c
}

// Refresh reloads the snapshot from the store and re-applies the filter.
// On failure the previous snapshot stays in place.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	err := c.refresh(ctx)
	c.mu.Unlock()
	return c.report(err, "")
}

// SetFilter changes the active filter. The visible rows are recomputed from
// the cached snapshot without a store round trip.
func (c *Controller) SetFilter(f model.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
	c.render()
	c.log.Debug("filter changed", "filter", f, "visible", len(c.visible))
}

// Select loads the visible todo with id into the form. Unsaved edits of a
// previous selection are discarded.
func (c *Controller) Select(id int64) error {
	c.mu.Lock()
	err := c.selectID(id)
	c.mu.Unlock()
	return c.report(err, "")
}

// Clear drops the selection and empties the form.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}

// SubmitAdd stores a new todo built from f, then clears the form and
// refreshes. An empty title is rejected without touching the store.
//
// For every change, a failed reload after a successful store call is
// reported on its own and returned as a StoreError with Op OpLoad; the change
// itself is kept.
func (c *Controller) SubmitAdd(ctx context.Context, f Form) error {
	c.mu.Lock()
	err := c.submitAdd(ctx, f)
	reload := c.reloadAfter(ctx, err)
	c.mu.Unlock()
	return c.reportChange(err, reload, "Todo added")
}

// SubmitUpdate overwrites the selected todo with f. The creation time is kept
// and the update time set to now.
func (c *Controller) SubmitUpdate(ctx context.Context, f Form) error {
	c.mu.Lock()
	err := c.submitUpdate(ctx, f)
	reload := c.reloadAfter(ctx, err)
	c.mu.Unlock()
	return c.reportChange(err, reload, "Todo updated")
}

// SubmitDelete removes the selected todo once confirm agrees. A declined
// confirmation returns ErrCancelled and changes nothing. confirm is called
// without the lock held.
func (c *Controller) SubmitDelete(ctx context.Context, confirm Confirm) error {
	c.mu.Lock()
	sel := c.selected
	c.mu.Unlock()
	if sel == nil {
		return c.report(&ValidationError{Message: "Select a row to delete"}, "")
	}
	if confirm == nil || !confirm(DeletePrompt) {
		return c.report(ErrCancelled, "")
	}

	c.mu.Lock()
	err := c.deleteSelected(ctx, sel.ID)
	reload := c.reloadAfter(ctx, err)
	c.mu.Unlock()
	return c.reportChange(err, reload, "Todo deleted")
}

// ToggleCompleted flips the completed flag of the visible todo with id.
func (c *Controller) ToggleCompleted(ctx context.Context, id int64) error {
	c.mu.Lock()
	err := c.selectID(id)
	if err == nil {
		f := c.form
		f.Completed = !f.Completed
		err = c.submitUpdate(ctx, f)
	}
	reload := c.reloadAfter(ctx, err)
	c.mu.Unlock()
	return c.reportChange(err, reload, "Todo updated")
}

// Visible returns the filtered rows, newest first.
func (c *Controller) Visible() []model.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Todo(nil), c.visible...)
}

// Snapshot returns every loaded todo, newest first.
func (c *Controller) Snapshot() []model.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Todo(nil), c.snapshot...)
}

// Filter returns the active filter.
func (c *Controller) Filter() model.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// State reports whether a row is selected.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return StateEmpty
	}
	return StateSelected
}

// Selected returns the selected todo, if any.
func (c *Controller) Selected() (model.Todo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return model.Todo{}, false
	}
	return *c.selected, true
}

// SetForm records what the form widgets currently hold. It does not change
// the selection.
func (c *Controller) SetForm(f Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = f
}

// Form returns the current form contents: the last SetForm, or the fields
// loaded by Select, or an empty form.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Stats counts completed and pending todos in the snapshot.
func (c *Controller) Stats() (done, pending int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.Stats(c.snapshot)
}

// The methods below expect c.mu to be held.

func (c *Controller) refresh(ctx context.Context) error {
	todos, err := c.store.ListAll(ctx)
	if err != nil {
		return &StoreError{Op: OpLoad, Err: err}
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	c.snapshot = todos
	c.render()

	if c.selected != nil {
		if t, ok := find(c.snapshot, c.selected.ID); ok {
			c.selected = &t
		} else {
			c.clear()
		}
	}
	c.log.Debug("snapshot loaded", "total", len(c.snapshot), "visible", len(c.visible))
	return nil
}

func (c *Controller) render() {
	c.visible = c.filter.Apply(c.snapshot)
}

func (c *Controller) clear() {
	c.selected = nil
	c.form = Form{}
}

func (c *Controller) selectID(id int64) error {
	t, ok := find(c.visible, id)
	if !ok {
		return &ValidationError{Message: fmt.Sprintf("Todo %d is not in the list", id)}
	}
	c.selected = &t
	c.form = formOf(t)
	return nil
}

func (c *Controller) submitAdd(ctx context.Context, f Form) error {
	d := f.draft()
	if d.Title == "" {
		return &ValidationError{Message: "Title is required"}
	}
	if err := c.store.Insert(ctx, d); err != nil {
		return &StoreError{Op: "add todo", Err: err}
	}
	c.log.Info("todo added", "title", d.Title)
	c.clear()
	return nil
}

func (c *Controller) submitUpdate(ctx context.Context, f Form) error {
	if c.selected == nil {
		return &ValidationError{Message: "Select a row to update"}
	}
	d := f.draft()
	if d.Title == "" {
		return &ValidationError{Message: "Title is required"}
	}

	orig := *c.selected
	now := c.now()
	if now.Before(orig.CreatedAt) {
		now = orig.CreatedAt
	}
	t := model.Todo{
		ID:          orig.ID,
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		CreatedAt:   orig.CreatedAt,
		UpdatedAt:   now,
	}
	if err := c.store.Update(ctx, t); err != nil {
		return &StoreError{Op: "update todo", Err: err}
	}
	c.log.Info("todo updated", "id", t.ID, "completed", t.Completed)
	c.clear()
	return nil
}

func (c *Controller) deleteSelected(ctx context.Context, id int64) error {
	if c.selected == nil || c.selected.ID != id {
		return &ValidationError{Message: "Selection changed, delete cancelled"}
	}
	if err := c.store.Delete(ctx, id); err != nil {
		return &StoreError{Op: "delete todo", Err: err}
	}
	c.log.Info("todo deleted", "id", id)
	c.clear()
	return nil
}

func (c *Controller) reloadAfter(ctx context.Context, err error) error {
	if err != nil {
		return nil
	}
	return c.refresh(ctx)
}

// reportChange announces a stored change before any reload failure.
// It must be called without c.mu held.
func (c *Controller) reportChange(err, reload error, success string) error {
	if err != nil {
		return c.report(err, "")
	}
	c.report(nil, success)
	return c.report(reload, "")
}

// report logs err and turns it, or the success message, into a notice.
// It must be called without c.mu held.
func (c *Controller) report(err error, success string) error {
	if err == nil {
		if success != "" {
			c.notifier.Notify(Notice{Level: LevelInfo, Message: success})
		}
		return nil
	}

	var (
		verr *ValidationError
		serr *StoreError
	)
	switch {
	case errors.Is(err, ErrCancelled):
		c.log.Debug("delete cancelled")
		c.notifier.Notify(Notice{Level: LevelInfo, Message: "Delete cancelled"})
	case errors.As(err, &verr):
		c.log.Warn("rejected input", "reason", verr.Message)
		c.notifier.Notify(Notice{Level: LevelWarning, Message: verr.Message})
	case errors.As(err, &serr):
		c.log.Error("store call failed", "op", serr.Op, "err", serr.Err)
		c.notifier.Notify(Notice{Level: LevelError, Message: serr.message()})
	default:
		c.log.Error("unexpected failure", "err", err)
		c.notifier.Notify(Notice{Level: LevelError, Message: err.Error()})
	}
	return err
}

func find(todos []model.Todo, id int64) (model.Todo, bool) {
	for _, t := range todos {
		if t.ID == id {
			return t, true
		}
	}
	return model.Todo{}, false
}

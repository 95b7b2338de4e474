package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/todo/internal/controller"
	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store/jsonstore"
	"github.com/idilsaglam/todo/internal/tui"
	"github.com/idilsaglam/todo/internal/ui"
)

const defaultTimeout = 10 * time.Second

// Store is everything the subcommands need from the record store.
type Store interface {
	controller.Store
	ListByStatus(ctx context.Context, f model.Filter) ([]model.Todo, error)
	EnsureSchema(ctx context.Context) error
}

// Options tune output behavior from root flags.
type Options struct {
	Group   bool         // list grouped by pending/done
	Filter  model.Filter // initial filter for `ls` and the UI
	Timeout time.Duration

	// Open connects to the store. It is only called by subcommands that need
	// it, and the store is closed on return if it implements io.Closer.
	Open func(ctx context.Context) (Store, error)

	// Interactive runs the full-screen UI. Defaults to tui.Run.
	Interactive func(ctx context.Context, ctl *controller.Controller, status *tui.Status) error

	Logger *log.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Interactive == nil {
		timeout := o.Timeout
		o.Interactive = func(ctx context.Context, ctl *controller.Controller, status *tui.Status) error {
			return tui.Run(ctx, ctl, status, tui.Options{Timeout: timeout})
		}
	}
	return o
}

// Interactive reports whether args start the full-screen UI.
func Interactive(args []string) bool {
	return len(args) == 0 || args[0] == "ui"
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
// No subcommand starts the UI.
func Run(ctx context.Context, args []string, opt Options) int {
	r := &runner{ctx: ctx, opt: opt.withDefaults()}
	defer r.close()

	if len(args) == 0 {
		return r.doUI()
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(r.opt.Stdout)
		return 0
	case "ui":
		return r.doUI()
	case "ls":
		return r.doList(a)
	case "add":
		return r.doAdd(a)
	case "update":
		return r.doUpdate(a)
	case "done":
		return r.doToggle(a)
	case "rm":
		return r.doRemove(a)
	case "export":
		return r.doExport(a)
	case "import":
		return r.doImport(a)
	case "init":
		return r.doInit(a)
	}

	ui.Fail(r.opt.Stderr, "unknown subcommand: "+cmd)
	fmt.Fprintln(r.opt.Stderr)
	PrintHelp(r.opt.Stderr)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `todo - todos in a PostgreSQL table

Usage:
  todo [root flags] [subcommand] [args]

Subcommands:
  ui                          Full-screen editor (default)
  ls [-filter f] [-group]     List todos (all, completed, incomplete)
  add [-d text] [-done] <title...>
                              Add a todo (title can be multiple words)
  update <id> [-title t] [-d text] [-done=true|false]
                              Change fields of a todo
  done <id>                   Toggle completed
  rm [-y] <id>                Delete a todo, asking first unless -y
  export [file]               Write all todos as JSON (default todos.json)
  import <file>               Add every todo found in a JSON export
  init                        Create the todos table if it is missing

Root flags:
  -config, -db, -log-level, -log-file, -theme, -filter, -group, -init, -timeout

Examples:
  todo add -d "2 litres" Buy milk
  todo ls -filter incomplete
  todo done 2
  todo rm 3
`)
}

type runner struct {
	ctx   context.Context
	opt   Options
	store Store
}

// connect opens the store once. It prints the failure itself.
func (r *runner) connect() bool {
	if r.store != nil {
		return true
	}
	if r.opt.Open == nil {
		ui.Fail(r.opt.Stderr, "no database configured")
		return false
	}
	ctx, cancel := context.WithTimeout(r.ctx, r.opt.Timeout)
	defer cancel()
	s, err := r.opt.Open(ctx)
	if err != nil {
		ui.Fail(r.opt.Stderr, "connect: "+err.Error())
		return false
	}
	r.store = s
	return true
}

func (r *runner) close() {
	if c, ok := r.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			r.opt.Logger.Warn("closing store", "err", err)
		}
	}
}

func (r *runner) controller(n controller.Notifier, f model.Filter) *controller.Controller {
	return controller.New(r.store, n, controller.WithLogger(r.opt.Logger), controller.WithFilter(f))
}

// call bounds one store round trip with the configured timeout.
func (r *runner) call(fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(r.ctx, r.opt.Timeout)
	defer cancel()
	return fn(ctx)
}

// printer shows controller notices on the terminal.
type printer struct {
	out, err io.Writer
	quiet    bool // drop info notices
}

func (p printer) Notify(n controller.Notice) {
	switch n.Level {
	case controller.LevelInfo:
		if !p.quiet {
			ui.OK(p.out, n.Message)
		}
	case controller.LevelWarning:
		ui.Warn(p.err, n.Message)
	default:
		ui.Fail(p.err, n.Message)
	}
}

func (r *runner) printer() printer {
	return printer{out: r.opt.Stdout, err: r.opt.Stderr}
}

// exitCode maps a controller error to an exit code. The notice has already
// been printed.
func exitCode(err error) int {
	var verr *controller.ValidationError
	switch {
	case err == nil, errors.Is(err, controller.ErrCancelled):
		return 0
	case errors.As(err, &verr):
		return 2
	default:
		return 1
	}
}

// changeExit is exitCode for a stored change. A reload that fails after the
// change was stored still exits 0, so a retry does not repeat the change.
func changeExit(err error) int {
	if stale(err) {
		return 0
	}
	return exitCode(err)
}

func stale(err error) bool {
	var serr *controller.StoreError
	return errors.As(err, &serr) && serr.Op == controller.OpLoad
}

func (r *runner) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.opt.Stderr)
	return fs
}

// parseWithID parses "<id> [flags]" or "[flags] <id>".
func (r *runner) parseWithID(fs *flag.FlagSet, args []string) (int64, bool) {
	usage := "usage: todo " + fs.Name() + " <id>"
	var raw string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		raw, args = args[0], args[1:]
		if err := fs.Parse(args); err != nil {
			return 0, false
		}
		if fs.NArg() != 0 {
			ui.Fail(r.opt.Stderr, usage)
			return 0, false
		}
	} else {
		if err := fs.Parse(args); err != nil {
			return 0, false
		}
		if fs.NArg() != 1 {
			ui.Fail(r.opt.Stderr, usage)
			return 0, false
		}
		raw = fs.Arg(0)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		ui.Fail(r.opt.Stderr, fs.Name()+": not a number: "+raw)
		return 0, false
	}
	return id, true
}

// -------------- subcommand impls ----------------

func (r *runner) doUI() int {
	if !r.connect() {
		return 1
	}
	status := &tui.Status{}
	ctl := r.controller(status, r.opt.Filter)
	if err := r.opt.Interactive(r.ctx, ctl, status); err != nil {
		ui.Fail(r.opt.Stderr, "ui: "+err.Error())
		return 1
	}
	return 0
}

func (r *runner) doList(args []string) int {
	fs := r.newFlags("ls")
	filterName := fs.String("filter", r.opt.Filter.String(), "all, completed or incomplete")
	group := fs.Bool("group", r.opt.Group, "group output by pending/done")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	filter, err := model.ParseFilter(*filterName)
	if err != nil {
		ui.Fail(r.opt.Stderr, "ls: "+err.Error())
		return 2
	}
	if !r.connect() {
		return 1
	}

	var todos []model.Todo
	err = r.call(func(ctx context.Context) error {
		var err error
		todos, err = r.store.ListByStatus(ctx, filter)
		return err
	})
	if err != nil {
		ui.Fail(r.opt.Stderr, "Failed to load todos: "+err.Error())
		return 1
	}

	d, p := model.Stats(todos)
	th := ui.Current()
	lines := []string{
		ui.Header(d, p),
		th.Muted.Render(ui.ProgressBar(d, d+p, 28)),
		th.Muted.Render("Filter: " + filter.String()),
		"",
	}
	switch {
	case *group:
		lines = append(lines, ui.GroupedTables(todos)...)
	case len(todos) == 0:
		lines = append(lines, th.Muted.Render("no todos"))
	default:
		lines = append(lines, ui.TodoTable(todos))
	}
	lines = append(lines, "")
	lines = append(lines, th.Muted.Render("Tip: add with `todo add \"Buy milk\"`"))
	fmt.Fprintln(r.opt.Stdout, ui.Panel(lines))
	return 0
}

func (r *runner) doAdd(args []string) int {
	fs := r.newFlags("add")
	desc := fs.String("d", "", "description")
	done := fs.Bool("done", false, "mark as completed")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		ui.Fail(r.opt.Stderr, "usage: todo add [-d text] [-done] <title...>")
		return 2
	}
	form := controller.Form{
		Title:       strings.Join(fs.Args(), " "),
		Description: *desc,
		Completed:   *done,
	}
	if !r.connect() {
		return 1
	}
	ctl := r.controller(r.printer(), model.FilterAll)
	return changeExit(r.call(func(ctx context.Context) error { return ctl.SubmitAdd(ctx, form) }))
}

func (r *runner) doUpdate(args []string) int {
	fs := r.newFlags("update")
	title := fs.String("title", "", "new title")
	desc := fs.String("d", "", "new description")
	done := fs.Bool("done", false, "completed state")
	id, ok := r.parseWithID(fs, args)
	if !ok {
		return 2
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if len(set) == 0 {
		ui.Fail(r.opt.Stderr, "update: nothing to change, pass -title, -d or -done")
		return 2
	}

	ctl, code := r.selected(id)
	if ctl == nil {
		return code
	}
	form := ctl.Form()
	if set["title"] {
		form.Title = *title
	}
	if set["d"] {
		form.Description = *desc
	}
	if set["done"] {
		form.Completed = *done
	}
	return changeExit(r.call(func(ctx context.Context) error { return ctl.SubmitUpdate(ctx, form) }))
}

func (r *runner) doToggle(args []string) int {
	id, ok := r.parseWithID(r.newFlags("done"), args)
	if !ok {
		return 2
	}
	if !r.connect() {
		return 1
	}
	ctl := r.controller(r.printer(), model.FilterAll)
	if err := r.call(ctl.Refresh); err != nil {
		return exitCode(err)
	}
	err := r.call(func(ctx context.Context) error { return ctl.ToggleCompleted(ctx, id) })
	r.hintOnMissing(err)
	return changeExit(err)
}

func (r *runner) doRemove(args []string) int {
	fs := r.newFlags("rm")
	yes := fs.Bool("y", false, "do not ask for confirmation")
	id, ok := r.parseWithID(fs, args)
	if !ok {
		return 2
	}
	ctl, code := r.selected(id)
	if ctl == nil {
		return code
	}
	confirm := controller.Confirmed
	if !*yes {
		confirm = r.prompt
	}
	return changeExit(r.call(func(ctx context.Context) error { return ctl.SubmitDelete(ctx, confirm) }))
}

// selected loads the snapshot and selects id. On failure it returns a nil
// controller and the exit code.
func (r *runner) selected(id int64) (*controller.Controller, int) {
	if !r.connect() {
		return nil, 1
	}
	ctl := r.controller(r.printer(), model.FilterAll)
	if err := r.call(ctl.Refresh); err != nil {
		return nil, exitCode(err)
	}
	if err := ctl.Select(id); err != nil {
		r.hintOnMissing(err)
		return nil, exitCode(err)
	}
	return ctl, 0
}

func (r *runner) hintOnMissing(err error) {
	var verr *controller.ValidationError
	if errors.As(err, &verr) {
		ui.Hint(r.opt.Stderr, "Hint: run `todo ls` to see valid ids")
	}
}

// prompt asks msg on stdout and reads the answer from stdin.
func (r *runner) prompt(msg string) bool {
	fmt.Fprintf(r.opt.Stdout, "%s [y/N] ", msg)
	line, _ := bufio.NewReader(r.opt.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (r *runner) doExport(args []string) int {
	if len(args) > 1 {
		ui.Fail(r.opt.Stderr, "usage: todo export [file]")
		return 2
	}
	var name string
	if len(args) == 1 {
		name = args[0]
	}
	path, err := jsonstore.Path(name)
	if err != nil {
		ui.Fail(r.opt.Stderr, "export: "+err.Error())
		return 1
	}
	if !r.connect() {
		return 1
	}
	ctl := r.controller(r.printer(), model.FilterAll)
	if err := r.call(ctl.Refresh); err != nil {
		return exitCode(err)
	}
	todos := ctl.Snapshot()
	if err := jsonstore.Save(path, todos); err != nil {
		ui.Fail(r.opt.Stderr, "export: "+err.Error())
		return 1
	}
	ui.OK(r.opt.Stdout, fmt.Sprintf("exported %d todos to %s", len(todos), path))
	return 0
}

func (r *runner) doImport(args []string) int {
	if len(args) != 1 {
		ui.Fail(r.opt.Stderr, "usage: todo import <file>")
		return 2
	}
	path, err := jsonstore.Path(args[0])
	if err != nil {
		ui.Fail(r.opt.Stderr, "import: "+err.Error())
		return 1
	}
	drafts, err := jsonstore.Load(path)
	if err != nil {
		ui.Fail(r.opt.Stderr, "import: "+err.Error())
		return 1
	}
	if !r.connect() {
		return 1
	}

	p := r.printer()
	p.quiet = true
	ctl := r.controller(p, model.FilterAll)
	var added, skipped int
	for i, d := range drafts {
		form := controller.Form{Title: d.Title, Description: d.Description, Completed: d.Completed}
		err := r.call(func(ctx context.Context) error { return ctl.SubmitAdd(ctx, form) })
		var verr *controller.ValidationError
		switch {
		case err == nil, stale(err):
			added++
		case errors.As(err, &verr):
			r.opt.Logger.Warn("skipping import entry", "index", i, "reason", verr.Message)
			skipped++
		default:
			ui.Fail(r.opt.Stderr, fmt.Sprintf("import stopped after %d of %d todos", added, len(drafts)))
			return 1
		}
	}
	if skipped > 0 {
		ui.Warn(r.opt.Stderr, fmt.Sprintf("skipped %d entries without a title", skipped))
	}
	ui.OK(r.opt.Stdout, fmt.Sprintf("imported %d todos from %s", added, path))
	return 0
}

func (r *runner) doInit(args []string) int {
	if len(args) != 0 {
		ui.Fail(r.opt.Stderr, "usage: todo init")
		return 2
	}
	if !r.connect() {
		return 1
	}
	if err := r.call(r.store.EnsureSchema); err != nil {
		ui.Fail(r.opt.Stderr, "init: "+err.Error())
		return 1
	}
	ui.OK(r.opt.Stdout, "todos table is ready")
	return 0
}

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	// browse
	Up      key.Binding
	Down    key.Binding
	Edit    key.Binding
	New     key.Binding
	Toggle  key.Binding
	Delete  key.Binding
	Filter  key.Binding
	Refresh key.Binding
	Clear   key.Binding
	Quit    key.Binding

	// form
	Next      key.Binding
	Prev      key.Binding
	Check     key.Binding
	Save      key.Binding
	SaveAsNew key.Binding
	Cancel    key.Binding

	// confirm
	Yes key.Binding
	No  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Edit:    key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		New:     key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "add")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle done")),
		Delete:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Filter:  key.NewBinding(key.WithKeys("f", "tab"), key.WithHelp("f", "filter")),
		Refresh: key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Next:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Prev:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
		Check:     key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "completed")),
		Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		SaveAsNew: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "save as new")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),

		Yes: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "delete")),
		No:  key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "keep")),
	}
}

func (k keyMap) browseHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Edit, k.New, k.Toggle, k.Delete, k.Filter, k.Refresh, k.Quit}
}

func (k keyMap) formHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Check, k.Save, k.SaveAsNew, k.Cancel}
}

func (k keyMap) confirmHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No}
}

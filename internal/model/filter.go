package model

import (
	"fmt"
	"strings"
)

// Filter selects which todos are visible.
type Filter int

const (
	FilterAll Filter = iota
	FilterCompleted
	FilterIncomplete
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterCompleted, FilterIncomplete}

func (f Filter) String() string {
	switch f {
	case FilterCompleted:
		return "Completed"
	case FilterIncomplete:
		return "Incomplete"
	default:
		return "All"
	}
}

// ParseFilter accepts a filter name in any case. "done" and "pending" are
// accepted as aliases; the empty string means All.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "completed", "done":
		return FilterCompleted, nil
	case "incomplete", "pending":
		return FilterIncomplete, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q (want all, completed or incomplete)", s)
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Todo) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterIncomplete:
		return !t.Completed
	default:
		return true
	}
}

// Apply returns the todos that pass the filter, keeping their order.
// The result never aliases the input.
func (f Filter) Apply(todos []Todo) []Todo {
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Next cycles All -> Completed -> Incomplete -> All.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterCompleted
	case FilterCompleted:
		return FilterIncomplete
	default:
		return FilterAll
	}
}

package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/idilsaglam/todo/internal/model"
)

// TimeLayout formats timestamps in tables.
const TimeLayout = "2006-01-02 15:04"

// Columns are the headers of the todo table.
var Columns = []string{"ID", "Title", "Description", "Completed", "Created At", "Updated At"}

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// Panel frames lines with the current theme's border.
func Panel(lines []string) string {
	return lipgloss.NewStyle().
		Border(current.Border).
		BorderForeground(current.BorderColor).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// Header renders the "Todos ✔ n • n Total n" line.
func Header(done, pending int) string {
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		current.Title.Render("Todos"),
		current.Success.Render(current.SymDone), done,
		current.Pending.Render(current.SymPending), pending,
		current.Accent.Render("Total"), done+pending,
	)
}

// Row turns a todo into table cells, in Columns order.
func Row(t model.Todo) []string {
	return []string{
		strconv.FormatInt(t.ID, 10),
		t.Title,
		Truncate(oneLine(t.Description), 40),
		Checkbox(t.Completed),
		FormatTime(t.CreatedAt),
		FormatTime(t.UpdatedAt),
	}
}

// Checkbox renders the completed flag.
func Checkbox(done bool) string {
	if done {
		return current.BoxChecked
	}
	return current.BoxUnchecked
}

// FormatTime renders a timestamp in local time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(TimeLayout)
}

// Truncate cuts s to max runes, ending with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max || max < 4 {
		return s
	}
	return string(r[:max-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TodoTable renders todos as a bordered table for non-interactive output.
func TodoTable(todos []model.Todo) string {
	rows := make([][]string, 0, len(todos))
	for _, t := range todos {
		rows = append(rows, Row(t))
	}
	titleCol, completedCol := 1, 3
	return table.New().
		Border(current.Border).
		BorderStyle(lipgloss.NewStyle().Foreground(current.BorderColor)).
		Headers(Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Inherit(current.Title)
			}
			if row >= 0 && row < len(todos) && todos[row].Completed {
				switch col {
				case titleCol:
					return base.Inherit(current.Done)
				case completedCol:
					return base.Inherit(current.Success)
				}
			}
			return base
		}).
		String()
}

// GroupedTables renders pending and done todos as two titled tables.
func GroupedTables(todos []model.Todo) []string {
	pending := model.FilterIncomplete.Apply(todos)
	done := model.FilterCompleted.Apply(todos)

	var lines []string
	lines = append(lines, current.Accent.Render("Pending"))
	if len(pending) == 0 {
		lines = append(lines, current.Muted.Render("(none)"))
	} else {
		lines = append(lines, TodoTable(pending))
	}
	lines = append(lines, "")
	lines = append(lines, current.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, current.Muted.Render("(none)"))
	} else {
		lines = append(lines, TodoTable(done))
	}
	return lines
}

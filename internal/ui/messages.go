package ui

import (
	"fmt"
	"io"
)

// OK prints a success line.
func OK(w io.Writer, msg string) { fmt.Fprintln(w, current.Success.Render("✔ "+msg)) }

// Fail prints an error line.
func Fail(w io.Writer, msg string) { fmt.Fprintln(w, current.Error.Render("✖ "+msg)) }

// Warn prints a warning line.
func Warn(w io.Writer, msg string) { fmt.Fprintln(w, current.Warning.Render("! "+msg)) }

// Hint prints a muted line.
func Hint(w io.Writer, msg string) { fmt.Fprintln(w, current.Muted.Render(msg)) }

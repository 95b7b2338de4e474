package controller

// Level grades a notice for display.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a message for the user.
type Notice struct {
	Level   Level
	Message string
}

// Notifier receives notices. Notify must not block.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// DeletePrompt is the question asked before a delete.
const DeletePrompt = "Delete selected todo?"

// Confirm asks the user a yes/no question and blocks until answered.
type Confirm func(prompt string) bool

// Confirmed answers yes without asking. Use it once the user has already
// agreed through the presentation layer.
func Confirmed(string) bool { return true }

// Declined answers no without asking.
func Declined(string) bool { return false }

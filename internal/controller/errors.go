package controller

import "errors"

// ErrCancelled is returned when the user declines a destructive action.
var ErrCancelled = errors.New("cancelled by user")

// ValidationError rejects user input before any store call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// OpLoad is the StoreError Op of a failed snapshot reload.
const OpLoad = "load todos"

// StoreError wraps a failed record store call. Op names the intent, e.g.
// "add todo".
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "failed to " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// message is the user-facing wording shown in notices.
func (e *StoreError) message() string { return "Failed to " + e.Op + ": " + e.Err.Error() }

package logging

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"
)

// RecoveryHandler handles panics with logging. The wizard wraps its run
// loop in one so a panic cannot leave the terminal in raw mode without a
// trace of what happened.
type RecoveryHandler struct {
	Component string
	OnPanic   func(err interface{}, stack string)
}

// NewRecoveryHandler creates a recovery handler for a component
func NewRecoveryHandler(component string) *RecoveryHandler {
	return &RecoveryHandler{Component: component}
}

// WrapError executes fn with panic recovery, returning error on panic
func (r *RecoveryHandler) WrapError(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			stack := string(debug.Stack())
			err = r.handlePanic(rec, stack)
		}
	}()
	return fn()
}

func (r *RecoveryHandler) handlePanic(rec interface{}, stack string) error {
	errMsg := fmt.Sprintf("panic in %s: %v", r.Component, rec)

	fmt.Fprintf(os.Stderr, "\n=== PANIC RECOVERED ===\n")
	fmt.Fprintf(os.Stderr, "Component: %s\n", r.Component)
	fmt.Fprintf(os.Stderr, "Time: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(os.Stderr, "Error: %v\n", rec)
	fmt.Fprintf(os.Stderr, "%s\n", stack)

	emit(Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelError,
		Component: r.Component,
		Event:     "panic",
		Error:     errMsg,
	})

	if r.OnPanic != nil {
		r.OnPanic(rec, stack)
	}

	return fmt.Errorf("%s", errMsg)
}

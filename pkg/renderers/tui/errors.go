package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoPrediction is returned when the user declines to retry a failed
	// submission.
	ErrNoPrediction = errors.New("tui: no prediction obtained")
)

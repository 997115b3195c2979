package model

// Phase tags a SubmissionState.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// SubmissionState is the shared result state. Only one of result and message
// can be set because each phase has its own constructor; the zero value is
// Idle.
type SubmissionState struct {
	phase   Phase
	result  PredictionResult
	message string
}

// Idle reports no submission outcome.
func Idle() SubmissionState {
	return SubmissionState{phase: PhaseIdle}
}

// Pending marks an in-flight submission.
func Pending() SubmissionState {
	return SubmissionState{phase: PhasePending}
}

// Succeeded carries a prediction result.
func Succeeded(result PredictionResult) SubmissionState {
	return SubmissionState{phase: PhaseSucceeded, result: result}
}

// Failed carries a displayable error message.
func Failed(message string) SubmissionState {
	return SubmissionState{phase: PhaseFailed, message: message}
}

// Phase returns the state tag.
func (s SubmissionState) Phase() Phase {
	return s.phase
}

// Pending reports whether a submission is in flight.
func (s SubmissionState) Pending() bool {
	return s.phase == PhasePending
}

// Result returns the prediction when the state succeeded.
func (s SubmissionState) Result() (PredictionResult, bool) {
	if s.phase != PhaseSucceeded {
		return PredictionResult{}, false
	}
	return s.result, true
}

// ErrorMessage returns the failure message, or "" when the state did not fail.
func (s SubmissionState) ErrorMessage() string {
	if s.phase != PhaseFailed {
		return ""
	}
	return s.message
}

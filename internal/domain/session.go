package domain

import "time"

// SessionState enumerates the edit session lifecycle.
type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionEditing    SessionState = "editing"
	SessionSubmitting SessionState = "submitting"
	SessionSucceeded  SessionState = "succeeded"
	SessionFailed     SessionState = "failed"
)

// AttemptStatus enumerates the lifecycle of a single submission.
type AttemptStatus string

const (
	AttemptRunning   AttemptStatus = "running"
	AttemptSucceeded AttemptStatus = "succeeded"
	AttemptFailed    AttemptStatus = "failed"
)

// EditAttempt is one submission of a source image and its mask to the edit
// collaborator.
type EditAttempt struct {
	ID           string
	SessionID    string
	Attempt      int
	Provider     string
	Instruction  string
	Locale       string
	Status       AttemptStatus
	FailureKind  FailureKind
	ErrorMessage string
	SourceWidth  int
	SourceHeight int
	MaskBytes    int
	ResultKey    string
	Duration     time.Duration
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

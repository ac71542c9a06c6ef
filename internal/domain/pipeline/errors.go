package pipeline

import "errors"

var (
	// ErrInvalidTransition is returned when a stage transition is not allowed
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrGuardFailed is returned when every guarded transition for a trigger rejects it
	ErrGuardFailed = errors.New("guard condition failed")
)

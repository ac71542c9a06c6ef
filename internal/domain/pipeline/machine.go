package pipeline

import "context"

// StateMachine tracks the current stage of one invoice and validates transitions
type StateMachine interface {
	// State returns the current stage
	State() Stage

	// CanFire returns true if the trigger is permitted in the current stage
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, moving to the target stage if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current stage
	PermittedTriggers() []Trigger
}

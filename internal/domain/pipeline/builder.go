package pipeline

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// Builder collects the transition table and produces independent machines
type Builder interface {
	// Configure returns the configuration for transitions leaving the given stage
	Configure(stage Stage) StageConfiguration

	// Build creates a new state machine starting at the given stage
	Build(initial Stage) StateMachine
}

// StageConfiguration configures transitions for a specific stage
type StageConfiguration interface {
	// Permit allows a trigger to move to the target stage
	Permit(trigger Trigger, to Stage) StageConfiguration

	// PermitIf allows a trigger to move to the target stage when the guard passes
	PermitIf(trigger Trigger, to Stage, guard GuardFunc) StageConfiguration
}

type transition struct {
	to    Stage
	guard GuardFunc
}

type stageConfig struct {
	from        Stage
	transitions map[Trigger][]transition
}

type builder struct {
	configurations map[Stage]*stageConfig
}

type stateMachine struct {
	current        Stage
	configurations map[Stage]*stageConfig
}

// NewBuilder creates an empty transition table builder
func NewBuilder() Builder {
	return &builder{
		configurations: make(map[Stage]*stageConfig),
	}
}

// DemoPipeline returns the forward-only table queued -> parsing -> analyzing -> complete
func DemoPipeline() Builder {
	b := NewBuilder()
	b.Configure(StageQueued).Permit(TriggerParse, StageParsing)
	b.Configure(StageParsing).Permit(TriggerAnalyze, StageAnalyzing)
	b.Configure(StageAnalyzing).Permit(TriggerComplete, StageComplete)
	return b
}

// Configure returns the configuration for the given stage, creating it on first use
func (b *builder) Configure(stage Stage) StageConfiguration {
	if !stage.IsValid() {
		panic(fmt.Sprintf("invalid stage: %s", stage))
	}

	config, exists := b.configurations[stage]
	if !exists {
		config = &stageConfig{
			from:        stage,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[stage] = config
	}

	return config
}

// Build creates a machine with its own copy of the transition table
func (b *builder) Build(initial Stage) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial stage: %s", initial))
	}

	configs := make(map[Stage]*stageConfig, len(b.configurations))
	for stage, config := range b.configurations {
		transitions := make(map[Trigger][]transition, len(config.transitions))
		for trigger, ts := range config.transitions {
			transitions[trigger] = append([]transition{}, ts...)
		}
		configs[stage] = &stageConfig{
			from:        stage,
			transitions: transitions,
		}
	}

	return &stateMachine{
		current:        initial,
		configurations: configs,
	}
}

// Permit allows a trigger to move to the target stage
func (c *stageConfig) Permit(trigger Trigger, to Stage) StageConfiguration {
	return c.PermitIf(trigger, to, nil)
}

// PermitIf allows a trigger to move to the target stage when the guard passes
func (c *stageConfig) PermitIf(trigger Trigger, to Stage, guard GuardFunc) StageConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target stage: %s", to))
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition{
		to:    to,
		guard: guard,
	})

	return c
}

// State returns the current stage
func (m *stateMachine) State() Stage {
	return m.current
}

// CanFire reports whether any transition is configured for the trigger.
// Guards are not evaluated here.
func (m *stateMachine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.current]
	if !exists {
		return false
	}

	return len(config.transitions[trigger]) > 0
}

// Fire executes the trigger, moving to the first transition whose guard passes
func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	config, exists := m.configurations[m.current]
	if !exists {
		return fmt.Errorf("%w: cannot fire %s from %s (no configuration)", ErrInvalidTransition, trigger, m.current)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers returns all triggers configured for the current stage
func (m *stateMachine) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.current]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}

	return triggers
}

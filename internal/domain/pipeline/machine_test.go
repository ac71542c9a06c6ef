package pipeline

import (
	"context"
	"errors"
	"testing"
)

type guardKey struct{}

func TestStage_IsTerminal(t *testing.T) {
	tests := []struct {
		stage    Stage
		expected bool
	}{
		{StageQueued, false},
		{StageParsing, false},
		{StageAnalyzing, false},
		{StageComplete, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			if got := tt.stage.IsTerminal(); got != tt.expected {
				t.Errorf("Stage.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStage_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		stage    Stage
		expected bool
	}{
		{"queued", StageQueued, true},
		{"complete", StageComplete, true},
		{"unknown", Stage("uploading"), false},
		{"empty", Stage(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stage.IsValid(); got != tt.expected {
				t.Errorf("Stage.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_ConfigureReturnsSameConfig(t *testing.T) {
	b := NewBuilder()

	first := b.Configure(StageQueued)
	second := b.Configure(StageQueued)
	if first != second {
		t.Error("Configure() should return same config for same stage")
	}
}

func TestBuilder_PanicsOnInvalidStages(t *testing.T) {
	cases := map[string]func(){
		"configure": func() { NewBuilder().Configure(Stage("bogus")) },
		"build":     func() { NewBuilder().Build(Stage("bogus")) },
		"permit":    func() { NewBuilder().Configure(StageQueued).Permit(TriggerParse, Stage("bogus")) },
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("%s should panic on invalid stage", name)
				}
			}()
			fn()
		})
	}
}

func TestDemoPipeline_ForwardPath(t *testing.T) {
	machine := DemoPipeline().Build(StageQueued)

	steps := []struct {
		trigger Trigger
		want    Stage
	}{
		{TriggerParse, StageParsing},
		{TriggerAnalyze, StageAnalyzing},
		{TriggerComplete, StageComplete},
	}

	for i, step := range steps {
		if err := machine.Fire(context.Background(), step.trigger); err != nil {
			t.Fatalf("step %d: Fire(%s) failed: %v", i, step.trigger, err)
		}
		if machine.State() != step.want {
			t.Fatalf("step %d: State() = %s, want %s", i, machine.State(), step.want)
		}
	}

	if !machine.State().IsTerminal() {
		t.Error("final stage should be terminal")
	}
	if got := machine.PermittedTriggers(); len(got) != 0 {
		t.Errorf("terminal stage should permit no triggers, got %v", got)
	}
}

func TestDemoPipeline_RejectsSkipsAndRegressions(t *testing.T) {
	tests := []struct {
		name    string
		from    Stage
		trigger Trigger
	}{
		{"queued cannot skip to analyzing", StageQueued, TriggerAnalyze},
		{"queued cannot complete", StageQueued, TriggerComplete},
		{"parsing cannot parse again", StageParsing, TriggerParse},
		{"analyzing cannot go back to parsing", StageAnalyzing, TriggerParse},
		{"complete is frozen", StageComplete, TriggerComplete},
		{"complete cannot restart", StageComplete, TriggerParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := DemoPipeline().Build(tt.from)

			err := machine.Fire(context.Background(), tt.trigger)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("Fire() error = %v, want %v", err, ErrInvalidTransition)
			}
			if machine.State() != tt.from {
				t.Errorf("stage changed to %s after rejected transition", machine.State())
			}
		})
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	machine := DemoPipeline().Build(StageParsing)

	if !machine.CanFire(TriggerAnalyze) {
		t.Error("CanFire(ANALYZE) should be true from parsing")
	}
	if machine.CanFire(TriggerComplete) {
		t.Error("CanFire(COMPLETE) should be false from parsing")
	}
}

func TestStateMachine_PermitIfGuard(t *testing.T) {
	b := NewBuilder()
	b.Configure(StageParsing).
		PermitIf(TriggerAnalyze, StageAnalyzing, func(ctx context.Context) bool {
			ready, _ := ctx.Value(guardKey{}).(bool)
			return ready
		})

	blocked := b.Build(StageParsing)
	err := blocked.Fire(context.Background(), TriggerAnalyze)
	if !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if blocked.State() != StageParsing {
		t.Errorf("stage should stay parsing, got %s", blocked.State())
	}

	allowed := b.Build(StageParsing)
	ctx := context.WithValue(context.Background(), guardKey{}, true)
	if err := allowed.Fire(ctx, TriggerAnalyze); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if allowed.State() != StageAnalyzing {
		t.Errorf("State() = %s, want %s", allowed.State(), StageAnalyzing)
	}
}

func TestStateMachine_NoConfiguration(t *testing.T) {
	machine := NewBuilder().Build(StageQueued)

	err := machine.Fire(context.Background(), TriggerParse)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if len(machine.PermittedTriggers()) != 0 {
		t.Error("unconfigured stage should permit no triggers")
	}
}

func TestStateMachine_MachinesAreIndependent(t *testing.T) {
	b := DemoPipeline()
	first := b.Build(StageQueued)
	second := b.Build(StageQueued)

	if err := first.Fire(context.Background(), TriggerParse); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}

	if second.State() != StageQueued {
		t.Errorf("second machine stage = %s, want %s", second.State(), StageQueued)
	}

	// Later configuration of the builder must not leak into built machines
	b.Configure(StageQueued).Permit(TriggerComplete, StageComplete)
	if second.CanFire(TriggerComplete) {
		t.Error("built machine picked up a transition configured after Build()")
	}
}

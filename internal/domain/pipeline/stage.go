package pipeline

// Stage is the transient demo pipeline position of an invoice
type Stage string

const (
	StageQueued    Stage = "queued"
	StageParsing   Stage = "parsing"
	StageAnalyzing Stage = "analyzing"
	StageComplete  Stage = "complete"
)

var validStages = map[Stage]bool{
	StageQueued:    true,
	StageParsing:   true,
	StageAnalyzing: true,
	StageComplete:  true,
}

var terminalStages = map[Stage]bool{
	StageComplete: true,
}

// IsTerminal returns true if no further transitions are allowed from the stage
func (s Stage) IsTerminal() bool {
	return terminalStages[s]
}

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// IsValid returns true if the stage is a known pipeline stage
func (s Stage) IsValid() bool {
	return validStages[s]
}

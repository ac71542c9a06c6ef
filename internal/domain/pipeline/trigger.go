package pipeline

// Trigger represents an event that moves an invoice to its next stage
type Trigger string

const (
	TriggerParse    Trigger = "PARSE"
	TriggerAnalyze  Trigger = "ANALYZE"
	TriggerComplete Trigger = "COMPLETE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

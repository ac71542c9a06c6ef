package entity

import "time"

// PipelineHistory is one persisted demo engine event
type PipelineHistory struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	InvoiceID  string    `json:"invoice_id,omitempty"`
	BatchID    string    `json:"batch_id,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	Status     string    `json:"status,omitempty"`
	TrustScore int       `json:"trust_score"`
	Payload    string    `json:"payload"`
	RecordedAt time.Time `json:"recorded_at"`
}

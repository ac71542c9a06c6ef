package event

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event emitted by the demo engine
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	InvoiceID     string                 `json:"invoice_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with a generated ID and correlation ID
func NewEvent(eventType Type, invoiceID string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, invoiceID, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to a correlation chain,
// typically the upload batch the invoice belongs to
func NewEventWithCorrelation(eventType Type, invoiceID string, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		InvoiceID:     invoiceID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithTimestamp returns a copy of the event stamped with the given time
func (e *Event) WithTimestamp(ts time.Time) *Event {
	out := e.clone(0)
	out.Timestamp = ts
	return out
}

// WithPayload returns a new Event with an added payload key-value pair (immutable operation)
func (e *Event) WithPayload(key string, value interface{}) *Event {
	out := e.clone(1)
	out.Payload[key] = value
	return out
}

func (e *Event) clone(extra int) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+extra)
	for k, v := range e.Payload {
		payload[k] = v
	}
	out := *e
	out.Payload = payload
	return &out
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case string:
			return v
		case interface{ String() string }:
			return v.String()
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

// GetPayloadBool retrieves a bool value from the payload
func (e *Event) GetPayloadBool(key string) bool {
	if val, ok := e.Payload[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

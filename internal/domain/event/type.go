package event

// Type identifies the type of domain event
type Type string

const (
	TypeUploadStarted       Type = "upload.started"
	TypeInvoiceStageChanged Type = "invoice.stage_changed"
	TypeInvoiceCompleted    Type = "invoice.completed"
	TypeEngineReset         Type = "engine.reset"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeUploadStarted,
		TypeInvoiceStageChanged,
		TypeInvoiceCompleted,
		TypeEngineReset:
		return true
	default:
		return false
	}
}

// AllTypes lists every defined event type
func AllTypes() []Type {
	return []Type{
		TypeUploadStarted,
		TypeInvoiceStageChanged,
		TypeInvoiceCompleted,
		TypeEngineReset,
	}
}

package dispatcher

import (
	"context"

	"github.com/invoicetrust/trustdemo/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler without exposing the function
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

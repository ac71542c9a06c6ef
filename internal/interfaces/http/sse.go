package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/invoicetrust/trustdemo/internal/domain/entity"
)

// StreamEvents handles GET /api/demo/events. It sends the current snapshot,
// then every newer one as an "snapshot" event, with periodic "ping" events.
// A slow client only ever receives the latest pending snapshot.
func (h *Handlers) StreamEvents(c *gin.Context) {
	updates := make(chan entity.Snapshot, 1)
	unsubscribe := h.engine.Subscribe(func(snap entity.Snapshot) {
		select {
		case updates <- snap:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- snap:
		default:
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	current := h.engine.Snapshot()
	last := current.Version
	c.SSEvent("snapshot", current)
	c.Writer.Flush()

	h.logger.Info("Snapshot stream opened", "client_ip", c.ClientIP(), "version", last)

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Snapshot stream closed", "client_ip", c.ClientIP(), "version", last)
			return
		case snap := <-updates:
			if snap.Version <= last {
				continue
			}
			last = snap.Version
			c.SSEvent("snapshot", snap)
			c.Writer.Flush()
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}

package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/osa030/loungeclock/internal/app/notification"
)

const (
	// DefaultPingInterval keeps idle event streams open through proxies.
	DefaultPingInterval = 15 * time.Second

	streamBuffer = 16
)

// Events handles GET /api/events. The first event is a snapshot of the
// board; tick and changed events follow as the manager publishes them.
func (h *Handler) Events(c *gin.Context) {
	stream := notification.NewChanStream(streamBuffer)
	subscriptionID := h.lounge.Subscribe(stream)
	defer func() {
		h.lounge.Unsubscribe(subscriptionID)
		stream.Close()
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	views := h.lounge.Snapshot()
	c.SSEvent("snapshot", eventPayload{
		Kind:     "snapshot",
		At:       time.Now(),
		Stations: newStationResponses(views),
		Summary:  newSummaryResponse(h.lounge.Today()),
	})
	c.Writer.Flush()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.lounge.Done():
			return
		case n, ok := <-stream.C():
			if !ok {
				return
			}
			c.SSEvent(n.Kind.String(), newEventPayload(n))
			c.Writer.Flush()
		case t := <-ping.C:
			c.SSEvent("ping", t.Unix())
			c.Writer.Flush()
		}
	}
}

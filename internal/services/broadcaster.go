package services

import (
	"auction-stream/internal/domain"
	"auction-stream/pkg/logger"
)

// Broadcaster fans typed events out to the room's connections. Delivery
// is fire-and-forget: a failed send is local to that connection and
// never aborts the pass or surfaces to the caller.
type Broadcaster struct {
	registry *Registry
	log      logger.Logger
}

func NewBroadcaster(registry *Registry, log logger.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		log:      log,
	}
}

// BroadcastToViewers delivers event to every viewer in a single pass
// over a membership snapshot. Connections whose send fails are removed
// from the registry and closed once the pass completes.
func (b *Broadcaster) BroadcastToViewers(event interface{}) {
	var dead []domain.Connection

	for _, conn := range b.registry.Viewers() {
		if err := conn.Send(event); err != nil {
			b.log.Warn("Failed to send to viewer", "conn_id", conn.ID(), "error", err)
			dead = append(dead, conn)
			// Continue to other connections
		}
	}

	for _, conn := range dead {
		b.registry.UnregisterViewer(conn)
		if err := conn.Close(); err != nil {
			b.log.Debug("Failed to close dead viewer", "conn_id", conn.ID(), "error", err)
		}
	}
}

// NotifyStreamer is a best-effort single delivery to the streamer, if
// present. Failures are swallowed; the streamer's own disconnect
// handler does the cleanup.
func (b *Broadcaster) NotifyStreamer(event interface{}) {
	streamer := b.registry.Streamer()
	if streamer == nil {
		return
	}
	if err := streamer.Send(event); err != nil {
		b.log.Debug("Failed to notify streamer", "conn_id", streamer.ID(), "error", err)
	}
}

// Broadcast delivers event to all viewers and then the streamer. Used
// for every event type except frames and targeted replay-on-join.
func (b *Broadcaster) Broadcast(event interface{}) {
	b.BroadcastToViewers(event)
	b.NotifyStreamer(event)
}

package services

import (
	"sync"

	"auction-stream/internal/domain"
	"auction-stream/pkg/logger"
)

const (
	// InitialPrice is the auction price at process start.
	InitialPrice = 1

	// ChatReplayLimit and BidReplayLimit bound both the retained history
	// and the trailing window replayed to a newly joined connection.
	ChatReplayLimit = 20
	BidReplayLimit  = 10
)

// Room is the single shared auction session. All state mutation is
// funneled through one mutex; broadcasts for a mutation happen inside
// the same critical section so event order matches mutation order.
// Sends are non-blocking, so holding the lock across a fan-out is safe.
type Room struct {
	mutex       sync.Mutex
	price       int
	chat        []domain.ChatMessage
	bids        []domain.BidRecord
	registry    *Registry
	broadcaster *Broadcaster
	log         logger.Logger
}

func NewRoom(registry *Registry, broadcaster *Broadcaster, log logger.Logger) *Room {
	return &Room{
		price:       InitialPrice,
		registry:    registry,
		broadcaster: broadcaster,
		log:         log,
	}
}

// JoinStreamer installs conn as the streamer (evicting any previous
// one), broadcasts live status, and replies privately with the current
// price, viewer count, and history replay. Reports whether the room was
// already live, so the caller can decide about stream-start
// notifications.
func (r *Room) JoinStreamer(conn domain.Connection) (wasLive bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	wasLive = r.registry.HasStreamer()
	r.registry.RegisterStreamer(conn)
	r.broadcaster.Broadcast(domain.NewLiveStatusEvent(true))

	r.sendLocked(conn, domain.NewPriceEvent(r.price))
	r.sendLocked(conn, domain.NewViewerCountEvent(r.registry.ViewerCount()))
	r.replayLocked(conn)
	return wasLive
}

// JoinViewer registers conn with the given display name, broadcasts the
// updated viewer count, and replies privately with the current price,
// live status, and history replay.
func (r *Room) JoinViewer(conn domain.Connection, name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.registry.RegisterViewer(conn, name)
	r.broadcaster.Broadcast(domain.NewViewerCountEvent(r.registry.ViewerCount()))

	r.sendLocked(conn, domain.NewPriceEvent(r.price))
	r.sendLocked(conn, domain.NewLiveStatusEvent(r.registry.HasStreamer()))
	r.replayLocked(conn)
}

// LeaveStreamer clears the streamer slot if conn still holds it and
// broadcasts live status false. A stale disconnect for an
// already-replaced streamer broadcasts nothing. The viewer-count
// broadcast runs in both cases, best-effort.
func (r *Room) LeaveStreamer(conn domain.Connection) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.registry.UnregisterStreamer(conn) {
		r.broadcaster.Broadcast(domain.NewLiveStatusEvent(false))
	}
	r.broadcaster.Broadcast(domain.NewViewerCountEvent(r.registry.ViewerCount()))
}

// LeaveViewer removes conn (idempotent) and broadcasts the updated
// viewer count.
func (r *Room) LeaveViewer(conn domain.Connection) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.registry.UnregisterViewer(conn)
	r.broadcaster.Broadcast(domain.NewViewerCountEvent(r.registry.ViewerCount()))
}

// PlaceBid applies a bid if it strictly exceeds the current price,
// broadcasting bid then price. A non-exceeding bid changes nothing and
// broadcasts nothing.
func (r *Room) PlaceBid(username string, amount int) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if amount <= r.price {
		return false
	}

	r.price = amount
	r.appendBidLocked(domain.BidRecord{Username: username, Amount: amount})
	r.log.Info("Bid accepted", "username", username, "amount", amount)

	r.broadcaster.Broadcast(domain.NewBidEvent(username, amount))
	r.broadcaster.Broadcast(domain.NewPriceEvent(r.price))
	return true
}

// BuyNow increments the price by exactly 1 regardless of its current
// value, records a bid at the new price, and broadcasts bid then price.
func (r *Room) BuyNow(username string) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.price++
	r.appendBidLocked(domain.BidRecord{Username: username, Amount: r.price})
	r.log.Info("Buy now", "username", username, "price", r.price)

	r.broadcaster.Broadcast(domain.NewBidEvent(username, r.price))
	r.broadcaster.Broadcast(domain.NewPriceEvent(r.price))
	return r.price
}

// Chat appends to the chat history and broadcasts to viewers and
// streamer.
func (r *Room) Chat(username, text string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.chat = append(r.chat, domain.ChatMessage{Username: username, Text: text})
	if len(r.chat) > ChatReplayLimit {
		r.chat = r.chat[len(r.chat)-ChatReplayLimit:]
	}

	r.broadcaster.Broadcast(domain.NewChatEvent(username, text))
}

// Frame fans a video frame out to viewers only; the streamer never
// receives its own frames. The payload is opaque and not validated.
func (r *Room) Frame(data string) {
	r.broadcaster.BroadcastToViewers(domain.NewFrameEvent(data))
}

// RenameViewer updates the registry's display-name binding for conn.
func (r *Room) RenameViewer(conn domain.Connection, name string) {
	r.registry.SetViewerName(conn, name)
}

func (r *Room) CurrentPrice() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.price
}

func (r *Room) ViewerCount() int {
	return r.registry.ViewerCount()
}

func (r *Room) IsLive() bool {
	return r.registry.HasStreamer()
}

func (r *Room) appendBidLocked(bid domain.BidRecord) {
	r.bids = append(r.bids, bid)
	if len(r.bids) > BidReplayLimit {
		r.bids = r.bids[len(r.bids)-BidReplayLimit:]
	}
}

// replayLocked sends the retained chat history followed by the bid
// history, in original append order, privately to conn.
func (r *Room) replayLocked(conn domain.Connection) {
	for _, m := range r.chat {
		r.sendLocked(conn, domain.NewChatEvent(m.Username, m.Text))
	}
	for _, b := range r.bids {
		r.sendLocked(conn, domain.NewBidEvent(b.Username, b.Amount))
	}
}

func (r *Room) sendLocked(conn domain.Connection, event interface{}) {
	if err := conn.Send(event); err != nil {
		r.log.Debug("Failed private send", "conn_id", conn.ID(), "error", err)
	}
}

package services

import (
	"sync"

	"auction-stream/internal/domain"
	"auction-stream/pkg/logger"
)

type viewerRecord struct {
	conn domain.Connection
	name string
}

// Registry tracks the live connections of the room: at most one
// streamer plus a set of viewers with their display-name bindings,
// keyed by connection ID.
type Registry struct {
	mutex    sync.RWMutex
	streamer domain.Connection
	viewers  map[string]*viewerRecord
	log      logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		viewers: make(map[string]*viewerRecord),
		log:     log,
	}
}

// RegisterStreamer installs conn as the sole streamer. An existing
// streamer is forcibly closed first; any in-flight send to it is
// abandoned. Returns the evicted connection, if there was one.
func (r *Registry) RegisterStreamer(conn domain.Connection) domain.Connection {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	evicted := r.streamer
	if evicted != nil && evicted.ID() != conn.ID() {
		if err := evicted.Close(); err != nil {
			r.log.Debug("Failed to close evicted streamer", "conn_id", evicted.ID(), "error", err)
		}
		r.log.Info("Streamer evicted", "conn_id", evicted.ID())
	}
	r.streamer = conn
	r.log.Info("Streamer registered", "conn_id", conn.ID())
	return evicted
}

// UnregisterStreamer clears the streamer slot iff it still holds conn.
// A stale disconnect for an already-replaced streamer is a no-op.
// Reports whether the slot was cleared.
func (r *Registry) UnregisterStreamer(conn domain.Connection) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.streamer == nil || r.streamer.ID() != conn.ID() {
		return false
	}
	r.streamer = nil
	r.log.Info("Streamer unregistered", "conn_id", conn.ID())
	return true
}

func (r *Registry) RegisterViewer(conn domain.Connection, name string) {
	if name == "" {
		name = domain.DefaultUsername
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.viewers[conn.ID()] = &viewerRecord{conn: conn, name: name}
	r.log.Info("Viewer registered", "conn_id", conn.ID(), "name", name)
}

// UnregisterViewer removes conn and its name binding. Idempotent.
func (r *Registry) UnregisterViewer(conn domain.Connection) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.viewers[conn.ID()]; !exists {
		return
	}
	delete(r.viewers, conn.ID())
	r.log.Info("Viewer unregistered", "conn_id", conn.ID())
}

// SetViewerName updates the display-name binding for a registered
// viewer. Unknown connections are ignored.
func (r *Registry) SetViewerName(conn domain.Connection, name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if record, exists := r.viewers[conn.ID()]; exists {
		record.name = name
	}
}

func (r *Registry) ViewerName(conn domain.Connection) string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if record, exists := r.viewers[conn.ID()]; exists {
		return record.name
	}
	return ""
}

// Viewers returns a snapshot of the current viewer connections, safe to
// iterate while the membership changes.
func (r *Registry) Viewers() []domain.Connection {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	conns := make([]domain.Connection, 0, len(r.viewers))
	for _, record := range r.viewers {
		conns = append(conns, record.conn)
	}
	return conns
}

func (r *Registry) Streamer() domain.Connection {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.streamer
}

func (r *Registry) HasStreamer() bool {
	return r.Streamer() != nil
}

// ViewerCount counts the streamer as a participant but not a viewer.
func (r *Registry) ViewerCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	count := len(r.viewers)
	if r.streamer != nil {
		count++
	}
	return count
}

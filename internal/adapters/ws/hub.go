// Package ws maintains the registry of live websocket subscribers and fans
// classified records out to them.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/grbuguj/Sinker-IOT/internal/domain/model"
	"github.com/grbuguj/Sinker-IOT/pkg/logger"
	"github.com/grbuguj/Sinker-IOT/pkg/metrics"
)

// Default hub configuration constants.
const (
	defaultQueueSize = 32
)

// Conn is the minimal connection surface the hub needs. *websocket.Conn
// satisfies it; tests use fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Subscriber is one registered live observer. Each subscriber owns a
// buffered outbound queue drained by a dedicated writer goroutine, so a
// slow or broken connection can never stall delivery to the others.
type Subscriber struct {
	id        string
	conn      Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// ID returns the hub-assigned identity of the subscriber.
func (s *Subscriber) ID() string { return s.id }

// close shuts the writer down and closes the connection. Safe to call any
// number of times.
func (s *Subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Hub is the sole owner of the subscriber registry.
type Hub struct {
	mu        sync.RWMutex
	subs      map[string]*Subscriber
	queueSize int
	logger    logger.Logger
}

// NewHub creates an empty hub. One hub instance is constructed per server
// and injected into the ingestion path; there is no package-level registry.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:      make(map[string]*Subscriber),
		queueSize: defaultQueueSize,
		logger:    logger.Get().Named("hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Connect registers a connection and returns its subscriber handle. The
// handle stays valid until Disconnect or a delivery failure removes it.
func (h *Hub) Connect(conn Conn) *Subscriber {
	sub := &Subscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.queueSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.subs[sub.id] = sub
	count := len(h.subs)
	h.mu.Unlock()

	go h.writeLoop(sub)

	metrics.UpdateSubscriberCount(count)
	h.logger.Info(context.Background(), "subscriber connected",
		logger.String("subscriber", sub.id),
		logger.Int("subscribers", count),
	)
	return sub
}

// Disconnect removes a subscriber. It is idempotent: disconnecting an
// already-removed handle is a no-op.
func (h *Hub) Disconnect(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	_, present := h.subs[sub.id]
	delete(h.subs, sub.id)
	count := len(h.subs)
	h.mu.Unlock()

	sub.close()

	if present {
		metrics.UpdateSubscriberCount(count)
		h.logger.Info(context.Background(), "subscriber disconnected",
			logger.String("subscriber", sub.id),
			logger.Int("subscribers", count),
		)
	}
}

// Publish attempts delivery of one record to every subscriber registered
// when the call began. Failures are contained: the failing subscriber is
// removed and the rest still receive the record. Publish never returns an
// error to the ingestion path.
func (h *Hub) Publish(ctx context.Context, rec model.Record) {
	payload, err := json.Marshal(rec)
	if err != nil {
		h.logger.Error(ctx, "failed to encode record for broadcast",
			logger.Int64("record", rec.ID),
			logger.Error(err),
		)
		return
	}

	// Stable registry snapshot; subscribers connecting after this point
	// are not part of this publish.
	h.mu.RLock()
	targets := make([]*Subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.send <- payload:
			metrics.RecordBroadcastDelivered()
		case <-sub.done:
			// Already shutting down; nothing to deliver.
		default:
			// Outbound queue full: the subscriber is too slow to keep
			// the channel alive. Drop it rather than block the fan-out.
			metrics.RecordBroadcastDropped()
			h.logger.Warn(ctx, "dropping slow subscriber",
				logger.String("subscriber", sub.id),
			)
			h.Disconnect(sub)
		}
	}
}

// Count returns the number of currently registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Shutdown disconnects every subscriber.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[string]*Subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
	metrics.UpdateSubscriberCount(0)
}

// writeLoop drains one subscriber's outbound queue onto its connection. A
// write error removes the subscriber from the registry.
func (h *Hub) writeLoop(sub *Subscriber) {
	for {
		select {
		case <-sub.done:
			return
		case msg := <-sub.send:
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				metrics.RecordBroadcastDropped()
				h.logger.Warn(context.Background(), "subscriber write failed",
					logger.String("subscriber", sub.id),
					logger.Error(err),
				)
				h.Disconnect(sub)
				return
			}
		}
	}
}

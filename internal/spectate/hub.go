// Package spectate streams live match events to websocket subscribers.
// Events are JSON envelopes around the shared arenadto types, so a
// browser or CLI watcher can follow a match without polling.
package spectate

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/llm-chess-arena/internal/obslog"
	"github.com/park285/llm-chess-arena/pkg/arenadto"
)

// Event is the wire envelope for one broadcast.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event types.
const (
	EventMatchStarted  = "match_started"
	EventMove          = "move"
	EventMatchFinished = "match_finished"
)

const (
	// subscriberBuffer is the per-connection queue. A subscriber that
	// falls this many events behind is dropped rather than stalling
	// the match.
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

type subscriber struct {
	msgs      chan []byte
	closeSlow func()
}

// Hub fans broadcast events out to connected websocket subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// MatchStarted announces a new match to all subscribers.
func (h *Hub) MatchStarted(info arenadto.MatchInfo) {
	h.broadcast(EventMatchStarted, info)
}

// Move publishes one applied move.
func (h *Hub) Move(ev arenadto.MoveEvent) {
	h.broadcast(EventMove, ev)
}

// MatchFinished publishes the final result.
func (h *Hub) MatchFinished(res arenadto.ResultSummary) {
	h.broadcast(EventMatchFinished, res)
}

func (h *Hub) broadcast(eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		obslog.L().Warn("spectate_marshal_failed", zap.String("type", eventType), zap.Error(err))
		return
	}
	raw, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		obslog.L().Warn("spectate_marshal_failed", zap.String("type", eventType), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.msgs <- raw:
		default:
			go sub.closeSlow()
		}
	}
}

// SubscriberCount reports connected watchers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request and streams events until the client
// leaves or falls too far behind.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("spectate_accept_failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "hub shutdown")

	err = h.stream(r.Context(), conn)
	switch {
	case err == nil,
		websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway:
	default:
		obslog.L().Debug("spectate_subscriber_gone", zap.Error(err))
	}
}

func (h *Hub) stream(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := &subscriber{
		msgs: make(chan []byte, subscriberBuffer),
		closeSlow: func() {
			conn.Close(websocket.StatusPolicyViolation, "subscriber too slow to keep up")
		},
	}
	if !h.add(sub) {
		return conn.Close(websocket.StatusGoingAway, "hub closed")
	}
	defer h.remove(sub)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-sub.msgs:
			if err := writeWithTimeout(ctx, conn, msg); err != nil {
				return err
			}
		}
	}
}

func writeWithTimeout(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}

func (h *Hub) add(sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[sub] = struct{}{}
	return true
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}

// Close stops accepting subscribers. Connected clients are closed by
// their handlers as the server shuts down.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

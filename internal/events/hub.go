// Package events fans session changes out to connected displays.
package events

import (
	"spy-game/internal/constants"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Type string

const (
	TypePhase        Type = "phase"
	TypeTick         Type = "tick"
	TypeTimerExpired Type = "timer_expired"
	TypeMapReady     Type = "map_ready"
	TypeWheelStopped Type = "wheel_stopped"
)

type Event struct {
	Type      Type      `json:"type"`
	SessionID string    `json:"session_id"`
	Round     int       `json:"round"`
	Phase     string    `json:"phase,omitempty"`
	TimeLeft  int       `json:"time_left"`
	Data      any       `json:"data,omitempty"`
	At        time.Time `json:"at"`
}

type subscriber struct {
	ch chan Event
}

// Hub keeps per-session subscriber sets. Publishing never blocks: a
// subscriber whose buffer is full is disconnected.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a listener for sessionID. The returned cancel func
// is safe to call more than once.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, constants.EventBufferSize)}

	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug().Str("session_id", sessionID).Msg("subscriber added")

	return sub.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.remove(sessionID, sub)
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(sessionID string, sub *subscriber) {
	set, ok := h.subs[sessionID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	close(sub.ch)
	if len(set) == 0 {
		delete(h.subs, sessionID)
	}
}

func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[ev.SessionID] {
		select {
		case sub.ch <- ev:
		default:
			h.logger.Warn().
				Str("session_id", ev.SessionID).
				Str("event", string(ev.Type)).
				Msg("dropping slow subscriber")
			h.remove(ev.SessionID, sub)
		}
	}
}

// Close disconnects every subscriber of sessionID.
func (h *Hub) Close(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		h.remove(sessionID, sub)
	}
}

func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}

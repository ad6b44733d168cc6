package app

import (
	"sync"

	"trivia-rotation-service/internal/domain"
)

// Hub fans leaderboard snapshots out to in-process watchers, keyed by pack.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Leaderboard]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[chan domain.Leaderboard]struct{})}
}

// Subscribe returns a channel receiving leaderboard updates for packID. The
// caller must invoke the returned cancel function to avoid leaks.
func (h *Hub) Subscribe(packID string) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[packID]
	if !ok {
		subs = make(map[chan domain.Leaderboard]struct{})
		h.subscribers[packID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[packID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, packID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers lb to every watcher of its pack. Slow watchers lose
// their oldest pending update rather than blocking the broadcast.
func (h *Hub) Broadcast(lb domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[lb.PackID] {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

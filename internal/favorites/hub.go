package favorites

import "sync"

// watchHub fans change notifications out to per-owner subscribers.
// Channels are buffered with capacity one and coalesce: a slow consumer
// sees the latest list, not every intermediate one. Delivery is
// at-least-once, not exactly-once.
type watchHub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan []Record
	next int
}

func newWatchHub() *watchHub {
	return &watchHub{subs: make(map[string]map[int]chan []Record)}
}

// watch registers a subscriber for the owner's records.
func (h *watchHub) watch(ownerID string) (<-chan []Record, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan []Record, 1)
	id := h.next
	h.next++

	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[int]chan []Record)
	}
	h.subs[ownerID][id] = ch

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if owners, ok := h.subs[ownerID]; ok {
			if sub, ok := owners[id]; ok {
				delete(owners, id)
				close(sub)
				if len(owners) == 0 {
					delete(h.subs, ownerID)
				}
			}
		}
	}
	return ch, unsubscribe
}

// broadcast delivers the owner's current list to all subscribers.
func (h *watchHub) broadcast(ownerID string, records []Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[ownerID] {
		// Latest-wins: drop the stale pending list if the consumer
		// hasn't drained it yet.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- records:
		default:
		}
	}
}

// Package feed provides the in-process change-notification hub that keeps
// dashboard viewers live. Mutations publish events; SSE handlers subscribe
// per topic and re-query the store on every event. The hub guarantees no
// ordering across topics; consumers rebuild their full view from whatever
// the store currently holds.
package feed

import (
	"sync"
	"time"
)

// Topic identifies a stream of related change events.
type Topic string

const (
	// TopicMeals carries meal lifecycle and catalog changes.
	TopicMeals Topic = "meals"
	// TopicActive carries changes to the shared active-meal pointer.
	TopicActive Topic = "active"
)

// MealTopic returns the per-meal topic carrying assignment and delivery
// changes for one meal.
func MealTopic(mealID string) Topic {
	return Topic("meal:" + mealID)
}

// Event kinds published by the mutation layer.
const (
	KindMealCreated   = "meal-created"
	KindMealCompleted = "meal-completed"
	KindCatalogAdded  = "catalog-added"
	KindMenuAssigned  = "menu-assigned"
	KindPotsAssigned  = "pots-assigned"
	KindDelivered     = "delivered"
	KindActiveChanged = "active-changed"
)

// Event describes a single store change. It carries enough to decide what
// to re-query, never the changed data itself.
type Event struct {
	Topic  Topic     `json:"-"`
	Kind   string    `json:"kind"`
	MealID string    `json:"mealId,omitempty"`
	At     time.Time `json:"at"`
}

// subscriber buffers events for one SSE client. A slow client drops its
// oldest event rather than blocking publishers.
const subscriberBuffer = 16

// Hub is a topic-keyed broadcast hub. The zero value is not usable; call
// NewHub.
type Hub struct {
	mu   sync.Mutex
	subs map[Topic]map[int]chan Event
	next int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[Topic]map[int]chan Event)}
}

// Subscribe registers for events on a topic. The returned cancel func
// releases the subscription and closes the channel; it is safe to call more
// than once but releases exactly once. Callers must cancel when the owning
// view is torn down or when the filter key (the watched meal) changes.
func (h *Hub) Subscribe(topic Topic) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	id := h.next
	h.next++
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan Event)
	}
	h.subs[topic][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[topic], id)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its topic. Never blocks:
// a full subscriber buffer drops its oldest event to make room.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[ev.Topic] {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Subscribers reports the number of active subscriptions on a topic.
func (h *Hub) Subscribers(topic Topic) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}

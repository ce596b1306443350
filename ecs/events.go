package ecs

import (
	"log"

	"github.com/jakecoffman/cp"
)

// EventType identifies an event kind in the dispatch table.
type EventType string

const (
	EventProjectileHit    EventType = "projectile_hit"
	EventParentChanged    EventType = "parent_changed"
	EventInteractUsing    EventType = "interact_using"
	EventToolUseCompleted EventType = "tool_use_completed"
)

// Event is a generic ECS event payload.
type Event struct {
	Type EventType
	Data any
}

// ProjectileHitEvent is raised by the projectile collaborator when a
// projectile strikes an entity. Impact is the world-space contact point; the
// zero vector means the collaborator could not provide one.
type ProjectileHitEvent struct {
	Projectile Entity
	Target     Entity
	Impact     cp.Vector
}

// ParentChangedEvent is raised by SetParent. OldParent is zero when the
// entity had no parent.
type ParentChangedEvent struct {
	Entity    Entity
	OldParent Entity
	NewParent Entity
}

// InteractUsingEvent is raised when User interacts with Target while holding
// Used. Handlers set Handled to stop later handlers from acting on it.
type InteractUsingEvent struct {
	User    Entity
	Used    Entity
	Target  Entity
	Handled bool
}

// ToolUseCompletedEvent reports the end of a delayed tool action. Completion
// is the token supplied with the request.
type ToolUseCompletedEvent struct {
	Tool       Entity
	User       Entity
	Target     Entity
	Completion string
	Cancelled  bool
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// EventHandler reacts to a dispatched event.
type EventHandler func(w *World, evt Event)

type subscription struct {
	handler       EventHandler
	authoritative bool
}

type dispatcher struct {
	handlers map[EventType][]subscription
}

// maxDispatchRounds bounds handler chains that keep raising new events.
const maxDispatchRounds = 32

// Emit queues an event for the next dispatch point of the tick loop.
func (w *World) Emit(t EventType, data any) {
	if w == nil {
		return
	}
	w.events.Push(Event{Type: t, Data: data})
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// Subscribe registers a handler that runs on every pass, predicted or not.
func (w *World) Subscribe(t EventType, h EventHandler) {
	w.subscribe(t, h, false)
}

// SubscribeAuthoritative registers a handler that only runs on the first
// authoritative pass of a tick. Events dispatched on predicted passes are
// dropped for these handlers.
func (w *World) SubscribeAuthoritative(t EventType, h EventHandler) {
	w.subscribe(t, h, true)
}

func (w *World) subscribe(t EventType, h EventHandler, authoritative bool) {
	if w == nil || h == nil {
		return
	}
	if w.dispatcher.handlers == nil {
		w.dispatcher.handlers = make(map[EventType][]subscription)
	}
	w.dispatcher.handlers[t] = append(w.dispatcher.handlers[t], subscription{handler: h, authoritative: authoritative})
}

// dispatch delivers queued events synchronously until the queue is empty.
// Events raised by handlers are delivered in the same call.
func (w *World) dispatch() {
	for round := 0; ; round++ {
		events := w.events.Drain()
		if len(events) == 0 {
			return
		}
		if round >= maxDispatchRounds {
			log.Printf("ecs: dropping %d events after %d dispatch rounds", len(events), round)
			return
		}
		for _, evt := range events {
			for _, sub := range w.dispatcher.handlers[evt.Type] {
				if sub.authoritative && !w.tick.FirstTimePredicted {
					continue
				}
				sub.handler(w, evt)
			}
		}
	}
}

// Package bus implements the event bus (C5): a broadcast channel with a
// fixed per-subscriber backlog that discards a slow subscriber's stale
// events (signalled with a Lag marker) rather than blocking the publisher.
package bus

import (
	"sync"

	"github.com/livepeer/karaoke-dash-server/internal/song"
	"github.com/livepeer/karaoke-dash-server/metrics"
)

// EventType tags the on-the-wire shape of an Event (§6).
type EventType string

const (
	QueueUpdated    EventType = "QueueUpdated"
	KeyChange       EventType = "KeyChange"
	TogglePlayback  EventType = "TogglePlayback"
	SubscriberLag   EventType = "Lag"
)

// Event is the C5 payload. Only one of the fields below is meaningful,
// selected by Type; this mirrors the three SSE variants in §6 plus a Lag
// marker for subscribers that fell behind (see Subscriber). The SSE handler
// forwards a Lag marker like any other event, as {"type":"Lag"}.
type Event struct {
	Type       EventType    `json:"type"`
	Queue      []song.Song  `json:"queue,omitempty"`
	CurrentKey int          `json:"current_key,omitempty"`
}

// Subscriber is a single subscriber's inbox. Events received after
// subscription arrive in publish order; if the subscriber falls behind by
// more than the bus's backlog, it first receives a Lag marker and then
// continues receiving new events — it must re-fetch a snapshot via the
// coordinator to self-repair (the QueueUpdated payload carries the full
// queue for exactly this reason).
type Subscriber struct {
	ch     chan Event
	bus    *Bus
	closed bool
	mu     sync.Mutex
}

// Events returns the channel to range over. It is closed by Close.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscriber from the bus. Safe to call more than once.
func (s *Subscriber) Close() {
	s.bus.unsubscribe(s)
}

// Bus is a multi-producer, multi-consumer broadcast with bounded
// per-subscriber backlog, the Go rendering of tokio::sync::broadcast used by
// the original coordinator.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*Subscriber]struct{}
	backlog int
}

func New(backlog int) *Bus {
	return &Bus{
		subs:    make(map[*Subscriber]struct{}),
		backlog: backlog,
	}
}

// Subscribe registers a new subscriber. The returned Subscriber sees every
// event published after this call returns.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{
		ch: make(chan Event, b.backlog),
	}
	sub.bus = b

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	metrics.Metrics.Subscribers.Set(float64(len(b.subs)))
	b.mu.Unlock()

	return sub
}

func (b *Bus) unsubscribe(sub *Subscriber) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true

	b.mu.Lock()
	delete(b.subs, sub)
	metrics.Metrics.Subscribers.Set(float64(len(b.subs)))
	b.mu.Unlock()

	close(sub.ch)
}

// Publish broadcasts an event to every current subscriber. A subscriber
// whose inbox is full has its stale backlog discarded and is then sent a Lag
// marker followed by e, all non-blockingly, so the publisher never suspends
// on a slow reader. With a backlog of 1 only the Lag marker fits.
func (b *Bus) Publish(e Event) {
	metrics.Metrics.EventsPublished.WithLabelValues(string(e.Type)).Inc()

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
			metrics.Metrics.SubscriberLag.Inc()
		drain:
			for {
				select {
				case <-sub.ch:
				default:
					break drain
				}
			}
			select {
			case sub.ch <- Event{Type: SubscriberLag}:
			default:
			}
			select {
			case sub.ch <- e:
			default:
			}
		}
	}
}

package jobs

import (
	"sync"
	"time"

	"document-converter/internal/domain"
)

// EventType classifies messages emitted during job execution.
type EventType string

const (
	EventTypeStatus EventType = "status"
	EventTypeStep   EventType = "step"
	EventTypeResult EventType = "result"
	EventTypeError  EventType = "error"
)

// DefaultHistory is the number of events retained when none is configured.
const DefaultHistory = 500

// Event is one sequenced progress record of a conversion job. Command fields
// are filled for error events caused by a failing external tool.
type Event struct {
	Seq       int64            `json:"seq"`
	Timestamp time.Time        `json:"timestamp"`
	JobID     string           `json:"jobId"`
	Type      EventType        `json:"type"`
	Status    domain.JobStatus `json:"status,omitempty"`
	Action    string           `json:"action,omitempty"`
	Step      string           `json:"step,omitempty"`
	MediaType string           `json:"mediaType,omitempty"`
	Message   string           `json:"message,omitempty"`
	Command   string           `json:"command,omitempty"`
	Args      []string         `json:"args,omitempty"`
	ExitCode  int              `json:"exitCode,omitempty"`
	Stdout    string           `json:"stdout,omitempty"`
	Stderr    string           `json:"stderr,omitempty"`
}

// EventBus retains recent events for per-job lookups and fans them out to
// live subscribers. Slow subscribers lose events instead of blocking
// publishers.
type EventBus struct {
	mu      sync.RWMutex
	nextSeq int64
	history int
	events  []Event
	subs    map[int]*subscriber
	nextSub int
}

type subscriber struct {
	ch      chan Event
	dropped int
}

// NewEventBus creates a bus retaining at most history events.
func NewEventBus(history int) *EventBus {
	if history <= 0 {
		history = DefaultHistory
	}
	return &EventBus{
		history: history,
		events:  make([]Event, 0, history),
		subs:    map[int]*subscriber{},
	}
}

// Publish stamps event with the next sequence number (and a timestamp when
// unset), stores it and delivers it to subscribers.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if len(b.events) == b.history {
		copy(b.events, b.events[1:])
		b.events = b.events[:len(b.events)-1]
	}
	b.events = append(b.events, event)

	for _, sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
			sub.dropped++
		}
	}
	return event
}

// Subscribe returns a channel receiving events published from now on. The
// returned cancel func closes the channel and reports how many events were
// dropped because the buffer was full.
func (b *EventBus) Subscribe(buffer int) (<-chan Event, func() int) {
	if buffer <= 0 {
		buffer = 64
	}
	sub := &subscriber{ch: make(chan Event, buffer)}

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	dropped := 0
	cancel := func() int {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			dropped = sub.dropped
			b.mu.Unlock()
			close(sub.ch)
		})
		return dropped
	}
	return sub.ch, cancel
}

// ForJob returns the retained events of one job in sequence order.
func (b *EventBus) ForJob(jobID string) []Event {
	return b.filter(func(e Event) bool { return e.JobID == jobID })
}

func (b *EventBus) filter(keep func(Event) bool) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, event := range b.events {
		if keep(event) {
			out = append(out, event)
		}
	}
	return out
}

package jobs

import (
	"testing"
	"time"
)

// TestEventBusBoundedHistory verifies old events are evicted in order.
func TestEventBusBoundedHistory(t *testing.T) {
	bus := NewEventBus(2)
	for _, step := range []string{"convert_image", "ocr", "office"} {
		bus.Publish(Event{JobID: "j", Type: EventTypeStep, Step: step})
	}

	events := bus.ForJob("j")
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Step != "ocr" || events[1].Step != "office" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
}

// TestEventBusStampsTimestamp keeps caller supplied timestamps.
func TestEventBusStampsTimestamp(t *testing.T) {
	bus := NewEventBus(0)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	a := bus.Publish(Event{Type: EventTypeStatus})
	b := bus.Publish(Event{Type: EventTypeStatus, Timestamp: fixed})
	if a.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
	if !b.Timestamp.Equal(fixed) {
		t.Fatalf("timestamp = %v, want %v", b.Timestamp, fixed)
	}
}

// TestEventBusForJob verifies per-job filtering.
func TestEventBusForJob(t *testing.T) {
	bus := NewEventBus(10)
	bus.Publish(Event{JobID: "a", Type: EventTypeStatus})
	bus.Publish(Event{JobID: "b", Type: EventTypeStatus})
	bus.Publish(Event{JobID: "a", Type: EventTypeStep, Step: "office"})

	events := bus.ForJob("a")
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[1].Step != "office" || events[1].Seq != 3 {
		t.Fatalf("unexpected event: %+v", events[1])
	}
}

// TestEventBusSubscribe verifies live delivery, drops and cancellation.
func TestEventBusSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	ch, cancel := bus.Subscribe(1)

	bus.Publish(Event{JobID: "a", Step: "first"})
	bus.Publish(Event{JobID: "a", Step: "second"})

	got := <-ch
	if got.Step != "first" {
		t.Fatalf("step = %q, want first", got.Step)
	}
	if dropped := cancel(); dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	if dropped := cancel(); dropped != 1 {
		t.Fatalf("second cancel dropped = %d, want 1", dropped)
	}

	bus.Publish(Event{JobID: "a", Step: "after"})
}

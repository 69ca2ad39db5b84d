package pipeline

import "testing"

func TestEventBusAssignsSequence(t *testing.T) {
	bus := NewEventBus(10)

	first := bus.Publish(Event{Stage: StageSegmenting, Message: "a"})
	second := bus.Publish(Event{Stage: StageTranscribing, Message: "b"})

	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("seqs = %d, %d, want 1, 2", first.Seq, second.Seq)
	}
	if first.Timestamp.IsZero() {
		t.Error("timestamp not assigned")
	}
}

func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(10)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{Stage: StageTranscribing})
	}

	events := bus.Since(3)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 4 || events[1].Seq != 5 {
		t.Errorf("seqs = %d, %d, want 4, 5", events[0].Seq, events[1].Seq)
	}
}

func TestEventBusBounded(t *testing.T) {
	bus := NewEventBus(3)
	for i := 0; i < 10; i++ {
		bus.Publish(Event{Stage: StageProcessing})
	}

	events := bus.Since(0)
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	if events[0].Seq != 8 {
		t.Errorf("oldest retained seq = %d, want 8", events[0].Seq)
	}
}

func TestEventBusLast(t *testing.T) {
	bus := NewEventBus(10)
	if _, ok := bus.Last(); ok {
		t.Error("Last on empty bus reported an event")
	}

	bus.Publish(Event{Stage: StageSegmenting})
	bus.Publish(Event{Stage: StageDone, Message: "finished"})

	last, ok := bus.Last()
	if !ok || last.Message != "finished" {
		t.Errorf("Last = %+v, ok=%v", last, ok)
	}
}

package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	id := "pl_1"
	ch := b.Subscribe(id)

	evt := PlanEvent{Type: "plan.improved", Data: map[string]any{"cost": 120}}
	b.Publish(id, evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["cost"].(int) != 120 {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(id, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
		// acceptable if already drained and closed
	}
}

func TestBrokerPublishAfterUnsubscribeIsNoop(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("pl_2")
	b.Unsubscribe("pl_2", ch)
	// must not panic on a closed channel
	b.Publish("pl_2", PlanEvent{Type: "plan.completed"})
}

func TestPlanEventTerminal(t *testing.T) {
	for _, typ := range []string{"plan.completed", "plan.no_solution", "plan.failed"} {
		if !(PlanEvent{Type: typ}).Terminal() {
			t.Fatalf("%s should be terminal", typ)
		}
	}
	for _, typ := range []string{"plan.improved", "plan.snapshot", "heartbeat"} {
		if (PlanEvent{Type: typ}).Terminal() {
			t.Fatalf("%s should not be terminal", typ)
		}
	}
}

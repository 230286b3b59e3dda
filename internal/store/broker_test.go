package store

import "testing"

func TestBroker(t *testing.T) {
	b := NewBroker()

	var got []Event
	cancel := b.Subscribe("users", func(ev Event) { got = append(got, ev) })

	b.Publish(Event{Type: EventInsert, Table: "users"}, Event{Type: EventInsert, Table: "logs"})
	if len(got) != 1 {
		t.Fatalf("expected 1 event for users, got %d", len(got))
	}

	cancel()
	cancel()
	b.Publish(Event{Type: EventDelete, Table: "users"})
	if len(got) != 1 {
		t.Errorf("expected no events after cancel, got %d", len(got))
	}
	if b.Listeners("users") != 0 {
		t.Errorf("expected no listeners left, got %d", b.Listeners("users"))
	}
}

func TestBroker_ListenerMayCancelItself(t *testing.T) {
	b := NewBroker()

	calls := 0
	var cancel func()
	cancel = b.Subscribe("logs", func(Event) {
		calls++
		cancel()
	})

	b.Publish(Event{Table: "logs"}, Event{Table: "logs"})
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

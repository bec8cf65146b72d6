package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []EventType
	d.Subscribe(EventTicketAssigned, func(ctx context.Context, ev Event) error {
		got = append(got, ev.Type)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(ctx context.Context, ev Event) error {
		t.Fatalf("handler for other type must not fire")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketAssigned}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0] != EventTicketAssigned {
		t.Fatalf("expected one delivery, got %v", got)
	}
}

func TestDispatcherContinuesPastHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	second := false
	d.Subscribe(EventTicketCreated, func(ctx context.Context, ev Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(ctx context.Context, ev Event) error {
		second = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !second {
		t.Fatalf("second handler skipped after first errored")
	}
}

func TestSubscribeAllReceivesEveryType(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []EventType
	d.SubscribeAll(func(ctx context.Context, ev Event) error {
		seen = append(seen, ev.Type)
		return nil
	})

	_ = d.Publish(context.Background(), Event{Type: EventTicketCreated})
	_ = d.Publish(context.Background(), Event{Type: EventLoanOverdue})

	if len(seen) != 2 {
		t.Fatalf("expected tap to see 2 events, got %v", seen)
	}
}

package events

import (
	"context"
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	data := &BookingEvent{BookingID: 12, Status: "confirmed"}
	event := NewEvent(EventBookingStatusChanged, data)

	if event.ID == "" {
		t.Error("event ID should not be empty")
	}
	if event.Type != EventBookingStatusChanged {
		t.Errorf("event type = %s, want %s", event.Type, EventBookingStatusChanged)
	}
	if event.Source != "marketplace-service" {
		t.Errorf("event source = %s, want marketplace-service", event.Source)
	}
	if event.Version != "1.0" {
		t.Errorf("event version = %s, want 1.0", event.Version)
	}
	if event.Timestamp.IsZero() {
		t.Error("event timestamp should not be zero")
	}
	if time.Since(event.Timestamp) > time.Minute {
		t.Error("event timestamp should be recent")
	}
}

func TestMockEventPublisher(t *testing.T) {
	publisher := NewMockEventPublisher(nil)
	ctx := context.Background()

	if err := publisher.Publish(ctx, "marketplace.bookings", NewEvent(EventBookingCreated, nil)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := publisher.Publish(ctx, "marketplace.bookings", NewEvent(EventBookingRescheduled, nil)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 2 {
		t.Fatalf("published events = %d, want 2", len(published))
	}
	if published[0].Type != EventBookingCreated {
		t.Errorf("first event type = %s, want %s", published[0].Type, EventBookingCreated)
	}

	publisher.ClearEvents()
	if got := publisher.GetPublishedEvents(); len(got) != 0 {
		t.Errorf("events after clear = %d, want 0", len(got))
	}
}

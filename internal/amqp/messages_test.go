package amqp

import (
	"testing"
	"time"
)

func TestBalanceSyncMessage_RoundTrip(t *testing.T) {
	msg := NewBalanceSyncMessage(2025, 4)
	if msg.Year != 2025 || msg.Month != 4 {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := BalanceSyncMessageFromJSON(data)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.Year != msg.Year || decoded.Month != msg.Month {
		t.Errorf("decoded = %+v, want %+v", decoded, msg)
	}
	if !decoded.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("timestamp drifted: %v vs %v", decoded.Timestamp, msg.Timestamp)
	}
}

func TestBalanceSyncMessageFromJSON_Invalid(t *testing.T) {
	if _, err := BalanceSyncMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestBalanceSyncMessageFromJSON_PartialPayload(t *testing.T) {
	msg, err := BalanceSyncMessageFromJSON([]byte(`{"year": 2025}`))
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if msg.Year != 2025 || msg.Month != 0 {
		t.Errorf("message = %+v", msg)
	}
	var zero time.Time
	if !msg.Timestamp.Equal(zero) {
		t.Errorf("timestamp = %v, want zero", msg.Timestamp)
	}
}

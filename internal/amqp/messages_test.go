package amqp

import (
	"testing"
	"time"
)

func TestReloadRequestMessage_JSON(t *testing.T) {
	msg := NewReloadRequestMessage("manual reload")
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ReloadRequestMessageFromJSON(body)
	if err != nil {
		t.Fatalf("ReloadRequestMessageFromJSON() error = %v", err)
	}
	if parsed.Reason != "manual reload" {
		t.Errorf("Parsed Reason = %q, want %q", parsed.Reason, "manual reload")
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestDataRefreshedMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &DataRefreshedMessage{
		Generation: 7,
		Tabs:       []string{"MAIN", "BD78NGZN"},
		Timestamp:  timestamp,
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := DataRefreshedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("DataRefreshedMessageFromJSON() error = %v", err)
	}
	if parsed.Generation != 7 {
		t.Errorf("Parsed Generation = %d, want 7", parsed.Generation)
	}
	if len(parsed.Tabs) != 2 || parsed.Tabs[0] != "MAIN" {
		t.Errorf("Parsed Tabs = %v, want [MAIN BD78NGZN]", parsed.Tabs)
	}
	if !parsed.Timestamp.Equal(timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, timestamp)
	}
}

func TestDataRefreshedMessage_InvalidJSON(t *testing.T) {
	invalid := []byte(`{"generation": "not_a_number"}`)
	if _, err := DataRefreshedMessageFromJSON(invalid); err == nil {
		t.Error("DataRefreshedMessageFromJSON() should fail with invalid JSON")
	}
}

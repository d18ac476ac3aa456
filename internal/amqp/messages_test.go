package amqp

import (
	"testing"
	"time"
)

func TestExtractionMessageRoundTrip(t *testing.T) {
	msg := NewExtractionMessage("rec-123")
	if msg.ID != "rec-123" {
		t.Errorf("ID = %q", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := ExtractionMessageFromJSON(body)
	if err != nil {
		t.Fatalf("ExtractionMessageFromJSON() error = %v", err)
	}
	if got.ID != msg.ID {
		t.Errorf("round trip ID = %q, want %q", got.ID, msg.ID)
	}
	if !got.Timestamp.Equal(msg.Timestamp.Truncate(time.Nanosecond)) {
		t.Errorf("round trip Timestamp = %v, want %v", got.Timestamp, msg.Timestamp)
	}
}

func TestExtractionMessageFromJSON_Malformed(t *testing.T) {
	if _, err := ExtractionMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("ExtractionMessageFromJSON() accepted malformed payload")
	}
}

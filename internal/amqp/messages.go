package amqp

import (
	"encoding/json"
	"time"
)

// ExtractionMessage asks the worker to run field extraction for one
// invoice record. It carries only the record id; the worker fetches
// the document itself from storage.
type ExtractionMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExtractionMessage(id string) *ExtractionMessage {
	return &ExtractionMessage{
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ExtractionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExtractionMessageFromJSON(data []byte) (*ExtractionMessage, error) {
	var msg ExtractionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

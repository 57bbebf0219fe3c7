package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

var ErrInvalidMessage = errors.New("invalid reading.changed message")

// ReadingChangedMessage announces that the reading of one date was written
// or removed. Consumers reload the readings from the store; the message
// carries no values.
type ReadingChangedMessage struct {
	RecordDate string    `json:"record_date"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewReadingChanged creates a message stamped with the current time.
func NewReadingChanged(recordDate, action string) *ReadingChangedMessage {
	return &ReadingChangedMessage{
		RecordDate: recordDate,
		Action:     action,
		Timestamp:  time.Now(),
	}
}

// Validate checks the required fields.
func (m *ReadingChangedMessage) Validate() error {
	if m.RecordDate == "" {
		return fmt.Errorf("%w: missing record_date", ErrInvalidMessage)
	}
	if m.Action != ActionUpsert && m.Action != ActionDelete {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidMessage, m.Action)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ReadingChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReadingChangedFromJSON decodes and validates a message.
func ReadingChangedFromJSON(data []byte) (*ReadingChangedMessage, error) {
	var msg ReadingChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

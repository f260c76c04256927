package amqp

import (
	"encoding/json"
	"time"
)

// BalanceSyncMessage marks a ledger month whose balance changed and
// should be re-exported. The worker reads the current balance from the
// store, so the message carries only the month key.
type BalanceSyncMessage struct {
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBalanceSyncMessage creates a sync message for the given month
func NewBalanceSyncMessage(year, month int) *BalanceSyncMessage {
	return &BalanceSyncMessage{
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BalanceSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BalanceSyncMessageFromJSON creates a message from JSON bytes
func BalanceSyncMessageFromJSON(data []byte) (*BalanceSyncMessage, error) {
	var msg BalanceSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

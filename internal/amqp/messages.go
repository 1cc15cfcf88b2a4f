package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"fintrack/internal/core"
)

const changeMessageVersion = 1

var ErrInvalidMessage = errors.New("invalid change message")

// ChangeMessage is the wire form of a core.ChangeEvent. It carries ids only;
// consumers that need the record read it from the store.
type ChangeMessage struct {
	Version   int       `json:"version"`
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	EntityID  string    `json:"entityId"`
	UserID    string    `json:"userId"`
	At        time.Time `json:"at"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage wraps ev for publishing.
func NewChangeMessage(ev core.ChangeEvent) *ChangeMessage {
	return &ChangeMessage{
		Version:   changeMessageVersion,
		Entity:    ev.Entity,
		Action:    ev.Action,
		EntityID:  ev.EntityID,
		UserID:    ev.UserID,
		At:        ev.At,
		Timestamp: time.Now(),
	}
}

// Event returns the change the message describes.
func (m *ChangeMessage) Event() core.ChangeEvent {
	return core.ChangeEvent{
		Entity:   m.Entity,
		Action:   m.Action,
		EntityID: m.EntityID,
		UserID:   m.UserID,
		At:       m.At,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects ones missing the
// fields a consumer needs.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Entity == "" || msg.Action == "" || msg.UserID == "" {
		return nil, ErrInvalidMessage
	}
	return &msg, nil
}

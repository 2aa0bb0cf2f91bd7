package domain

import "time"

type MessageID string

// Attachment travels inline as a data URL.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// Message is a chat message as broadcast to a room. Ephemeral is the expiry
// delay in milliseconds, zero for regular messages.
type Message struct {
	ID         MessageID   `json:"id"`
	RoomID     RoomID      `json:"roomId"`
	Name       string      `json:"name"`
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Color      Color       `json:"color"`
	Ephemeral  int64       `json:"ephemeral,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// MaxEphemeralMillis caps the expiry delay of an ephemeral message at one day.
const MaxEphemeralMillis int64 = 24 * 60 * 60 * 1000

// ExpiresAt reports when a receiver that got the message at receivedAt must hide it.
func (m Message) ExpiresAt(receivedAt time.Time) (time.Time, bool) {
	if m.Ephemeral <= 0 {
		return time.Time{}, false
	}
	ms := min(m.Ephemeral, MaxEphemeralMillis)
	return receivedAt.Add(time.Duration(ms) * time.Millisecond), true
}

package models

import "time"

// Message is a stored direct message, used only by the store-and-forward
// fallback path. The primary delivery path is peer handoff and never
// persists anything.
type Message struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Body       string
	SentAt     time.Time
}

// InboxMessage is a stored message joined with its sender's username,
// shaped for delivery to the receiving client.
type InboxMessage struct {
	From   string
	Body   string
	SentAt time.Time
}

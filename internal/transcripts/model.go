package transcripts

import "time"

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one persisted chat message tied to a document mapping.
type Message struct {
	ID        string
	UserID    string
	MappingID string
	Text      string
	Sender    Sender
	SentAt    time.Time
	CreatedAt time.Time
}

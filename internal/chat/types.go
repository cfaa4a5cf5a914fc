package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// Valid reports whether the role is one the store accepts.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAI
}

// Message is a single persisted chat turn. Messages are immutable once
// written; CreatedAt is assigned by the database at insert time and is the
// authoritative ordering key.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a derived view: a run of messages with no inactivity gap larger
// than the segmentation threshold. Sessions are never persisted or mutated in
// place — the whole list is rebuilt from the message log on every read.
type Session struct {
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

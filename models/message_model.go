package models

import (
	"time"

	"github.com/google/uuid"
)

// Message belongs to a conversation. Sender id and kind are denormalized from
// the authenticated requester at append time; SentAt is assigned server-side
// and is non-decreasing with position in the thread.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	SenderKind     Kind      `gorm:"type:varchar(16);not null"`
	Content        string    `gorm:"type:text;not null"`
	SentAt         time.Time `gorm:"not null"`
	CreatedAt      time.Time
}

func (m Message) Sender() PrincipalRef {
	return PrincipalRef{ID: m.SenderID, Kind: m.SenderKind}
}

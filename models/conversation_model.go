package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a two-party thread between one job seeker and one recruiter.
// Messages are append-only; UpdatedAt is bumped on every append.
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Participants []ConversationParticipant `gorm:"constraint:OnDelete:CASCADE"`
	Messages     []Message                 `gorm:"constraint:OnDelete:CASCADE"`
}

type ConversationParticipant struct {
	ID             uint      `gorm:"primary_key"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_principal"`
	PrincipalID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_principal"`
	Kind           Kind      `gorm:"type:varchar(16);not null"`
}

func (p ConversationParticipant) Ref() PrincipalRef {
	return PrincipalRef{ID: p.PrincipalID, Kind: p.Kind}
}

func (c *Conversation) HasParticipant(ref PrincipalRef) bool {
	for _, p := range c.Participants {
		if p.PrincipalID == ref.ID && p.Kind == ref.Kind {
			return true
		}
	}
	return false
}

// ValidParticipantPair reports whether a and b form a legal conversation pair:
// one job seeker and one recruiter with distinct principal ids.
func ValidParticipantPair(a, b PrincipalRef) bool {
	if !a.Kind.Valid() || !b.Kind.Valid() {
		return false
	}
	if a.Kind == b.Kind || a.ID == b.ID {
		return false
	}
	return a.ID != uuid.Nil && b.ID != uuid.Nil
}

// SamePair reports whether the conversation is between exactly the given
// unordered pair of principals.
func (c *Conversation) SamePair(a, b PrincipalRef) bool {
	return len(c.Participants) == 2 && c.HasParticipant(a) && c.HasParticipant(b)
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/models"
)

var (
	// ErrNotFound is returned when a conversation id does not resolve.
	ErrNotFound = errors.New("conversation not found")
	// ErrInvalidParticipants is returned when a participant pair is not
	// exactly one job seeker plus one recruiter with distinct ids.
	ErrInvalidParticipants = errors.New("participants must be one job seeker and one recruiter with distinct ids")
	// ErrUnknownPrincipal is returned when an id resolves in neither
	// identity table.
	ErrUnknownPrincipal = errors.New("unknown principal")
)

// ConversationStore owns conversation and message persistence. Appends to the
// same conversation are linearized by the implementation; appends to different
// conversations may run in parallel.
type ConversationStore interface {
	Create(ctx context.Context, a, b models.PrincipalRef) (*models.Conversation, error)
	FindExisting(ctx context.Context, a, b models.PrincipalRef) (*models.Conversation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListByParticipant(ctx context.Context, ref models.PrincipalRef) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID uuid.UUID, sender models.PrincipalRef, content string) (*models.Conversation, *models.Message, error)
}

// IdentityDirectory resolves a principal reference against the job seeker or
// recruiter table, switching on kind.
type IdentityDirectory interface {
	Resolve(ctx context.Context, ref models.PrincipalRef) (*models.Principal, error)
}

// RevocationList tracks blacklisted credentials.
type RevocationList interface {
	IsRevoked(ctx context.Context, credential string) (bool, error)
	Revoke(ctx context.Context, rc models.RevokedCredential) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrForbidden means the requester is a valid principal but not a
	// participant of the conversation.
	ErrForbidden = errors.New("requester is not a participant of this conversation")
	// ErrNotFound means the conversation id does not resolve.
	ErrNotFound = errors.New("conversation not found")
)

// ConflictError reports that a conversation between the same unordered pair
// already exists. The existing id is carried so the client can route to it.
type ConflictError struct {
	ConversationID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("a conversation between these participants already exists: %s", e.ConversationID)
}

// ValidationError reports malformed input: a bad participant shape or message
// content outside the accepted length.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/models"
	"github.com/hirebridge/hirebridge/store"
	"github.com/samber/lo"
)

const maxContentLength = 1000

// Broadcaster is the fanout seam: after a durable append the service hands the
// new message over for best-effort delivery to live room members. The call
// must never block or fail the write path.
type Broadcaster interface {
	MessagePosted(conversationID uuid.UUID, sender models.PrincipalRef, message MessageView)
}

// ConversationService owns the application logic around conversations:
// creation, authorization, message appends and populated views.
type ConversationService struct {
	conversations store.ConversationStore
	directory     store.IdentityDirectory
	notifier      Broadcaster
}

func NewConversationService(conversations store.ConversationStore, directory store.IdentityDirectory, notifier Broadcaster) *ConversationService {
	return &ConversationService{conversations: conversations, directory: directory, notifier: notifier}
}

type ParticipantView struct {
	PrincipalID uuid.UUID   `json:"principal_id"`
	Kind        models.Kind `json:"kind"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	CompanyName string      `json:"company_name,omitempty"`
}

type MessageView struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	SenderKind     models.Kind `json:"sender_kind"`
	Content        string      `json:"content"`
	SentAt         time.Time   `json:"sent_at"`
}

type ConversationView struct {
	ID           uuid.UUID         `json:"id"`
	Participants []ParticipantView `json:"participants"`
	Messages     []MessageView     `json:"messages"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// CreateConversation starts a thread between the given pair. The requester
// must be one of the two participants; at most one conversation exists per
// unordered pair.
func (s *ConversationService) CreateConversation(ctx context.Context, requester models.PrincipalRef, participants []models.PrincipalRef) (*ConversationView, error) {
	if len(participants) != 2 {
		return nil, &ValidationError{Reason: "participants must be an array of exactly 2 entries"}
	}
	a, b := participants[0], participants[1]
	if !models.ValidParticipantPair(a, b) {
		return nil, &ValidationError{Reason: "participants must be one job seeker and one recruiter with distinct ids"}
	}

	if !lo.SomeBy(participants, func(p models.PrincipalRef) bool { return p == requester }) {
		return nil, ErrForbidden
	}

	// Each participant must exist in its identity collection.
	for _, p := range participants {
		if _, err := s.directory.Resolve(ctx, p); err != nil {
			if errors.Is(err, store.ErrUnknownPrincipal) {
				return nil, &ValidationError{Reason: "participant " + p.ID.String() + " does not exist"}
			}
			return nil, err
		}
	}

	if existing, err := s.conversations.FindExisting(ctx, a, b); err == nil {
		return nil, &ConflictError{ConversationID: existing.ID}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	conv, err := s.conversations.Create(ctx, a, b)
	if err != nil {
		if errors.Is(err, store.ErrInvalidParticipants) {
			return nil, &ValidationError{Reason: err.Error()}
		}
		return nil, err
	}
	return s.view(ctx, conv), nil
}

// ListConversations returns the requester's threads, most recently active
// first. The ordering is what the chat-list UI renders.
func (s *ConversationService) ListConversations(ctx context.Context, requester models.PrincipalRef) ([]ConversationView, error) {
	convs, err := s.conversations.ListByParticipant(ctx, requester)
	if err != nil {
		return nil, err
	}
	views := make([]ConversationView, 0, len(convs))
	for i := range convs {
		views = append(views, *s.view(ctx, &convs[i]))
	}
	return views, nil
}

// GetConversation returns a thread with populated participants. NotFound is
// checked before participation, matching the REST contract.
func (s *ConversationService) GetConversation(ctx context.Context, requester models.PrincipalRef, id uuid.UUID) (*ConversationView, error) {
	conv, err := s.authorize(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, conv), nil
}

// SendMessage durably appends to the thread, then hands the new message to the
// broadcaster for best-effort live fanout.
func (s *ConversationService) SendMessage(ctx context.Context, requester models.PrincipalRef, conversationID uuid.UUID, content string) (*ConversationView, *MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, &ValidationError{Reason: "message content is required"}
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, nil, &ValidationError{Reason: "message cannot exceed 1000 characters"}
	}

	if _, err := s.authorize(ctx, requester, conversationID); err != nil {
		return nil, nil, err
	}

	conv, msg, err := s.conversations.AppendMessage(ctx, conversationID, requester, content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	view := s.view(ctx, conv)
	msgView := toMessageView(*msg)

	// Durable write first, live fanout second. The live channel is a hint;
	// the REST read path is ground truth.
	if s.notifier != nil {
		s.notifier.MessagePosted(conversationID, requester, msgView)
	}
	return view, &msgView, nil
}

func (s *ConversationService) authorize(ctx context.Context, requester models.PrincipalRef, id uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(requester) {
		return nil, ErrForbidden
	}
	return conv, nil
}

func (s *ConversationService) view(ctx context.Context, conv *models.Conversation) *ConversationView {
	participants := lo.Map(conv.Participants, func(p models.ConversationParticipant, _ int) ParticipantView {
		pv := ParticipantView{PrincipalID: p.PrincipalID, Kind: p.Kind}
		if principal, err := s.directory.Resolve(ctx, p.Ref()); err == nil {
			pv.Name = principal.Name
			pv.Email = principal.Email
			pv.CompanyName = principal.CompanyName
		}
		return pv
	})
	messages := lo.Map(conv.Messages, func(m models.Message, _ int) MessageView {
		return toMessageView(m)
	})
	return &ConversationView{
		ID:           conv.ID,
		Participants: participants,
		Messages:     messages,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

func toMessageView(m models.Message) MessageView {
	return MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderKind:     m.SenderKind,
		Content:        m.Content,
		SentAt:         m.SentAt,
	}
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormConversationStore is the Postgres-backed ConversationStore. Appends lock
// the conversation row so concurrent sends to the same thread serialize.
type GormConversationStore struct {
	db *gorm.DB
}

func NewGormConversationStore(db *gorm.DB) *GormConversationStore {
	return &GormConversationStore{db: db}
}

func orderedMessages(db *gorm.DB) *gorm.DB {
	return db.Order("sent_at ASC, created_at ASC")
}

func (s *GormConversationStore) Create(ctx context.Context, a, b models.PrincipalRef) (*models.Conversation, error) {
	if !models.ValidParticipantPair(a, b) {
		return nil, ErrInvalidParticipants
	}

	conv := models.Conversation{
		ID: uuid.New(),
		Participants: []models.ConversationParticipant{
			{PrincipalID: a.ID, Kind: a.Kind},
			{PrincipalID: b.ID, Kind: b.Kind},
		},
	}
	if err := s.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, err
	}
	return s.FindByID(ctx, conv.ID)
}

func (s *GormConversationStore) FindExisting(ctx context.Context, a, b models.PrincipalRef) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Joins("JOIN conversation_participants cp1 ON cp1.conversation_id = conversations.id AND cp1.principal_id = ? AND cp1.kind = ?", a.ID, a.Kind).
		Joins("JOIN conversation_participants cp2 ON cp2.conversation_id = conversations.id AND cp2.principal_id = ? AND cp2.kind = ?", b.ID, b.Kind).
		Preload("Participants").
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *GormConversationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Participants").
		Preload("Messages", orderedMessages).
		First(&conv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *GormConversationStore) ListByParticipant(ctx context.Context, ref models.PrincipalRef) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id AND cp.principal_id = ? AND cp.kind = ?", ref.ID, ref.Kind).
		Preload("Participants").
		Preload("Messages", orderedMessages).
		Order("conversations.updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (s *GormConversationStore) AppendMessage(ctx context.Context, conversationID uuid.UUID, sender models.PrincipalRef, content string) (*models.Conversation, *models.Message, error) {
	msg := models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       sender.ID,
		SenderKind:     sender.Kind,
		Content:        content,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conv, "id = ?", conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		sentAt := time.Now().UTC()
		var last models.Message
		err := tx.Where("conversation_id = ?", conversationID).
			Order("sent_at DESC").
			First(&last).Error
		switch {
		case err == nil:
			if sentAt.Before(last.SentAt) {
				sentAt = last.SentAt
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		msg.SentAt = sentAt
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&conv).Update("updated_at", sentAt).Error
	})
	if err != nil {
		return nil, nil, err
	}

	conv, err := s.FindByID(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	return conv, &msg, nil
}

// GormIdentityDirectory resolves principals against the job_seekers and
// recruiters tables, switching on kind.
type GormIdentityDirectory struct {
	db *gorm.DB
}

func NewGormIdentityDirectory(db *gorm.DB) *GormIdentityDirectory {
	return &GormIdentityDirectory{db: db}
}

func (d *GormIdentityDirectory) Resolve(ctx context.Context, ref models.PrincipalRef) (*models.Principal, error) {
	switch ref.Kind {
	case models.KindJobSeeker:
		var j models.JobSeeker
		if err := d.db.WithContext(ctx).First(&j, "id = ?", ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUnknownPrincipal
			}
			return nil, err
		}
		p := j.Principal()
		return &p, nil
	case models.KindRecruiter:
		var r models.Recruiter
		if err := d.db.WithContext(ctx).First(&r, "id = ?", ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUnknownPrincipal
			}
			return nil, err
		}
		p := r.Principal()
		return &p, nil
	default:
		return nil, ErrUnknownPrincipal
	}
}

// GormRevocationList persists blacklisted credentials.
type GormRevocationList struct {
	db *gorm.DB
}

func NewGormRevocationList(db *gorm.DB) *GormRevocationList {
	return &GormRevocationList{db: db}
}

func (l *GormRevocationList) IsRevoked(ctx context.Context, credential string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&models.RevokedCredential{}).
		Where("token = ?", credential).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (l *GormRevocationList) Revoke(ctx context.Context, rc models.RevokedCredential) error {
	return l.db.WithContext(ctx).Create(&rc).Error
}

func (l *GormRevocationList) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := l.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.RevokedCredential{})
	return res.RowsAffected, res.Error
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/models"
)

// MemoryConversationStore is the in-memory ConversationStore used by tests and
// by local development without a database. Appends take a per-conversation
// lock so concurrent sends to one thread are linearized while other threads
// proceed in parallel.
type MemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*conversationEntry
}

type conversationEntry struct {
	mu   sync.Mutex
	conv models.Conversation
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{conversations: make(map[uuid.UUID]*conversationEntry)}
}

func (s *MemoryConversationStore) Create(ctx context.Context, a, b models.PrincipalRef) (*models.Conversation, error) {
	if !models.ValidParticipantPair(a, b) {
		return nil, ErrInvalidParticipants
	}

	now := time.Now().UTC()
	conv := models.Conversation{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	conv.Participants = []models.ConversationParticipant{
		{ConversationID: conv.ID, PrincipalID: a.ID, Kind: a.Kind},
		{ConversationID: conv.ID, PrincipalID: b.ID, Kind: b.Kind},
	}

	s.mu.Lock()
	s.conversations[conv.ID] = &conversationEntry{conv: conv}
	s.mu.Unlock()

	return cloneConversation(&conv), nil
}

func (s *MemoryConversationStore) FindExisting(ctx context.Context, a, b models.PrincipalRef) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.conversations {
		entry.mu.Lock()
		match := entry.conv.SamePair(a, b)
		conv := cloneConversation(&entry.conv)
		entry.mu.Unlock()
		if match {
			return conv, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryConversationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	s.mu.RLock()
	entry, ok := s.conversations[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneConversation(&entry.conv), nil
}

func (s *MemoryConversationStore) ListByParticipant(ctx context.Context, ref models.PrincipalRef) ([]models.Conversation, error) {
	s.mu.RLock()
	var out []models.Conversation
	for _, entry := range s.conversations {
		entry.mu.Lock()
		if entry.conv.HasParticipant(ref) {
			out = append(out, *cloneConversation(&entry.conv))
		}
		entry.mu.Unlock()
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryConversationStore) AppendMessage(ctx context.Context, conversationID uuid.UUID, sender models.PrincipalRef, content string) (*models.Conversation, *models.Message, error) {
	s.mu.RLock()
	entry, ok := s.conversations[conversationID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	sentAt := time.Now().UTC()
	if n := len(entry.conv.Messages); n > 0 && sentAt.Before(entry.conv.Messages[n-1].SentAt) {
		sentAt = entry.conv.Messages[n-1].SentAt
	}

	msg := models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       sender.ID,
		SenderKind:     sender.Kind,
		Content:        content,
		SentAt:         sentAt,
		CreatedAt:      sentAt,
	}
	entry.conv.Messages = append(entry.conv.Messages, msg)
	entry.conv.UpdatedAt = sentAt

	return cloneConversation(&entry.conv), &msg, nil
}

func cloneConversation(c *models.Conversation) *models.Conversation {
	out := *c
	out.Participants = append([]models.ConversationParticipant(nil), c.Participants...)
	out.Messages = append([]models.Message(nil), c.Messages...)
	return &out
}

// MemoryIdentityDirectory backs the two identity collections with maps.
type MemoryIdentityDirectory struct {
	mu         sync.RWMutex
	jobSeekers map[uuid.UUID]models.JobSeeker
	recruiters map[uuid.UUID]models.Recruiter
}

func NewMemoryIdentityDirectory() *MemoryIdentityDirectory {
	return &MemoryIdentityDirectory{
		jobSeekers: make(map[uuid.UUID]models.JobSeeker),
		recruiters: make(map[uuid.UUID]models.Recruiter),
	}
}

func (d *MemoryIdentityDirectory) AddJobSeeker(j models.JobSeeker) {
	d.mu.Lock()
	d.jobSeekers[j.ID] = j
	d.mu.Unlock()
}

func (d *MemoryIdentityDirectory) AddRecruiter(r models.Recruiter) {
	d.mu.Lock()
	d.recruiters[r.ID] = r
	d.mu.Unlock()
}

func (d *MemoryIdentityDirectory) Resolve(ctx context.Context, ref models.PrincipalRef) (*models.Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch ref.Kind {
	case models.KindJobSeeker:
		if j, ok := d.jobSeekers[ref.ID]; ok {
			p := j.Principal()
			return &p, nil
		}
	case models.KindRecruiter:
		if r, ok := d.recruiters[ref.ID]; ok {
			p := r.Principal()
			return &p, nil
		}
	}
	return nil, ErrUnknownPrincipal
}

// MemoryRevocationList keeps blacklisted credentials in a map.
type MemoryRevocationList struct {
	mu      sync.RWMutex
	revoked map[string]models.RevokedCredential
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{revoked: make(map[string]models.RevokedCredential)}
}

func (l *MemoryRevocationList) IsRevoked(ctx context.Context, credential string) (bool, error) {
	l.mu.RLock()
	_, ok := l.revoked[credential]
	l.mu.RUnlock()
	return ok, nil
}

func (l *MemoryRevocationList) Revoke(ctx context.Context, rc models.RevokedCredential) error {
	l.mu.Lock()
	l.revoked[rc.Token] = rc
	l.mu.Unlock()
	return nil
}

func (l *MemoryRevocationList) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var purged int64
	for token, rc := range l.revoked {
		if rc.ExpiresAt.Before(now) {
			delete(l.revoked, token)
			purged++
		}
	}
	return purged, nil
}

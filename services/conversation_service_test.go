package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/models"
	"github.com/hirebridge/hirebridge/store"
	"github.com/stretchr/testify/require"
)

type fanoutEvent struct {
	ConversationID uuid.UUID
	Sender         models.PrincipalRef
	Message        MessageView
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []fanoutEvent
}

func (b *recordingBroadcaster) MessagePosted(conversationID uuid.UUID, sender models.PrincipalRef, message MessageView) {
	b.mu.Lock()
	b.events = append(b.events, fanoutEvent{ConversationID: conversationID, Sender: sender, Message: message})
	b.mu.Unlock()
}

type fixture struct {
	svc       *ConversationService
	notifier  *recordingBroadcaster
	seeker    models.PrincipalRef
	recruiter models.PrincipalRef
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	directory := store.NewMemoryIdentityDirectory()

	seeker := models.JobSeeker{ID: uuid.New(), FullName: "Ada Lovelace", Email: "ada@example.com"}
	recruiter := models.Recruiter{ID: uuid.New(), FullName: "Grace Hopper", Email: "grace@acme.com", CompanyName: "Acme"}
	directory.AddJobSeeker(seeker)
	directory.AddRecruiter(recruiter)

	notifier := &recordingBroadcaster{}
	svc := NewConversationService(store.NewMemoryConversationStore(), directory, notifier)
	return &fixture{
		svc:       svc,
		notifier:  notifier,
		seeker:    models.PrincipalRef{ID: seeker.ID, Kind: models.KindJobSeeker},
		recruiter: models.PrincipalRef{ID: recruiter.ID, Kind: models.KindRecruiter},
	}
}

func (f *fixture) participants() []models.PrincipalRef {
	return []models.PrincipalRef{f.seeker, f.recruiter}
}

func Test_CreateConversation_Succeeds_Exactly_Once_Per_Pair(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.svc.CreateConversation(ctx, f.seeker, f.participants())
	req.NoError(err)
	req.Len(conv.Participants, 2)

	// Same pair in the other order, requested by the other side.
	_, err = f.svc.CreateConversation(ctx, f.recruiter, []models.PrincipalRef{f.recruiter, f.seeker})
	var conflict *ConflictError
	req.ErrorAs(err, &conflict)
	req.Equal(conv.ID, conflict.ConversationID, "the conflict must reference the existing conversation")
}

func Test_CreateConversation_Requires_Requester_Participation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	outsider := models.PrincipalRef{ID: uuid.New(), Kind: models.KindJobSeeker}
	_, err := f.svc.CreateConversation(context.Background(), outsider, f.participants())
	req.ErrorIs(err, ErrForbidden)
}

func Test_CreateConversation_Validates_Shape_And_Existence(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	var invalid *ValidationError

	_, err := f.svc.CreateConversation(ctx, f.seeker, []models.PrincipalRef{f.seeker})
	req.ErrorAs(err, &invalid)

	_, err = f.svc.CreateConversation(ctx, f.seeker, []models.PrincipalRef{f.seeker, {ID: uuid.New(), Kind: models.KindJobSeeker}})
	req.ErrorAs(err, &invalid, "two job seekers are not a valid pair")

	ghost := models.PrincipalRef{ID: uuid.New(), Kind: models.KindRecruiter}
	_, err = f.svc.CreateConversation(ctx, f.seeker, []models.PrincipalRef{f.seeker, ghost})
	req.ErrorAs(err, &invalid, "participants must exist in their identity store")
}

func Test_GetConversation_Is_Hidden_From_Non_Participants(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.svc.CreateConversation(ctx, f.seeker, f.participants())
	req.NoError(err)

	_, err = f.svc.GetConversation(ctx, f.recruiter, conv.ID)
	req.NoError(err)

	outsider := models.PrincipalRef{ID: uuid.New(), Kind: models.KindJobSeeker}
	_, err = f.svc.GetConversation(ctx, outsider, conv.ID)
	req.ErrorIs(err, ErrForbidden)

	_, err = f.svc.GetConversation(ctx, f.seeker, uuid.New())
	req.ErrorIs(err, ErrNotFound)
}

func Test_GetConversation_Populates_Participant_Display_Fields(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.svc.CreateConversation(ctx, f.seeker, f.participants())
	req.NoError(err)

	byKind := map[models.Kind]ParticipantView{}
	for _, p := range conv.Participants {
		byKind[p.Kind] = p
	}
	req.Equal("Ada Lovelace", byKind[models.KindJobSeeker].Name)
	req.Equal("ada@example.com", byKind[models.KindJobSeeker].Email)
	req.Equal("Grace Hopper", byKind[models.KindRecruiter].Name)
	req.Equal("Acme", byKind[models.KindRecruiter].CompanyName)
}

func Test_SendMessage_Content_Boundaries(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.svc.CreateConversation(ctx, f.seeker, f.participants())
	req.NoError(err)

	var invalid *ValidationError

	_, _, err = f.svc.SendMessage(ctx, f.seeker, conv.ID, "")
	req.ErrorAs(err, &invalid)

	_, _, err = f.svc.SendMessage(ctx, f.seeker, conv.ID, "   \n\t ")
	req.ErrorAs(err, &invalid, "whitespace-only content is empty after trim")

	_, _, err = f.svc.SendMessage(ctx, f.seeker, conv.ID, strings.Repeat("a", 1001))
	req.ErrorAs(err, &invalid)

	_, msg, err := f.svc.SendMessage(ctx, f.seeker, conv.ID, "x")
	req.NoError(err)
	req.Equal("x", msg.Content)

	_, msg, err = f.svc.SendMessage(ctx, f.seeker, conv.ID, strings.Repeat("b", 1000))
	req.NoError(err)
	req.Len(msg.Content, 1000)
}

func Test_SendMessage_Denormalizes_Sender_And_Trims(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.svc.CreateConversation(ctx, f.seeker, f.participants())
	req.NoError(err)

	updated, msg, err := f.svc.SendMessage(ctx, f.seeker, conv.ID, "  Hello  ")
	req.NoError(err)
	req.Equal("Hello", msg.Content)
	req.Equal(f.seeker.ID, msg.SenderID)
	req.Equal(models.KindJobSeeker, msg.SenderKind)
	req.Len(updated.Messages, 1)
	req.False(updated.UpdatedAt.Before(conv.UpdatedAt))
}

func Test_SendMessage_Authorization_And_Fanout(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	conv, err := f.svc.CreateConversation(ctx, f.seeker, f.participants())
	req.NoError(err)

	outsider := models.PrincipalRef{ID: uuid.New(), Kind: models.KindRecruiter}
	_, _, err = f.svc.SendMessage(ctx, outsider, conv.ID, "let me in")
	req.ErrorIs(err, ErrForbidden)

	_, _, err = f.svc.SendMessage(ctx, f.seeker, uuid.New(), "anyone there?")
	req.ErrorIs(err, ErrNotFound)
	req.Empty(f.notifier.events, "rejected sends must not reach the broadcaster")

	_, msg, err := f.svc.SendMessage(ctx, f.seeker, conv.ID, "Hello")
	req.NoError(err)
	req.Len(f.notifier.events, 1, "a durable append triggers exactly one fanout")
	event := f.notifier.events[0]
	req.Equal(conv.ID, event.ConversationID)
	req.Equal(f.seeker, event.Sender)
	req.Equal(msg.ID, event.Message.ID)
	req.Equal("Hello", event.Message.Content)
}

func Test_ListConversations_Orders_By_Recent_Activity(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	otherRecruiter := models.Recruiter{ID: uuid.New(), FullName: "Alan Turing", Email: "alan@initech.com", CompanyName: "Initech"}
	f2 := newFixtureWithExtraRecruiter(t, otherRecruiter)

	first, err := f2.svc.CreateConversation(ctx, f2.seeker, f2.participants())
	req.NoError(err)
	time.Sleep(5 * time.Millisecond)
	otherRef := models.PrincipalRef{ID: otherRecruiter.ID, Kind: models.KindRecruiter}
	second, err := f2.svc.CreateConversation(ctx, f2.seeker, []models.PrincipalRef{f2.seeker, otherRef})
	req.NoError(err)

	listed, err := f2.svc.ListConversations(ctx, f2.seeker)
	req.NoError(err)
	req.Len(listed, 2)
	req.Equal(second.ID, listed[0].ID)

	time.Sleep(5 * time.Millisecond)
	_, _, err = f2.svc.SendMessage(ctx, f2.seeker, first.ID, "bump")
	req.NoError(err)

	listed, err = f2.svc.ListConversations(ctx, f2.seeker)
	req.NoError(err)
	req.Equal(first.ID, listed[0].ID, "an append moves the thread to the top")

	listed, err = f2.svc.ListConversations(ctx, otherRef)
	req.NoError(err)
	req.Len(listed, 1, "a participant only sees their own threads")
}

func newFixtureWithExtraRecruiter(t *testing.T, extra models.Recruiter) *fixture {
	t.Helper()
	directory := store.NewMemoryIdentityDirectory()

	seeker := models.JobSeeker{ID: uuid.New(), FullName: "Ada Lovelace", Email: "ada@example.com"}
	recruiter := models.Recruiter{ID: uuid.New(), FullName: "Grace Hopper", Email: "grace@acme.com", CompanyName: "Acme"}
	directory.AddJobSeeker(seeker)
	directory.AddRecruiter(recruiter)
	directory.AddRecruiter(extra)

	notifier := &recordingBroadcaster{}
	svc := NewConversationService(store.NewMemoryConversationStore(), directory, notifier)
	return &fixture{
		svc:       svc,
		notifier:  notifier,
		seeker:    models.PrincipalRef{ID: seeker.ID, Kind: models.KindJobSeeker},
		recruiter: models.PrincipalRef{ID: recruiter.ID, Kind: models.KindRecruiter},
	}
}

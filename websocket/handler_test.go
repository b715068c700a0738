package websocket

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/models"
	"github.com/hirebridge/hirebridge/services"
	"github.com/hirebridge/hirebridge/store"
	"github.com/stretchr/testify/require"
)

type gatewayFixture struct {
	hub       *Hub
	handler   *Handler
	svc       *services.ConversationService
	seeker    models.PrincipalRef
	recruiter models.PrincipalRef
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	directory := store.NewMemoryIdentityDirectory()

	seeker := models.JobSeeker{ID: uuid.New(), FullName: "Ada Lovelace", Email: "ada@example.com"}
	recruiter := models.Recruiter{ID: uuid.New(), FullName: "Grace Hopper", Email: "grace@acme.com", CompanyName: "Acme"}
	directory.AddJobSeeker(seeker)
	directory.AddRecruiter(recruiter)

	hub := NewHub()
	svc := services.NewConversationService(store.NewMemoryConversationStore(), directory, NewBridge(hub))
	return &gatewayFixture{
		hub:       hub,
		handler:   NewHandler(hub, nil, svc),
		svc:       svc,
		seeker:    models.PrincipalRef{ID: seeker.ID, Kind: models.KindJobSeeker},
		recruiter: models.PrincipalRef{ID: recruiter.ID, Kind: models.KindRecruiter},
	}
}

func (f *gatewayFixture) createConversation(t *testing.T) uuid.UUID {
	t.Helper()
	conv, err := f.svc.CreateConversation(context.Background(), f.seeker,
		[]models.PrincipalRef{f.seeker, f.recruiter})
	require.NoError(t, err)
	return conv.ID
}

func decodeAck(t *testing.T, payload []byte) joinAckFrame {
	t.Helper()
	var ack joinAckFrame
	require.NoError(t, json.Unmarshal(payload, &ack))
	require.Equal(t, "joinAck", ack.Type)
	return ack
}

func Test_JoinRoom_Admits_Participants(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	convID := f.createConversation(t)

	conn := newFakeConn()
	session := NewSession(f.recruiter, conn)
	f.hub.Attach(session)

	f.handler.handleJoin(session, convID.String())

	ack := decodeAck(t, conn.next(t))
	req.True(ack.Success)
	req.Equal(convID.String(), ack.ConversationID)
	req.True(f.hub.InRoom(convID, session.ID))
}

func Test_JoinRoom_Rejects_Non_Participants_Via_Ack(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	convID := f.createConversation(t)

	outsider := models.PrincipalRef{ID: uuid.New(), Kind: models.KindJobSeeker}
	conn := newFakeConn()
	session := NewSession(outsider, conn)
	f.hub.Attach(session)

	f.handler.handleJoin(session, convID.String())

	ack := decodeAck(t, conn.next(t))
	req.False(ack.Success)
	req.NotNil(ack.Error)
	req.Equal("forbidden", ack.Error.Kind)
	req.False(f.hub.InRoom(convID, session.ID), "a rejected join leaves no membership behind")
}

func Test_JoinRoom_Rejects_Missing_And_Malformed_Ids(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	conn := newFakeConn()
	session := NewSession(f.seeker, conn)
	f.hub.Attach(session)

	f.handler.handleJoin(session, uuid.NewString())
	ack := decodeAck(t, conn.next(t))
	req.False(ack.Success)
	req.Equal("not_found", ack.Error.Kind)

	f.handler.handleJoin(session, "not-a-uuid")
	ack = decodeAck(t, conn.next(t))
	req.False(ack.Success)
	req.Equal("validation_error", ack.Error.Kind)
}

// Two-party end-to-end flow over the dual write path: REST-originated sends
// fan out to joined live sessions, excluding the sender's own session.
func Test_Message_Fanout_Reaches_Room_Members_Except_Sender(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	ctx := context.Background()
	convID := f.createConversation(t)

	seekerConn, recruiterConn := newFakeConn(), newFakeConn()
	seekerSession := NewSession(f.seeker, seekerConn)
	recruiterSession := NewSession(f.recruiter, recruiterConn)
	f.hub.Attach(seekerSession)
	f.hub.Attach(recruiterSession)
	f.handler.handleJoin(seekerSession, convID.String())
	f.handler.handleJoin(recruiterSession, convID.String())
	seekerConn.next(t)    // join ack
	recruiterConn.next(t) // join ack

	_, sent, err := f.svc.SendMessage(ctx, f.seeker, convID, "Hello")
	req.NoError(err)

	var frame messageFrame
	req.NoError(json.Unmarshal(recruiterConn.next(t), &frame))
	req.Equal("messageReceived", frame.Type)
	req.Equal(convID.String(), frame.ConversationID)
	req.Equal(sent.ID, frame.Message.ID)
	req.Equal("Hello", frame.Message.Content)
	req.Equal(models.KindJobSeeker, frame.Message.SenderKind)
	seekerConn.expectNone(t)

	_, _, err = f.svc.SendMessage(ctx, f.recruiter, convID, "Hi there")
	req.NoError(err)

	req.NoError(json.Unmarshal(seekerConn.next(t), &frame))
	req.Equal("Hi there", frame.Message.Content)
	req.Equal(models.KindRecruiter, frame.Message.SenderKind)
	recruiterConn.expectNone(t)

	// After the recruiter disconnects, further fanout skips them silently;
	// the message still persists for the REST read path.
	f.hub.Detach(recruiterSession)
	conv, _, err := f.svc.SendMessage(ctx, f.seeker, convID, "Still there?")
	req.NoError(err)
	recruiterConn.expectNone(t)
	req.Len(conv.Messages, 3)
}

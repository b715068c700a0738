package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/auth"
	"github.com/hirebridge/hirebridge/services"
)

const (
	handshakeTimeout = 10 * time.Second
	readTimeout      = 60 * time.Second
	serviceTimeout   = 5 * time.Second
)

// Handler drives one gateway connection through its states: the client must
// present a credential in its first frame, then may join conversation rooms;
// everything else is server push until the transport closes.
type Handler struct {
	hub           *Hub
	verifier      *auth.Verifier
	conversations *services.ConversationService
}

func NewHandler(hub *Hub, verifier *auth.Verifier, conversations *services.ConversationService) *Handler {
	return &Handler{hub: hub, verifier: verifier, conversations: conversations}
}

type authFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

type wireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorFrame struct {
	Type  string    `json:"type"`
	Error wireError `json:"error"`
}

type connectedFrame struct {
	Type      string                   `json:"type"`
	SessionID string                   `json:"session_id"`
	Principal services.ParticipantView `json:"principal"`
}

type joinAckFrame struct {
	Type           string     `json:"type"`
	ConversationID string     `json:"conversation_id"`
	Success        bool       `json:"success"`
	Error          *wireError `json:"error,omitempty"`
}

type messageFrame struct {
	Type           string               `json:"type"`
	ConversationID string               `json:"conversation_id"`
	Message        services.MessageView `json:"message"`
}

// ServeWS handles a gateway connection end to end. Mounted via websocket.New.
func (h *Handler) ServeWS(c *websocket.Conn) {
	// The credential arrives out-of-band as a query parameter, or in a
	// first auth frame within the handshake window. Either way the
	// connection is dropped unauthenticated on expiry.
	token := c.Query("token")
	if token == "" {
		_ = c.SetReadDeadline(time.Now().Add(handshakeTimeout))
		var hello authFrame
		if err := c.ReadJSON(&hello); err != nil || hello.Type != "auth" {
			_ = c.WriteJSON(errorFrame{Type: "error", Error: wireError{Kind: "authentication_error", Message: "expected an auth frame"}})
			_ = c.Close()
			return
		}
		token = hello.Token
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	principal, err := h.verifier.Verify(ctx, token)
	cancel()
	if err != nil {
		log.Printf("gateway handshake rejected: %v", err)
		_ = c.WriteJSON(errorFrame{Type: "error", Error: wireError{Kind: "authentication_error", Message: "invalid credential"}})
		_ = c.Close()
		return
	}

	session := NewSession(principal.Ref(), c)
	h.hub.Attach(session)
	defer h.hub.Detach(session)

	h.push(session, connectedFrame{
		Type:      "connected",
		SessionID: session.ID,
		Principal: services.ParticipantView{
			PrincipalID: principal.ID,
			Kind:        principal.Kind,
			Name:        principal.Name,
			Email:       principal.Email,
			CompanyName: principal.CompanyName,
		},
	})

	_ = c.SetReadDeadline(time.Now().Add(readTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var in inboundFrame
		if err := c.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				log.Printf("gateway read error for session %s: %v", session.ID, err)
			}
			return
		}
		_ = c.SetReadDeadline(time.Now().Add(readTimeout))

		switch in.Type {
		case "joinRoom":
			h.handleJoin(session, in.ConversationID)
		default:
			h.push(session, errorFrame{Type: "error", Error: wireError{Kind: "validation_error", Message: "unsupported frame type"}})
		}
	}
}

// handleJoin authorizes the join against the conversation service and answers
// with an ack either way. On rejection the session holds no membership.
func (h *Handler) handleJoin(session *Session, rawID string) {
	conversationID, err := uuid.Parse(rawID)
	if err != nil {
		h.push(session, joinAckFrame{
			Type:           "joinAck",
			ConversationID: rawID,
			Error:          &wireError{Kind: "validation_error", Message: "invalid conversation id"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	_, err = h.conversations.GetConversation(ctx, session.Principal, conversationID)
	cancel()
	if err != nil {
		h.push(session, joinAckFrame{
			Type:           "joinAck",
			ConversationID: rawID,
			Error:          joinError(err),
		})
		return
	}

	h.hub.Join(conversationID, session)
	h.push(session, joinAckFrame{Type: "joinAck", ConversationID: rawID, Success: true})
}

func joinError(err error) *wireError {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return &wireError{Kind: "not_found", Message: "conversation not found"}
	case errors.Is(err, services.ErrForbidden):
		return &wireError{Kind: "forbidden", Message: "not a participant of this conversation"}
	default:
		return &wireError{Kind: "internal_error", Message: "failed to join conversation"}
	}
}

func (h *Handler) push(session *Session, frame interface{}) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("failed to encode frame for session %s: %v", session.ID, err)
		return
	}
	_ = session.Send(payload)
}

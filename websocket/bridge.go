package websocket

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/models"
	"github.com/hirebridge/hirebridge/services"
)

// Bridge adapts the hub to the conversation service's fanout contract. The
// message is already durable when this runs; delivery is best-effort and a
// failure is never surfaced to the write path.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) MessagePosted(conversationID uuid.UUID, sender models.PrincipalRef, message services.MessageView) {
	payload, err := json.Marshal(messageFrame{
		Type:           "messageReceived",
		ConversationID: conversationID.String(),
		Message:        message,
	})
	if err != nil {
		log.Printf("failed to encode fanout for conversation %s: %v", conversationID, err)
		return
	}
	b.hub.Broadcast(conversationID, payload, sender)
}

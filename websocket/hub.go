package websocket

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/models"
)

// Hub is the process-scoped session registry: session id to session, and room
// (conversation id) to member sessions. It is constructed once at startup and
// injected into the gateway handler and the fanout bridge. Membership
// mutations serialize under one lock; broadcasts take the read lock and never
// block on a slow client.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	rooms        map[uuid.UUID]map[string]*Session
	sessionRooms map[string]map[uuid.UUID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions:     make(map[string]*Session),
		rooms:        make(map[uuid.UUID]map[string]*Session),
		sessionRooms: make(map[string]map[uuid.UUID]struct{}),
	}
}

// Attach registers an authenticated session and starts its write loop.
func (h *Hub) Attach(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.sessionRooms[s.ID] = make(map[uuid.UUID]struct{})
	h.mu.Unlock()

	s.Start()
	log.Printf("session attached: %s (%s %s)", s.ID, s.Principal.Kind, s.Principal.ID)
}

// Detach removes the session and releases every room membership it holds.
// Cleanup completes under the lock, so a broadcast started afterwards can
// never reach the dead session. Unconditional on any disconnect path.
func (h *Hub) Detach(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.ID]; ok {
		delete(h.sessions, s.ID)
		for roomID := range h.sessionRooms[s.ID] {
			h.leaveLocked(roomID, s.ID)
		}
		delete(h.sessionRooms, s.ID)
	}
	h.mu.Unlock()

	s.Close()
	log.Printf("session detached: %s", s.ID)
}

// Join adds the session to the conversation's room. Authorization has already
// happened by the time this is called. A session may be in many rooms.
func (h *Hub) Join(conversationID uuid.UUID, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s.ID]; !ok {
		return
	}

	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Session)
		h.rooms[conversationID] = room
	}
	room[s.ID] = s
	h.sessionRooms[s.ID][conversationID] = struct{}{}
}

// InRoom reports whether the session currently holds membership in the room.
func (h *Hub) InRoom(conversationID uuid.UUID, sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[conversationID][sessionID]
	return ok
}

// Broadcast delivers payload to every member of the room except sessions
// bound to the excluded principal. Delivery is fire-and-forget: a member that
// cannot take the payload is dropped, never waited on. Returns the number of
// sessions the payload was queued for.
func (h *Hub) Broadcast(conversationID uuid.UUID, payload []byte, exclude models.PrincipalRef) int {
	h.mu.RLock()
	room := h.rooms[conversationID]
	members := make([]*Session, 0, len(room))
	for _, s := range room {
		if s.Principal == exclude {
			continue
		}
		members = append(members, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range members {
		if err := s.Send(payload); err != nil {
			log.Printf("dropping session %s: %v", s.ID, err)
			continue
		}
		delivered++
	}
	return delivered
}

func (h *Hub) leaveLocked(conversationID uuid.UUID, sessionID string) {
	room := h.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
}

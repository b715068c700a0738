package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/models"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Conn is the subset of *websocket.Conn the session write loop needs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session binds one live connection to one authenticated principal for the
// connection's lifetime. Outbound writes are serialized through a buffered
// channel; the session is safe for concurrent use.
type Session struct {
	ID        string
	Principal models.PrincipalRef

	conn Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewSession(principal models.PrincipalRef, conn Conn) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Principal: principal,
		conn:      conn,
		send:      make(chan []byte, 64),
		done:      make(chan struct{}),
	}
}

// Start launches the write loop. Called exactly once, by Hub.Attach.
func (s *Session) Start() {
	go s.writeLoop()
}

// Send enqueues payload without blocking. A client too slow to drain its
// buffer is disconnected rather than allowed to stall a broadcast.
func (s *Session) Send(payload []byte) error {
	select {
	case <-s.done:
		return errors.New("session closed")
	case s.send <- payload:
		return nil
	default:
		s.Close()
		return errors.New("session send buffer full")
	}
}

// Close terminates the connection and stops the write loop. Idempotent.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			if err := s.write(websocket.TextMessage, payload); err != nil {
				s.Close()
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		}
	}
}

func (s *Session) write(messageType int, payload []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, payload)
}

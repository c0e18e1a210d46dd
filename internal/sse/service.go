package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rmitchellscott/stippler/internal/logging"
)

// Event represents a server-sent event
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ClientBuffer is how many events may wait for a slow client before new
// ones are dropped
const ClientBuffer = 16

// Client represents a connected SSE client. Events are queued on the client
// and written by the goroutine running Serve.
type Client struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Writer    http.ResponseWriter
	Flusher   http.Flusher
	Done      chan struct{}

	events chan Event
}

// Service manages SSE connections and broadcasts
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

// NewService creates a new SSE service
func NewService() *Service {
	return &Service{
		clients: make(map[uuid.UUID]*Client),
	}
}

// AddClient registers w as an event stream for sessionID and queues a
// "connected" event. It returns nil if w cannot flush. The caller must run
// Serve to deliver events.
func (s *Service) AddClient(sessionID uuid.UUID, w http.ResponseWriter) *Client {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &Client{
		ID:        uuid.New(),
		SessionID: sessionID,
		Writer:    w,
		Flusher:   flusher,
		Done:      make(chan struct{}),
		events:    make(chan Event, ClientBuffer),
	}

	s.mu.Lock()
	s.clients[client.ID] = client
	s.mu.Unlock()

	logging.DebugWithComponent(logging.ComponentSSE, "Client connected",
		"client_id", client.ID, "session_id", sessionID)

	s.enqueue(client, Event{
		Type: "connected",
		Data: map[string]any{
			"session_id": sessionID.String(),
			"timestamp":  time.Now().UTC(),
		},
	})

	return client
}

// RemoveClient removes a client connection
func (s *Service) RemoveClient(clientID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client, exists := s.clients[clientID]; exists {
		close(client.Done)
		delete(s.clients, clientID)
		logging.DebugWithComponent(logging.ComponentSSE, "Client disconnected", "client_id", clientID)
	}
}

// RemoveSession disconnects every client of sessionID
func (s *Service) RemoveSession(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, client := range s.clients {
		if client.SessionID == sessionID {
			close(client.Done)
			delete(s.clients, id)
		}
	}
}

// BroadcastToSession sends an event to all clients of one session
func (s *Service) BroadcastToSession(sessionID uuid.UUID, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, client := range s.clients {
		if client.SessionID == sessionID {
			s.enqueue(client, event)
		}
	}
}

// enqueue never blocks: a client whose buffer is full misses the event
func (s *Service) enqueue(client *Client, event Event) {
	select {
	case client.events <- event:
	default:
		logging.DebugWithComponent(logging.ComponentSSE, "Dropping event for slow client",
			"client_id", client.ID, "type", event.Type)
	}
}

// Serve writes queued events to the client until it is removed or ctx is
// done. Events queued before removal are still written.
func (s *Service) Serve(ctx context.Context, client *Client) {
	for {
		select {
		case event := <-client.events:
			write(client, event)
		case <-client.Done:
			for {
				select {
				case event := <-client.events:
					write(client, event)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func write(client *Client, event Event) {
	eventData, err := json.Marshal(event)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentSSE, "Failed to marshal event", "type", event.Type, "error", err)
		return
	}

	fmt.Fprintf(client.Writer, "data: %s\n\n", eventData)
	client.Flusher.Flush()
}

// KeepAlive sends periodic keep-alive events to maintain connections
func (s *Service) KeepAlive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, client := range s.clients {
				s.enqueue(client, Event{
					Type: "ping",
					Data: map[string]any{
						"timestamp": time.Now().UTC(),
					},
				})
			}
			s.mu.RUnlock()
		}
	}
}

// GetSessionClientCount returns the number of clients connected for a session
func (s *Service) GetSessionClientCount(sessionID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, client := range s.clients {
		if client.SessionID == sessionID {
			count++
		}
	}
	return count
}

// SessionSink publishes orchestrator events to one session's clients
type SessionSink struct {
	service   *Service
	sessionID uuid.UUID
}

// Sink returns a SessionSink for sessionID
func (s *Service) Sink(sessionID uuid.UUID) *SessionSink {
	return &SessionSink{service: s, sessionID: sessionID}
}

// Publish implements orchestrator.EventSink
func (k *SessionSink) Publish(eventType string, data any) {
	k.service.BroadcastToSession(k.sessionID, Event{Type: eventType, Data: data})
}

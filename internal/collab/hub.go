// Package collab carries engine events and draw results over WebSocket.
package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/inamate/pagemark/internal/engine"
)

// Target is an engine behind a lock, typically a session.
type Target interface {
	Do(fn func(e *engine.Engine))
}

// Lookup resolves the target a client connects to.
type Lookup func(sessionID string) (Target, error)

var errReplaced = errors.New("session opened on another connection")

// Hub routes client messages to their session's engine. A session has at
// most one live connection; a newer one replaces it.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client // sessionID -> live writer
	lookup     Lookup
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(lookup Lookup) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		lookup:     lookup,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connected reports whether sessionID has a live client.
func (h *Hub) Connected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	old := h.clients[client.SessionID]
	h.clients[client.SessionID] = client
	h.mu.Unlock()

	if old != nil {
		old.Send(errorMessage(errReplaced, 0))
		old.close()
		slog.Info("client replaced", "session", client.SessionID, "client", old.ClientID)
	}

	welcome, _ := json.Marshal(WelcomePayload{SessionID: client.SessionID, ClientID: client.ClientID})
	client.Send(&Message{Type: TypeWelcome, Payload: welcome})
	h.handleMessage(client, &Message{Type: TypeSync})

	slog.Info("client joined", "session", client.SessionID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.SessionID] != client {
		// already replaced and closed
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.SessionID)
	client.close()
	h.mu.Unlock()

	slog.Info("client left", "session", client.SessionID, "client", client.ClientID)
}

func (h *Hub) closeAll() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	h.mu.RLock()
	live := h.clients[sender.SessionID] == sender
	h.mu.RUnlock()
	if !live {
		return
	}

	target, err := h.lookup(sender.SessionID)
	if err != nil {
		sender.Send(errorMessage(err, msg.Seq))
		return
	}

	var reply *Message
	target.Do(func(e *engine.Engine) {
		action, err := Dispatch(e, msg)
		if err != nil {
			slog.Debug("rejected message", "type", msg.Type, "session", sender.SessionID, "error", err)
			reply = errorMessage(err, msg.Seq)
			return
		}
		reply = renderMessage(e, action, msg.Seq)
	})
	sender.Send(reply)
}

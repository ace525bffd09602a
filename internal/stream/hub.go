// Package stream pushes editor frames to a browser over a websocket and
// applies the input events and commands it sends back.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/sketchify/sketchify/backend-go/internal/editor"
	"github.com/sketchify/sketchify/backend-go/internal/session"
)

// Hub tracks the one live connection each session may have. A newer
// connection to the same session replaces the older one.
type Hub struct {
	sessions *session.Manager
	exporter *session.Exporter

	mu         sync.RWMutex
	clients    map[string]*Client // sessionID -> client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(sessions *session.Manager, exporter *session.Exporter) *Hub {
	h := &Hub{
		sessions:   sessions,
		exporter:   exporter,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	sessions.OnRemove(h.Disconnect)
	return h
}

// Run processes registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
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
		h.addClient(client)
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		h.removeClient(client)
	}
}

// Disconnect closes the connection of a session that no longer exists.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.RLock()
	client, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	go client.conn.Close(websocket.StatusGoingAway, "session closed")
}

// Connected reports whether a session has a live connection.
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
		go old.conn.Close(websocket.StatusPolicyViolation, "replaced by a newer connection")
		slog.Info("client replaced", "session", client.SessionID, "old", old.ClientID, "new", client.ClientID)
		return
	}
	slog.Info("client connected", "session", client.SessionID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if client.closed {
		h.mu.Unlock()
		return
	}
	if h.clients[client.SessionID] == client {
		delete(h.clients, client.SessionID)
	}
	client.closed = true
	close(client.send)
	h.mu.Unlock()

	slog.Info("client disconnected", "session", client.SessionID, "client", client.ClientID)
}

// Serve upgrades the request and runs the connection until it closes. The
// caller has already authorized access to sessionID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID string, originPatterns []string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h, conn, sessionID, clientID)

	h.Register(client)
	client.reply(TypeWelcome, 0, WelcomePayload{ClientID: clientID, Frame: sess.Frame()})

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

func (h *Hub) handleMessage(ctx context.Context, sender *Client, msg *Message) {
	sess, err := h.sessions.Get(sender.SessionID)
	if err != nil {
		sender.sendError(msg.Seq, err.Error())
		return
	}

	switch msg.Type {
	case TypeEvent:
		h.handleEvent(sender, sess, msg)
	case TypeCommand:
		h.handleCommand(sender, sess, msg)
	case TypeAnalyze:
		h.handleAnalyze(ctx, sender, sess, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "session", sender.SessionID)
		sender.sendError(msg.Seq, "unknown message type")
	}
}

func (h *Hub) handleEvent(sender *Client, sess *session.Session, msg *Message) {
	var ev editor.Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		slog.Warn("invalid event payload", "error", err)
		sender.sendError(msg.Seq, "invalid event payload")
		return
	}

	var (
		change editor.Change
		frame  session.Frame
	)
	sess.Do(func(e *editor.Editor) {
		change = e.HandleEvent(ev)
		if change != 0 {
			frame = session.NewFrame(e)
		}
	})
	if change != 0 {
		sender.reply(TypeFrame, msg.Seq, frame)
	}
}

func (h *Hub) handleCommand(sender *Client, sess *session.Session, msg *Message) {
	var cmd session.Command
	if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
		slog.Warn("invalid command payload", "error", err)
		sender.sendError(msg.Seq, "invalid command payload")
		return
	}

	var (
		frame  session.Frame
		cmdErr error
	)
	sess.Do(func(e *editor.Editor) {
		if _, cmdErr = cmd.Apply(e); cmdErr == nil {
			frame = session.NewFrame(e)
		}
	})
	if cmdErr != nil {
		sender.sendError(msg.Seq, cmdErr.Error())
		return
	}
	sender.reply(TypeFrame, msg.Seq, frame)
}

// handleAnalyze runs the analysis in the background so drawing stays
// responsive. The request outlives the socket read that carried it.
func (h *Hub) handleAnalyze(ctx context.Context, sender *Client, sess *session.Session, msg *Message) {
	var p AnalyzePayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		sender.sendError(msg.Seq, "invalid analyze payload")
		return
	}

	req := h.exporter.AnalysisRequest(sess, p.Prompt)
	ctx = context.WithoutCancel(ctx)
	go func() {
		res, err := sess.Panel().Analyze(ctx, req)
		if err != nil {
			sender.reply(TypeAnalysisError, msg.Seq, AnalysisErrorPayload{Message: err.Error()})
			return
		}
		sender.reply(TypeAnalysisResult, msg.Seq, AnalysisResultPayload{Result: res})
	}()
}

package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/inamate/stamps/internal/auth"
	"github.com/inamate/stamps/internal/engine"
)

// Stepper is the part of the engine the hub drives.
type Stepper interface {
	Step(ctx context.Context, in engine.Input) (engine.Frame, engine.Effects, error)
	Frame() engine.Frame
}

// Hub connects every viewer of the editing session. Inputs from any client
// go through the one engine; the resulting frames are broadcast to all.
type Hub struct {
	mu         sync.RWMutex
	engine     Stepper
	clients    map[string]*Client // clientID -> client
	presence   *PresenceManager
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	stopOnce   sync.Once
	seq        atomic.Int64
}

func NewHub(e Stepper) *Hub {
	return &Hub{
		engine:     e,
		clients:    make(map[string]*Client),
		presence:   NewPresenceManager(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.stop:
			h.closeAll()
			return
		}
	}
}

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stop:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}

// ServeWS upgrades the request and attaches a new client until the
// connection drops. originPatterns are the allowed cross-origin hosts.
func (h *Hub) ServeWS(originPatterns []string) http.HandlerFunc {
	hosts := originHosts(originPatterns)
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: hosts,
		})
		if err != nil {
			slog.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(h, conn, uuid.New().String(), auth.SessionIDFromContext(r.Context()))
		h.Register(client)

		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}

// BroadcastFrame sends f to every client. It is registered as an engine
// observer.
func (h *Hub) BroadcastFrame(f engine.Frame) {
	msg, err := newMessage(TypeFrame, f)
	if err != nil {
		slog.Error("marshal frame", "error", err)
		return
	}
	msg.Seq = h.seq.Add(1)
	h.broadcast(msg, "")
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, err := newMessage(TypeWelcome, WelcomePayload{
		ClientID:  client.ClientID,
		SessionID: client.SessionID,
		Frame:     h.engine.Frame(),
	})
	if err != nil {
		slog.Error("marshal welcome", "error", err)
	} else {
		welcome.Seq = h.seq.Load()
		client.Send(welcome)
	}

	if stateMsg := h.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinMsg, err := newMessage(TypePresenceJoin, PresenceJoinPayload{
		ClientID: client.ClientID,
		Label:    client.SessionID,
	})
	if err == nil {
		joinMsg.ClientID = client.ClientID
		h.broadcast(joinMsg, client.ClientID)
	}

	slog.Info("client joined", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ClientID)
	client.close()
	h.presence.Remove(client.ClientID)
	h.mu.Unlock()

	leaveMsg, err := newMessage(TypePresenceLeave, PresenceLeavePayload{ClientID: client.ClientID})
	if err == nil {
		leaveMsg.ClientID = client.ClientID
		h.broadcast(leaveMsg, "")
	}

	slog.Info("client left", "client", client.ClientID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

func (h *Hub) handleMessage(ctx context.Context, sender *Client, msg *Message) {
	switch msg.Type {
	case TypeInput:
		h.handleInput(ctx, sender, msg)
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		h.sendError(sender, "unknown message type "+msg.Type)
	}
}

func (h *Hub) handleInput(ctx context.Context, sender *Client, msg *Message) {
	var payload InputPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("invalid input payload", "error", err, "client", sender.ClientID)
		h.sendError(sender, "invalid input payload")
		return
	}

	in, err := payload.Input.Input()
	if err != nil {
		h.nack(sender, payload.Seq, err.Error())
		return
	}

	_, fx, err := h.engine.Step(ctx, in)
	if err != nil {
		if errors.Is(err, engine.ErrSave) {
			slog.Error("input step failed", "error", err, "client", sender.ClientID)
		}
		h.nack(sender, payload.Seq, err.Error())
		return
	}

	ack, err := newMessage(TypeInputAck, InputAckPayload{
		Seq:       payload.Seq,
		ServerSeq: h.seq.Load(),
		Effects:   fx.Message(),
	})
	if err != nil {
		slog.Error("marshal ack", "error", err)
		return
	}
	sender.Send(ack)
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	presence.Label = sender.SessionID
	h.presence.Update(sender.ClientID, &presence)

	outMsg, err := newMessage(TypePresenceUpdate, presence)
	if err != nil {
		return
	}
	outMsg.ClientID = sender.ClientID
	h.broadcast(outMsg, sender.ClientID)
}

func (h *Hub) nack(c *Client, seq int64, reason string) {
	msg, err := newMessage(TypeInputNack, InputNackPayload{Seq: seq, Reason: reason})
	if err == nil {
		c.Send(msg)
	}
}

func (h *Hub) sendError(c *Client, text string) {
	msg, err := newMessage(TypeError, ErrorPayload{Error: text})
	if err == nil {
		c.Send(msg)
	}
}

func (h *Hub) broadcast(msg *Message, excludeClientID string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

// originHosts turns configured origins such as "http://localhost:5173"
// into the host patterns websocket.Accept matches against.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
			continue
		}
		hosts = append(hosts, o)
	}
	return hosts
}

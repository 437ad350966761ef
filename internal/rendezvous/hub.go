package rendezvous

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"github.com/RachelH1213/lab25fall-fourth-project/internal/signaling"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/story"
)

// ClientMessage pairs an inbound message with the connection it arrived on.
type ClientMessage struct {
	From *Client
	Msg  *signaling.Message
}

// Hub is the rendezvous service. It owns all room state and processes every
// event on a single goroutine, which makes the check-size-then-pair sequence
// atomic with respect to concurrent joins.
type Hub struct {
	registry *Registry
	catalog  story.Catalog
	rng      *rand.Rand
	log      *zap.Logger

	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for unregistering clients.
	Unregister chan *Client

	// Inbound carries every message read from a client connection.
	Inbound chan *ClientMessage
}

// NewHub creates a hub over the given registry and template catalog. The
// rand source is caller-owned so template selection can be made
// deterministic in tests.
func NewHub(registry *Registry, catalog story.Catalog, rng *rand.Rand, log *zap.Logger) *Hub {
	return &Hub{
		registry:   registry,
		catalog:    catalog,
		rng:        rng,
		log:        log,
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *ClientMessage),
	}
}

// Run starts the hub's event loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.Register:
			h.log.Info("member connected", zap.String("member", client.ID))

		case client := <-h.Unregister:
			h.handleLeave(client)

		case in := <-h.Inbound:
			h.handleMessage(in.From, in.Msg)
		}
	}
}

func (h *Hub) handleMessage(c *Client, msg *signaling.Message) {
	switch msg.Type {
	case signaling.MessageTypeJoinRoom:
		h.handleJoin(c, msg.Room)

	case signaling.MessageTypeRequestNewPrompts:
		h.handleNewPrompts(msg.Room)

	case signaling.MessageTypeOffer, signaling.MessageTypeAnswer, signaling.MessageTypeCandidate:
		h.relay(c, msg)

	default:
		h.log.Warn("unknown message type",
			zap.String("member", c.ID), zap.String("type", msg.Type))
	}
}

// handleJoin adds the client to the room and fires pairing on the 1 -> 2
// membership transition. Joining the same room twice is a no-op; a third
// member is rejected.
func (h *Hub) handleJoin(c *Client, code string) {
	if code == "" {
		h.sendError(c, "room code is required")
		return
	}

	if c.RoomCode != "" {
		if c.RoomCode != code {
			h.sendError(c, "already in a room")
		}
		return
	}

	room := h.registry.GetOrCreate(code)
	if len(room.Members) >= 2 {
		h.log.Info("room full, join rejected",
			zap.String("room", code), zap.String("member", c.ID))
		h.sendError(c, "room is full")
		return
	}

	room.Members = append(room.Members, &Member{Client: c})
	c.RoomCode = code
	h.log.Info("member joined room",
		zap.String("room", code),
		zap.String("member", c.ID),
		zap.Int("size", len(room.Members)))

	if len(room.Members) == 2 && !room.paired {
		h.pair(room)
	}
}

// pair assigns positions and roles in insertion order and pushes the first
// round's template and prompts. It runs exactly once per filled room.
func (h *Hub) pair(room *Room) {
	room.paired = true

	for i, m := range room.Members {
		m.Position = i + 1
		m.Role = RoleResponder
		if i == 0 {
			m.Role = RoleInitiator
		}

		msg, err := signaling.NewMessage(signaling.MessageTypeInitiateWebRTC,
			signaling.InitiatePayload{IsInitiator: m.Role == RoleInitiator})
		if err != nil {
			h.log.Error("encode initiate payload", zap.Error(err))
			continue
		}
		m.Client.Send <- msg
	}

	h.log.Info("room paired",
		zap.String("room", room.Code),
		zap.String("initiator", room.Members[0].Client.ID),
		zap.String("responder", room.Members[1].Client.ID))

	h.sendTemplatePrompts(room)
}

// sendTemplatePrompts draws a template and pushes the shared structure to
// both members plus each member's own prompt and position.
func (h *Hub) sendTemplatePrompts(room *Room) {
	tmpl := h.catalog[h.rng.Intn(len(h.catalog))]
	room.Template = tmpl

	tmplMsg, err := signaling.NewMessage(signaling.MessageTypeReceiveTemplate,
		signaling.TemplatePayload{Structure: tmpl.Structure})
	if err != nil {
		h.log.Error("encode template payload", zap.Error(err))
		return
	}
	for _, m := range room.Members {
		m.Client.Send <- tmplMsg
	}

	for _, m := range room.Members {
		promptMsg, err := signaling.NewMessage(signaling.MessageTypeReceivePrompt,
			signaling.PromptPayload{Prompt: tmpl.Prompts[m.Position-1], Position: m.Position})
		if err != nil {
			h.log.Error("encode prompt payload", zap.Error(err))
			continue
		}
		m.Client.Send <- promptMsg
	}

	h.log.Info("template sent", zap.String("room", room.Code))
}

// handleNewPrompts redraws the template for a full room, keeping the
// previously assigned positions. Unknown or half-empty rooms are no-ops.
func (h *Hub) handleNewPrompts(code string) {
	room, ok := h.registry.Get(code)
	if !ok || len(room.Members) != 2 {
		h.log.Debug("new-prompts request ignored", zap.String("room", code))
		return
	}
	h.sendTemplatePrompts(room)
}

// relay forwards a negotiation payload to the other member of the room,
// unmodified and with the room code stripped. The server never interprets
// or stores the payload.
func (h *Hub) relay(c *Client, msg *signaling.Message) {
	room, ok := h.registry.Get(msg.Room)
	if !ok {
		h.log.Debug("relay to unknown room ignored", zap.String("room", msg.Room))
		return
	}

	if room.member(c) == nil {
		h.log.Warn("relay from non-member ignored",
			zap.String("room", msg.Room), zap.String("member", c.ID))
		return
	}

	peer := room.other(c)
	if peer == nil {
		h.log.Debug("no peer to relay to", zap.String("room", msg.Room))
		return
	}

	peer.Client.Send <- &signaling.Message{Type: msg.Type, Payload: msg.Payload}
}

// handleLeave frees the member's slot so a replacement can pair later, tells
// the surviving peer, and garbage-collects empty rooms.
func (h *Hub) handleLeave(c *Client) {
	h.log.Info("member disconnected", zap.String("member", c.ID))

	if c.RoomCode != "" {
		if room, ok := h.registry.Get(c.RoomCode); ok {
			room.remove(c)

			if len(room.Members) == 0 {
				h.registry.Delete(room.Code)
				h.log.Info("room deleted", zap.String("room", room.Code))
			} else {
				survivor := room.Members[0]
				survivor.Client.Send <- &signaling.Message{Type: signaling.MessageTypePeerLeft}
				h.log.Info("peer left room",
					zap.String("room", room.Code),
					zap.String("survivor", survivor.Client.ID))
			}
		}
	}

	close(c.Send)
}

func (h *Hub) sendError(c *Client, text string) {
	msg, err := signaling.NewMessage(signaling.MessageTypeError, signaling.ErrorPayload{Error: text})
	if err != nil {
		return
	}
	c.Send <- msg
}

package signaling

import (
	"encoding/json"
	"log/slog"
)

// Handler routes incoming server messages to typed channels so the play
// loop can select on exactly the events it cares about.
type Handler struct {
	in <-chan *Message

	Template  chan string
	Prompt    chan PromptPayload
	Initiate  chan bool
	Offer     chan json.RawMessage
	Answer    chan json.RawMessage
	Candidate chan json.RawMessage
	PeerLeft  chan struct{}
	Errors    chan string

	closed bool
}

// NewHandler creates a handler over a stream of incoming messages,
// typically Client.Incoming().
func NewHandler(in <-chan *Message) *Handler {
	return &Handler{
		in:        in,
		Template:  make(chan string, 1),
		Prompt:    make(chan PromptPayload, 1),
		Initiate:  make(chan bool, 1),
		Offer:     make(chan json.RawMessage, 1),
		Answer:    make(chan json.RawMessage, 1),
		Candidate: make(chan json.RawMessage, 32),
		PeerLeft:  make(chan struct{}, 1),
		Errors:    make(chan string, 1),
	}
}

// Start consumes the incoming stream until it closes. Malformed payloads
// are logged and dropped; they never stop the loop.
func (h *Handler) Start() {
	for msg := range h.in {
		switch msg.Type {

		case MessageTypeReceiveTemplate:
			var p TemplatePayload
			if !h.decode(msg, &p) {
				continue
			}
			h.Template <- p.Structure

		case MessageTypeReceivePrompt:
			var p PromptPayload
			if !h.decode(msg, &p) {
				continue
			}
			if p.Prompt == "" || (p.Position != 1 && p.Position != 2) {
				slog.Warn("invalid prompt payload dropped", "position", p.Position)
				continue
			}
			h.Prompt <- p

		case MessageTypeInitiateWebRTC:
			var p InitiatePayload
			if !h.decode(msg, &p) {
				continue
			}
			h.Initiate <- p.IsInitiator

		case MessageTypeOffer:
			h.Offer <- msg.Payload

		case MessageTypeAnswer:
			h.Answer <- msg.Payload

		case MessageTypeCandidate:
			h.Candidate <- msg.Payload

		case MessageTypePeerLeft:
			h.PeerLeft <- struct{}{}

		case MessageTypeError:
			var p ErrorPayload
			if !h.decode(msg, &p) {
				h.Errors <- "unknown error from server"
				continue
			}
			h.Errors <- p.Error

		default:
			slog.Debug("unknown server message dropped", "type", msg.Type)
		}
	}
}

func (h *Handler) decode(msg *Message, v any) bool {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		slog.Warn("malformed server payload dropped", "type", msg.Type, "err", err)
		return false
	}
	return true
}

// Close closes all handler channels.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.closed = true

	close(h.Template)
	close(h.Prompt)
	close(h.Initiate)
	close(h.Offer)
	close(h.Answer)
	close(h.Candidate)
	close(h.PeerLeft)
	close(h.Errors)
}

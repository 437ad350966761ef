package signaling

import "encoding/json"

// Message is the single envelope for every websocket message between a
// participant and the rendezvous server. Room is set client-to-server and
// stripped when a signal is relayed to the other peer.
type Message struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants.
const (
	MessageTypeJoinRoom          = "join-room"
	MessageTypeRequestNewPrompts = "request-new-prompts"

	MessageTypeReceiveTemplate = "receive-template"
	MessageTypeReceivePrompt   = "receive-prompt"
	MessageTypeInitiateWebRTC  = "initiate-webrtc"
	MessageTypePeerLeft        = "peer-left"
	MessageTypeError           = "error"

	MessageTypeOffer     = "webrtc-offer"
	MessageTypeAnswer    = "webrtc-answer"
	MessageTypeCandidate = "webrtc-candidate"
)

// TemplatePayload carries the shared story structure to both members.
type TemplatePayload struct {
	Structure string `json:"structure"`
}

// PromptPayload carries one member's writing prompt and placeholder position.
type PromptPayload struct {
	Prompt   string `json:"prompt"`
	Position int    `json:"position"`
}

// InitiatePayload tells a member whether it originates the WebRTC offer.
type InitiatePayload struct {
	IsInitiator bool `json:"isInitiator"`
}

// ErrorPayload carries error messages from the server.
type ErrorPayload struct {
	Error string `json:"error"`
}

// NewMessage builds a Message with its payload marshalled to JSON.
func NewMessage(msgType string, payload any) (*Message, error) {
	if payload == nil {
		return &Message{Type: msgType}, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{Type: msgType, Payload: raw}, nil
}

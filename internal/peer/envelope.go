package peer

import (
	"encoding/json"
	"fmt"
)

// Envelope is the discriminated union carried over the peer channel.
// Content envelopes carry one participant's text and placeholder position;
// reset envelopes carry nothing.
type Envelope struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Position int    `json:"position,omitempty"`
}

const (
	EnvelopeContent = "content"
	EnvelopeReset   = "reset"
)

func encodeEnvelope(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}

	switch env.Type {
	case EnvelopeContent:
		if env.Text == "" {
			return Envelope{}, fmt.Errorf("content envelope without text")
		}
		if env.Position != 1 && env.Position != 2 {
			return Envelope{}, fmt.Errorf("content envelope with position %d", env.Position)
		}
	case EnvelopeReset:
	default:
		return Envelope{}, fmt.Errorf("unknown envelope type %q", env.Type)
	}

	return env, nil
}

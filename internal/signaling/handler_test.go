package signaling

import (
	"encoding/json"
	"testing"
	"time"
)

func feed(t *testing.T, msgs ...*Message) *Handler {
	t.Helper()

	in := make(chan *Message, len(msgs))
	for _, m := range msgs {
		in <- m
	}
	close(in)

	h := NewHandler(in)
	go h.Start()
	return h
}

func mustMessage(t *testing.T, msgType string, payload any) *Message {
	t.Helper()

	msg, err := NewMessage(msgType, payload)
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	return msg
}

func TestHandlerRoutesTypedEvents(t *testing.T) {
	h := feed(t,
		mustMessage(t, MessageTypeInitiateWebRTC, InitiatePayload{IsInitiator: true}),
		mustMessage(t, MessageTypeReceiveTemplate, TemplatePayload{Structure: "a {answer1} b {answer2}"}),
		mustMessage(t, MessageTypeReceivePrompt, PromptPayload{Prompt: "describe it", Position: 2}),
	)

	if got := <-h.Initiate; !got {
		t.Error("initiator flag lost in routing")
	}
	if got := <-h.Template; got != "a {answer1} b {answer2}" {
		t.Errorf("template = %q", got)
	}
	p := <-h.Prompt
	if p.Prompt != "describe it" || p.Position != 2 {
		t.Errorf("prompt = %+v", p)
	}
}

func TestHandlerPassesSignalsOpaque(t *testing.T) {
	raw := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	h := feed(t, &Message{Type: MessageTypeOffer, Payload: raw})

	if got := <-h.Offer; string(got) != string(raw) {
		t.Errorf("offer payload modified: %s", got)
	}
}

func TestHandlerPreservesCandidateOrder(t *testing.T) {
	h := feed(t,
		&Message{Type: MessageTypeCandidate, Payload: json.RawMessage(`{"candidate":"one"}`)},
		&Message{Type: MessageTypeCandidate, Payload: json.RawMessage(`{"candidate":"two"}`)},
		&Message{Type: MessageTypeCandidate, Payload: json.RawMessage(`{"candidate":"three"}`)},
	)

	for _, want := range []string{"one", "two", "three"} {
		var c struct {
			Candidate string `json:"candidate"`
		}
		if err := json.Unmarshal(<-h.Candidate, &c); err != nil {
			t.Fatalf("decode candidate: %v", err)
		}
		if c.Candidate != want {
			t.Fatalf("candidate order: got %q, want %q", c.Candidate, want)
		}
	}
}

func TestHandlerDropsMalformedPayloads(t *testing.T) {
	h := feed(t,
		&Message{Type: MessageTypeReceivePrompt, Payload: json.RawMessage(`not json`)},
		&Message{Type: MessageTypeReceivePrompt, Payload: json.RawMessage(`{"prompt":"","position":9}`)},
		mustMessage(t, MessageTypeReceivePrompt, PromptPayload{Prompt: "good", Position: 1}),
	)

	select {
	case p := <-h.Prompt:
		if p.Prompt != "good" {
			t.Errorf("expected only the valid prompt, got %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid prompt never delivered after malformed ones")
	}
}

func TestHandlerRoutesServerErrors(t *testing.T) {
	h := feed(t, mustMessage(t, MessageTypeError, ErrorPayload{Error: "room is full"}))

	if got := <-h.Errors; got != "room is full" {
		t.Errorf("error = %q", got)
	}
}

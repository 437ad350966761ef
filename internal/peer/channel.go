package peer

import (
	"errors"
	"log/slog"

	"github.com/pion/webrtc/v4"
)

// ChannelLabel is the data channel name both sides expect.
const ChannelLabel = "textChannel"

// ErrNotOpen is returned when a send is attempted before the data channel
// reports open (or after it closed).
var ErrNotOpen = errors.New("peer channel not open")

// dataChannel is the slice of *webrtc.DataChannel the channel wrapper needs,
// kept narrow so tests can substitute a fake.
type dataChannel interface {
	Label() string
	ReadyState() webrtc.DataChannelState
	Send(data []byte) error
	OnOpen(f func())
	OnClose(f func())
	OnMessage(f func(webrtc.DataChannelMessage))
}

// Hooks receive channel lifecycle and envelope events. Nil hooks are
// skipped.
type Hooks struct {
	OnOpen    func()
	OnClose   func()
	OnContent func(text string, position int)
	OnReset   func()
}

// Channel wraps the established data channel with the typed envelope
// protocol. Malformed inbound payloads are logged and dropped; they never
// tear the channel down.
type Channel struct {
	dc dataChannel
}

// WrapChannel attaches the envelope protocol to a data channel.
func WrapChannel(dc dataChannel, hooks Hooks) *Channel {
	c := &Channel{dc: dc}

	dc.OnOpen(func() {
		slog.Debug("peer channel open", "label", dc.Label())
		if hooks.OnOpen != nil {
			hooks.OnOpen()
		}
	})

	dc.OnClose(func() {
		slog.Debug("peer channel closed", "label", dc.Label())
		if hooks.OnClose != nil {
			hooks.OnClose()
		}
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		env, err := decodeEnvelope(msg.Data)
		if err != nil {
			slog.Warn("malformed peer envelope dropped", "err", err)
			return
		}

		switch env.Type {
		case EnvelopeContent:
			if hooks.OnContent != nil {
				hooks.OnContent(env.Text, env.Position)
			}
		case EnvelopeReset:
			if hooks.OnReset != nil {
				hooks.OnReset()
			}
		}
	})

	return c
}

// Open reports whether the channel can carry messages right now.
func (c *Channel) Open() bool {
	return c.dc.ReadyState() == webrtc.DataChannelStateOpen
}

// SendContent sends this participant's text and position to the partner.
func (c *Channel) SendContent(text string, position int) error {
	return c.send(Envelope{Type: EnvelopeContent, Text: text, Position: position})
}

// SendReset signals the partner to clear its round.
func (c *Channel) SendReset() error {
	return c.send(Envelope{Type: EnvelopeReset})
}

func (c *Channel) send(env Envelope) error {
	if !c.Open() {
		return ErrNotOpen
	}

	data, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	return c.dc.Send(data)
}

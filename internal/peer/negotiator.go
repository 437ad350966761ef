package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/RachelH1213/lab25fall-fourth-project/internal/signaling"
)

// State tracks how far connection establishment has progressed. Connected
// is reached when the data channel reports open, not when the SDP exchange
// finishes.
type State int

const (
	StateIdle State = iota
	StateInitiating
	StateAwaitingOffer
	StateOfferExchanged
	StateAnswerExchanged
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitiating:
		return "initiating"
	case StateAwaitingOffer:
		return "awaiting-offer"
	case StateOfferExchanged:
		return "offer-exchanged"
	case StateAnswerExchanged:
		return "answer-exchanged"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SignalSender transmits a negotiation payload to the peer via the
// signaling relay.
type SignalSender func(msgType string, payload any) error

// Negotiator drives one participant's side of connection establishment.
// Candidates relayed before the remote description lands are queued and
// applied in arrival order, each exactly once, when it does.
//
// There is no abort path or partner timeout: once an offer is out, the
// negotiator waits indefinitely for the other side.
type Negotiator struct {
	mu        sync.Mutex
	pc        *webrtc.PeerConnection
	state     State
	initiator bool
	remoteSet bool
	pending   []webrtc.ICECandidateInit

	send      SignalSender
	onChannel func(*webrtc.DataChannel)

	// seams over the peer connection, overridable in tests
	setRemote    func(webrtc.SessionDescription) error
	addCandidate func(webrtc.ICECandidateInit) error
}

// NewNegotiator creates the underlying peer connection and hooks candidate
// gathering into the signaling relay. onChannel fires once the data channel
// exists on either path (created locally for the initiator, announced by
// the transport for the responder).
func NewNegotiator(iceServers []webrtc.ICEServer, send SignalSender, onChannel func(*webrtc.DataChannel)) (*Negotiator, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	n := &Negotiator{
		pc:           pc,
		state:        StateIdle,
		send:         send,
		onChannel:    onChannel,
		setRemote:    pc.SetRemoteDescription,
		addCandidate: pc.AddICECandidate,
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		if err := send(signaling.MessageTypeCandidate, c.ToJSON()); err != nil {
			slog.Warn("send candidate failed", "err", err)
		}
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		onChannel(dc)
	})

	return n, nil
}

// Start begins negotiation once the server names this side's role. The
// initiator creates the data channel and ships an offer; the responder
// waits for one.
func (n *Negotiator) Start(isInitiator bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StateIdle {
		return fmt.Errorf("negotiation already started (%s)", n.state)
	}

	n.initiator = isInitiator
	if !isInitiator {
		n.state = StateAwaitingOffer
		return nil
	}

	n.state = StateInitiating

	dc, err := n.pc.CreateDataChannel(ChannelLabel, nil)
	if err != nil {
		return fmt.Errorf("create data channel: %w", err)
	}
	n.onChannel(dc)

	offer, err := n.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := n.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	if err := n.send(signaling.MessageTypeOffer, n.pc.LocalDescription()); err != nil {
		return fmt.Errorf("send offer: %w", err)
	}

	n.state = StateOfferExchanged
	return nil
}

// HandleOffer takes the relayed offer on the responder side, answers it,
// and drains any queued candidates.
func (n *Negotiator) HandleOffer(raw json.RawMessage) error {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return fmt.Errorf("parse offer: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.setRemote(desc); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	n.remoteSet = true
	n.drainPendingLocked()

	answer, err := n.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := n.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	if err := n.send(signaling.MessageTypeAnswer, n.pc.LocalDescription()); err != nil {
		return fmt.Errorf("send answer: %w", err)
	}

	n.state = StateAnswerExchanged
	return nil
}

// HandleAnswer takes the relayed answer on the initiator side and drains
// any queued candidates.
func (n *Negotiator) HandleAnswer(raw json.RawMessage) error {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return fmt.Errorf("parse answer: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.setRemote(desc); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	n.remoteSet = true
	n.drainPendingLocked()

	n.state = StateAnswerExchanged
	return nil
}

// HandleCandidate applies a relayed candidate, or queues it when the remote
// description is not set yet. Failures are logged and skipped; negotiation
// continues.
func (n *Negotiator) HandleCandidate(raw json.RawMessage) {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &candidate); err != nil {
		slog.Warn("malformed candidate dropped", "err", err)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.remoteSet {
		n.pending = append(n.pending, candidate)
		return
	}

	if err := n.addCandidate(candidate); err != nil {
		slog.Warn("candidate skipped", "err", err)
	}
}

func (n *Negotiator) drainPendingLocked() {
	for _, candidate := range n.pending {
		if err := n.addCandidate(candidate); err != nil {
			slog.Warn("queued candidate skipped", "err", err)
		}
	}
	n.pending = nil
}

// MarkConnected records that the data channel opened.
func (n *Negotiator) MarkConnected() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = StateConnected
}

// State returns the current negotiation state.
func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Close tears down the peer connection.
func (n *Negotiator) Close() error {
	if n.pc == nil {
		return nil
	}
	return n.pc.Close()
}

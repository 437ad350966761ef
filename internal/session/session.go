package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/RachelH1213/lab25fall-fourth-project/internal/story"
)

// State is the per-participant session state.
type State int

const (
	StateAwaitingPairing State = iota
	StatePromptAssigned
	StateConnecting
	StateReady
	StateSubmitted
	StateRoundComplete
)

func (s State) String() string {
	switch s {
	case StateAwaitingPairing:
		return "awaiting-pairing"
	case StatePromptAssigned:
		return "prompt-assigned"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateSubmitted:
		return "submitted"
	case StateRoundComplete:
		return "round-complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Role is this participant's side of the connection negotiation.
type Role string

const (
	RoleUnknown   Role = ""
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

// Round holds one cycle's contributions. It is created fresh at session
// start and after every reset.
type Round struct {
	LocalText   string
	PartnerText string
	Completed   bool
}

// Channel is the session's view of the peer channel.
type Channel interface {
	Open() bool
	SendContent(text string, position int) error
	SendReset() error
}

// Session is the authoritative controller for one participant. It reacts
// to local actions (submit, reset) and remote events (prompt, template,
// partner content, remote reset), and owns the Round exclusively; the
// partner's copy is kept consistent only through exchanged messages.
type Session struct {
	mu        sync.Mutex
	state     State
	role      Role
	position  int
	prompt    string
	structure string
	round     Round
	channel   Channel

	// requestNewPrompts asks the server for a fresh template. Only the
	// reset-initiating side calls it, so each reset cycle draws one
	// template, not two.
	requestNewPrompts func()

	// onComplete receives the assembled story, outside the session lock.
	onComplete func(storyText string)
}

// NewSession creates a session awaiting pairing.
func NewSession(requestNewPrompts func(), onComplete func(string)) *Session {
	return &Session{
		state:             StateAwaitingPairing,
		requestNewPrompts: requestNewPrompts,
		onComplete:        onComplete,
	}
}

// SetChannel attaches the peer channel once negotiation produced one.
func (s *Session) SetChannel(ch Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = ch
}

// HandleInitiate records the server-assigned role. Roles are fixed for the
// lifetime of the room and survive resets.
func (s *Session) HandleInitiate(isInitiator bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.role == RoleUnknown {
		s.role = RoleResponder
		if isInitiator {
			s.role = RoleInitiator
		}
	}
	if s.state == StatePromptAssigned {
		s.state = StateConnecting
	}
}

// HandlePrompt records the assigned prompt and position. The prompt alone
// moves the session out of AwaitingPairing; the template may trail behind
// and is only required for completion.
func (s *Session) HandlePrompt(prompt string, position int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompt = prompt
	if s.position == 0 {
		s.position = position
	} else if s.position != position {
		// Positions are fixed per room; a differing reassignment is a
		// protocol error.
		slog.Warn("ignoring position reassignment", "have", s.position, "got", position)
	}

	s.advanceLocked()
}

// HandleTemplate records the shared story structure and re-checks
// completion, since the template can be the last of the three inputs to
// arrive.
func (s *Session) HandleTemplate(structure string) {
	s.mu.Lock()
	s.structure = structure
	storyText, completed := s.tryCompleteLocked()
	s.mu.Unlock()

	if completed {
		s.notifyComplete(storyText)
	}
}

// HandleConnected reacts to the peer channel opening.
func (s *Session) HandleConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
}

// Submit sends the local text to the partner and records it. It fails
// without side effects when the text is empty, the channel is not open, or
// the session is not ready.
func (s *Session) Submit(text string) error {
	text = strings.TrimSpace(text)

	s.mu.Lock()

	if text == "" {
		s.mu.Unlock()
		return newError("submit", ErrEmptySubmission)
	}
	if s.channel == nil || !s.channel.Open() {
		s.mu.Unlock()
		return newError("submit", ErrChannelNotOpen)
	}
	if s.state != StateReady {
		state := s.state
		s.mu.Unlock()
		return wrapError("submit", ErrNotReady, state.String())
	}

	if err := s.channel.SendContent(text, s.position); err != nil {
		s.mu.Unlock()
		return wrapError("submit", ErrSendFailed, err.Error())
	}

	s.round.LocalText = text
	s.state = StateSubmitted
	storyText, completed := s.tryCompleteLocked()
	s.mu.Unlock()

	if completed {
		s.notifyComplete(storyText)
	}
	return nil
}

// HandlePartnerContent records the partner's text. Submissions are
// independent and unordered, so this is accepted in any state after
// pairing, regardless of whether the local side has submitted.
func (s *Session) HandlePartnerContent(text string) {
	s.mu.Lock()

	if s.state == StateAwaitingPairing {
		s.mu.Unlock()
		slog.Warn("partner content before pairing dropped")
		return
	}

	s.round.PartnerText = text
	storyText, completed := s.tryCompleteLocked()
	s.mu.Unlock()

	if completed {
		s.notifyComplete(storyText)
	}
}

// ResetLocal starts a new round from this side: it signals the partner,
// clears the local round, and asks the server for fresh prompts. Role and
// position are untouched.
func (s *Session) ResetLocal() error {
	s.mu.Lock()

	if s.state != StateSubmitted && s.state != StateRoundComplete {
		state := s.state
		s.mu.Unlock()
		return wrapError("reset", ErrNotReady, state.String())
	}
	if s.channel == nil || !s.channel.Open() {
		s.mu.Unlock()
		return newError("reset", ErrChannelNotOpen)
	}

	if err := s.channel.SendReset(); err != nil {
		s.mu.Unlock()
		return wrapError("reset", ErrSendFailed, err.Error())
	}

	s.clearRoundLocked()
	s.mu.Unlock()

	// Only the initiating side requests new prompts; the remote side
	// merely clears. One template draw per reset cycle.
	if s.requestNewPrompts != nil {
		s.requestNewPrompts()
	}
	return nil
}

// HandleRemoteReset clears the round after the partner initiated a reset.
// It deliberately does not request new prompts.
func (s *Session) HandleRemoteReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearRoundLocked()
}

func (s *Session) clearRoundLocked() {
	s.round = Round{}
	if s.state > StatePromptAssigned {
		s.state = StatePromptAssigned
	}
}

// advanceLocked re-evaluates readiness. Prompt, role, and channel-open can
// arrive in any order, so every arrival re-checks instead of assuming a
// fixed sequence.
func (s *Session) advanceLocked() {
	if s.state == StateAwaitingPairing && s.prompt != "" {
		s.state = StatePromptAssigned
	}
	if (s.state == StatePromptAssigned || s.state == StateConnecting) &&
		s.prompt != "" && s.channel != nil && s.channel.Open() {
		s.state = StateReady
	}
}

// tryCompleteLocked checks the completion condition: local text, partner
// text, and template all present. The three arrive in any order, so it is
// re-run on each arrival and fires at most once per round.
func (s *Session) tryCompleteLocked() (string, bool) {
	if s.round.Completed {
		return "", false
	}
	if s.round.LocalText == "" || s.round.PartnerText == "" || s.structure == "" {
		return "", false
	}

	s.round.Completed = true
	s.state = StateRoundComplete

	if s.position == 1 {
		return story.Assemble(s.structure, s.round.LocalText, s.round.PartnerText), true
	}
	return story.Assemble(s.structure, s.round.PartnerText, s.round.LocalText), true
}

func (s *Session) notifyComplete(storyText string) {
	if s.onComplete != nil {
		s.onComplete(storyText)
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Role returns the fixed role assigned at pairing.
func (s *Session) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// Position returns the fixed placeholder position assigned at pairing.
func (s *Session) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Prompt returns the current round's writing prompt.
func (s *Session) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// Round returns a copy of the current round.
func (s *Session) Round() Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

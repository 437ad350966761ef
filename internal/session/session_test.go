package session

import (
	"errors"
	"testing"
)

const testStructure = "Scientists have discovered that {answer1} is the leading cause of {answer2}. More research is needed."

type fakeChannel struct {
	open     bool
	contents []string
	resets   int
	sendErr  error
}

func (f *fakeChannel) Open() bool { return f.open }

func (f *fakeChannel) SendContent(text string, position int) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.contents = append(f.contents, text)
	return nil
}

func (f *fakeChannel) SendReset() error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.resets++
	return nil
}

type harness struct {
	sess     *Session
	ch       *fakeChannel
	stories  []string
	requests int
}

// newReadyHarness builds a session that has been paired (initiator,
// position 1) and whose peer channel is open, but has seen no template.
func newReadyHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{ch: &fakeChannel{open: true}}
	h.sess = NewSession(
		func() { h.requests++ },
		func(storyText string) { h.stories = append(h.stories, storyText) },
	)

	h.sess.HandleInitiate(true)
	h.sess.HandlePrompt("what do you do every day?", 1)
	h.sess.SetChannel(h.ch)
	h.sess.HandleConnected()

	if got := h.sess.State(); got != StateReady {
		t.Fatalf("setup: state = %s, want %s", got, StateReady)
	}
	return h
}

func (h *harness) completeRound(t *testing.T) {
	t.Helper()

	h.sess.HandleTemplate(testStructure)
	if err := h.sess.Submit("coffee"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	h.sess.HandlePartnerContent("a toaster")

	if h.sess.State() != StateRoundComplete {
		t.Fatalf("round did not complete: state = %s", h.sess.State())
	}
}

func TestCompletionRequiresAllThreeInputsInAnyOrder(t *testing.T) {
	const wantStory = "Scientists have discovered that coffee is the leading cause of a toaster. More research is needed."

	type op struct {
		name string
		run  func(t *testing.T, h *harness)
	}
	ops := []op{
		{"template", func(t *testing.T, h *harness) { h.sess.HandleTemplate(testStructure) }},
		{"submit", func(t *testing.T, h *harness) {
			if err := h.sess.Submit("coffee"); err != nil {
				t.Fatalf("submit: %v", err)
			}
		}},
		{"partner", func(t *testing.T, h *harness) { h.sess.HandlePartnerContent("a toaster") }},
	}

	orderings := [][3]int{
		{0, 1, 2}, {0, 2, 1},
		{1, 0, 2}, {1, 2, 0},
		{2, 0, 1}, {2, 1, 0},
	}

	for _, order := range orderings {
		name := ops[order[0]].name + "-" + ops[order[1]].name + "-" + ops[order[2]].name
		t.Run(name, func(t *testing.T) {
			h := newReadyHarness(t)

			for step, idx := range order {
				ops[idx].run(t, h)

				last := step == 2
				if !last && h.sess.State() == StateRoundComplete {
					t.Fatalf("completed after %d of 3 inputs", step+1)
				}
				if !last && len(h.stories) != 0 {
					t.Fatalf("story emitted early: %q", h.stories)
				}
			}

			if h.sess.State() != StateRoundComplete {
				t.Fatalf("state = %s after all inputs", h.sess.State())
			}
			if len(h.stories) != 1 || h.stories[0] != wantStory {
				t.Fatalf("stories = %q, want exactly [%q]", h.stories, wantStory)
			}
		})
	}
}

func TestPositionTwoMapsAnswersCorrectly(t *testing.T) {
	h := &harness{ch: &fakeChannel{open: true}}
	h.sess = NewSession(nil, func(storyText string) { h.stories = append(h.stories, storyText) })

	h.sess.HandleInitiate(false)
	h.sess.HandlePrompt("name a food you like", 2)
	h.sess.SetChannel(h.ch)
	h.sess.HandleConnected()

	h.sess.HandleTemplate("put {answer1} into {answer2}")
	h.sess.HandlePartnerContent("my hopes")
	if err := h.sess.Submit("cold pizza"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := "put my hopes into cold pizza"
	if len(h.stories) != 1 || h.stories[0] != want {
		t.Fatalf("stories = %q, want [%q]", h.stories, want)
	}
}

func TestSubmitWhileChannelClosedIsRejected(t *testing.T) {
	h := newReadyHarness(t)
	h.ch.open = false

	err := h.sess.Submit("coffee")
	if !errors.Is(err, ErrChannelNotOpen) {
		t.Fatalf("err = %v, want ErrChannelNotOpen", err)
	}

	if r := h.sess.Round(); r.LocalText != "" {
		t.Errorf("round recorded text despite rejected submit: %q", r.LocalText)
	}
	if got := h.sess.State(); got != StateReady {
		t.Errorf("state = %s, want %s", got, StateReady)
	}
}

func TestSubmitEmptyTextIsRejected(t *testing.T) {
	h := newReadyHarness(t)

	err := h.sess.Submit("   ")
	if !errors.Is(err, ErrEmptySubmission) {
		t.Fatalf("err = %v, want ErrEmptySubmission", err)
	}
	if len(h.ch.contents) != 0 {
		t.Errorf("empty submission was sent")
	}
}

func TestSubmitSendFailureLeavesRoundUntouched(t *testing.T) {
	h := newReadyHarness(t)
	h.ch.sendErr = errors.New("transport gone")

	err := h.sess.Submit("coffee")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("err = %v, want ErrSendFailed", err)
	}
	if r := h.sess.Round(); r.LocalText != "" {
		t.Errorf("round recorded text despite failed send")
	}
}

func TestLocalResetClearsRoundAndRequestsOnce(t *testing.T) {
	h := newReadyHarness(t)
	h.completeRound(t)

	role, position := h.sess.Role(), h.sess.Position()

	if err := h.sess.ResetLocal(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if r := h.sess.Round(); r.LocalText != "" || r.PartnerText != "" || r.Completed {
		t.Errorf("round not cleared: %+v", r)
	}
	if h.sess.State() != StatePromptAssigned {
		t.Errorf("state = %s, want %s", h.sess.State(), StatePromptAssigned)
	}
	if h.ch.resets != 1 {
		t.Errorf("reset envelopes sent = %d, want 1", h.ch.resets)
	}
	if h.requests != 1 {
		t.Errorf("new-prompt requests = %d, want 1", h.requests)
	}
	if h.sess.Role() != role || h.sess.Position() != position {
		t.Errorf("reset changed role/position: %s/%d -> %s/%d",
			role, position, h.sess.Role(), h.sess.Position())
	}
}

func TestRemoteResetClearsButNeverRequests(t *testing.T) {
	h := newReadyHarness(t)
	h.completeRound(t)

	h.sess.HandleRemoteReset()

	if r := h.sess.Round(); r.LocalText != "" || r.PartnerText != "" || r.Completed {
		t.Errorf("round not cleared: %+v", r)
	}
	if h.requests != 0 {
		t.Errorf("remote reset triggered %d prompt requests, want 0", h.requests)
	}
	if h.ch.resets != 0 {
		t.Errorf("remote reset echoed a reset envelope")
	}
}

func TestResetBeforeSubmissionIsRejected(t *testing.T) {
	h := newReadyHarness(t)

	err := h.sess.ResetLocal()
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

func TestNextRoundCompletesAfterReset(t *testing.T) {
	h := newReadyHarness(t)
	h.completeRound(t)

	if err := h.sess.ResetLocal(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	// Server pushes a fresh template and prompt; positions are unchanged.
	h.sess.HandleTemplate("put {answer1} into {answer2}")
	h.sess.HandlePrompt("first thing you see when you wake up?", 1)

	if h.sess.State() != StateReady {
		t.Fatalf("state = %s after new prompt, want %s", h.sess.State(), StateReady)
	}

	if err := h.sess.Submit("my cat's sleepy face"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	h.sess.HandlePartnerContent("strawberry milk")

	want := "put my cat's sleepy face into strawberry milk"
	if len(h.stories) != 2 || h.stories[1] != want {
		t.Fatalf("stories = %q, want second round %q", h.stories, want)
	}
}

func TestPartnerContentBeforePairingDropped(t *testing.T) {
	s := NewSession(nil, nil)

	s.HandlePartnerContent("too early")

	if r := s.Round(); r.PartnerText != "" {
		t.Errorf("partner text recorded before pairing: %q", r.PartnerText)
	}
	if s.State() != StateAwaitingPairing {
		t.Errorf("state = %s, want %s", s.State(), StateAwaitingPairing)
	}
}

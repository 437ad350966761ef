package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/spf13/cobra"

	"github.com/RachelH1213/lab25fall-fourth-project/internal/config"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/peer"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/session"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/signaling"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/ui"
)

var (
	flagServer       string
	flagSTUN         string
	flagTURN         string
	flagTURNUser     string
	flagTURNPass     string
	flagSave         string
	flagNoTypewriter bool
	flagQR           bool
)

var playCmd = &cobra.Command{
	Use:     "play [room-code]",
	Aliases: []string{"p"},
	Short:   "Join a story room and play",
	Long: `Join a story room by code, or create one when no code is given.

The room pairs exactly two players. Share the code (or the QR link) with
one other person; the round starts once both have joined.

Examples:
  echotale play
  echotale play merry-otter-42
  echotale play --qr
  echotale play merry-otter-42 --save=stories.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomCode := ""
		if len(args) == 1 {
			roomCode = strings.TrimSpace(args[0])
		}
		return play(roomCode)
	},
}

func savePath() string {
	if flagSave != "" && flagSave != "auto" {
		return flagSave
	}
	return fmt.Sprintf("echo-tale-%d.txt", time.Now().UnixMilli())
}

// game wires the signaling events into the session and negotiator, and
// carries the channels the interactive loop selects on.
type game struct {
	ctx        *ConnectionContext
	roomCode   string
	sess       *session.Session
	negotiator *peer.Negotiator

	prompts   chan signaling.PromptPayload
	stories   chan string
	connected chan struct{}
	peerGone  chan struct{}
	fatal     chan string

	peerGoneOnce sync.Once

	rounds  []ui.RoundSummary
	saved   []string
	written bool
}

func play(roomCode string) error {
	hosting := roomCode == ""
	if hosting {
		roomCode = generateRoomCode()
	}

	cfg, err := LoadConfig(config.Options{
		ServerURL:  flagServer,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
	})
	if err != nil {
		return err
	}

	roomLink := cfg.GetRoomLink(roomCode)
	fmt.Println(ui.NewRoomInfo(roomCode, roomLink).View())
	// A host needs something shareable; joiners only see the QR on request.
	if flagQR || hosting {
		if err := ui.RenderQR(roomLink); err != nil {
			ui.PrintWarning(err.Error())
		}
	}

	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	ctx, err := NewConnectionContext(cfg)
	if err != nil {
		stopSpinner()
		return err
	}
	defer ctx.Close()
	stopSpinner()

	g, err := newGame(ctx, roomCode)
	if err != nil {
		return err
	}
	defer g.negotiator.Close()

	go g.pump()

	if err := g.join(); err != nil {
		return err
	}

	firstPrompt, err := g.waitForPartner()
	if err != nil {
		return err
	}

	if err := g.waitForDirectConnection(); err != nil {
		return err
	}

	err = g.playRounds(firstPrompt)

	if flagSave != "" && !g.written && len(g.saved) > 0 {
		if saveErr := g.writeStories(savePath()); saveErr != nil {
			ui.PrintWarning(saveErr.Error())
		}
	}

	return err
}

func newGame(ctx *ConnectionContext, roomCode string) (*game, error) {
	g := &game{
		ctx:       ctx,
		roomCode:  roomCode,
		prompts:   make(chan signaling.PromptPayload, 2),
		stories:   make(chan string, 2),
		connected: make(chan struct{}, 1),
		peerGone:  make(chan struct{}),
		fatal:     make(chan string, 1),
	}

	g.sess = session.NewSession(
		g.requestNewPrompts,
		func(storyText string) { g.stories <- storyText },
	)

	negotiator, err := peer.NewNegotiator(iceServers(ctx.Config), g.signal, g.onDataChannel)
	if err != nil {
		return nil, err
	}
	g.negotiator = negotiator

	return g, nil
}

// signal relays a negotiation payload through the server, addressed to
// this game's room.
func (g *game) signal(msgType string, payload any) error {
	msg, err := signaling.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	msg.Room = g.roomCode
	g.ctx.Client.SendMessage(msg)
	return nil
}

func (g *game) requestNewPrompts() {
	g.ctx.Client.SendMessage(&signaling.Message{
		Type: signaling.MessageTypeRequestNewPrompts,
		Room: g.roomCode,
	})
}

// onDataChannel fires on both roles: the initiator creates the channel
// locally, the responder gets it announced by the transport.
func (g *game) onDataChannel(dc *webrtc.DataChannel) {
	ch := peer.WrapChannel(dc, peer.Hooks{
		OnOpen: func() {
			g.negotiator.MarkConnected()
			g.sess.HandleConnected()
			select {
			case g.connected <- struct{}{}:
			default:
			}
		},
		OnClose: func() {
			g.notifyPeerGone()
		},
		OnContent: func(text string, position int) {
			g.sess.HandlePartnerContent(text)
		},
		OnReset: func() {
			g.sess.HandleRemoteReset()
		},
	})
	g.sess.SetChannel(ch)
}

func (g *game) notifyPeerGone() {
	g.peerGoneOnce.Do(func() { close(g.peerGone) })
}

func (g *game) fail(msg string) {
	select {
	case g.fatal <- msg:
	default:
	}
}

// pump fans the handler's typed channels into the session and negotiator.
// It exits when the handler closes its channels.
func (g *game) pump() {
	h := g.ctx.Handler
	for {
		select {
		case isInitiator, ok := <-h.Initiate:
			if !ok {
				return
			}
			g.sess.HandleInitiate(isInitiator)
			if err := g.negotiator.Start(isInitiator); err != nil {
				g.fail("start negotiation: " + err.Error())
			}

		case structure, ok := <-h.Template:
			if !ok {
				return
			}
			g.sess.HandleTemplate(structure)

		case p, ok := <-h.Prompt:
			if !ok {
				return
			}
			g.sess.HandlePrompt(p.Prompt, p.Position)
			select {
			case g.prompts <- p:
			default:
			}

		case raw, ok := <-h.Offer:
			if !ok {
				return
			}
			if err := g.negotiator.HandleOffer(raw); err != nil {
				g.fail("handle offer: " + err.Error())
			}

		case raw, ok := <-h.Answer:
			if !ok {
				return
			}
			if err := g.negotiator.HandleAnswer(raw); err != nil {
				g.fail("handle answer: " + err.Error())
			}

		case raw, ok := <-h.Candidate:
			if !ok {
				return
			}
			g.negotiator.HandleCandidate(raw)

		case _, ok := <-h.PeerLeft:
			if !ok {
				return
			}
			g.notifyPeerGone()

		case errMsg, ok := <-h.Errors:
			if !ok {
				return
			}
			g.fail(errMsg)
		}
	}
}

func (g *game) join() error {
	g.ctx.Client.SendMessage(&signaling.Message{
		Type: signaling.MessageTypeJoinRoom,
		Room: g.roomCode,
	})
	return nil
}

// waitForPartner blocks until the server pairs the room and assigns this
// side its prompt. There is no timeout; Ctrl-C is the way out of an empty
// room.
func (g *game) waitForPartner() (signaling.PromptPayload, error) {
	stopSpinner := ui.RunWaitingSpinner("Waiting for a partner to join...")
	defer stopSpinner()

	select {
	case p := <-g.prompts:
		stopSpinner()
		ui.PrintSuccess("Partner joined!")
		return p, nil
	case msg := <-g.fatal:
		return signaling.PromptPayload{}, errors.New(msg)
	case <-g.peerGone:
		return signaling.PromptPayload{}, errors.New("partner left before the game started")
	}
}

func (g *game) waitForDirectConnection() error {
	stopSpinner := ui.RunConnectionSpinner("Establishing direct connection...")
	defer stopSpinner()

	select {
	case <-g.connected:
		stopSpinner()
		ui.PrintSuccess("Direct connection established")
		return nil
	case msg := <-g.fatal:
		return errors.New(msg)
	case <-g.peerGone:
		return errors.New("partner left during connection setup")
	}
}

// playRounds runs the interactive loop: answer the prompt, wait for the
// shared story, optionally reset and go again.
func (g *game) playRounds(prompt signaling.PromptPayload) error {
	reader := bufio.NewReader(os.Stdin)
	roundNum := 1

	for {
		answer, err := g.readAnswer(reader, prompt.Prompt)
		if err != nil {
			return err
		}

		if err := g.sess.Submit(answer); err != nil {
			if errors.Is(err, session.ErrChannelNotOpen) {
				return errors.New("lost the direct connection to your partner")
			}
			ui.PrintError(err.Error())
			continue
		}

		storyText, err := g.waitForStory()
		if err != nil {
			return err
		}

		g.reveal(storyText)

		round := g.sess.Round()
		g.rounds = append(g.rounds, ui.RoundSummary{
			Round:       roundNum,
			Role:        string(g.sess.Role()),
			Position:    g.sess.Position(),
			Prompt:      prompt.Prompt,
			LocalText:   round.LocalText,
			PartnerText: round.PartnerText,
		})
		g.saved = append(g.saved, storyText)

		fmt.Println()
		ui.RenderSessionSummary(g.rounds)

		if !g.askNextAction(reader) {
			return nil
		}

		if err := g.resetRound(); err != nil {
			return err
		}

		prompt, err = g.waitForNextPrompt()
		if err != nil {
			return err
		}
		roundNum++
	}
}

func (g *game) readAnswer(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Println()
	fmt.Printf("%s %s\n", ui.IconPrompt, ui.PromptStyle.Render(prompt))

	for {
		fmt.Print(ui.BoldStyle.Render("> "))
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			ui.PrintWarning("Your answer cannot be empty")
			continue
		}
		return line, nil
	}
}

func (g *game) waitForStory() (string, error) {
	// The story may already be assembled when the partner answered first.
	select {
	case storyText := <-g.stories:
		return storyText, nil
	default:
	}

	stopSpinner := ui.RunWaitingSpinner("Waiting for your partner's answer...")
	defer stopSpinner()

	select {
	case storyText := <-g.stories:
		stopSpinner()
		return storyText, nil
	case msg := <-g.fatal:
		return "", errors.New(msg)
	case <-g.peerGone:
		return "", errors.New("partner left mid-round")
	}
}

func (g *game) reveal(storyText string) {
	fmt.Println()
	fmt.Println(ui.TitleStyle.Render(ui.IconComplete + " Your story:"))

	if flagNoTypewriter {
		fmt.Println(ui.StoryView(storyText))
		return
	}
	ui.Typewriter(os.Stdout, storyText)
}

// resetRound starts the next round from this side. When the partner reset
// first, the local round is already cleared and the server is already
// drawing new prompts, so that case just falls through to the prompt wait.
func (g *game) resetRound() error {
	err := g.sess.ResetLocal()
	if err == nil {
		return nil
	}
	if errors.Is(err, session.ErrNotReady) && g.sess.State() == session.StatePromptAssigned {
		return nil
	}
	return err
}

func (g *game) waitForNextPrompt() (signaling.PromptPayload, error) {
	stopSpinner := ui.RunWaitingSpinner("Drawing a new story...")
	defer stopSpinner()

	select {
	case p := <-g.prompts:
		stopSpinner()
		return p, nil
	case msg := <-g.fatal:
		return signaling.PromptPayload{}, errors.New(msg)
	case <-g.peerGone:
		return signaling.PromptPayload{}, errors.New("partner left")
	}
}

// askNextAction loops until the player picks continue or quit; saving keeps
// the question open.
func (g *game) askNextAction(reader *bufio.Reader) bool {
	for {
		fmt.Println()
		fmt.Print(ui.BoldStyle.Render("Another round? [y]es / [s]ave / [q]uit "))

		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "s", "save":
			if err := g.writeStories(savePath()); err != nil {
				ui.PrintWarning(err.Error())
			}
		default:
			return false
		}
	}
}

func (g *game) writeStories(path string) error {
	if len(g.saved) == 0 {
		return errors.New("no stories to save yet")
	}

	content := strings.Join(g.saved, "\n\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("save stories: %w", err)
	}

	g.written = true
	ui.PrintSuccessf("Saved %d stories to %s", len(g.saved), path)
	return nil
}

// Room code word lists, memorable enough to read over a voice call.
var (
	codeAdjectives = []string{
		"brave", "calm", "eager", "fuzzy", "merry",
		"quiet", "sunny", "witty", "zesty", "dizzy",
	}
	codeNouns = []string{
		"otter", "maple", "comet", "pebble", "lantern",
		"badger", "willow", "ember", "tulip", "walrus",
	}
)

func generateRoomCode() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return fmt.Sprintf("%s-%s-%02d",
		codeAdjectives[r.Intn(len(codeAdjectives))],
		codeNouns[r.Intn(len(codeNouns))],
		r.Intn(100),
	)
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVarP(&flagServer, "server", "S", "", "Custom server websocket URL (ws:// or wss://)")
	playCmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	playCmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	playCmd.Flags().StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username")
	playCmd.Flags().StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password")
	playCmd.Flags().StringVar(&flagSave, "save", "", "Write finished stories to a file on exit")
	playCmd.Flags().Lookup("save").NoOptDefVal = "auto"
	playCmd.Flags().BoolVar(&flagNoTypewriter, "no-typewriter", false, "Print stories instantly")
	playCmd.Flags().BoolVar(&flagQR, "qr", false, "Show a QR code for the room link")
}

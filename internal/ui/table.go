package ui

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RoundSummary describes one finished story round for display.
type RoundSummary struct {
	Round       int
	Role        string
	Position    int
	Prompt      string
	LocalText   string
	PartnerText string
}

// SessionSummaryView renders the rounds played this session as a table.
func SessionSummaryView(rounds []RoundSummary) string {
	if len(rounds) == 0 {
		return MutedStyle.Render("No rounds played")
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatTitle
	t.AppendHeader(table.Row{"#", "Prompt", "You wrote", "Partner wrote"})
	for _, r := range rounds {
		t.AppendRow(table.Row{r.Round, r.Prompt, r.LocalText, r.PartnerText})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: 30},
		{Number: 4, WidthMax: 30},
	})

	return t.Render()
}

// RenderSessionSummary outputs the summary table directly to stdout.
func RenderSessionSummary(rounds []RoundSummary) {
	fmt.Println(SessionSummaryView(rounds))
}

// RoomInfo holds the shareable details of a freshly created room.
type RoomInfo struct {
	RoomCode string
	RoomLink string
}

func NewRoomInfo(roomCode, roomLink string) *RoomInfo {
	return &RoomInfo{
		RoomCode: roomCode,
		RoomLink: roomLink,
	}
}

func (r *RoomInfo) View() string {
	content := fmt.Sprintf("%s Room Ready!\n\n%s Room Code:  %s\n%s Room Link:  %s",
		IconSuccess,
		IconRoom, BoldStyle.Foreground(Primary).Render(r.RoomCode),
		IconLink, MutedStyle.Render(r.RoomLink),
	)

	return RoomBoxStyle.Render(content)
}

// StoryView wraps the assembled story in its presentation box.
func StoryView(storyText string) string {
	return StoryBoxStyle.Render(
		fmt.Sprintf("%s  %s", IconStory, StoryStyle.Render(storyText)),
	)
}

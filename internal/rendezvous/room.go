package rendezvous

import "github.com/RachelH1213/lab25fall-fourth-project/internal/story"

// Role determines which side of the WebRTC negotiation a member drives.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

// Member is one paired participant. Position and Role are assigned at
// pairing time and never reassigned while the member stays in the room.
type Member struct {
	Client   *Client
	Position int
	Role     Role
}

// Room pairs exactly two participants under a caller-supplied code.
type Room struct {
	Code     string
	Members  []*Member
	Template story.Template

	// paired guards the one-shot pairing on the 1 -> 2 membership
	// transition. It is cleared when a slot is vacated so a refilled
	// room can pair again.
	paired bool
}

// member returns the membership record for the given client, if any.
func (r *Room) member(c *Client) *Member {
	for _, m := range r.Members {
		if m.Client == c {
			return m
		}
	}
	return nil
}

// other returns the member on the opposite side of c, if both are present.
func (r *Room) other(c *Client) *Member {
	for _, m := range r.Members {
		if m.Client != c {
			return m
		}
	}
	return nil
}

// remove drops the member owning c and clears the pairing guard so a
// replacement can trigger a fresh pairing.
func (r *Room) remove(c *Client) {
	for i, m := range r.Members {
		if m.Client == c {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			r.paired = false
			return
		}
	}
}

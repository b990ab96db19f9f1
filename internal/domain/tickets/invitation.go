package tickets

import "github.com/lithammer/shortuuid/v3"

type InvitationStatus string

const (
	InvitationUnclaimed InvitationStatus = "unclaimed"
	InvitationClaimed   InvitationStatus = "claimed"
)

// Invitation lets the person it was mailed to claim a ticket. The token is
// the capability: whoever presents it first becomes the ticket's owner.
type Invitation struct {
	ID       int64
	TicketID int64
	Email    string
	Token    string
	Status   InvitationStatus
}

// NewToken mints an unguessable claim token.
func NewToken() string {
	return shortuuid.New()
}

func (i Invitation) Claimed() bool {
	return i.Status == InvitationClaimed
}

package billing

import "fmt"

// ItemKind discriminates what an invoice row bills for.
type ItemKind string

const (
	ItemTicket      ItemKind = "ticket"
	ItemChildTicket ItemKind = "child_ticket"
)

// ItemRef is a tagged reference to a billable item. Two rows with the same
// ItemRef would bill the same thing twice, so an invoice rejects duplicates.
type ItemRef struct {
	Kind ItemKind
	ID   int64
}

func (r ItemRef) Valid() bool {
	switch r.Kind {
	case ItemTicket, ItemChildTicket:
		return r.ID > 0
	}
	return false
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

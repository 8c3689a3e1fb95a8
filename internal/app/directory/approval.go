package directory

import (
	"errors"
	"fmt"
)

var (
	ErrNotAdmin          = errors.New("only administrators can change listing status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyInStatus   = errors.New("listing already has this status")
)

// Transition validates an administrative status change. Only approved and
// rejected are reachable this way; pending is entered on creation and on any
// owner edit (see StatusAfterEdit).
func Transition(from, to Status, actor Actor) error {
	if !actor.IsAdmin() {
		return ErrNotAdmin
	}
	if !from.Valid() || (to != StatusApproved && to != StatusRejected) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if from == to {
		return ErrAlreadyInStatus
	}
	return nil
}

// StatusAfterEdit is the status a listing takes after actor edits it.
// Owner edits send the listing back for review; administrator edits keep it.
func StatusAfterEdit(current Status, actor Actor) Status {
	if actor.IsAdmin() {
		return current
	}
	return StatusPending
}

// Approved returns only the listings that may appear on public surfaces.
func Approved(listings []Listing) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if l.Status == StatusApproved {
			out = append(out, l)
		}
	}
	return out
}

// CanView reports whether actor may see the listing: approved listings are
// public, others are visible to their owner and administrators.
func CanView(l Listing, actor Actor) bool {
	return l.Status == StatusApproved || actor.IsAdmin() || (actor.Authenticated() && actor.UserID == l.OwnerID)
}

// CanModify reports whether actor may edit or delete the listing.
func CanModify(l Listing, actor Actor) bool {
	return actor.IsAdmin() || (actor.Authenticated() && actor.UserID == l.OwnerID)
}

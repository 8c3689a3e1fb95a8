// Package directory holds the pure listing rules of the business directory:
// rating aggregation, category resolution, public filtering, top-rated
// selection and the approval state machine. Nothing here performs I/O; callers
// hand in an already materialized snapshot and get derived values back.
package directory

import "time"

// Status is the approval state of a listing.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Role of an authenticated account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the identity an operation runs on behalf of. It is passed
// explicitly to every rule that depends on who is asking.
type Actor struct {
	UserID uint
	Role   Role
}

// Anonymous is the actor for unauthenticated requests.
var Anonymous = Actor{}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// Review is a single rating/comment pair.
type Review struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Rating  int       `json:"rating"`
	Comment string    `json:"comment"`
	Date    time.Time `json:"date"`
}

type Address struct {
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zip       string   `json:"zip"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Listing is the snapshot view of a business record used by the rules in
// this package.
type Listing struct {
	ID               uint      `json:"id"`
	OwnerID          uint      `json:"owner_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	SearchCategories []string  `json:"search_categories"`
	Contact          Contact   `json:"contact"`
	Address          Address   `json:"address"`
	Images           []string  `json:"images"`
	Reviews          []Review  `json:"reviews"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`

	// AverageRating is derived; see Annotate.
	AverageRating float64 `json:"average_rating"`
}

// Rating returns the aggregated rating computed from the listing's reviews.
func (l Listing) Rating() float64 {
	return AverageRating(l.Reviews)
}

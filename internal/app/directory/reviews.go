package directory

import "strings"

// AnonymousAuthor is used when the reviewer has no display identity.
const AnonymousAuthor = "Anonymous"

// AppendReviews appends incoming reviews whose id is not already present.
// Existing order is kept and new reviews follow in their given order.
func AppendReviews(existing, incoming []Review) []Review {
	seen := make(map[string]bool, len(existing)+len(incoming))
	out := make([]Review, 0, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.ID] = true
		out = append(out, r)
	}
	for _, r := range incoming {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

// ReviewAuthor picks the display name for a review.
func ReviewAuthor(displayName string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	return AnonymousAuthor
}

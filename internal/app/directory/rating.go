package directory

// AverageRating returns the arithmetic mean of the review ratings, or 0 for
// an empty sequence. No rounding is applied.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// Annotate returns a copy of listings with AverageRating filled in.
func Annotate(listings []Listing) []Listing {
	out := make([]Listing, len(listings))
	for i, l := range listings {
		l.AverageRating = l.Rating()
		out[i] = l
	}
	return out
}

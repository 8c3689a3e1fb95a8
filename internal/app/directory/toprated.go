package directory

import "sort"

// TopRatedThreshold is the minimum average rating for the top-rated section.
const TopRatedThreshold = 4.0

// TopRated keeps listings averaging at least TopRatedThreshold, sorted by
// average descending. Equal averages keep their input order, so the caller's
// fetch order is the tie-break.
func TopRated(listings []Listing) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		l.AverageRating = l.Rating()
		if l.AverageRating >= TopRatedThreshold {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AverageRating > out[j].AverageRating
	})
	return out
}

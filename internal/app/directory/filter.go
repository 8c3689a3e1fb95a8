package directory

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// All is the "no restriction" value for category, city and minimum rating.
const All = "all"

// Filter is a parsed public search. Zero values mean unset.
type Filter struct {
	Keyword   string
	Category  string
	City      string
	MinRating int
}

// ParseFilter builds a Filter from raw query values, where "" and "all" mean
// unset. minRating must be "all", "" or an integer from 1 to 5.
func ParseFilter(keyword, category, city, minRating string) (Filter, error) {
	f := Filter{Keyword: keyword}
	if category != All {
		f.Category = category
	}
	if city != All {
		f.City = city
	}
	if minRating != "" && minRating != All {
		n, err := strconv.Atoi(minRating)
		if err != nil || n < 1 || n > 5 {
			return Filter{}, fmt.Errorf("invalid minimum rating %q", minRating)
		}
		f.MinRating = n
	}
	return f, nil
}

// Match reports whether l satisfies every set predicate of f.
//
// The category predicate compares against the primary category only;
// SearchCategories do not participate.
func (f Filter) Match(l Listing) bool {
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(l.Name), kw) &&
			!strings.Contains(strings.ToLower(l.Description), kw) {
			return false
		}
	}
	if f.Category != "" && l.Category != f.Category {
		return false
	}
	if f.City != "" && l.Address.City != f.City {
		return false
	}
	if f.MinRating > 0 && int(math.Floor(l.Rating())) < f.MinRating {
		return false
	}
	return true
}

// FilterListings returns the listings matching f in input order. The input is
// not modified.
func FilterListings(listings []Listing, f Filter) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Cities returns the distinct cities of listings in first-seen order.
func Cities(listings []Listing) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range listings {
		c := l.Address.City
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

package directory

import (
	"errors"
	"strings"
)

// OtherCategory is the sentinel selection that asks for a free-text category.
// It is never stored on a listing nor persisted as a Category record.
const OtherCategory = "Other"

var (
	ErrCategoryRequired      = errors.New("category is required")
	ErrOtherCategoryRequired = errors.New("please specify the category when selecting Other")
	ErrOtherCategoryReserved = errors.New("please name the category instead of entering \"Other\"")
	ErrUnknownCategory       = errors.New("category is not in the list; select Other to enter your own")
)

// CategorySelection is what a submitter picked: a canonical category, or
// OtherCategory together with free text.
type CategorySelection struct {
	Selection     string `json:"category"`
	OtherCategory string `json:"other_category,omitempty"`
}

// ResolveCategory produces the category string to persist without consulting
// the category set. Use ResolveCanonicalCategory before storing.
func ResolveCategory(sel CategorySelection) (string, error) {
	if IsReservedCategoryName(sel.Selection) {
		other := strings.TrimSpace(sel.OtherCategory)
		if other == "" {
			return "", ErrOtherCategoryRequired
		}
		if IsReservedCategoryName(other) {
			return "", ErrOtherCategoryReserved
		}
		return other, nil
	}
	selection := strings.TrimSpace(sel.Selection)
	if selection == "" {
		return "", ErrCategoryRequired
	}
	return selection, nil
}

// ResolveCanonicalCategory resolves sel against the current category set.
// A direct selection must name a canonical category, ignoring case, and
// resolves to its canonical spelling. Free text entered through Other is kept
// as typed unless it names a canonical category, in which case that category
// is used.
func ResolveCanonicalCategory(sel CategorySelection, canonical []string) (string, error) {
	category, err := ResolveCategory(sel)
	if err != nil {
		return "", err
	}
	if match, ok := matchCanonical(category, canonical); ok {
		return match, nil
	}
	if IsReservedCategoryName(sel.Selection) {
		return category, nil
	}
	return "", ErrUnknownCategory
}

// CategoryErrorField names the input field a category error belongs to.
func CategoryErrorField(err error) string {
	if errors.Is(err, ErrOtherCategoryRequired) || errors.Is(err, ErrOtherCategoryReserved) {
		return "other_category"
	}
	return "category"
}

func matchCanonical(name string, canonical []string) (string, bool) {
	key := CategoryKey(name)
	for _, c := range canonical {
		if IsReservedCategoryName(c) {
			continue
		}
		if CategoryKey(c) == key {
			return c, true
		}
	}
	return "", false
}

// ReconcileSuggestion maps a classifier's suggestion onto the canonical set.
// A case-insensitive match yields the canonically cased category with no free
// text; anything else falls back to Other with the suggestion pre-filled for
// the submitter to confirm.
func ReconcileSuggestion(suggested string, canonical []string) CategorySelection {
	suggested = strings.TrimSpace(suggested)
	if match, ok := matchCanonical(suggested, canonical); ok {
		return CategorySelection{Selection: match}
	}
	return CategorySelection{Selection: OtherCategory, OtherCategory: suggested}
}

// IsReservedCategoryName reports whether name collides with the Other sentinel.
func IsReservedCategoryName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), OtherCategory)
}

// CategoryKey is the case-insensitive identity of a category name.
func CategoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeSearchCategories keeps the entries that name a canonical category,
// in canonical spelling and first-seen order. Blanks, duplicates, Other and
// the primary category are dropped.
func NormalizeSearchCategories(primary string, in, canonical []string) []string {
	seen := map[string]bool{CategoryKey(primary): true}
	out := make([]string, 0, len(in))
	for _, c := range in {
		match, ok := matchCanonical(c, canonical)
		if !ok || seen[CategoryKey(match)] {
			continue
		}
		seen[CategoryKey(match)] = true
		out = append(out, match)
	}
	return out
}

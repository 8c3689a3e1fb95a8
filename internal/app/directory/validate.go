package directory

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// LinkType enumerates the kinds of contact link a listing may carry.
type LinkType string

const (
	LinkWebsite    LinkType = "website"
	LinkGoogleMaps LinkType = "googleMaps"
	LinkFacebook   LinkType = "facebook"
	LinkWhatsApp   LinkType = "whatsapp"
	LinkInstagram  LinkType = "instagram"
	LinkYouTube    LinkType = "youtube"
	LinkOther      LinkType = "other"
)

type Link struct {
	Type LinkType `json:"type" validate:"required,oneof=website googleMaps facebook whatsapp instagram youtube other"`
	URL  string   `json:"url" validate:"required"`
}

type Contact struct {
	Phone string `json:"phone" validate:"required,min=10"`
	Email string `json:"email" validate:"required,email"`
	Links []Link `json:"links" validate:"dive"`
}

type AddressInput struct {
	Street    string   `json:"street" validate:"required,min=3"`
	City      string   `json:"city" validate:"required,min=2"`
	State     string   `json:"state" validate:"required,min=2"`
	Zip       string   `json:"zip" validate:"required,min=5"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// ListingInput is a listing submission as entered by an owner or admin.
type ListingInput struct {
	Name             string            `json:"name" validate:"required,min=2"`
	Description      string            `json:"description" validate:"required,min=10"`
	Category         CategorySelection `json:"category_selection"`
	SearchCategories []string          `json:"search_categories"`
	Contact          Contact           `json:"contact"`
	Address          AddressInput      `json:"address"`
	Images           []string          `json:"images" validate:"dive,required"`
	ReferenceBy      string            `json:"reference_by" validate:"required"`
	CasteAndCategory string            `json:"caste_and_category" validate:"required"`
}

// ValidationErrors maps a field path to a user-facing message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateListing checks the submission rules and returns ValidationErrors
// listing every failing field, or nil. requireImage is set for administrator
// edits, which must keep at least one image.
func ValidateListing(in ListingInput, requireImage bool) error {
	errs := ValidationErrors{}

	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs[fieldPath(fe.Namespace())] = fieldMessage(fe)
		}
	}

	if _, err := ResolveCategory(in.Category); err != nil {
		errs[CategoryErrorField(err)] = err.Error()
	}

	if requireImage && len(in.Images) == 0 {
		errs["images"] = "at least one image is required"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ResolvedCategories is the category data of a submission as it is stored.
type ResolvedCategories struct {
	Category         string
	SearchCategories []string
}

// ResolveListing runs ValidateListing and resolves the category selection and
// search categories against the current category set.
func ResolveListing(in ListingInput, canonical []string, requireImage bool) (ResolvedCategories, error) {
	errs := ValidationErrors{}
	if err := ValidateListing(in, requireImage); err != nil {
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			return ResolvedCategories{}, err
		}
		for field, msg := range verrs {
			errs[field] = msg
		}
	}

	category, err := ResolveCanonicalCategory(in.Category, canonical)
	if err != nil {
		field := CategoryErrorField(err)
		if _, reported := errs[field]; !reported {
			errs[field] = err.Error()
		}
	}

	if len(errs) > 0 {
		return ResolvedCategories{}, errs
	}
	return ResolvedCategories{
		Category:         category,
		SearchCategories: NormalizeSearchCategories(category, in.SearchCategories, canonical),
	}, nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "latitude", "longitude":
		return "is out of range"
	default:
		return "is invalid"
	}
}

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizeLinkURL prefixes https:// when the URL carries no scheme.
func NormalizeLinkURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || schemePattern.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

// NormalizeLinks trims and scheme-prefixes every link URL.
func NormalizeLinks(links []Link) []Link {
	out := make([]Link, len(links))
	for i, l := range links {
		out[i] = Link{Type: l.Type, URL: NormalizeLinkURL(l.URL)}
	}
	return out
}

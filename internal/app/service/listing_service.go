package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrListingForbidden   = errors.New("not allowed to modify this listing")
	ErrListingNotApproved = errors.New("listing is not approved")
	ErrUnauthenticated    = errors.New("authentication required")
)

// HomeFeed is everything the public landing page renders for one filter.
type HomeFeed struct {
	Listings   []directory.Listing `json:"listings"`
	TopRated   []directory.Listing `json:"top_rated"`
	Categories []string            `json:"categories"`
	Cities     []string            `json:"cities"`
	Total      int                 `json:"total"`
	ETag       string              `json:"etag"`
}

// ListingDetail is a stored listing with its derived rating.
type ListingDetail struct {
	model.Listing
	AverageRating float64 `json:"average_rating"`
}

// ImportRowError reports a spreadsheet row that was skipped.
type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportResult struct {
	Created int              `json:"created"`
	Skipped []ImportRowError `json:"skipped"`
}

type ListingService interface {
	CreateListing(ctx context.Context, actor directory.Actor, input directory.ListingInput) (*model.Listing, error)
	UpdateListing(ctx context.Context, actor directory.Actor, id uint, input directory.ListingInput) (*model.Listing, error)
	DeleteListing(ctx context.Context, actor directory.Actor, id uint) error
	GetListing(actor directory.Actor, id uint) (*ListingDetail, error)
	MyListings(actor directory.Actor) ([]model.Listing, error)
	HomeFeed(ctx context.Context, filter directory.Filter) (*HomeFeed, error)
	TopRated(ctx context.Context) ([]directory.Listing, error)
	ImportListings(ctx context.Context, ownerID uint, rows []directory.ListingInput) (*ImportResult, error)
}

type listingService struct {
	listingRepo      repository.ListingRepository
	categoryRepo     repository.CategoryRepository
	cache            *ListingCache
	placeholderImage string
}

func NewListingService(
	listingRepo repository.ListingRepository,
	categoryRepo repository.CategoryRepository,
	cache *ListingCache,
	placeholderImage string,
) ListingService {
	return &listingService{
		listingRepo:      listingRepo,
		categoryRepo:     categoryRepo,
		cache:            cache,
		placeholderImage: placeholderImage,
	}
}

// canonicalCategories is the current category set submissions resolve against.
func (s *listingService) canonicalCategories() ([]string, error) {
	categories, err := s.categoryRepo.FindAll()
	if err != nil {
		return nil, err
	}
	return model.CategoryNames(categories), nil
}

// validate checks a submission and resolves its categories.
func (s *listingService) validate(input directory.ListingInput, requireImage bool) (directory.ResolvedCategories, error) {
	canonical, err := s.canonicalCategories()
	if err != nil {
		return directory.ResolvedCategories{}, err
	}
	return directory.ResolveListing(input, canonical, requireImage)
}

// applyInput copies a validated submission onto the row.
func (s *listingService) applyInput(listing *model.Listing, input directory.ListingInput, resolved directory.ResolvedCategories) {
	listing.Name = strings.TrimSpace(input.Name)
	listing.Description = strings.TrimSpace(input.Description)
	listing.Category = resolved.Category
	listing.SearchCategories = resolved.SearchCategories
	listing.Contact = model.ListingContact{
		Phone: strings.TrimSpace(input.Contact.Phone),
		Email: strings.TrimSpace(input.Contact.Email),
		Links: model.LinkList(directory.NormalizeLinks(input.Contact.Links)),
	}
	listing.Address = model.ListingAddress{
		Street:    strings.TrimSpace(input.Address.Street),
		City:      strings.TrimSpace(input.Address.City),
		State:     strings.TrimSpace(input.Address.State),
		Zip:       strings.TrimSpace(input.Address.Zip),
		Latitude:  input.Address.Latitude,
		Longitude: input.Address.Longitude,
	}
	listing.Images = append([]string(nil), input.Images...)
	if len(listing.Images) == 0 && s.placeholderImage != "" {
		listing.Images = []string{s.placeholderImage}
	}
	listing.ReferenceBy = strings.TrimSpace(input.ReferenceBy)
	listing.CasteAndCategory = strings.TrimSpace(input.CasteAndCategory)
}

func (s *listingService) CreateListing(ctx context.Context, actor directory.Actor, input directory.ListingInput) (*model.Listing, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	resolved, err := s.validate(input, false)
	if err != nil {
		return nil, err
	}

	listing := &model.Listing{
		OwnerID: actor.UserID,
		Status:  directory.StatusPending,
	}
	s.applyInput(listing, input, resolved)

	if err := s.listingRepo.Create(listing); err != nil {
		logger.Error("Failed to create listing", err, map[string]interface{}{
			"owner_id": actor.UserID,
		})
		return nil, err
	}

	logger.Info("Listing submitted for review", map[string]interface{}{
		"listing_id": listing.ID,
		"owner_id":   listing.OwnerID,
		"category":   listing.Category,
	})
	return listing, nil
}

func mapListingErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrListingNotFound
	}
	return err
}

func (s *listingService) findListing(id uint) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(id)
	if err != nil {
		return nil, mapListingErr(err)
	}
	return listing, nil
}

func (s *listingService) UpdateListing(ctx context.Context, actor directory.Actor, id uint, input directory.ListingInput) (*model.Listing, error) {
	listing, err := s.findListing(id)
	if err != nil {
		return nil, err
	}
	if !directory.CanModify(listing.ToDirectory(), actor) {
		logger.Warn("Listing update denied", map[string]interface{}{
			"listing_id": id,
			"user_id":    actor.UserID,
		})
		return nil, ErrListingForbidden
	}
	resolved, err := s.validate(input, actor.IsAdmin())
	if err != nil {
		return nil, err
	}

	previous := listing.Status
	s.applyInput(listing, input, resolved)
	listing.Status = directory.StatusAfterEdit(previous, actor)

	if err := s.listingRepo.Update(listing); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	logger.Info("Listing updated", map[string]interface{}{
		"listing_id":  listing.ID,
		"user_id":     actor.UserID,
		"from_status": previous,
		"status":      listing.Status,
	})
	return listing, nil
}

func (s *listingService) DeleteListing(ctx context.Context, actor directory.Actor, id uint) error {
	listing, err := s.findListing(id)
	if err != nil {
		return err
	}
	if !directory.CanModify(listing.ToDirectory(), actor) {
		return ErrListingForbidden
	}

	if err := s.listingRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	s.cache.Invalidate(ctx)

	logger.Info("Listing deleted", map[string]interface{}{
		"listing_id": id,
		"user_id":    actor.UserID,
	})
	return nil
}

// GetListing hides non-approved listings from everyone but the owner and
// administrators by reporting them as missing.
func (s *listingService) GetListing(actor directory.Actor, id uint) (*ListingDetail, error) {
	listing, err := s.findListing(id)
	if err != nil {
		return nil, err
	}
	view := listing.ToDirectory()
	if !directory.CanView(view, actor) {
		return nil, ErrListingNotFound
	}
	return &ListingDetail{Listing: *listing, AverageRating: view.AverageRating}, nil
}

func (s *listingService) MyListings(actor directory.Actor) ([]model.Listing, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.listingRepo.FindByOwner(actor.UserID)
}

// approvedSnapshot is the annotated public snapshot, newest first.
func (s *listingService) approvedSnapshot(ctx context.Context) ([]directory.Listing, error) {
	listings, err := s.cache.Snapshot(ctx, func() ([]directory.Listing, error) {
		rows, err := s.listingRepo.FindApproved()
		if err != nil {
			return nil, err
		}
		return model.ToDirectoryListings(rows), nil
	})
	if err != nil {
		return nil, err
	}
	return directory.Annotate(directory.Approved(listings)), nil
}

func (s *listingService) HomeFeed(ctx context.Context, filter directory.Filter) (*HomeFeed, error) {
	return s.cache.Feed(ctx, filter, func() (*HomeFeed, error) {
		return s.buildFeed(ctx, filter)
	})
}

func (s *listingService) buildFeed(ctx context.Context, filter directory.Filter) (*HomeFeed, error) {
	var (
		snapshot   []directory.Listing
		categories []model.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot, err = s.approvedSnapshot(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.categoryRepo.FindAll()
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("Failed to load home feed", err, nil)
		return nil, err
	}

	filtered := directory.FilterListings(snapshot, filter)
	feed := &HomeFeed{
		Listings:   filtered,
		TopRated:   directory.TopRated(snapshot),
		Categories: model.CategoryNames(categories),
		Cities:     directory.Cities(snapshot),
		Total:      len(filtered),
	}
	if feed.Cities == nil {
		feed.Cities = []string{}
	}
	etag, err := feedETag(feed)
	if err != nil {
		return nil, err
	}
	feed.ETag = etag
	return feed, nil
}

// feedETag fingerprints the rendered feed so clients can revalidate cheaply.
func feedETag(feed *HomeFeed) (string, error) {
	b, err := json.Marshal(feed)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64(b)), nil
}

func (s *listingService) TopRated(ctx context.Context) ([]directory.Listing, error) {
	snapshot, err := s.approvedSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return directory.TopRated(snapshot), nil
}

// ImportListings creates one pending listing per valid row. Invalid rows are
// reported and skipped; row numbers are 1-based data rows. A spreadsheet
// category that is not in the category set is imported as free text.
func (s *listingService) ImportListings(ctx context.Context, ownerID uint, rows []directory.ListingInput) (*ImportResult, error) {
	canonical, err := s.canonicalCategories()
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	listings := make([]model.Listing, 0, len(rows))

	for i, input := range rows {
		sel := input.Category.Selection
		if strings.TrimSpace(sel) != "" && !directory.IsReservedCategoryName(sel) {
			input.Category = directory.ReconcileSuggestion(sel, canonical)
		}
		resolved, err := directory.ResolveListing(input, canonical, false)
		if err != nil {
			result.Skipped = append(result.Skipped, ImportRowError{Row: i + 1, Error: err.Error()})
			continue
		}
		listing := model.Listing{OwnerID: ownerID, Status: directory.StatusPending}
		s.applyInput(&listing, input, resolved)
		listings = append(listings, listing)
	}

	if err := s.listingRepo.CreateBatch(listings, 500); err != nil {
		return nil, err
	}
	result.Created = len(listings)

	logger.Info("Listings imported", map[string]interface{}{
		"owner_id": ownerID,
		"created":  result.Created,
		"skipped":  len(result.Skipped),
	})
	return result, nil
}

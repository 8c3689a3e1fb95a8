package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryNameRequired = errors.New("category name is required")
	ErrCategoryReserved     = errors.New("\"Other\" is reserved and cannot be a category")
	ErrCategoryExists       = errors.New("category already exists")
	ErrCategoryInUse        = errors.New("category is used by existing listings")
)

type CategoryService interface {
	List() ([]model.Category, error)
	Names() ([]string, error)
	Create(ctx context.Context, name string) (*model.Category, error)
	Rename(ctx context.Context, id uint, name string) (*model.Category, error)
	Delete(ctx context.Context, id uint) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	listingRepo  repository.ListingRepository
	cache        *ListingCache
}

func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	listingRepo repository.ListingRepository,
	cache *ListingCache,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		listingRepo:  listingRepo,
		cache:        cache,
	}
}

func (s *categoryService) List() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}

func (s *categoryService) Names() ([]string, error) {
	categories, err := s.categoryRepo.FindAll()
	if err != nil {
		return nil, err
	}
	return model.CategoryNames(categories), nil
}

// checkName validates a proposed name. exceptID is the category being renamed.
func (s *categoryService) checkName(name string, exceptID uint) error {
	if name == "" {
		return ErrCategoryNameRequired
	}
	if directory.IsReservedCategoryName(name) {
		return ErrCategoryReserved
	}

	existing, err := s.categoryRepo.FindByName(name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.ID != exceptID {
		return ErrCategoryExists
	}
	return nil
}

func (s *categoryService) Create(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if err := s.checkName(name, 0); err != nil {
		return nil, err
	}

	category := &model.Category{Name: name}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	logger.Info("Category created", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
	})
	return category, nil
}

func (s *categoryService) find(id uint) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// Rename changes the category name and moves listings filed under the old
// name along with it, including their search categories.
func (s *categoryService) Rename(ctx context.Context, id uint, name string) (*model.Category, error) {
	category, err := s.find(id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := s.checkName(name, id); err != nil {
		return nil, err
	}

	oldName := category.Name
	category.Name = name
	moved, err := s.categoryRepo.Rename(category, oldName)
	if err != nil {
		category.Name = oldName
		return nil, err
	}
	s.cache.Invalidate(ctx)

	logger.Info("Category renamed", map[string]interface{}{
		"category_id":    id,
		"from":           oldName,
		"to":             name,
		"listings_moved": moved,
	})
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uint) error {
	category, err := s.find(id)
	if err != nil {
		return err
	}

	inUse, err := s.listingRepo.CountByCategory(category.Name)
	if err != nil {
		return err
	}
	if inUse > 0 {
		logger.Warn("Refusing to delete category in use", map[string]interface{}{
			"category_id": id,
			"listings":    inUse,
		})
		return ErrCategoryInUse
	}

	if err := s.categoryRepo.Delete(id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)

	logger.Info("Category deleted", map[string]interface{}{
		"category_id": id,
		"name":        category.Name,
	})
	return nil
}

package repository

import (
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(category *model.Category) error
	FindAll() ([]model.Category, error)
	FindByID(id uint) (*model.Category, error)
	FindByName(name string) (*model.Category, error)
	Rename(category *model.Category, from string) (int64, error)
	Delete(id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(category *model.Category) error {
	logger.Debug("Creating category", map[string]interface{}{
		"name": category.Name,
	})

	if err := r.db.Create(category).Error; err != nil {
		logger.Error("Failed to create category", err, map[string]interface{}{
			"name": category.Name,
		})
		return err
	}
	return nil
}

func (r *categoryRepository) FindAll() ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.Order("name ASC").Find(&categories).Error; err != nil {
		logger.Error("Failed to list categories", err, nil)
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) FindByID(id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByName looks the category up case-insensitively.
func (r *categoryRepository) FindByName(name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.Where("name_key = ?", directory.CategoryKey(name)).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Rename saves the category under its new name and moves every listing filed
// under the old name with it. Nothing is written unless both succeed.
func (r *categoryRepository) Rename(category *model.Category, from string) (int64, error) {
	var moved int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(category).Error; err != nil {
			return err
		}

		var err error
		moved, err = renameListingCategory(tx, from, category.Name)
		return err
	})
	if err != nil {
		logger.Error("Failed to rename category", err, map[string]interface{}{
			"category_id": category.ID,
			"from":        from,
			"to":          category.Name,
		})
		return 0, err
	}
	return moved, nil
}

func (r *categoryRepository) Delete(id uint) error {
	result := r.db.Delete(&model.Category{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete category", result.Error, map[string]interface{}{
			"category_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

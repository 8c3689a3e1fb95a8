package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdir-backend/internal/app/service"
	apperrors "github.com/ikkim/bizdir-backend/internal/errors"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{categoryService: categoryService}
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// List returns the canonical categories
// GET /api/v1/categories
func (ctrl *CategoryController) List(c *gin.Context) {
	categories, err := ctrl.categoryService.List()
	if err != nil {
		respondServiceError(c, err, "fetch categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// Create adds a canonical category
// POST /api/v1/admin/categories
func (ctrl *CategoryController) Create(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Category name is required")
		return
	}

	category, err := ctrl.categoryService.Create(c.Request.Context(), req.Name)
	if err != nil {
		respondServiceError(c, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// Rename changes a category name and the listings filed under it
// PUT /api/v1/admin/categories/:id
func (ctrl *CategoryController) Rename(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Category name is required")
		return
	}

	category, err := ctrl.categoryService.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		respondServiceError(c, err, "rename category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// Delete removes an unused category
// DELETE /api/v1/admin/categories/:id
func (ctrl *CategoryController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.categoryService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

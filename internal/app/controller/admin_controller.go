package controller

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/service"
	apperrors "github.com/ikkim/bizdir-backend/internal/errors"
	"github.com/ikkim/bizdir-backend/internal/middleware"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImportSize   = 10 << 20
)

type AdminController struct {
	adminService   service.AdminService
	listingService service.ListingService
}

func NewAdminController(adminService service.AdminService, listingService service.ListingService) *AdminController {
	return &AdminController{
		adminService:   adminService,
		listingService: listingService,
	}
}

type SetRoleRequest struct {
	Role model.UserRole `json:"role" binding:"required,oneof=user admin"`
}

// ListListings returns listings in one status, pending by default
// GET /api/v1/admin/listings?status=pending
func (ctrl *AdminController) ListListings(c *gin.Context) {
	status := directory.Status(c.DefaultQuery("status", string(directory.StatusPending)))

	listings, err := ctrl.adminService.ListByStatus(middleware.ActorFromContext(c), status)
	if err != nil {
		respondServiceError(c, err, "fetch listings")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
		"status":   status,
	})
}

// Approve publishes a listing and notifies its owner
// POST /api/v1/admin/listings/:id/approve
func (ctrl *AdminController) Approve(c *gin.Context) {
	ctrl.transition(c, ctrl.adminService.Approve, "Listing approved")
}

// Reject hides a listing from public surfaces
// POST /api/v1/admin/listings/:id/reject
func (ctrl *AdminController) Reject(c *gin.Context) {
	ctrl.transition(c, ctrl.adminService.Reject, "Listing rejected")
}

func (ctrl *AdminController) transition(
	c *gin.Context,
	apply func(ctx context.Context, actor directory.Actor, id uint) (*model.Listing, error),
	message string,
) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	listing, err := apply(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		respondServiceError(c, err, "change listing status")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"listing": listing,
	})
}

// UpdateListing edits any listing without changing its status
// PUT /api/v1/admin/listings/:id
func (ctrl *AdminController) UpdateListing(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input directory.ListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid listing data")
		return
	}

	listing, err := ctrl.listingService.UpdateListing(c.Request.Context(), middleware.ActorFromContext(c), id, input)
	if err != nil {
		respondServiceError(c, err, "update listing")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Listing updated",
		"listing": listing,
	})
}

// Export downloads listings as a spreadsheet
// GET /api/v1/admin/listings/export?status=approved
func (ctrl *AdminController) Export(c *gin.Context) {
	status := directory.Status(c.Query("status"))

	data, err := ctrl.adminService.ExportListings(middleware.ActorFromContext(c), status)
	if err != nil {
		respondServiceError(c, err, "export listings")
		return
	}

	name := "listings"
	if status != "" {
		name += "-" + string(status)
	}
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Import creates pending listings from an uploaded spreadsheet
// POST /api/v1/admin/listings/import (multipart field "file")
func (ctrl *AdminController) Import(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	actor := middleware.ActorFromContext(c)

	header, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "A spreadsheet file is required")
		return
	}
	if header.Size > maxImportSize {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "Spreadsheet is larger than 10 MB")
		return
	}

	file, err := header.Open()
	if err != nil {
		apperrors.InternalError(c, "Failed to read upload")
		return
	}
	defer file.Close()

	rows, err := service.ReadListingsXLSX(file)
	if err != nil {
		log.Warn("Rejected spreadsheet import", map[string]interface{}{
			"filename": header.Filename,
			"error":    err.Error(),
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, err.Error())
		return
	}

	result, err := ctrl.listingService.ImportListings(c.Request.Context(), actor.UserID, rows)
	if err != nil {
		respondServiceError(c, err, "import listings")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListUsers returns every account
// GET /api/v1/admin/users
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	users, err := ctrl.adminService.ListUsers(middleware.ActorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "fetch users")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// SetUserRole grants or revokes administrator access
// PUT /api/v1/admin/users/:id/role
func (ctrl *AdminController) SetUserRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Role must be user or admin")
		return
	}

	user, err := ctrl.adminService.SetUserRole(middleware.ActorFromContext(c), id, req.Role)
	if err != nil {
		respondServiceError(c, err, "update user role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

// DeleteUser removes an account
// DELETE /api/v1/admin/users/:id
func (ctrl *AdminController) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.adminService.DeleteUser(middleware.ActorFromContext(c), id); err != nil {
		respondServiceError(c, err, "delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

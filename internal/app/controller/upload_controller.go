package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/bizdir-backend/internal/errors"
	"github.com/ikkim/bizdir-backend/internal/middleware"
	"github.com/ikkim/bizdir-backend/internal/storage"
)

type UploadController struct {
	storage storage.ImageStorage
}

func NewUploadController(storage storage.ImageStorage) *UploadController {
	return &UploadController{
		storage: storage,
	}
}

type PresignImageRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

// PresignImage returns a direct upload URL for a listing image
// POST /api/v1/upload/image
func (ctrl *UploadController) PresignImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req PresignImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid presign request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "filename, content_type and size are required")
		return
	}

	upload, err := ctrl.storage.PresignImageUpload(c.Request.Context(), userID, req.Filename, req.ContentType, req.Size)
	switch {
	case errors.Is(err, storage.ErrUnsupportedImageType):
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, err.Error())
		return
	case errors.Is(err, storage.ErrImageTooLarge):
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, err.Error())
		return
	case err != nil:
		log.Error("Failed to presign image upload", err, map[string]interface{}{
			"user_id":      userID,
			"content_type": req.ContentType,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to prepare upload")
		return
	}

	log.Info("Presigned image upload issued", map[string]interface{}{
		"user_id": userID,
		"key":     upload.Key,
	})
	c.JSON(http.StatusOK, upload)
}

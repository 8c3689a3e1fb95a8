package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdir-backend/internal/app/service"
	apperrors "github.com/ikkim/bizdir-backend/internal/errors"
	"github.com/ikkim/bizdir-backend/internal/middleware"
)

type MessageController struct {
	messageService service.MessageService
}

func NewMessageController(messageService service.MessageService) *MessageController {
	return &MessageController{messageService: messageService}
}

// Send stores a contact message from a guest or a signed-in user
// POST /api/v1/messages
func (ctrl *MessageController) Send(c *gin.Context) {
	var input service.MessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Name, a valid email and a message are required")
		return
	}

	message, err := ctrl.messageService.Send(middleware.ActorFromContext(c), input)
	if err != nil {
		respondServiceError(c, err, "send message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent",
		"id":      message.ID,
	})
}

// List returns the contact inbox
// GET /api/v1/admin/messages?unread=true
func (ctrl *MessageController) List(c *gin.Context) {
	page, pageSize := pageParams(c)

	messages, total, err := ctrl.messageService.List(c.Query("unread") == "true", page, pageSize)
	if err != nil {
		respondServiceError(c, err, "fetch messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      messages,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// MarkRead flags a message as handled
// PATCH /api/v1/admin/messages/:id/read
func (ctrl *MessageController) MarkRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.messageService.MarkRead(id); err != nil {
		respondServiceError(c, err, "mark message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}

// Delete removes a message
// DELETE /api/v1/admin/messages/:id
func (ctrl *MessageController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.messageService.Delete(id); err != nil {
		respondServiceError(c, err, "delete message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

package service

import (
	"errors"
	"strings"

	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrMessageInvalid  = errors.New("name, email and message body are required")
)

type MessageInput struct {
	Name    string `json:"name" binding:"required,min=2,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"max=200"`
	Body    string `json:"body" binding:"required,min=10"`
}

type MessageService interface {
	Send(actor directory.Actor, input MessageInput) (*model.Message, error)
	List(unreadOnly bool, page, pageSize int) ([]model.Message, int64, error)
	MarkRead(id uint) error
	Delete(id uint) error
}

type messageService struct {
	repo repository.MessageRepository
}

func NewMessageService(repo repository.MessageRepository) MessageService {
	return &messageService{repo: repo}
}

func (s *messageService) Send(actor directory.Actor, input MessageInput) (*model.Message, error) {
	message := &model.Message{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Subject: strings.TrimSpace(input.Subject),
		Body:    strings.TrimSpace(input.Body),
	}
	if message.Name == "" || message.Email == "" || message.Body == "" {
		return nil, ErrMessageInvalid
	}
	if actor.Authenticated() {
		userID := actor.UserID
		message.UserID = &userID
	}

	if err := s.repo.Create(message); err != nil {
		return nil, err
	}

	logger.Info("Contact message received", map[string]interface{}{
		"message_id": message.ID,
		"user_id":    actor.UserID,
	})
	return message, nil
}

func (s *messageService) List(unreadOnly bool, page, pageSize int) ([]model.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.List(unreadOnly, pageSize, (page-1)*pageSize)
}

func (s *messageService) MarkRead(id uint) error {
	return mapMessageErr(s.repo.MarkRead(id))
}

func (s *messageService) Delete(id uint) error {
	return mapMessageErr(s.repo.Delete(id))
}

func mapMessageErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMessageNotFound
	}
	return err
}

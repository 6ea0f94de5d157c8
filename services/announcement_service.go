package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexora-club/membership-backend/models"
	"github.com/nexora-club/membership-backend/repositories"
)

type CreateAnnouncementInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type AnnouncementService interface {
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	CreateAnnouncement(ctx context.Context, callerID int, input CreateAnnouncementInput) (*models.Announcement, error)
	DeleteAnnouncement(ctx context.Context, caller *Claims, announcementID int) error
}

type announcementService struct {
	announcementRepo repositories.AnnouncementRepository
}

func NewAnnouncementService(announcementRepo repositories.AnnouncementRepository) AnnouncementService {
	return &announcementService{announcementRepo: announcementRepo}
}

func (s *announcementService) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	announcements, err := s.announcementRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return announcements, nil
}

func (s *announcementService) CreateAnnouncement(ctx context.Context, callerID int, input CreateAnnouncementInput) (*models.Announcement, error) {
	if input.Title == "" || input.Content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidationFailed)
	}

	announcement := &models.Announcement{
		Title:     input.Title,
		Content:   input.Content,
		CreatedBy: callerID,
	}
	if err := s.announcementRepo.Create(ctx, announcement); err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}
	return announcement, nil
}

func (s *announcementService) DeleteAnnouncement(ctx context.Context, caller *Claims, announcementID int) error {
	announcement, err := s.announcementRepo.GetByID(ctx, announcementID)
	if err != nil {
		if errors.Is(err, repositories.ErrAnnouncementNotFound) {
			return ErrAnnouncementNotFound
		}
		return fmt.Errorf("failed to get announcement %d: %w", announcementID, err)
	}

	if announcement.CreatedBy != caller.UserID && caller.Role != models.RoleAdmin {
		return ErrForbiddenOperation
	}

	if err := s.announcementRepo.Delete(ctx, announcementID); err != nil {
		if errors.Is(err, repositories.ErrAnnouncementNotFound) {
			return ErrAnnouncementNotFound
		}
		return fmt.Errorf("failed to delete announcement %d: %w", announcementID, err)
	}
	return nil
}

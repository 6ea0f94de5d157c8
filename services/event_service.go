package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexora-club/membership-backend/models"
	"github.com/nexora-club/membership-backend/repositories"
)

type CreateEventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
}

type EventService interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, callerID int, input CreateEventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, caller *Claims, eventID int) error
}

type eventService struct {
	eventRepo repositories.EventRepository
}

func NewEventService(eventRepo repositories.EventRepository) EventService {
	return &eventService{eventRepo: eventRepo}
}

func (s *eventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *eventService) CreateEvent(ctx context.Context, callerID int, input CreateEventInput) (*models.Event, error) {
	if input.Title == "" || input.Date.IsZero() {
		return nil, fmt.Errorf("%w: title and date are required", ErrValidationFailed)
	}

	event := &models.Event{
		Title:       input.Title,
		Description: input.Description,
		Date:        input.Date,
		Location:    input.Location,
		CreatedBy:   callerID,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, caller *Claims, eventID int) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to get event %d: %w", eventID, err)
	}

	if event.CreatedBy != caller.UserID && caller.Role != models.RoleAdmin {
		return ErrForbiddenOperation
	}

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event %d: %w", eventID, err)
	}
	return nil
}

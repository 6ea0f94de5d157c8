package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexora-club/membership-backend/live"
	"github.com/nexora-club/membership-backend/models"
	"github.com/nexora-club/membership-backend/repositories"
)

// TaskService manages team-scoped tasks. Callers are not required to be
// members of the team they touch; any authenticated user may mutate any
// existing team's board. Deliberate scope decision, not an oversight.
type TaskService interface {
	ListTasks(ctx context.Context, teamID int) ([]models.Task, error)
	CreateTask(ctx context.Context, callerID, teamID int, title string) (*models.Task, error)
	UpdateTaskCompletion(ctx context.Context, teamID, taskID int, isCompleted bool) (*models.Task, error)
	DeleteTask(ctx context.Context, teamID, taskID int) error
}

type taskService struct {
	taskRepo repositories.TaskRepository
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
	hub      *live.Hub
}

func NewTaskService(
	taskRepo repositories.TaskRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	hub *live.Hub,
) TaskService {
	return &taskService{
		taskRepo: taskRepo,
		teamRepo: teamRepo,
		userRepo: userRepo,
		hub:      hub,
	}
}

func (s *taskService) ListTasks(ctx context.Context, teamID int) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for team %d: %w", teamID, err)
	}
	return tasks, nil
}

func (s *taskService) CreateTask(ctx context.Context, callerID, teamID int, title string) (*models.Task, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}

	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	task := &models.Task{
		TeamID:      teamID,
		Title:       title,
		CreatedByID: callerID,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	creator, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task creator %d: %w", callerID, err)
	}
	task.CreatedBy = creator.Username

	s.hub.BroadcastTeamEvent(teamID, live.MessageTaskCreated, task)
	return task, nil
}

func (s *taskService) UpdateTaskCompletion(ctx context.Context, teamID, taskID int, isCompleted bool) (*models.Task, error) {
	task, err := s.taskRepo.UpdateCompletion(ctx, teamID, taskID, isCompleted)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task %d: %w", taskID, err)
	}

	s.hub.BroadcastTeamEvent(teamID, live.MessageTaskUpdated, task)
	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, teamID, taskID int) error {
	if err := s.taskRepo.Delete(ctx, teamID, taskID); err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task %d: %w", taskID, err)
	}

	s.hub.BroadcastTeamEvent(teamID, live.MessageTaskDeleted, map[string]int{"task_id": taskID})
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexora-club/membership-backend/live"
	"github.com/nexora-club/membership-backend/models"
	"github.com/nexora-club/membership-backend/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateTeamInput struct {
	Name        string `json:"name"`
	School      string `json:"school"`
	EventType   string `json:"event_type"`
	EventName   string `json:"event_name"`
	MemberCount int    `json:"member_count"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, callerID int, input CreateTeamInput) (*models.Team, error)
	JoinTeam(ctx context.Context, callerID, teamID int) error
	LeaveTeam(ctx context.Context, callerID, teamID int) error
	ListBySchool(ctx context.Context, school string) ([]models.Team, error)
	GetUserTeam(ctx context.Context, userID int) (*models.Team, error)
	GetTeamDetail(ctx context.Context, teamID int) (*models.Team, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
	taskRepo repositories.TaskRepository
	hub      *live.Hub
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	taskRepo repositories.TaskRepository,
	hub *live.Hub,
) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		taskRepo: taskRepo,
		hub:      hub,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, callerID int, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" || input.School == "" || input.EventType == "" || input.EventName == "" || input.MemberCount <= 0 {
		return nil, fmt.Errorf("%w: name, school, event_type, event_name and member_count are required", ErrValidationFailed)
	}

	if err := s.checkUnaffiliated(ctx, callerID); err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:        input.Name,
		School:      input.School,
		EventType:   input.EventType,
		EventName:   input.EventName,
		MemberCount: input.MemberCount,
		CreatedBy:   callerID,
	}

	if err := s.teamRepo.CreateWithCreator(ctx, team); err != nil {
		// A concurrent create/join by the same user hits the membership
		// constraint inside the transaction; nothing persists.
		if errors.Is(err, repositories.ErrMemberConflict) {
			return nil, ErrAlreadyInTeam
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	creator, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load creator %d: %w", callerID, err)
	}
	team.CreatedByUsername = creator.Username

	return team, nil
}

func (s *teamService) JoinTeam(ctx context.Context, callerID, teamID int) error {
	if err := s.checkUnaffiliated(ctx, callerID); err != nil {
		return err
	}

	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if err := s.teamRepo.AddMember(ctx, teamID, callerID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMemberConflict):
			return ErrAlreadyInTeam
		case errors.Is(err, repositories.ErrTeamNotFound):
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to add member: %w", err)
	}

	s.hub.BroadcastTeamEvent(teamID, live.MessageMemberJoined, map[string]int{"user_id": callerID})
	return nil
}

// LeaveTeam removes the caller's membership edge. When the caller is the
// team's creator the whole team is deleted instead, cascading every
// membership edge; task rows are left orphaned.
func (s *teamService) LeaveTeam(ctx context.Context, callerID, teamID int) error {
	isMember, err := s.teamRepo.IsMember(ctx, teamID, callerID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return ErrNotTeamMember
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrNotTeamMember
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if team.CreatedBy == callerID {
		if err := s.teamRepo.Delete(ctx, teamID); err != nil {
			return fmt.Errorf("failed to delete team %d: %w", teamID, err)
		}
		s.hub.BroadcastTeamEvent(teamID, live.MessageTeamDeleted, nil)
		return nil
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, callerID); err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return ErrNotTeamMember
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}
	s.hub.BroadcastTeamEvent(teamID, live.MessageMemberLeft, map[string]int{"user_id": callerID})
	return nil
}

func (s *teamService) ListBySchool(ctx context.Context, school string) ([]models.Team, error) {
	if school == "" {
		return nil, fmt.Errorf("%w: school is required", ErrValidationFailed)
	}
	teams, err := s.teamRepo.ListBySchool(ctx, school)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for school %q: %w", school, err)
	}
	return teams, nil
}

// GetUserTeam returns nil without error when the user is unaffiliated; the
// single-team invariant guarantees at most one result.
func (s *teamService) GetUserTeam(ctx context.Context, userID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get team for user %d: %w", userID, err)
	}
	return team, nil
}

// GetTeamDetail loads the team with its member roster and task list, fetched
// concurrently.
func (s *teamService) GetTeamDetail(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		members, err := s.userRepo.ListByTeamID(gctx, teamID)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		for i := range members {
			members[i].PasswordHash = ""
		}
		team.Members = members
		return nil
	})
	g.Go(func() error {
		tasks, err := s.taskRepo.ListByTeamID(gctx, teamID)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		team.Tasks = tasks
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return team, nil
}

func (s *teamService) checkUnaffiliated(ctx context.Context, userID int) error {
	_, err := s.teamRepo.GetByUserID(ctx, userID)
	if err == nil {
		return ErrAlreadyInTeam
	}
	if !errors.Is(err, repositories.ErrMembershipNotFound) {
		return fmt.Errorf("failed to check membership for user %d: %w", userID, err)
	}
	return nil
}

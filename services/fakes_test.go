package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nexora-club/membership-backend/models"
	"github.com/nexora-club/membership-backend/repositories"
)

// In-memory repository fakes. They guard state with a mutex and enforce the
// same uniqueness rules as the Postgres schema, so the concurrency tests
// exercise the real constraint-as-arbiter behavior.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User

	byTeam func(teamID int) []models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return repositories.ErrUserUsernameConflict
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return repositories.ErrUserEmailConflict
		}
	}

	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *fakeUserRepo) GetByUsernameOrEmail(_ context.Context, login string) (*models.User, error) {
	return r.find(func(u *models.User) bool {
		return strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login)
	})
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id int, upd models.ProfileUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	user.FirstName = upd.FirstName
	user.LastName = upd.LastName
	user.School = upd.School
	user.Age = upd.Age
	user.Grade = upd.Grade
	user.Address = upd.Address
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) ListByTeamID(_ context.Context, teamID int) ([]models.User, error) {
	if r.byTeam != nil {
		return r.byTeam(teamID), nil
	}
	return []models.User{}, nil
}

func (r *fakeUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if match(user) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeTeamRepo struct {
	mu      sync.Mutex
	nextID  int
	teams   map[int]*models.Team
	members map[int]int // userID -> teamID, unique per user
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		nextID:  1,
		teams:   make(map[int]*models.Team),
		members: make(map[int]int),
	}
}

func (r *fakeTeamRepo) CreateWithCreator(_ context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Membership constraint fires inside the transaction: nothing persists.
	if _, taken := r.members[team.CreatedBy]; taken {
		return repositories.ErrMemberConflict
	}

	team.ID = r.nextID
	r.nextID++
	team.CreatedAt = time.Now()
	clone := *team
	r.teams[team.ID] = &clone
	r.members[team.CreatedBy] = team.ID
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	clone := *team
	return &clone, nil
}

func (r *fakeTeamRepo) GetByUserID(_ context.Context, userID int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	teamID, ok := r.members[userID]
	if !ok {
		return nil, repositories.ErrMembershipNotFound
	}
	clone := *r.teams[teamID]
	return &clone, nil
}

func (r *fakeTeamRepo) ListBySchool(_ context.Context, school string) ([]models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	teams := make([]models.Team, 0)
	for _, team := range r.teams {
		if team.School != school {
			continue
		}
		clone := *team
		for _, teamID := range r.members {
			if teamID == team.ID {
				clone.ActualMemberCount++
			}
		}
		teams = append(teams, clone)
	}
	return teams, nil
}

func (r *fakeTeamRepo) AddMember(_ context.Context, teamID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[teamID]; !ok {
		return repositories.ErrTeamNotFound
	}
	if _, taken := r.members[userID]; taken {
		return repositories.ErrMemberConflict
	}
	r.members[userID] = teamID
	return nil
}

func (r *fakeTeamRepo) RemoveMember(_ context.Context, teamID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[userID] != teamID {
		return repositories.ErrMembershipNotFound
	}
	delete(r.members, userID)
	return nil
}

func (r *fakeTeamRepo) IsMember(_ context.Context, teamID, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[userID] == teamID, nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	// Cascade the membership edges, as the FK does.
	for userID, teamID := range r.members {
		if teamID == id {
			delete(r.members, userID)
		}
	}
	return nil
}

func (r *fakeTeamRepo) memberCount(teamID int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, id := range r.members {
		if id == teamID {
			count++
		}
	}
	return count
}

type fakeTaskRepo struct {
	mu     sync.Mutex
	nextID int
	tasks  map[int]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{nextID: 1, tasks: make(map[int]*models.Task)}
}

func (r *fakeTaskRepo) ListByTeamID(_ context.Context, teamID int) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := make([]models.Task, 0)
	for _, task := range r.tasks {
		if task.TeamID == teamID {
			tasks = append(tasks, *task)
		}
	}
	return tasks, nil
}

func (r *fakeTaskRepo) Create(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = r.nextID
	r.nextID++
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) UpdateCompletion(_ context.Context, teamID, taskID int, isCompleted bool) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok || task.TeamID != teamID {
		return nil, repositories.ErrTaskNotFound
	}
	task.IsCompleted = isCompleted
	task.UpdatedAt = time.Now()
	clone := *task
	return &clone, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, teamID, taskID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok || task.TeamID != teamID {
		return repositories.ErrTaskNotFound
	}
	delete(r.tasks, taskID)
	return nil
}

// fakeVerifier is a scripted federation oracle.
type fakeVerifier struct {
	identity *FederatedIdentity
	err      error
	calls    int
}

func (v *fakeVerifier) Verify(_ context.Context, _ string) (*FederatedIdentity, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/nexora-club/membership-backend/models"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrMembershipNotFound = errors.New("team membership not found")
	// ErrMemberConflict signals a violation of the one-team-per-user
	// constraint, the store-level arbiter for concurrent create/join calls.
	ErrMemberConflict = errors.New("user already has a team membership")
)

type TeamRepository interface {
	CreateWithCreator(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	GetByUserID(ctx context.Context, userID int) (*models.Team, error)
	ListBySchool(ctx context.Context, school string) ([]models.Team, error)
	AddMember(ctx context.Context, teamID, userID int) error
	RemoveMember(ctx context.Context, teamID, userID int) error
	IsMember(ctx context.Context, teamID, userID int) (bool, error)
	Delete(ctx context.Context, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

// CreateWithCreator inserts the team row and the creator's membership edge in
// a single transaction. Either both persist or neither does.
func (r *postgresTeamRepository) CreateWithCreator(ctx context.Context, team *models.Team) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertTeam := `
		INSERT INTO teams (name, school, event_type, event_name, member_count, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, insertTeam,
		team.Name,
		team.School,
		team.EventType,
		team.EventName,
		team.MemberCount,
		team.CreatedBy,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}

	if err := r.insertMemberEdge(ctx, tx, team.ID, team.CreatedBy); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresTeamRepository) insertMemberEdge(ctx context.Context, exec SQLExecutor, teamID, userID int) error {
	query := `INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`
	if _, err := exec.ExecContext(ctx, query, teamID, userID); err != nil {
		return mapMemberError(err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT t.id, t.name, t.school, t.event_type, t.event_name, t.member_count,
		       t.created_by, u.username, t.created_at
		FROM teams t
		JOIN users u ON t.created_by = u.id
		WHERE t.id = $1`

	return r.scanTeam(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) GetByUserID(ctx context.Context, userID int) (*models.Team, error) {
	query := `
		SELECT t.id, t.name, t.school, t.event_type, t.event_name, t.member_count,
		       t.created_by, u.username, t.created_at
		FROM teams t
		JOIN team_members tm ON tm.team_id = t.id
		JOIN users u ON t.created_by = u.id
		WHERE tm.user_id = $1
		LIMIT 1`

	team, err := r.scanTeam(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return team, nil
}

// ListBySchool returns teams for an exact school match, newest first, each
// annotated with the creator username and the live membership-edge count.
func (r *postgresTeamRepository) ListBySchool(ctx context.Context, school string) ([]models.Team, error) {
	query := `
		SELECT t.id, t.name, t.school, t.event_type, t.event_name, t.member_count,
		       t.created_by, u.username, t.created_at,
		       COUNT(tm.user_id) AS actual_member_count
		FROM teams t
		JOIN users u ON t.created_by = u.id
		LEFT JOIN team_members tm ON tm.team_id = t.id
		WHERE t.school = $1
		GROUP BY t.id, u.username
		ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, school)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var team models.Team
		scanErr := rows.Scan(
			&team.ID,
			&team.Name,
			&team.School,
			&team.EventType,
			&team.EventName,
			&team.MemberCount,
			&team.CreatedBy,
			&team.CreatedByUsername,
			&team.CreatedAt,
			&team.ActualMemberCount,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, teamID, userID int) error {
	return r.insertMemberEdge(ctx, r.db, teamID, userID)
}

func (r *postgresTeamRepository) RemoveMember(ctx context.Context, teamID, userID int) error {
	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMembershipNotFound)
}

func (r *postgresTeamRepository) IsMember(ctx context.Context, teamID, userID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, teamID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Delete removes the team row. Membership edges go with it via the
// ON DELETE CASCADE on team_members; task rows are left behind on purpose.
func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM teams WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) scanTeam(row *sql.Row) (*models.Team, error) {
	var team models.Team
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.School,
		&team.EventType,
		&team.EventName,
		&team.MemberCount,
		&team.CreatedBy,
		&team.CreatedByUsername,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

func mapMemberError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "team_members_user_id_key" {
				return ErrMemberConflict
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "team_members_team_id_fkey" {
				return ErrTeamNotFound
			}
		}
	}
	return err
}

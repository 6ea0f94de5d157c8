package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nexora-club/membership-backend/models"
)

var ErrTaskNotFound = errors.New("task not found")

type TaskRepository interface {
	ListByTeamID(ctx context.Context, teamID int) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	UpdateCompletion(ctx context.Context, teamID, taskID int, isCompleted bool) (*models.Task, error)
	Delete(ctx context.Context, teamID, taskID int) error
}

type postgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTaskRepository(db *sql.DB) TaskRepository {
	return &postgresTaskRepository{db: db}
}

func (r *postgresTaskRepository) ListByTeamID(ctx context.Context, teamID int) ([]models.Task, error) {
	query := `
		SELECT t.id, t.team_id, t.title, t.is_completed, t.created_by_id,
		       u.username, t.created_at, t.updated_at
		FROM team_tasks t
		JOIN users u ON t.created_by_id = u.id
		WHERE t.team_id = $1
		ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		var task models.Task
		scanErr := rows.Scan(
			&task.ID,
			&task.TeamID,
			&task.Title,
			&task.IsCompleted,
			&task.CreatedByID,
			&task.CreatedBy,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *postgresTaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO team_tasks (team_id, title, created_by_id)
		VALUES ($1, $2, $3)
		RETURNING id, is_completed, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		task.TeamID,
		task.Title,
		task.CreatedByID,
	).Scan(&task.ID, &task.IsCompleted, &task.CreatedAt, &task.UpdatedAt)
}

// UpdateCompletion flips the completion flag for a task scoped to the given
// team. A task id that exists under another team is treated as not found.
func (r *postgresTaskRepository) UpdateCompletion(ctx context.Context, teamID, taskID int, isCompleted bool) (*models.Task, error) {
	query := `
		UPDATE team_tasks
		SET is_completed = $1, updated_at = now()
		WHERE id = $2 AND team_id = $3
		RETURNING id, team_id, title, is_completed, created_by_id, created_at, updated_at`

	var task models.Task
	err := r.db.QueryRowContext(ctx, query, isCompleted, taskID, teamID).Scan(
		&task.ID,
		&task.TeamID,
		&task.Title,
		&task.IsCompleted,
		&task.CreatedByID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *postgresTaskRepository) Delete(ctx context.Context, teamID, taskID int) error {
	query := `DELETE FROM team_tasks WHERE id = $1 AND team_id = $2`
	result, err := r.db.ExecContext(ctx, query, taskID, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTaskNotFound)
}

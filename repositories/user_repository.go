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
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("user email conflict")
	ErrUserUsernameConflict = errors.New("user username conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int, upd models.ProfileUpdate) (*models.User, error)
	ListByTeamID(ctx context.Context, teamID int) ([]models.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, first_name, last_name, school, age, grade, address, created_at`

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.FirstName,
		user.LastName,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_username_lower_key":
				return ErrUserUsernameConflict
			case "users_email_lower_key":
				return ErrUserEmailConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1)`
	return r.scanUser(ctx, query, username)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanUser(ctx, query, email)
}

func (r *postgresUserRepository) GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1) OR lower(email) = lower($1)`
	return r.scanUser(ctx, query, login)
}

// UpdateProfile replaces every mutable profile field. Nil fields are written
// as NULL, matching the full-replace semantics of the profile endpoint.
func (r *postgresUserRepository) UpdateProfile(ctx context.Context, id int, upd models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users SET
			first_name = $1,
			last_name = $2,
			school = $3,
			age = $4,
			grade = $5,
			address = $6
		WHERE id = $7
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		upd.FirstName,
		upd.LastName,
		upd.School,
		upd.Age,
		upd.Grade,
		upd.Address,
		id,
	)

	user, err := scanUserRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) ListByTeamID(ctx context.Context, teamID int) ([]models.User, error) {
	query := `
		SELECT ` + qualifiedUserColumns("u") + `
		FROM users u
		JOIN team_members tm ON tm.user_id = u.id
		WHERE tm.team_id = $1
		ORDER BY u.username ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, scanErr := scanUserRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func qualifiedUserColumns(alias string) string {
	return alias + `.id, ` + alias + `.username, ` + alias + `.email, ` + alias + `.password_hash, ` +
		alias + `.role, ` + alias + `.first_name, ` + alias + `.last_name, ` + alias + `.school, ` +
		alias + `.age, ` + alias + `.grade, ` + alias + `.address, ` + alias + `.created_at`
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var passwordHash sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&passwordHash,
		&user.Role,
		&user.FirstName,
		&user.LastName,
		&user.School,
		&user.Age,
		&user.Grade,
		&user.Address,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = passwordHash.String
	return user, nil
}

func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user, err := scanUserRow(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

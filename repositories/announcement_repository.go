package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nexora-club/membership-backend/models"
)

var ErrAnnouncementNotFound = errors.New("announcement not found")

type AnnouncementRepository interface {
	List(ctx context.Context) ([]models.Announcement, error)
	GetByID(ctx context.Context, id int) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id int) error
}

type postgresAnnouncementRepository struct {
	db *sql.DB
}

func NewPostgresAnnouncementRepository(db *sql.DB) AnnouncementRepository {
	return &postgresAnnouncementRepository{db: db}
}

func (r *postgresAnnouncementRepository) List(ctx context.Context) ([]models.Announcement, error) {
	query := `
		SELECT a.id, a.title, a.content, a.created_by, u.username, a.created_at
		FROM announcements a
		JOIN users u ON a.created_by = u.id
		ORDER BY a.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	announcements := make([]models.Announcement, 0)
	for rows.Next() {
		var a models.Announcement
		scanErr := rows.Scan(&a.ID, &a.Title, &a.Content, &a.CreatedBy, &a.CreatedByUsername, &a.CreatedAt)
		if scanErr != nil {
			return nil, scanErr
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

func (r *postgresAnnouncementRepository) GetByID(ctx context.Context, id int) (*models.Announcement, error) {
	query := `SELECT id, title, content, created_by, created_at FROM announcements WHERE id = $1`

	var a models.Announcement
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Title, &a.Content, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *postgresAnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	query := `
		INSERT INTO announcements (title, content, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		announcement.Title,
		announcement.Content,
		announcement.CreatedBy,
	).Scan(&announcement.ID, &announcement.CreatedAt)
}

func (r *postgresAnnouncementRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrAnnouncementNotFound)
}

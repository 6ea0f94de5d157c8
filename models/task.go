package models

import "time"

type Task struct {
	ID          int       `json:"id" db:"id"`
	TeamID      int       `json:"team_id" db:"team_id"`
	Title       string    `json:"title" db:"title"`
	IsCompleted bool      `json:"is_completed" db:"is_completed"`
	CreatedByID int       `json:"created_by_id" db:"created_by_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	CreatedBy string `json:"created_by,omitempty" db:"-"`
}

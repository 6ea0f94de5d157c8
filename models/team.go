package models

import "time"

type Team struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	School      string    `json:"school" db:"school"`
	EventType   string    `json:"event_type" db:"event_type"`
	EventName   string    `json:"event_name" db:"event_name"`
	MemberCount int       `json:"member_count" db:"member_count"`
	CreatedBy   int       `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	CreatedByUsername string `json:"created_by_username,omitempty" db:"-"`

	// ActualMemberCount is the live membership-edge count, as opposed to the
	// stored target MemberCount. Populated by school listings only.
	ActualMemberCount int `json:"actual_member_count,omitempty" db:"-"`

	Members []User `json:"members,omitempty" db:"-"`
	Tasks   []Task `json:"tasks,omitempty" db:"-"`
}

// TeamMember is a membership edge. A user holds at most one edge system-wide,
// enforced by the unique constraint on team_members.user_id.
type TeamMember struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

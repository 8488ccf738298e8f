package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MembershipActive    = "active"
	MembershipExpired   = "expired"
	MembershipSuspended = "suspended"
	MembershipCancelled = "cancelled"
)

const (
	SessionUpcoming = "upcoming"
	SessionFinished = "finished"
	SessionCanceled = "canceled"
)

const (
	SessionModePersonal = "personal"
	SessionModeGroup    = "group"
)

const (
	ReservationActive    = "active"
	ReservationCancelled = "cancelled"
)

type Membership struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Status        string     `json:"status"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	CancelledDate *time.Time `json:"cancelled_date"`
}

type Checkin struct {
	ID        int64     `json:"id"`
	Reference uuid.UUID `json:"reference"`
	UserID    int64     `json:"user_id"`
	CheckinAt time.Time `json:"checkin_at"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	TrainerID    int64     `json:"trainer_id"`
	TrainingType string    `json:"training_type"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Mode         string    `json:"mode"`
	MaxCapacity  int       `json:"max_capacity"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Capacity returns the number of seats the session offers. Personal
// sessions always offer exactly one.
func (s *Session) Capacity() int {
	if s.Mode == SessionModePersonal {
		return 1
	}
	return s.MaxCapacity
}

type Reservation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	SessionID int64     `json:"session_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

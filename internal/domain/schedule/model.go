package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Schedule maps to the schedules table. The pattern field is an opaque
// recurrence expression (rrule, cron or free text); the server stores it
// without interpreting it. The (patient, medication, start_date) triple
// is unique.
type Schedule struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	MedicationID uuid.UUID  `db:"medication_id" json:"medication_id"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	Pattern      string     `db:"pattern" json:"pattern"`
	DoseAmount   string     `db:"dose_amount" json:"dose_amount"`
	CreatedBy    *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy    *uuid.UUID `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// IntakeStatus is the state of one planned dose. planned is the only
// non-terminal state.
type IntakeStatus string

const (
	IntakePlanned IntakeStatus = "planned"
	IntakeTaken   IntakeStatus = "taken"
	IntakeMissed  IntakeStatus = "missed"
	IntakeSkipped IntakeStatus = "skipped"
)

func (s IntakeStatus) Valid() bool {
	switch s {
	case IntakePlanned, IntakeTaken, IntakeMissed, IntakeSkipped:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s IntakeStatus) Terminal() bool {
	return s == IntakeTaken || s == IntakeMissed || s == IntakeSkipped
}

// Intake maps to the intakes table. planned_at is stored in UTC.
type Intake struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	ScheduleID uuid.UUID    `db:"schedule_id" json:"schedule_id"`
	PlannedAt  time.Time    `db:"planned_at" json:"planned_at"`
	Status     IntakeStatus `db:"status" json:"status"`
	TakenAt    *time.Time   `db:"taken_at" json:"taken_at,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// Snapshot echoes the key fields of a deleted schedule.
type Snapshot struct {
	ID             uuid.UUID `json:"id"`
	PatientName    string    `json:"patient_name"`
	MedicationName string    `json:"medication_name"`
	DoseAmount     string    `json:"dose_amount"`
	Pattern        string    `json:"pattern"`
}

// Detail is a schedule plus the caller's modification right, so the API
// layer does not re-query permissions.
type Detail struct {
	Schedule  *Schedule `json:"schedule"`
	CanModify bool      `json:"can_modify"`
}

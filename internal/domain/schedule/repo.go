package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence boundary for schedules and their intakes.
type Repository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsTriple(ctx context.Context, patientID, medicationID uuid.UUID, startDate time.Time) (bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error)

	CreateIntake(ctx context.Context, in *Intake) error
	GetIntakeByID(ctx context.Context, id uuid.UUID) (*Intake, error)
	UpdateIntake(ctx context.Context, in *Intake) error
	ListIntakesBySchedule(ctx context.Context, scheduleID uuid.UUID, limit, offset int) ([]*Intake, int, error)
}

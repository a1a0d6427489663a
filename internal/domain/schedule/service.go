package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
	"github.com/juanandresGH21/appmedic-api/internal/domain/medication"
	"github.com/juanandresGH21/appmedic-api/internal/domain/user"
	"github.com/juanandresGH21/appmedic-api/internal/platform/db"
)

// Authorizer is the permission surface the lifecycle needs. Satisfied by
// the caregiver package's authorizer.
type Authorizer interface {
	CanViewPatientData(ctx context.Context, actorID, patientID uuid.UUID) (bool, error)
	CanManageSchedules(ctx context.Context, actorID, patientID uuid.UUID) (bool, error)
}

type Service struct {
	schedules Repository
	meds      medication.Repository
	users     user.Repository
	authz     Authorizer
	pool      *pgxpool.Pool
}

func NewService(schedules Repository, meds medication.Repository, users user.Repository, authz Authorizer, pool *pgxpool.Pool) *Service {
	return &Service{schedules: schedules, meds: meds, users: users, authz: authz, pool: pool}
}

// CreateInput is the payload for schedule creation. CreatorID is optional;
// when present the creator's management right over the patient is enforced.
type CreateInput struct {
	PatientID    uuid.UUID
	MedicationID uuid.UUID
	StartDate    time.Time
	EndDate      *time.Time
	Pattern      string
	DoseAmount   string
	CreatorID    *uuid.UUID
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Create adds a schedule for a patient. The (patient, medication,
// start_date) triple must be unique; the check and insert run in one
// transaction so concurrent duplicates cannot slip through.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Schedule, error) {
	if in.Pattern == "" {
		return nil, apperr.Validation("pattern is required")
	}
	if in.DoseAmount == "" {
		return nil, apperr.Validation("dose_amount is required")
	}

	var created *Schedule
	err := db.InTx(ctx, s.pool, func(ctx context.Context) error {
		patient, err := s.users.GetByID(ctx, in.PatientID)
		if err != nil {
			return err
		}
		if patient.Role != user.RolePatient {
			return apperr.Validation("schedules belong to patients")
		}
		if _, err := s.meds.GetByID(ctx, in.MedicationID); err != nil {
			return err
		}

		if in.CreatorID != nil {
			allowed, err := s.authz.CanManageSchedules(ctx, *in.CreatorID, in.PatientID)
			if err != nil {
				return err
			}
			if !allowed {
				return apperr.PermissionDenied("you cannot create schedules for this patient")
			}
		}

		start := dateOnly(in.StartDate)
		exists, err := s.schedules.ExistsTriple(ctx, in.PatientID, in.MedicationID, start)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Duplicate("a schedule for this patient, medication and start date already exists")
		}

		var end *time.Time
		if in.EndDate != nil {
			e := dateOnly(*in.EndDate)
			if e.Before(start) {
				return apperr.Validation("end_date must not be before start_date")
			}
			end = &e
		}
		created = &Schedule{
			PatientID:    in.PatientID,
			MedicationID: in.MedicationID,
			StartDate:    start,
			EndDate:      end,
			Pattern:      in.Pattern,
			DoseAmount:   in.DoseAmount,
			CreatedBy:    in.CreatorID,
		}
		return s.schedules.Create(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies a fixed allow-list of fields to a schedule. Keys outside
// the allow-list are ignored without error; this mirrors long-standing
// client behavior and changing it would break existing callers.
func (s *Service) Update(ctx context.Context, scheduleID, actorID uuid.UUID, fields map[string]interface{}) (*Schedule, error) {
	var updated *Schedule
	err := db.InTx(ctx, s.pool, func(ctx context.Context) error {
		sched, err := s.schedules.GetByID(ctx, scheduleID)
		if err != nil {
			return err
		}
		allowed, err := s.authz.CanManageSchedules(ctx, actorID, sched.PatientID)
		if err != nil {
			return err
		}
		if !allowed {
			return apperr.PermissionDenied("you cannot modify this schedule")
		}

		for key, raw := range fields {
			switch key {
			case "start_date":
				t, err := parseDate(raw)
				if err != nil {
					return err
				}
				sched.StartDate = t
			case "end_date":
				if raw == nil {
					sched.EndDate = nil
					continue
				}
				t, err := parseDate(raw)
				if err != nil {
					return err
				}
				sched.EndDate = &t
			case "pattern":
				v, ok := raw.(string)
				if !ok || v == "" {
					return apperr.Validation("pattern must be a non-empty string")
				}
				sched.Pattern = v
			case "dose_amount":
				v, ok := raw.(string)
				if !ok || v == "" {
					return apperr.Validation("dose_amount must be a non-empty string")
				}
				sched.DoseAmount = v
			case "medication_id":
				v, ok := raw.(string)
				if !ok {
					return apperr.Validation("medication_id must be a string")
				}
				medID, err := uuid.Parse(v)
				if err != nil {
					return apperr.Validation("medication_id is not a valid id")
				}
				if _, err := s.meds.GetByID(ctx, medID); err != nil {
					return err
				}
				sched.MedicationID = medID
			}
		}

		if sched.EndDate != nil && sched.EndDate.Before(sched.StartDate) {
			return apperr.Validation("end_date must not be before start_date")
		}

		sched.UpdatedBy = &actorID
		if err := s.schedules.Update(ctx, sched); err != nil {
			return err
		}
		updated = sched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func parseDate(raw interface{}) (time.Time, error) {
	switch v := raw.(type) {
	case string:
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, apperr.Validationf("invalid date %q, expected YYYY-MM-DD", v)
		}
		return t, nil
	case time.Time:
		return dateOnly(v), nil
	}
	return time.Time{}, apperr.Validation("invalid date value")
}

// Delete removes a schedule and returns a snapshot of what was removed.
func (s *Service) Delete(ctx context.Context, scheduleID, actorID uuid.UUID) (*Snapshot, error) {
	var snap *Snapshot
	err := db.InTx(ctx, s.pool, func(ctx context.Context) error {
		sched, err := s.schedules.GetByID(ctx, scheduleID)
		if err != nil {
			return err
		}
		allowed, err := s.authz.CanManageSchedules(ctx, actorID, sched.PatientID)
		if err != nil {
			return err
		}
		if !allowed {
			return apperr.PermissionDenied("you cannot delete this schedule")
		}

		patient, err := s.users.GetByID(ctx, sched.PatientID)
		if err != nil {
			return err
		}
		med, err := s.meds.GetByID(ctx, sched.MedicationID)
		if err != nil {
			return err
		}

		snap = &Snapshot{
			ID:             sched.ID,
			PatientName:    patient.Name,
			MedicationName: med.Name,
			DoseAmount:     sched.DoseAmount,
			Pattern:        sched.Pattern,
		}
		return s.schedules.Delete(ctx, sched.ID)
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Get returns a schedule together with the caller's modification right.
func (s *Service) Get(ctx context.Context, scheduleID, actorID uuid.UUID) (*Detail, error) {
	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	canView, err := s.authz.CanViewPatientData(ctx, actorID, sched.PatientID)
	if err != nil {
		return nil, err
	}
	if !canView {
		return nil, apperr.PermissionDenied("you cannot view this schedule")
	}
	canModify, err := s.authz.CanManageSchedules(ctx, actorID, sched.PatientID)
	if err != nil {
		return nil, err
	}
	return &Detail{Schedule: sched, CanModify: canModify}, nil
}

// ListByPatient returns a patient's schedules for any actor allowed to view
// the patient.
func (s *Service) ListByPatient(ctx context.Context, patientID, actorID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	if _, err := s.users.GetByID(ctx, patientID); err != nil {
		return nil, 0, err
	}
	allowed, err := s.authz.CanViewPatientData(ctx, actorID, patientID)
	if err != nil {
		return nil, 0, err
	}
	if !allowed {
		return nil, 0, apperr.PermissionDenied("you do not have access to this patient")
	}
	return s.schedules.ListByPatient(ctx, patientID, limit, offset)
}

// AddIntake plans one dose occurrence under a schedule.
func (s *Service) AddIntake(ctx context.Context, scheduleID, actorID uuid.UUID, plannedAt time.Time) (*Intake, error) {
	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.authz.CanManageSchedules(ctx, actorID, sched.PatientID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.PermissionDenied("you cannot add intakes to this schedule")
	}

	in := &Intake{
		ScheduleID: sched.ID,
		PlannedAt:  plannedAt.UTC(),
		Status:     IntakePlanned,
	}
	if err := s.schedules.CreateIntake(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// MarkIntake resolves a planned intake to one of the terminal states.
// Terminal intakes cannot be re-resolved.
func (s *Service) MarkIntake(ctx context.Context, intakeID, actorID uuid.UUID, status IntakeStatus) (*Intake, error) {
	if !status.Valid() || status == IntakePlanned {
		return nil, apperr.Validationf("cannot mark an intake as %q", status)
	}

	var marked *Intake
	err := db.InTx(ctx, s.pool, func(ctx context.Context) error {
		in, err := s.schedules.GetIntakeByID(ctx, intakeID)
		if err != nil {
			return err
		}
		sched, err := s.schedules.GetByID(ctx, in.ScheduleID)
		if err != nil {
			return err
		}
		allowed, err := s.authz.CanManageSchedules(ctx, actorID, sched.PatientID)
		if err != nil {
			return err
		}
		if !allowed {
			return apperr.PermissionDenied("you cannot update this intake")
		}
		if in.Status.Terminal() {
			return apperr.Validation("intake is already resolved")
		}

		in.Status = status
		if status == IntakeTaken {
			now := time.Now().UTC()
			in.TakenAt = &now
		}
		if err := s.schedules.UpdateIntake(ctx, in); err != nil {
			return err
		}
		marked = in
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marked, nil
}

// ListIntakes returns the intakes of a schedule for any actor allowed to
// view the patient.
func (s *Service) ListIntakes(ctx context.Context, scheduleID, actorID uuid.UUID, limit, offset int) ([]*Intake, int, error) {
	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, 0, err
	}
	allowed, err := s.authz.CanViewPatientData(ctx, actorID, sched.PatientID)
	if err != nil {
		return nil, 0, err
	}
	if !allowed {
		return nil, 0, apperr.PermissionDenied("you cannot view this schedule")
	}
	return s.schedules.ListIntakesBySchedule(ctx, scheduleID, limit, offset)
}

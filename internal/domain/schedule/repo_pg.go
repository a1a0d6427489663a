package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
	"github.com/juanandresGH21/appmedic-api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &scheduleRepoPG{pool: pool}
}

func (r *scheduleRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const scheduleCols = `id, patient_id, medication_id, start_date, end_date, pattern, dose_amount,
	created_by, updated_by, created_at, updated_at`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.PatientID, &s.MedicationID, &s.StartDate, &s.EndDate,
		&s.Pattern, &s.DoseAmount, &s.CreatedBy, &s.UpdatedBy, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("schedule not found")
	}
	return &s, err
}

func (r *scheduleRepoPG) Create(ctx context.Context, s *Schedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO schedules (id, patient_id, medication_id, start_date, end_date, pattern, dose_amount, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.PatientID, s.MedicationID, s.StartDate, s.EndDate, s.Pattern, s.DoseAmount, s.CreatedBy)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Duplicate("a schedule for this patient, medication and start date already exists")
	}
	return err
}

func (r *scheduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return scanSchedule(r.conn(ctx).QueryRow(ctx, `SELECT `+scheduleCols+` FROM schedules WHERE id = $1`, id))
}

func (r *scheduleRepoPG) Update(ctx context.Context, s *Schedule) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE schedules SET medication_id=$2, start_date=$3, end_date=$4, pattern=$5,
			dose_amount=$6, updated_by=$7, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.MedicationID, s.StartDate, s.EndDate, s.Pattern, s.DoseAmount, s.UpdatedBy)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Duplicate("a schedule for this patient, medication and start date already exists")
	}
	return err
}

func (r *scheduleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	return err
}

func (r *scheduleRepoPG) ExistsTriple(ctx context.Context, patientID, medicationID uuid.UUID, startDate time.Time) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM schedules
			WHERE patient_id = $1 AND medication_id = $2 AND start_date = $3
		)`, patientID, medicationID, startDate).Scan(&exists)
	return exists, err
}

func (r *scheduleRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM schedules WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+scheduleCols+` FROM schedules WHERE patient_id = $1 ORDER BY start_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(&s.ID, &s.PatientID, &s.MedicationID, &s.StartDate, &s.EndDate,
			&s.Pattern, &s.DoseAmount, &s.CreatedBy, &s.UpdatedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &s)
	}
	return items, total, nil
}

// -- Intakes --

const intakeCols = `id, schedule_id, planned_at, status, taken_at, created_at, updated_at`

func scanIntake(row pgx.Row) (*Intake, error) {
	var in Intake
	err := row.Scan(&in.ID, &in.ScheduleID, &in.PlannedAt, &in.Status, &in.TakenAt,
		&in.CreatedAt, &in.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("intake not found")
	}
	return &in, err
}

func (r *scheduleRepoPG) CreateIntake(ctx context.Context, in *Intake) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO intakes (id, schedule_id, planned_at, status, taken_at)
		VALUES ($1,$2,$3,$4,$5)`,
		in.ID, in.ScheduleID, in.PlannedAt, in.Status, in.TakenAt)
	return err
}

func (r *scheduleRepoPG) GetIntakeByID(ctx context.Context, id uuid.UUID) (*Intake, error) {
	return scanIntake(r.conn(ctx).QueryRow(ctx, `SELECT `+intakeCols+` FROM intakes WHERE id = $1`, id))
}

func (r *scheduleRepoPG) UpdateIntake(ctx context.Context, in *Intake) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE intakes SET status=$2, taken_at=$3, updated_at=NOW() WHERE id = $1`,
		in.ID, in.Status, in.TakenAt)
	return err
}

func (r *scheduleRepoPG) ListIntakesBySchedule(ctx context.Context, scheduleID uuid.UUID, limit, offset int) ([]*Intake, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM intakes WHERE schedule_id = $1`, scheduleID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+intakeCols+` FROM intakes WHERE schedule_id = $1 ORDER BY planned_at ASC LIMIT $2 OFFSET $3`,
		scheduleID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Intake
	for rows.Next() {
		var in Intake
		if err := rows.Scan(&in.ID, &in.ScheduleID, &in.PlannedAt, &in.Status, &in.TakenAt,
			&in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &in)
	}
	return items, total, nil
}

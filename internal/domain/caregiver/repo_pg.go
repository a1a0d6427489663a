package caregiver

import (
	"context"
	"errors"

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

type relationRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &relationRepoPG{pool: pool}
}

func (r *relationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// -- Doctor relations --

const doctorRelCols = `id, doctor_id, patient_id, specialty, notes, active, created_at, updated_at`

func scanDoctorRel(row pgx.Row) (*DoctorPatientRelation, error) {
	var rel DoctorPatientRelation
	err := row.Scan(&rel.ID, &rel.DoctorID, &rel.PatientID, &rel.Specialty, &rel.Notes,
		&rel.Active, &rel.CreatedAt, &rel.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("doctor relation not found")
	}
	return &rel, err
}

func (r *relationRepoPG) CreateDoctorRelation(ctx context.Context, rel *DoctorPatientRelation) error {
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_patient_relations (id, doctor_id, patient_id, specialty, notes, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		rel.ID, rel.DoctorID, rel.PatientID, rel.Specialty, rel.Notes, rel.Active)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Duplicate("doctor is already assigned to this patient")
	}
	return err
}

func (r *relationRepoPG) GetDoctorRelation(ctx context.Context, doctorID, patientID uuid.UUID) (*DoctorPatientRelation, error) {
	return scanDoctorRel(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorRelCols+` FROM doctor_patient_relations WHERE doctor_id = $1 AND patient_id = $2`,
		doctorID, patientID))
}

func (r *relationRepoPG) DeleteDoctorRelation(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor_patient_relations WHERE id = $1`, id)
	return err
}

// CountDoctors locks the counted rows so a concurrent removal on the same
// patient serializes against this transaction.
func (r *relationRepoPG) CountDoctors(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT id FROM doctor_patient_relations
			WHERE patient_id = $1 AND active
			FOR UPDATE
		) locked`, patientID).Scan(&n)
	return n, err
}

func (r *relationRepoPG) ListDoctorsByPatient(ctx context.Context, patientID uuid.UUID) ([]*DoctorPatientRelation, error) {
	return r.listDoctorRels(ctx,
		`SELECT `+doctorRelCols+` FROM doctor_patient_relations WHERE patient_id = $1 ORDER BY created_at ASC`, patientID)
}

func (r *relationRepoPG) ListPatientsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*DoctorPatientRelation, error) {
	return r.listDoctorRels(ctx,
		`SELECT `+doctorRelCols+` FROM doctor_patient_relations WHERE doctor_id = $1 ORDER BY created_at ASC`, doctorID)
}

func (r *relationRepoPG) listDoctorRels(ctx context.Context, sql string, arg interface{}) ([]*DoctorPatientRelation, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rels []*DoctorPatientRelation
	for rows.Next() {
		var rel DoctorPatientRelation
		if err := rows.Scan(&rel.ID, &rel.DoctorID, &rel.PatientID, &rel.Specialty, &rel.Notes,
			&rel.Active, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
			return nil, err
		}
		rels = append(rels, &rel)
	}
	return rels, nil
}

// -- Family relations --

const familyRelCols = `id, family_id, patient_id, relationship, can_manage_medications,
	can_view_medical_data, emergency_contact, active, created_at, updated_at`

func scanFamilyRel(row pgx.Row) (*FamilyPatientRelation, error) {
	var rel FamilyPatientRelation
	err := row.Scan(&rel.ID, &rel.FamilyID, &rel.PatientID, &rel.Relationship,
		&rel.CanManageMedications, &rel.CanViewMedicalData, &rel.EmergencyContact,
		&rel.Active, &rel.CreatedAt, &rel.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("family relation not found")
	}
	return &rel, err
}

func (r *relationRepoPG) CreateFamilyRelation(ctx context.Context, rel *FamilyPatientRelation) error {
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO family_patient_relations
			(id, family_id, patient_id, relationship, can_manage_medications, can_view_medical_data, emergency_contact, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rel.ID, rel.FamilyID, rel.PatientID, rel.Relationship,
		rel.CanManageMedications, rel.CanViewMedicalData, rel.EmergencyContact, rel.Active)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Duplicate("family member is already linked to this patient")
	}
	return err
}

func (r *relationRepoPG) GetFamilyRelation(ctx context.Context, familyID, patientID uuid.UUID) (*FamilyPatientRelation, error) {
	return scanFamilyRel(r.conn(ctx).QueryRow(ctx,
		`SELECT `+familyRelCols+` FROM family_patient_relations WHERE family_id = $1 AND patient_id = $2`,
		familyID, patientID))
}

func (r *relationRepoPG) DeleteFamilyRelation(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM family_patient_relations WHERE id = $1`, id)
	return err
}

func (r *relationRepoPG) ListFamilyByPatient(ctx context.Context, patientID uuid.UUID) ([]*FamilyPatientRelation, error) {
	return r.listFamilyRels(ctx,
		`SELECT `+familyRelCols+` FROM family_patient_relations WHERE patient_id = $1 ORDER BY created_at ASC`, patientID)
}

func (r *relationRepoPG) ListPatientsByFamily(ctx context.Context, familyID uuid.UUID) ([]*FamilyPatientRelation, error) {
	return r.listFamilyRels(ctx,
		`SELECT `+familyRelCols+` FROM family_patient_relations WHERE family_id = $1 ORDER BY created_at ASC`, familyID)
}

func (r *relationRepoPG) listFamilyRels(ctx context.Context, sql string, arg interface{}) ([]*FamilyPatientRelation, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rels []*FamilyPatientRelation
	for rows.Next() {
		var rel FamilyPatientRelation
		if err := rows.Scan(&rel.ID, &rel.FamilyID, &rel.PatientID, &rel.Relationship,
			&rel.CanManageMedications, &rel.CanViewMedicalData, &rel.EmergencyContact,
			&rel.Active, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
			return nil, err
		}
		rels = append(rels, &rel)
	}
	return rels, nil
}

package caregiver

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence boundary for caregiver relations.
//
// CountDoctors locks the patient's doctor relation rows while inside a
// transaction, so the last-doctor check in RemoveDoctor stays valid until
// commit.
type Repository interface {
	CreateDoctorRelation(ctx context.Context, rel *DoctorPatientRelation) error
	GetDoctorRelation(ctx context.Context, doctorID, patientID uuid.UUID) (*DoctorPatientRelation, error)
	DeleteDoctorRelation(ctx context.Context, id uuid.UUID) error
	CountDoctors(ctx context.Context, patientID uuid.UUID) (int, error)
	ListDoctorsByPatient(ctx context.Context, patientID uuid.UUID) ([]*DoctorPatientRelation, error)
	ListPatientsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*DoctorPatientRelation, error)

	CreateFamilyRelation(ctx context.Context, rel *FamilyPatientRelation) error
	GetFamilyRelation(ctx context.Context, familyID, patientID uuid.UUID) (*FamilyPatientRelation, error)
	DeleteFamilyRelation(ctx context.Context, id uuid.UUID) error
	ListFamilyByPatient(ctx context.Context, patientID uuid.UUID) ([]*FamilyPatientRelation, error)
	ListPatientsByFamily(ctx context.Context, familyID uuid.UUID) ([]*FamilyPatientRelation, error)
}

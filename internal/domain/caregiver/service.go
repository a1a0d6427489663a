package caregiver

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
	"github.com/juanandresGH21/appmedic-api/internal/domain/user"
	"github.com/juanandresGH21/appmedic-api/internal/platform/db"
)

// Manager owns the caregiver relation lifecycle. Every read-check-write
// sequence runs inside one transaction so concurrent calls on the same
// patient cannot interleave between the check and the write.
type Manager struct {
	relations Repository
	users     user.Repository
	pool      *pgxpool.Pool
}

func NewManager(relations Repository, users user.Repository, pool *pgxpool.Pool) *Manager {
	return &Manager{relations: relations, users: users, pool: pool}
}

// AssignDoctorInput carries the relation fields used only on first creation.
type AssignDoctorInput struct {
	Specialty string `json:"specialty"`
	Notes     string `json:"notes"`
}

// AssignFamilyInput carries the relation fields used only on first creation.
type AssignFamilyInput struct {
	Relationship         RelationshipKind `json:"relationship"`
	CanManageMedications bool             `json:"can_manage_medications"`
	CanViewMedicalData   bool             `json:"can_view_medical_data"`
	EmergencyContact     bool             `json:"emergency_contact"`
}

func (m *Manager) requireRole(ctx context.Context, id uuid.UUID, role user.Role) (*user.User, error) {
	u, err := m.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, apperr.Validationf("user %s is not a %s", id, role)
	}
	return u, nil
}

// AssignDoctor links a doctor to a patient. The call is idempotent on the
// unique (doctor, patient) pair: repeat calls return the existing relation
// unchanged, whatever specialty or notes they carry.
func (m *Manager) AssignDoctor(ctx context.Context, doctorID, patientID uuid.UUID, in AssignDoctorInput) (*DoctorPatientRelation, error) {
	var rel *DoctorPatientRelation
	err := db.InTx(ctx, m.pool, func(ctx context.Context) error {
		if _, err := m.requireRole(ctx, doctorID, user.RoleDoctor); err != nil {
			return err
		}
		if _, err := m.requireRole(ctx, patientID, user.RolePatient); err != nil {
			return err
		}

		existing, err := m.relations.GetDoctorRelation(ctx, doctorID, patientID)
		if err == nil {
			rel = existing
			return nil
		}
		if !apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}

		rel = &DoctorPatientRelation{
			DoctorID:  doctorID,
			PatientID: patientID,
			Specialty: in.Specialty,
			Notes:     in.Notes,
			Active:    true,
		}
		return m.relations.CreateDoctorRelation(ctx, rel)
	})
	if apperr.IsKind(err, apperr.KindDuplicate) {
		// Lost a create race; the winning row is the relation.
		return m.relations.GetDoctorRelation(ctx, doctorID, patientID)
	}
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// AssignFamily links a family member to a patient, idempotent on the unique
// (family, patient) pair with the same first-write-wins behavior as
// AssignDoctor.
func (m *Manager) AssignFamily(ctx context.Context, familyID, patientID uuid.UUID, in AssignFamilyInput) (*FamilyPatientRelation, error) {
	if !in.Relationship.Valid() {
		return nil, apperr.Validationf("unknown relationship %q", in.Relationship)
	}

	var rel *FamilyPatientRelation
	err := db.InTx(ctx, m.pool, func(ctx context.Context) error {
		if _, err := m.requireRole(ctx, familyID, user.RoleFamily); err != nil {
			return err
		}
		if _, err := m.requireRole(ctx, patientID, user.RolePatient); err != nil {
			return err
		}

		existing, err := m.relations.GetFamilyRelation(ctx, familyID, patientID)
		if err == nil {
			rel = existing
			return nil
		}
		if !apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}

		rel = &FamilyPatientRelation{
			FamilyID:             familyID,
			PatientID:            patientID,
			Relationship:         in.Relationship,
			CanManageMedications: in.CanManageMedications,
			CanViewMedicalData:   in.CanViewMedicalData,
			EmergencyContact:     in.EmergencyContact,
			Active:               true,
		}
		return m.relations.CreateFamilyRelation(ctx, rel)
	})
	if apperr.IsKind(err, apperr.KindDuplicate) {
		return m.relations.GetFamilyRelation(ctx, familyID, patientID)
	}
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// RemoveDoctor deletes a doctor relation. A patient must always keep at
// least one doctor, so removing the only one fails with an invariant
// violation. The count is taken under row locks inside the transaction.
func (m *Manager) RemoveDoctor(ctx context.Context, doctorID, patientID uuid.UUID) (*DoctorRelationSnapshot, error) {
	var snap *DoctorRelationSnapshot
	err := db.InTx(ctx, m.pool, func(ctx context.Context) error {
		rel, err := m.relations.GetDoctorRelation(ctx, doctorID, patientID)
		if err != nil {
			return err
		}

		total, err := m.relations.CountDoctors(ctx, patientID)
		if err != nil {
			return err
		}
		if total <= 1 {
			return apperr.Invariant("cannot remove the only doctor assigned to the patient")
		}

		doctor, err := m.users.GetByID(ctx, doctorID)
		if err != nil {
			return err
		}
		patient, err := m.users.GetByID(ctx, patientID)
		if err != nil {
			return err
		}

		snap = &DoctorRelationSnapshot{
			DoctorName:  doctor.Name,
			PatientName: patient.Name,
			Specialty:   rel.Specialty,
		}
		return m.relations.DeleteDoctorRelation(ctx, rel.ID)
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// RemoveFamily deletes a family relation unconditionally.
func (m *Manager) RemoveFamily(ctx context.Context, familyID, patientID uuid.UUID) (*FamilyRelationSnapshot, error) {
	var snap *FamilyRelationSnapshot
	err := db.InTx(ctx, m.pool, func(ctx context.Context) error {
		rel, err := m.relations.GetFamilyRelation(ctx, familyID, patientID)
		if err != nil {
			return err
		}

		family, err := m.users.GetByID(ctx, familyID)
		if err != nil {
			return err
		}
		patient, err := m.users.GetByID(ctx, patientID)
		if err != nil {
			return err
		}

		snap = &FamilyRelationSnapshot{
			FamilyMemberName:    family.Name,
			PatientName:         patient.Name,
			Relationship:        rel.Relationship,
			WasEmergencyContact: rel.EmergencyContact,
		}
		return m.relations.DeleteFamilyRelation(ctx, rel.ID)
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ResolvePatient returns the patient, or NotFound when the id is absent or
// belongs to a non-patient.
func (m *Manager) ResolvePatient(ctx context.Context, patientID uuid.UUID) (*user.User, error) {
	patient, err := m.requireRole(ctx, patientID, user.RolePatient)
	if err != nil {
		if apperr.IsKind(err, apperr.KindValidation) {
			return nil, apperr.NotFound("patient not found")
		}
		return nil, err
	}
	return patient, nil
}

// ListRelations returns every caregiver relation of a patient, active or
// not, with caregiver summaries attached.
func (m *Manager) ListRelations(ctx context.Context, patientID uuid.UUID) (*PatientRelations, error) {
	patient, err := m.ResolvePatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	doctorRels, err := m.relations.ListDoctorsByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	familyRels, err := m.relations.ListFamilyByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	out := &PatientRelations{
		Patient:         patient.Summary(),
		Doctors:         make([]DoctorRelationEntry, 0, len(doctorRels)),
		Family:          make([]FamilyRelationEntry, 0, len(familyRels)),
		TotalCaregivers: len(doctorRels) + len(familyRels),
	}
	for _, rel := range doctorRels {
		doctor, err := m.users.GetByID(ctx, rel.DoctorID)
		if err != nil {
			return nil, err
		}
		out.Doctors = append(out.Doctors, DoctorRelationEntry{Relation: rel, Doctor: doctor.Summary()})
	}
	for _, rel := range familyRels {
		member, err := m.users.GetByID(ctx, rel.FamilyID)
		if err != nil {
			return nil, err
		}
		out.Family = append(out.Family, FamilyRelationEntry{Relation: rel, FamilyMember: member.Summary()})
	}
	return out, nil
}

// FamilyRelationsOf returns a family member's relations with their
// per-patient permission flags.
func (m *Manager) FamilyRelationsOf(ctx context.Context, familyID uuid.UUID) ([]*FamilyPatientRelation, error) {
	if _, err := m.requireRole(ctx, familyID, user.RoleFamily); err != nil {
		return nil, err
	}
	return m.relations.ListPatientsByFamily(ctx, familyID)
}

// PatientsOf returns the patients a caregiver is linked to, as summaries.
func (m *Manager) PatientsOf(ctx context.Context, caregiverID uuid.UUID) ([]user.Summary, error) {
	cg, err := m.users.GetByID(ctx, caregiverID)
	if err != nil {
		return nil, err
	}

	var patientIDs []uuid.UUID
	switch cg.Role {
	case user.RoleDoctor:
		rels, err := m.relations.ListPatientsByDoctor(ctx, caregiverID)
		if err != nil {
			return nil, err
		}
		for _, rel := range rels {
			patientIDs = append(patientIDs, rel.PatientID)
		}
	case user.RoleFamily:
		rels, err := m.relations.ListPatientsByFamily(ctx, caregiverID)
		if err != nil {
			return nil, err
		}
		for _, rel := range rels {
			patientIDs = append(patientIDs, rel.PatientID)
		}
	default:
		return nil, apperr.NotSupported("only doctors and family members have patients")
	}

	summaries := make([]user.Summary, 0, len(patientIDs))
	for _, id := range patientIDs {
		p, err := m.users.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, p.Summary())
	}
	return summaries, nil
}

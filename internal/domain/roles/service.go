package roles

import (
	"context"

	"github.com/google/uuid"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
	"github.com/juanandresGH21/appmedic-api/internal/domain/caregiver"
	"github.com/juanandresGH21/appmedic-api/internal/domain/schedule"
	"github.com/juanandresGH21/appmedic-api/internal/domain/user"
)

// RelationManager is the caregiver lifecycle surface the strategies drive.
// Satisfied by the caregiver package's manager.
type RelationManager interface {
	AssignDoctor(ctx context.Context, doctorID, patientID uuid.UUID, in caregiver.AssignDoctorInput) (*caregiver.DoctorPatientRelation, error)
	AssignFamily(ctx context.Context, familyID, patientID uuid.UUID, in caregiver.AssignFamilyInput) (*caregiver.FamilyPatientRelation, error)
	RemoveDoctor(ctx context.Context, doctorID, patientID uuid.UUID) (*caregiver.DoctorRelationSnapshot, error)
	RemoveFamily(ctx context.Context, familyID, patientID uuid.UUID) (*caregiver.FamilyRelationSnapshot, error)
	ListRelations(ctx context.Context, patientID uuid.UUID) (*caregiver.PatientRelations, error)
	PatientsOf(ctx context.Context, caregiverID uuid.UUID) ([]user.Summary, error)
	FamilyRelationsOf(ctx context.Context, familyID uuid.UUID) ([]*caregiver.FamilyPatientRelation, error)
}

// Authorizer is the permission surface the strategies consult.
type Authorizer interface {
	CanViewPatientData(ctx context.Context, actorID, patientID uuid.UUID) (bool, error)
	CanManageSchedules(ctx context.Context, actorID, patientID uuid.UUID) (bool, error)
}

// ScheduleLister exposes the schedule queries the strategies delegate to.
type ScheduleLister interface {
	ListByPatient(ctx context.Context, patientID, actorID uuid.UUID, limit, offset int) ([]*schedule.Schedule, int, error)
}

// AssignInput bundles the role-specific relation fields. The target
// caregiver's role decides which subset applies.
type AssignInput struct {
	Specialty            string                     `json:"specialty"`
	Notes                string                     `json:"notes"`
	Relationship         caregiver.RelationshipKind `json:"relationship"`
	CanManageMedications bool                       `json:"can_manage_medications"`
	CanViewMedicalData   bool                       `json:"can_view_medical_data"`
	EmergencyContact     bool                       `json:"emergency_contact"`
}

// RoleService is the fixed capability set every role strategy implements.
// Optional capabilities return a CapabilityNotSupported error for roles
// that do not carry them, never a crash.
type RoleService interface {
	// AssignCaregiver links a caregiver to a patient on the actor's
	// behalf. The caregiver's own role picks the relation type.
	AssignCaregiver(ctx context.Context, actor *user.User, caregiverID, patientID uuid.UUID, in AssignInput) (interface{}, error)
	// RemoveCaregiver unlinks a caregiver from a patient.
	RemoveCaregiver(ctx context.Context, actor *user.User, caregiverID, patientID uuid.UUID) (interface{}, error)
	// MyCaregivers lists the actor's own caregivers (patients only).
	MyCaregivers(ctx context.Context, actor *user.User) (*caregiver.PatientRelations, error)
	// MyPatients lists the actor's linked patients (doctors and family).
	MyPatients(ctx context.Context, actor *user.User) ([]user.Summary, error)
	// PatientSchedules lists a patient's schedules on the actor's behalf.
	PatientSchedules(ctx context.Context, actor *user.User, patientID uuid.UUID, limit, offset int) ([]*schedule.Schedule, int, error)
	// Permissions builds the role-shaped capability document.
	Permissions(ctx context.Context, actor *user.User) (*PermissionsDocument, error)
}

// PermissionsDocument is the capability summary returned to the API layer.
// The populated fields vary by role.
type PermissionsDocument struct {
	Role                      user.Role                   `json:"role"`
	CanViewOwnData            bool                        `json:"can_view_own_data"`
	CanManageOwnSchedules     bool                        `json:"can_manage_own_schedules"`
	CanViewCaregivers         bool                        `json:"can_view_caregivers,omitempty"`
	CanViewOwnSchedules       bool                        `json:"can_view_own_schedules,omitempty"`
	CanViewPatients           bool                        `json:"can_view_patients,omitempty"`
	CanManagePatientSchedules bool                        `json:"can_manage_patient_schedules,omitempty"`
	Patients                  []user.Summary              `json:"patients"`
	Caregivers                *caregiver.PatientRelations `json:"caregivers,omitempty"`
	PermissionsByPatient      map[string]PatientGrant     `json:"permissions_by_patient,omitempty"`
}

// PatientGrant is a family member's per-patient permission set.
type PatientGrant struct {
	CanViewMedicalData   bool `json:"can_view_medical_data"`
	CanManageMedications bool `json:"can_manage_medications"`
	EmergencyContact     bool `json:"emergency_contact"`
	Active               bool `json:"active"`
}

type deps struct {
	users     user.Repository
	manager   RelationManager
	authz     Authorizer
	schedules ScheduleLister
}

// -- Patient strategy --

type patientService struct{ deps }

func (s *patientService) AssignCaregiver(context.Context, *user.User, uuid.UUID, uuid.UUID, AssignInput) (interface{}, error) {
	return nil, apperr.PermissionDenied("patients cannot manage their own caregiver list")
}

func (s *patientService) RemoveCaregiver(context.Context, *user.User, uuid.UUID, uuid.UUID) (interface{}, error) {
	return nil, apperr.PermissionDenied("patients cannot manage their own caregiver list")
}

func (s *patientService) MyCaregivers(ctx context.Context, actor *user.User) (*caregiver.PatientRelations, error) {
	return s.manager.ListRelations(ctx, actor.ID)
}

func (s *patientService) MyPatients(context.Context, *user.User) ([]user.Summary, error) {
	return nil, apperr.NotSupported("patients do not have a patient list")
}

func (s *patientService) PatientSchedules(ctx context.Context, actor *user.User, patientID uuid.UUID, limit, offset int) ([]*schedule.Schedule, int, error) {
	if patientID != actor.ID {
		return nil, 0, apperr.NotSupported("patients only see their own schedules")
	}
	return s.schedules.ListByPatient(ctx, actor.ID, actor.ID, limit, offset)
}

func (s *patientService) Permissions(ctx context.Context, actor *user.User) (*PermissionsDocument, error) {
	caregivers, err := s.manager.ListRelations(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return &PermissionsDocument{
		Role:                  user.RolePatient,
		CanViewOwnData:        true,
		CanManageOwnSchedules: true,
		CanViewCaregivers:     true,
		CanViewOwnSchedules:   true,
		Patients:              []user.Summary{},
		Caregivers:            caregivers,
	}, nil
}

// -- Doctor strategy --

type doctorService struct{ deps }

func (s *doctorService) requireLinked(ctx context.Context, actor *user.User, patientID uuid.UUID) error {
	allowed, err := s.authz.CanViewPatientData(ctx, actor.ID, patientID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.PermissionDenied("you do not have access to this patient")
	}
	return nil
}

// AssignCaregiver dispatches on the target caregiver's role, which is read
// from the store rather than trusted from the caller.
func (s *doctorService) AssignCaregiver(ctx context.Context, actor *user.User, caregiverID, patientID uuid.UUID, in AssignInput) (interface{}, error) {
	if err := s.requireLinked(ctx, actor, patientID); err != nil {
		return nil, err
	}
	target, err := s.users.GetByID(ctx, caregiverID)
	if err != nil {
		return nil, err
	}
	switch target.Role {
	case user.RoleDoctor:
		return s.manager.AssignDoctor(ctx, caregiverID, patientID, caregiver.AssignDoctorInput{
			Specialty: in.Specialty,
			Notes:     in.Notes,
		})
	case user.RoleFamily:
		return s.manager.AssignFamily(ctx, caregiverID, patientID, caregiver.AssignFamilyInput{
			Relationship:         in.Relationship,
			CanManageMedications: in.CanManageMedications,
			CanViewMedicalData:   in.CanViewMedicalData,
			EmergencyContact:     in.EmergencyContact,
		})
	}
	return nil, apperr.Validationf("user %s cannot act as a caregiver", caregiverID)
}

func (s *doctorService) RemoveCaregiver(ctx context.Context, actor *user.User, caregiverID, patientID uuid.UUID) (interface{}, error) {
	if err := s.requireLinked(ctx, actor, patientID); err != nil {
		return nil, err
	}
	target, err := s.users.GetByID(ctx, caregiverID)
	if err != nil {
		return nil, err
	}
	switch target.Role {
	case user.RoleDoctor:
		return s.manager.RemoveDoctor(ctx, caregiverID, patientID)
	case user.RoleFamily:
		return s.manager.RemoveFamily(ctx, caregiverID, patientID)
	}
	return nil, apperr.Validationf("user %s is not a caregiver", caregiverID)
}

func (s *doctorService) MyCaregivers(context.Context, *user.User) (*caregiver.PatientRelations, error) {
	return nil, apperr.NotSupported("doctors do not have caregivers")
}

func (s *doctorService) MyPatients(ctx context.Context, actor *user.User) ([]user.Summary, error) {
	return s.manager.PatientsOf(ctx, actor.ID)
}

func (s *doctorService) PatientSchedules(ctx context.Context, actor *user.User, patientID uuid.UUID, limit, offset int) ([]*schedule.Schedule, int, error) {
	return s.schedules.ListByPatient(ctx, patientID, actor.ID, limit, offset)
}

func (s *doctorService) Permissions(ctx context.Context, actor *user.User) (*PermissionsDocument, error) {
	patients, err := s.manager.PatientsOf(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if patients == nil {
		patients = []user.Summary{}
	}
	return &PermissionsDocument{
		Role:                      user.RoleDoctor,
		CanViewOwnData:            true,
		CanViewPatients:           true,
		CanManagePatientSchedules: true,
		Patients:                  patients,
	}, nil
}

// -- Family strategy --

type familyService struct{ deps }

func (s *familyService) AssignCaregiver(context.Context, *user.User, uuid.UUID, uuid.UUID, AssignInput) (interface{}, error) {
	return nil, apperr.PermissionDenied("family members cannot manage caregiver assignments")
}

func (s *familyService) RemoveCaregiver(context.Context, *user.User, uuid.UUID, uuid.UUID) (interface{}, error) {
	return nil, apperr.PermissionDenied("family members cannot manage caregiver assignments")
}

func (s *familyService) MyCaregivers(context.Context, *user.User) (*caregiver.PatientRelations, error) {
	return nil, apperr.NotSupported("family members do not have caregivers")
}

func (s *familyService) MyPatients(ctx context.Context, actor *user.User) ([]user.Summary, error) {
	return s.manager.PatientsOf(ctx, actor.ID)
}

func (s *familyService) PatientSchedules(ctx context.Context, actor *user.User, patientID uuid.UUID, limit, offset int) ([]*schedule.Schedule, int, error) {
	return s.schedules.ListByPatient(ctx, patientID, actor.ID, limit, offset)
}

func (s *familyService) Permissions(ctx context.Context, actor *user.User) (*PermissionsDocument, error) {
	patients, err := s.manager.PatientsOf(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if patients == nil {
		patients = []user.Summary{}
	}
	rels, err := s.manager.FamilyRelationsOf(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	grants := make(map[string]PatientGrant, len(rels))
	for _, rel := range rels {
		grants[rel.PatientID.String()] = PatientGrant{
			CanViewMedicalData:   rel.CanViewMedicalData,
			CanManageMedications: rel.CanManageMedications,
			EmergencyContact:     rel.EmergencyContact,
			Active:               rel.Active,
		}
	}
	// Whether schedules can be managed depends on each relation's
	// can_manage_medications flag, so the blanket capability is false.
	return &PermissionsDocument{
		Role:                 user.RoleFamily,
		CanViewOwnData:       true,
		CanViewPatients:      true,
		Patients:             patients,
		PermissionsByPatient: grants,
	}, nil
}

package caregiver

import (
	"time"

	"github.com/google/uuid"

	"github.com/juanandresGH21/appmedic-api/internal/domain/user"
)

// RelationshipKind classifies a family caregiver's relationship to the patient.
type RelationshipKind string

const (
	KindParent      RelationshipKind = "parent"
	KindChild       RelationshipKind = "child"
	KindSpouse      RelationshipKind = "spouse"
	KindSibling     RelationshipKind = "sibling"
	KindGrandparent RelationshipKind = "grandparent"
	KindGrandchild  RelationshipKind = "grandchild"
	KindOther       RelationshipKind = "other"
)

func (k RelationshipKind) Valid() bool {
	switch k {
	case KindParent, KindChild, KindSpouse, KindSibling, KindGrandparent, KindGrandchild, KindOther:
		return true
	}
	return false
}

// DoctorPatientRelation maps to the doctor_patient_relations table.
// The (doctor_id, patient_id) pair is unique.
type DoctorPatientRelation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Specialty string    `db:"specialty" json:"specialty"`
	Notes     string    `db:"notes" json:"notes"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FamilyPatientRelation maps to the family_patient_relations table.
// The (family_id, patient_id) pair is unique.
type FamilyPatientRelation struct {
	ID                   uuid.UUID        `db:"id" json:"id"`
	FamilyID             uuid.UUID        `db:"family_id" json:"family_id"`
	PatientID            uuid.UUID        `db:"patient_id" json:"patient_id"`
	Relationship         RelationshipKind `db:"relationship" json:"relationship"`
	CanManageMedications bool             `db:"can_manage_medications" json:"can_manage_medications"`
	CanViewMedicalData   bool             `db:"can_view_medical_data" json:"can_view_medical_data"`
	EmergencyContact     bool             `db:"emergency_contact" json:"emergency_contact"`
	Active               bool             `db:"active" json:"active"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updated_at"`
}

// DoctorRelationSnapshot echoes the key fields of a removed doctor relation.
type DoctorRelationSnapshot struct {
	DoctorName  string `json:"doctor_name"`
	PatientName string `json:"patient_name"`
	Specialty   string `json:"specialty"`
}

// FamilyRelationSnapshot echoes the key fields of a removed family relation.
type FamilyRelationSnapshot struct {
	FamilyMemberName    string           `json:"family_member_name"`
	PatientName         string           `json:"patient_name"`
	Relationship        RelationshipKind `json:"relationship"`
	WasEmergencyContact bool             `json:"was_emergency_contact"`
}

// DoctorRelationEntry pairs a relation with the doctor's summary for listings.
type DoctorRelationEntry struct {
	Relation *DoctorPatientRelation `json:"relation"`
	Doctor   user.Summary           `json:"doctor"`
}

// FamilyRelationEntry pairs a relation with the family member's summary.
type FamilyRelationEntry struct {
	Relation     *FamilyPatientRelation `json:"relation"`
	FamilyMember user.Summary           `json:"family_member"`
}

// PatientRelations is the full caregiver picture for one patient.
type PatientRelations struct {
	Patient         user.Summary          `json:"patient"`
	Doctors         []DoctorRelationEntry `json:"doctors"`
	Family          []FamilyRelationEntry `json:"family"`
	TotalCaregivers int                   `json:"total_caregivers"`
}

package caregiver

import (
	"context"

	"github.com/google/uuid"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
	"github.com/juanandresGH21/appmedic-api/internal/domain/user"
)

// Authorizer answers the two permission questions every patient-scoped
// operation asks. Both predicates are total: a missing actor or relation
// means "no", never an error. Only storage faults propagate.
type Authorizer struct {
	relations Repository
	users     user.Repository
}

func NewAuthorizer(relations Repository, users user.Repository) *Authorizer {
	return &Authorizer{relations: relations, users: users}
}

// CanViewPatientData reports whether actor may read the patient's data.
// Patients see themselves, doctors and family members see patients they
// hold an active relation with.
func (a *Authorizer) CanViewPatientData(ctx context.Context, actorID, patientID uuid.UUID) (bool, error) {
	actor, err := a.users.GetByID(ctx, actorID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return false, nil
		}
		return false, err
	}

	switch actor.Role {
	case user.RolePatient:
		return actor.ID == patientID, nil
	case user.RoleDoctor:
		rel, err := a.relations.GetDoctorRelation(ctx, actor.ID, patientID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return false, nil
			}
			return false, err
		}
		return rel.Active, nil
	case user.RoleFamily:
		rel, err := a.relations.GetFamilyRelation(ctx, actor.ID, patientID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return false, nil
			}
			return false, err
		}
		return rel.Active, nil
	}
	return false, nil
}

// CanManageSchedules reports whether actor may create, update or delete
// schedules for the patient. Patients manage their own, doctors manage any
// linked patient's, family members additionally need the
// can_manage_medications flag on their relation.
func (a *Authorizer) CanManageSchedules(ctx context.Context, actorID, patientID uuid.UUID) (bool, error) {
	actor, err := a.users.GetByID(ctx, actorID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return false, nil
		}
		return false, err
	}

	switch actor.Role {
	case user.RolePatient:
		return actor.ID == patientID, nil
	case user.RoleDoctor:
		return a.CanViewPatientData(ctx, actorID, patientID)
	case user.RoleFamily:
		rel, err := a.relations.GetFamilyRelation(ctx, actor.ID, patientID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return false, nil
			}
			return false, err
		}
		return rel.Active && rel.CanManageMedications, nil
	}
	return false, nil
}

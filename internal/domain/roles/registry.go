package roles

import (
	"context"

	"github.com/google/uuid"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
	"github.com/juanandresGH21/appmedic-api/internal/domain/caregiver"
	"github.com/juanandresGH21/appmedic-api/internal/domain/schedule"
	"github.com/juanandresGH21/appmedic-api/internal/domain/user"
)

// Registry maps each role to its strategy. The map is built once at
// construction and never mutated afterwards, so lookups are safe from any
// goroutine.
type Registry struct {
	users      user.Repository
	strategies map[user.Role]RoleService
}

func NewRegistry(users user.Repository, manager RelationManager, authz Authorizer, schedules ScheduleLister) *Registry {
	d := deps{users: users, manager: manager, authz: authz, schedules: schedules}
	return &Registry{
		users: users,
		strategies: map[user.Role]RoleService{
			user.RolePatient: &patientService{d},
			user.RoleDoctor:  &doctorService{d},
			user.RoleFamily:  &familyService{d},
		},
	}
}

// ForRole returns the strategy for a role.
func (r *Registry) ForRole(role user.Role) (RoleService, error) {
	svc, ok := r.strategies[role]
	if !ok {
		return nil, apperr.Validationf("unknown role %q", role)
	}
	return svc, nil
}

func (r *Registry) resolve(ctx context.Context, actorID uuid.UUID) (*user.User, RoleService, error) {
	actor, err := r.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	svc, err := r.ForRole(actor.Role)
	if err != nil {
		return nil, nil, err
	}
	return actor, svc, nil
}

// AssignCaregiver dispatches to the actor's role strategy.
func (r *Registry) AssignCaregiver(ctx context.Context, actorID, caregiverID, patientID uuid.UUID, in AssignInput) (interface{}, error) {
	actor, svc, err := r.resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return svc.AssignCaregiver(ctx, actor, caregiverID, patientID, in)
}

// RemoveCaregiver dispatches to the actor's role strategy.
func (r *Registry) RemoveCaregiver(ctx context.Context, actorID, caregiverID, patientID uuid.UUID) (interface{}, error) {
	actor, svc, err := r.resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return svc.RemoveCaregiver(ctx, actor, caregiverID, patientID)
}

// Permissions builds the actor's role-shaped capability document.
func (r *Registry) Permissions(ctx context.Context, actorID uuid.UUID) (*PermissionsDocument, error) {
	actor, svc, err := r.resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return svc.Permissions(ctx, actor)
}

// MyCaregivers lists the actor's caregivers, when the role supports it.
func (r *Registry) MyCaregivers(ctx context.Context, actorID uuid.UUID) (*caregiver.PatientRelations, error) {
	actor, svc, err := r.resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return svc.MyCaregivers(ctx, actor)
}

// MyPatients lists the actor's linked patients, when the role supports it.
func (r *Registry) MyPatients(ctx context.Context, actorID uuid.UUID) ([]user.Summary, error) {
	actor, svc, err := r.resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return svc.MyPatients(ctx, actor)
}

// PatientSchedules lists a patient's schedules through the actor's strategy.
func (r *Registry) PatientSchedules(ctx context.Context, actorID, patientID uuid.UUID, limit, offset int) ([]*schedule.Schedule, int, error) {
	actor, svc, err := r.resolve(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	return svc.PatientSchedules(ctx, actor, patientID, limit, offset)
}

package medication

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence boundary for the medication catalog.
type Repository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, name string, limit, offset int) ([]*Medication, int, error)
}

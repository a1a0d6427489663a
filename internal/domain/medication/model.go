package medication

import (
	"time"

	"github.com/google/uuid"
)

// Form is the dosage form of a catalog entry.
type Form string

const (
	FormTablet    Form = "tablet"
	FormCapsule   Form = "capsule"
	FormLiquid    Form = "liquid"
	FormInjection Form = "injection"
	FormCream     Form = "cream"
	FormDrops     Form = "drops"
)

func (f Form) Valid() bool {
	switch f {
	case FormTablet, FormCapsule, FormLiquid, FormInjection, FormCream, FormDrops:
		return true
	}
	return false
}

// Medication maps to the medications table. Entries form a shared catalog;
// patient-specific dosing lives on schedules.
type Medication struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Form      Form      `db:"form" json:"form"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

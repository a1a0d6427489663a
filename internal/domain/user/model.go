package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account types. A user's role is fixed at
// registration; there is no update path.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleFamily  Role = "family"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleFamily:
		return true
	}
	return false
}

// IsCaregiver reports whether the role can be linked to a patient as a
// caregiver.
func (r Role) IsCaregiver() bool {
	return r == RoleDoctor || r == RoleFamily
}

// User maps to the users table.
type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Name           string    `db:"name" json:"name"`
	Role           Role      `db:"role" json:"role"`
	ExternalAuthID *string   `db:"external_auth_id" json:"external_auth_id,omitempty"`
	Timezone       string    `db:"timezone" json:"timezone"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Summary is the compact user shape embedded in permission documents and
// relation listings.
type Summary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email}
}

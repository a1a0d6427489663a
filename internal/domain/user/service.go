package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
	"github.com/juanandresGH21/appmedic-api/internal/platform/db"
)

type Service struct {
	users Repository
	pool  *pgxpool.Pool
}

func NewService(users Repository, pool *pgxpool.Pool) *Service {
	return &Service{users: users, pool: pool}
}

// RegisterInput is the payload for local account creation.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Timezone string `json:"timezone"`
}

// Register creates a local account. The role is fixed here and cannot be
// changed afterwards.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return nil, apperr.Validation("email is required")
	}
	if in.Password == "" {
		return nil, apperr.Validation("password is required")
	}
	if !in.Role.Valid() {
		return nil, apperr.Validationf("unknown role %q", in.Role)
	}
	if in.Timezone == "" {
		in.Timezone = "UTC"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
		Role:         in.Role,
		Timezone:     in.Timezone,
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a local email/password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.PermissionDenied("invalid credentials")
		}
		return nil, err
	}
	if !u.Active {
		return nil, apperr.PermissionDenied("account is disabled")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperr.PermissionDenied("invalid credentials")
	}
	return u, nil
}

// LinkExternal resolves a token subject to a local account, creating a
// patient account the first time the subject is seen. The lookup order is
// external id first, then email; an email match adopts the subject so later
// requests take the fast path.
func (s *Service) LinkExternal(ctx context.Context, subject, email, name string) (*User, error) {
	if subject == "" {
		return nil, apperr.Validation("token subject is required")
	}

	var linked *User
	err := db.InTx(ctx, s.pool, func(ctx context.Context) error {
		u, err := s.users.GetByExternalID(ctx, subject)
		if err == nil {
			linked = u
			return nil
		}
		if !apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}

		if email != "" {
			u, err = s.users.GetByEmail(ctx, strings.ToLower(email))
			if err == nil {
				u.ExternalAuthID = &subject
				if err := s.users.Update(ctx, u); err != nil {
					return err
				}
				linked = u
				return nil
			}
			if !apperr.IsKind(err, apperr.KindNotFound) {
				return err
			}
		}

		// First sight of this subject. External signups are patients.
		u = &User{
			Email:          strings.ToLower(email),
			Name:           name,
			Role:           RolePatient,
			ExternalAuthID: &subject,
			Timezone:       "UTC",
			Active:         true,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		linked = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return linked, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) List(ctx context.Context, role Role, limit, offset int) ([]*User, int, error) {
	if role != "" && !role.Valid() {
		return nil, 0, apperr.Validationf("unknown role %q", role)
	}
	return s.users.List(ctx, role, limit, offset)
}

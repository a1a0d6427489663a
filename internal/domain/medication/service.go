package medication

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
)

type Service struct {
	meds Repository
}

func NewService(meds Repository) *Service {
	return &Service{meds: meds}
}

func (s *Service) Create(ctx context.Context, m *Medication) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return apperr.Validation("name is required")
	}
	if m.Form == "" {
		m.Form = FormTablet
	}
	if !m.Form.Valid() {
		return apperr.Validationf("unknown form %q", m.Form)
	}
	return s.meds.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.meds.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, m *Medication) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return apperr.Validation("name is required")
	}
	if !m.Form.Valid() {
		return apperr.Validationf("unknown form %q", m.Form)
	}
	if _, err := s.meds.GetByID(ctx, m.ID); err != nil {
		return err
	}
	return s.meds.Update(ctx, m)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.meds.GetByID(ctx, id); err != nil {
		return err
	}
	return s.meds.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, name string, limit, offset int) ([]*Medication, int, error) {
	return s.meds.List(ctx, name, limit, offset)
}

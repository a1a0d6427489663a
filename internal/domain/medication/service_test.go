package medication

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
)

type mockMedRepo struct {
	meds map[uuid.UUID]*Medication
}

func newMockMedRepo() *mockMedRepo {
	return &mockMedRepo{meds: make(map[uuid.UUID]*Medication)}
}

func (m *mockMedRepo) Create(_ context.Context, med *Medication) error {
	med.ID = uuid.New()
	med.CreatedAt = time.Now()
	med.UpdatedAt = time.Now()
	m.meds[med.ID] = med
	return nil
}

func (m *mockMedRepo) GetByID(_ context.Context, id uuid.UUID) (*Medication, error) {
	med, ok := m.meds[id]
	if !ok {
		return nil, apperr.NotFound("medication not found")
	}
	return med, nil
}

func (m *mockMedRepo) Update(_ context.Context, med *Medication) error {
	m.meds[med.ID] = med
	return nil
}

func (m *mockMedRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.meds, id)
	return nil
}

func (m *mockMedRepo) List(_ context.Context, name string, limit, offset int) ([]*Medication, int, error) {
	var result []*Medication
	for _, med := range m.meds {
		if name == "" || strings.Contains(strings.ToLower(med.Name), strings.ToLower(name)) {
			result = append(result, med)
		}
	}
	return result, len(result), nil
}

func newTestService() *Service {
	return NewService(newMockMedRepo())
}

func TestCreateMedication(t *testing.T) {
	svc := newTestService()

	m := &Medication{Name: "Ibuprofen"}
	if err := svc.Create(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Form != FormTablet {
		t.Errorf("expected default form tablet, got %s", m.Form)
	}
}

func TestCreateMedication_NameRequired(t *testing.T) {
	svc := newTestService()

	err := svc.Create(context.Background(), &Medication{Name: "   "})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateMedication_InvalidForm(t *testing.T) {
	svc := newTestService()

	err := svc.Create(context.Background(), &Medication{Name: "X", Form: Form("powder")})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateMedication(t *testing.T) {
	svc := newTestService()

	m := &Medication{Name: "Ibuprofen", Form: FormTablet}
	svc.Create(context.Background(), m)

	m.Name = "Ibuprofen 400"
	m.Form = FormCapsule
	if err := svc.Update(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := svc.Get(context.Background(), m.ID)
	if got.Name != "Ibuprofen 400" || got.Form != FormCapsule {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestUpdateMedication_NotFound(t *testing.T) {
	svc := newTestService()

	err := svc.Update(context.Background(), &Medication{ID: uuid.New(), Name: "Ghost", Form: FormTablet})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDeleteMedication(t *testing.T) {
	svc := newTestService()

	m := &Medication{Name: "Ibuprofen"}
	svc.Create(context.Background(), m)

	if err := svc.Delete(context.Background(), m.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(context.Background(), m.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	if err := svc.Delete(context.Background(), m.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("deleting twice should report not found, got %v", err)
	}
}

func TestListMedications_NameFilter(t *testing.T) {
	svc := newTestService()

	svc.Create(context.Background(), &Medication{Name: "Ibuprofen"})
	svc.Create(context.Background(), &Medication{Name: "Paracetamol"})

	items, total, err := svc.List(context.Background(), "ibu", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].Name != "Ibuprofen" {
		t.Errorf("expected one match for ibu, got %d", total)
	}
}

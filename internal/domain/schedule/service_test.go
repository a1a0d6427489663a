package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
	"github.com/juanandresGH21/appmedic-api/internal/domain/medication"
	"github.com/juanandresGH21/appmedic-api/internal/domain/user"
)

// -- Mock schedule repository --

type mockScheduleRepo struct {
	schedules map[uuid.UUID]*Schedule
	intakes   map[uuid.UUID]*Intake
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{
		schedules: make(map[uuid.UUID]*Schedule),
		intakes:   make(map[uuid.UUID]*Intake),
	}
}

func (m *mockScheduleRepo) Create(_ context.Context, s *Schedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	m.schedules[s.ID] = s
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id uuid.UUID) (*Schedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, apperr.NotFound("schedule not found")
	}
	return s, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, s *Schedule) error {
	m.schedules[s.ID] = s
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.schedules, id)
	return nil
}

func (m *mockScheduleRepo) ExistsTriple(_ context.Context, patientID, medicationID uuid.UUID, startDate time.Time) (bool, error) {
	for _, s := range m.schedules {
		if s.PatientID == patientID && s.MedicationID == medicationID && s.StartDate.Equal(startDate) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockScheduleRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	var out []*Schedule
	for _, s := range m.schedules {
		if s.PatientID == patientID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *mockScheduleRepo) CreateIntake(_ context.Context, in *Intake) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	in.CreatedAt = time.Now()
	m.intakes[in.ID] = in
	return nil
}

func (m *mockScheduleRepo) GetIntakeByID(_ context.Context, id uuid.UUID) (*Intake, error) {
	in, ok := m.intakes[id]
	if !ok {
		return nil, apperr.NotFound("intake not found")
	}
	return in, nil
}

func (m *mockScheduleRepo) UpdateIntake(_ context.Context, in *Intake) error {
	m.intakes[in.ID] = in
	return nil
}

func (m *mockScheduleRepo) ListIntakesBySchedule(_ context.Context, scheduleID uuid.UUID, limit, offset int) ([]*Intake, int, error) {
	var out []*Intake
	for _, in := range m.intakes {
		if in.ScheduleID == scheduleID {
			out = append(out, in)
		}
	}
	return out, len(out), nil
}

// -- Mock medication repository --

type mockMeds struct {
	meds map[uuid.UUID]*medication.Medication
}

func newMockMeds() *mockMeds {
	return &mockMeds{meds: make(map[uuid.UUID]*medication.Medication)}
}

func (m *mockMeds) add(name string) *medication.Medication {
	med := &medication.Medication{ID: uuid.New(), Name: name, Form: medication.FormTablet}
	m.meds[med.ID] = med
	return med
}

func (m *mockMeds) Create(_ context.Context, med *medication.Medication) error {
	med.ID = uuid.New()
	m.meds[med.ID] = med
	return nil
}

func (m *mockMeds) GetByID(_ context.Context, id uuid.UUID) (*medication.Medication, error) {
	med, ok := m.meds[id]
	if !ok {
		return nil, apperr.NotFound("medication not found")
	}
	return med, nil
}

func (m *mockMeds) Update(_ context.Context, med *medication.Medication) error {
	m.meds[med.ID] = med
	return nil
}

func (m *mockMeds) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.meds, id)
	return nil
}

func (m *mockMeds) List(_ context.Context, name string, limit, offset int) ([]*medication.Medication, int, error) {
	var out []*medication.Medication
	for _, med := range m.meds {
		out = append(out, med)
	}
	return out, len(out), nil
}

// -- Mock user repository --

type mockUsers struct {
	users map[uuid.UUID]*user.User
}

func newMockUsers() *mockUsers {
	return &mockUsers{users: make(map[uuid.UUID]*user.User)}
}

func (m *mockUsers) add(name string, role user.Role) *user.User {
	u := &user.User{ID: uuid.New(), Name: name, Email: name + "@example.com", Role: role, Active: true}
	m.users[u.ID] = u
	return u
}

func (m *mockUsers) Create(_ context.Context, u *user.User) error {
	u.ID = uuid.New()
	m.users[u.ID] = u
	return nil
}

func (m *mockUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (m *mockUsers) GetByExternalID(_ context.Context, externalID string) (*user.User, error) {
	return nil, apperr.NotFound("user not found")
}

func (m *mockUsers) Update(_ context.Context, u *user.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUsers) List(_ context.Context, role user.Role, limit, offset int) ([]*user.User, int, error) {
	var out []*user.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

// -- Stub authorizer --

type pair struct{ actor, patient uuid.UUID }

type stubAuthz struct {
	view   map[pair]bool
	manage map[pair]bool
}

func newStubAuthz() *stubAuthz {
	return &stubAuthz{view: make(map[pair]bool), manage: make(map[pair]bool)}
}

func (a *stubAuthz) allow(actor, patient uuid.UUID, manage bool) {
	a.view[pair{actor, patient}] = true
	if manage {
		a.manage[pair{actor, patient}] = true
	}
}

func (a *stubAuthz) CanViewPatientData(_ context.Context, actorID, patientID uuid.UUID) (bool, error) {
	return actorID == patientID || a.view[pair{actorID, patientID}], nil
}

func (a *stubAuthz) CanManageSchedules(_ context.Context, actorID, patientID uuid.UUID) (bool, error) {
	return actorID == patientID || a.manage[pair{actorID, patientID}], nil
}

type fixture struct {
	svc   *Service
	users *mockUsers
	meds  *mockMeds
	authz *stubAuthz
}

func newFixture() *fixture {
	users := newMockUsers()
	meds := newMockMeds()
	authz := newStubAuthz()
	return &fixture{
		svc:   NewService(newMockScheduleRepo(), meds, users, authz, nil),
		users: users,
		meds:  meds,
		authz: authz,
	}
}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// -- Tests --

func TestCreateSchedule(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	med := f.meds.add("Aspirin")

	s, err := f.svc.Create(context.Background(), CreateInput{
		PatientID:    patient.ID,
		MedicationID: med.ID,
		StartDate:    date("2024-01-01"),
		Pattern:      "daily",
		DoseAmount:   "100mg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.PatientID != patient.ID || s.DoseAmount != "100mg" {
		t.Errorf("schedule not created as expected: %+v", s)
	}
}

func TestCreateSchedule_DuplicateTriple(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	med := f.meds.add("Aspirin")

	in := CreateInput{
		PatientID:    patient.ID,
		MedicationID: med.ID,
		StartDate:    date("2024-01-01"),
		Pattern:      "daily",
		DoseAmount:   "100mg",
	}
	if _, err := f.svc.Create(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := f.svc.Create(context.Background(), in)
	if !apperr.IsKind(err, apperr.KindDuplicate) {
		t.Errorf("expected duplicate error, got %v", err)
	}

	// Same medication, different start date is fine.
	in.StartDate = date("2024-02-01")
	if _, err := f.svc.Create(context.Background(), in); err != nil {
		t.Errorf("different start date should succeed, got %v", err)
	}
}

func TestCreateSchedule_MissingRefs(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	med := f.meds.add("Aspirin")

	_, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: uuid.New(), MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "1",
	})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found for missing patient, got %v", err)
	}

	_, err = f.svc.Create(context.Background(), CreateInput{
		PatientID: patient.ID, MedicationID: uuid.New(),
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "1",
	})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found for missing medication, got %v", err)
	}
}

func TestCreateSchedule_CreatorPermission(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	doctor := f.users.add("Dr", user.RoleDoctor)
	stranger := f.users.add("Stranger", user.RoleDoctor)
	med := f.meds.add("Aspirin")
	f.authz.allow(doctor.ID, patient.ID, true)

	in := CreateInput{
		PatientID: patient.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "1",
		CreatorID: &doctor.ID,
	}
	if _, err := f.svc.Create(context.Background(), in); err != nil {
		t.Fatalf("linked doctor should create, got %v", err)
	}

	in.StartDate = date("2024-03-01")
	in.CreatorID = &stranger.ID
	_, err := f.svc.Create(context.Background(), in)
	if !apperr.IsKind(err, apperr.KindPermissionDenied) {
		t.Errorf("expected permission denied for unlinked creator, got %v", err)
	}
}

func TestCreateSchedule_TargetMustBePatient(t *testing.T) {
	f := newFixture()
	doctor := f.users.add("Dr", user.RoleDoctor)
	med := f.meds.add("Aspirin")

	_, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: doctor.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "1",
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestScheduleDates_EndBeforeStart(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	med := f.meds.add("Aspirin")

	end := date("2023-12-01")
	_, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: patient.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), EndDate: &end,
		Pattern: "daily", DoseAmount: "100mg",
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for end before start, got %v", err)
	}

	s, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: patient.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "100mg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.svc.Update(context.Background(), s.ID, patient.ID, map[string]interface{}{"end_date": "2020-01-01"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("update must not push end_date before start_date, got %v", err)
	}

	if _, err := f.svc.Update(context.Background(), s.ID, patient.ID, map[string]interface{}{"end_date": "2024-06-01"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = f.svc.Update(context.Background(), s.ID, patient.ID, map[string]interface{}{"start_date": "2024-07-01"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("update must not push start_date past end_date, got %v", err)
	}

	// Moving both dates in one request is checked against the final values.
	updated, err := f.svc.Update(context.Background(), s.ID, patient.ID, map[string]interface{}{
		"start_date": "2025-01-01",
		"end_date":   "2025-02-01",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.StartDate.Equal(date("2025-01-01")) || updated.EndDate == nil || !updated.EndDate.Equal(date("2025-02-01")) {
		t.Errorf("dates not applied: %v %v", updated.StartDate, updated.EndDate)
	}
}

func TestUpdateSchedule_AllowList(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	med := f.meds.add("Aspirin")
	other := f.meds.add("Paracetamol")

	s, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: patient.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "100mg",
	})

	updated, err := f.svc.Update(context.Background(), s.ID, patient.ID, map[string]interface{}{
		"dose_amount":   "150mg",
		"medication_id": other.ID.String(),
		"end_date":      "2024-06-01",
		"nonsense":      "ignored",
		"patient_id":    uuid.New().String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.DoseAmount != "150mg" {
		t.Errorf("dose not updated: %s", updated.DoseAmount)
	}
	if updated.MedicationID != other.ID {
		t.Error("medication reference not re-resolved")
	}
	if updated.EndDate == nil || !updated.EndDate.Equal(date("2024-06-01")) {
		t.Errorf("end_date not applied: %v", updated.EndDate)
	}
	if updated.PatientID != patient.ID {
		t.Error("patient_id is not in the allow-list and must never change")
	}
	if updated.UpdatedBy == nil || *updated.UpdatedBy != patient.ID {
		t.Error("updated_by not recorded")
	}
}

func TestUpdateSchedule_PermissionDenied(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	stranger := f.users.add("Stranger", user.RoleFamily)
	med := f.meds.add("Aspirin")

	s, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: patient.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "100mg",
	})

	_, err := f.svc.Update(context.Background(), s.ID, stranger.ID, map[string]interface{}{"dose_amount": "1g"})
	if !apperr.IsKind(err, apperr.KindPermissionDenied) {
		t.Errorf("expected permission denied, got %v", err)
	}
}

func TestUpdateSchedule_BadValues(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	med := f.meds.add("Aspirin")

	s, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: patient.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "100mg",
	})

	_, err := f.svc.Update(context.Background(), s.ID, patient.ID, map[string]interface{}{"start_date": "01/02/2024"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for bad date, got %v", err)
	}

	_, err = f.svc.Update(context.Background(), s.ID, patient.ID, map[string]interface{}{"medication_id": uuid.New().String()})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found for unknown medication, got %v", err)
	}
}

func TestDeleteSchedule(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	med := f.meds.add("Aspirin")

	s, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: patient.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "100mg",
	})

	snap, err := f.svc.Delete(context.Background(), s.ID, patient.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.PatientName != "Pat" || snap.MedicationName != "Aspirin" || snap.DoseAmount != "100mg" {
		t.Errorf("snapshot mismatch: %+v", snap)
	}

	_, err = f.svc.Get(context.Background(), s.ID, patient.ID)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestGetSchedule_CanModify(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	viewer := f.users.add("Viewer", user.RoleFamily)
	med := f.meds.add("Aspirin")
	f.authz.allow(viewer.ID, patient.ID, false)

	s, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: patient.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "100mg",
	})

	detail, err := f.svc.Get(context.Background(), s.ID, viewer.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.CanModify {
		t.Error("view-only actor must not be able to modify")
	}

	own, _ := f.svc.Get(context.Background(), s.ID, patient.ID)
	if !own.CanModify {
		t.Error("patients can modify their own schedules")
	}

	stranger := f.users.add("Stranger", user.RoleDoctor)
	_, err = f.svc.Get(context.Background(), s.ID, stranger.ID)
	if !apperr.IsKind(err, apperr.KindPermissionDenied) {
		t.Errorf("expected permission denied, got %v", err)
	}
}

func TestIntakeLifecycle(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	med := f.meds.add("Aspirin")

	s, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: patient.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "100mg",
	})

	planned := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	in, err := f.svc.AddIntake(context.Background(), s.ID, patient.ID, planned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Status != IntakePlanned || in.TakenAt != nil {
		t.Errorf("new intakes start planned: %+v", in)
	}

	marked, err := f.svc.MarkIntake(context.Background(), in.ID, patient.ID, IntakeTaken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if marked.Status != IntakeTaken || marked.TakenAt == nil {
		t.Errorf("taken intakes record taken_at: %+v", marked)
	}

	_, err = f.svc.MarkIntake(context.Background(), in.ID, patient.ID, IntakeMissed)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("terminal intakes cannot be re-resolved, got %v", err)
	}
}

func TestMarkIntake_InvalidStatus(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	med := f.meds.add("Aspirin")

	s, _ := f.svc.Create(context.Background(), CreateInput{
		PatientID: patient.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "100mg",
	})
	in, _ := f.svc.AddIntake(context.Background(), s.ID, patient.ID, time.Now().UTC())

	if _, err := f.svc.MarkIntake(context.Background(), in.ID, patient.ID, IntakePlanned); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("planned is not a resolution, got %v", err)
	}
	if _, err := f.svc.MarkIntake(context.Background(), in.ID, patient.ID, IntakeStatus("late")); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("unknown status must be rejected, got %v", err)
	}
}

func TestListByPatient_Permission(t *testing.T) {
	f := newFixture()
	patient := f.users.add("Pat", user.RolePatient)
	stranger := f.users.add("Stranger", user.RoleDoctor)
	med := f.meds.add("Aspirin")

	f.svc.Create(context.Background(), CreateInput{
		PatientID: patient.ID, MedicationID: med.ID,
		StartDate: date("2024-01-01"), Pattern: "daily", DoseAmount: "100mg",
	})

	items, total, err := f.svc.ListByPatient(context.Background(), patient.ID, patient.ID, 20, 0)
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("expected own schedule listed, got %d %v", total, err)
	}

	_, _, err = f.svc.ListByPatient(context.Background(), patient.ID, stranger.ID, 20, 0)
	if !apperr.IsKind(err, apperr.KindPermissionDenied) {
		t.Errorf("expected permission denied, got %v", err)
	}
}

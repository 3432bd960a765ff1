package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/scheduler"
	"github.com/example/clinic-scheduler/internal/testfixtures"
)

type stubAppointmentRepo struct {
	mu           sync.Mutex
	nextID       int64
	appointments map[int64]*persistence.Appointment
	activeCalls  int
	createErr    error
}

func newStubAppointmentRepo() *stubAppointmentRepo {
	return &stubAppointmentRepo{appointments: make(map[int64]*persistence.Appointment)}
}

func (r *stubAppointmentRepo) Create(_ context.Context, appointment *persistence.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	appointment.ID = r.nextID
	clone := *appointment
	r.appointments[appointment.ID] = &clone
	return nil
}

func (r *stubAppointmentRepo) GetByID(_ context.Context, id int64) (*persistence.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment, ok := r.appointments[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	clone := *appointment
	return &clone, nil
}

func (r *stubAppointmentRepo) List(_ context.Context, filter persistence.AppointmentFilter) ([]*persistence.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*persistence.Appointment
	for _, appointment := range r.appointments {
		if filter.PatientID != 0 && appointment.PatientID != filter.PatientID {
			continue
		}
		if filter.DoctorID != 0 && appointment.DoctorID != filter.DoctorID {
			continue
		}
		if filter.ActiveOnly && !appointment.Status.Active() {
			continue
		}
		clone := *appointment
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubAppointmentRepo) FindActiveAt(_ context.Context, slot scheduler.Slot) ([]*persistence.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeCalls++
	var out []*persistence.Appointment
	for _, appointment := range r.appointments {
		if appointment.Status.Active() && appointment.Slot().Equal(slot) {
			clone := *appointment
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubAppointmentRepo) Update(_ context.Context, appointment *persistence.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[appointment.ID]; !ok {
		return persistence.ErrNotFound
	}
	clone := *appointment
	r.appointments[appointment.ID] = &clone
	return nil
}

func (r *stubAppointmentRepo) UpdateStatus(_ context.Context, id int64, status scheduler.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment, ok := r.appointments[id]
	if !ok {
		return persistence.ErrNotFound
	}
	appointment.Status = status
	return nil
}

func (r *stubAppointmentRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *stubAppointmentRepo) CountUpcomingByPatient(_ context.Context, patientID int64, from time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, appointment := range r.appointments {
		if appointment.PatientID == patientID && upcoming(appointment, from) {
			count++
		}
	}
	return count, nil
}

func (r *stubAppointmentRepo) CountUpcomingByDoctor(_ context.Context, doctorID int64, from time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, appointment := range r.appointments {
		if appointment.DoctorID == doctorID && upcoming(appointment, from) {
			count++
		}
	}
	return count, nil
}

func upcoming(appointment *persistence.Appointment, from time.Time) bool {
	return appointment.Status == scheduler.StatusScheduled &&
		!scheduler.DateOf(appointment.Date).Before(scheduler.DateOf(from))
}

func (r *stubAppointmentRepo) Stats(_ context.Context) (*persistence.Statistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &persistence.Statistics{}
	for _, appointment := range r.appointments {
		stats.Total++
		switch appointment.Status {
		case scheduler.StatusScheduled:
			stats.Scheduled++
		case scheduler.StatusAttended:
			stats.Attended++
		case scheduler.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

type stubPatientRepo struct {
	patients map[int64]*persistence.Patient
}

func (r *stubPatientRepo) Create(_ context.Context, patient *persistence.Patient) error {
	for _, existing := range r.patients {
		if existing.Document == patient.Document || existing.Email == patient.Email {
			return persistence.ErrDuplicate
		}
	}
	patient.ID = int64(len(r.patients) + 1)
	r.patients[patient.ID] = patient
	return nil
}

func (r *stubPatientRepo) GetByID(_ context.Context, id int64) (*persistence.Patient, error) {
	patient, ok := r.patients[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return patient, nil
}

func (r *stubPatientRepo) GetByDocument(_ context.Context, document string) (*persistence.Patient, error) {
	for _, patient := range r.patients {
		if patient.Document == document {
			return patient, nil
		}
	}
	return nil, persistence.ErrNotFound
}

func (r *stubPatientRepo) GetByEmail(_ context.Context, email string) (*persistence.Patient, error) {
	for _, patient := range r.patients {
		if strings.EqualFold(patient.Email, email) {
			return patient, nil
		}
	}
	return nil, persistence.ErrNotFound
}

func (r *stubPatientRepo) List(_ context.Context) ([]*persistence.Patient, error) {
	var out []*persistence.Patient
	for _, patient := range r.patients {
		out = append(out, patient)
	}
	return out, nil
}

func (r *stubPatientRepo) Search(_ context.Context, term string) ([]*persistence.Patient, error) {
	var out []*persistence.Patient
	for _, patient := range r.patients {
		if strings.Contains(strings.ToLower(patient.Name), strings.ToLower(term)) ||
			strings.Contains(patient.Document, term) {
			out = append(out, patient)
		}
	}
	return out, nil
}

func (r *stubPatientRepo) Update(_ context.Context, patient *persistence.Patient) error {
	if _, ok := r.patients[patient.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.patients[patient.ID] = patient
	return nil
}

func (r *stubPatientRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.patients[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.patients, id)
	return nil
}

type stubDoctorRepo struct {
	doctors map[int64]*persistence.Doctor
}

func (r *stubDoctorRepo) Create(_ context.Context, doctor *persistence.Doctor) error {
	doctor.ID = int64(len(r.doctors) + 1)
	r.doctors[doctor.ID] = doctor
	return nil
}

func (r *stubDoctorRepo) GetByID(_ context.Context, id int64) (*persistence.Doctor, error) {
	doctor, ok := r.doctors[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return doctor, nil
}

func (r *stubDoctorRepo) GetByDocument(_ context.Context, document string) (*persistence.Doctor, error) {
	for _, doctor := range r.doctors {
		if doctor.Document == document {
			return doctor, nil
		}
	}
	return nil, persistence.ErrNotFound
}

func (r *stubDoctorRepo) GetByEmail(_ context.Context, email string) (*persistence.Doctor, error) {
	for _, doctor := range r.doctors {
		if strings.EqualFold(doctor.Email, email) {
			return doctor, nil
		}
	}
	return nil, persistence.ErrNotFound
}

func (r *stubDoctorRepo) List(_ context.Context) ([]*persistence.Doctor, error) {
	var out []*persistence.Doctor
	for _, doctor := range r.doctors {
		out = append(out, doctor)
	}
	return out, nil
}

func (r *stubDoctorRepo) Search(_ context.Context, term string) ([]*persistence.Doctor, error) {
	var out []*persistence.Doctor
	for _, doctor := range r.doctors {
		if strings.Contains(strings.ToLower(doctor.Name), strings.ToLower(term)) ||
			strings.Contains(doctor.Document, term) ||
			strings.Contains(strings.ToLower(doctor.Specialty), strings.ToLower(term)) {
			out = append(out, doctor)
		}
	}
	return out, nil
}

func (r *stubDoctorRepo) ListBySpecialty(_ context.Context, specialty string) ([]*persistence.Doctor, error) {
	var out []*persistence.Doctor
	for _, doctor := range r.doctors {
		if doctor.Specialty == specialty {
			out = append(out, doctor)
		}
	}
	return out, nil
}

func (r *stubDoctorRepo) Specialties(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, doctor := range r.doctors {
		if !seen[doctor.Specialty] {
			seen[doctor.Specialty] = true
			out = append(out, doctor.Specialty)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *stubDoctorRepo) Update(_ context.Context, doctor *persistence.Doctor) error {
	if _, ok := r.doctors[doctor.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.doctors[doctor.ID] = doctor
	return nil
}

func (r *stubDoctorRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.doctors[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.doctors, id)
	return nil
}

type captureNotifier struct {
	delivered chan Confirmation
}

func (n *captureNotifier) AppointmentScheduled(_ context.Context, confirmation Confirmation) bool {
	n.delivered <- confirmation
	return true
}

type appointmentFixture struct {
	service      *AppointmentService
	appointments *stubAppointmentRepo
	patients     *stubPatientRepo
	doctors      *stubDoctorRepo
	notifier     *captureNotifier
	now          time.Time
}

func newAppointmentFixture(t *testing.T) *appointmentFixture {
	t.Helper()

	clock := testfixtures.NewClock(time.Time{})
	ana := testfixtures.NewPatient(testfixtures.WithPatientEmail("ana@example.com"))
	luis := testfixtures.NewPatient()
	carlos := testfixtures.NewDoctor(testfixtures.WithSpecialty("Cardiología"))
	elena := testfixtures.NewDoctor(testfixtures.WithSpecialty("Pediatría"))
	patients := &stubPatientRepo{patients: map[int64]*persistence.Patient{1: ana, 2: luis}}
	ana.ID, luis.ID = 1, 2
	doctors := &stubDoctorRepo{doctors: map[int64]*persistence.Doctor{1: carlos, 2: elena}}
	carlos.ID, elena.ID = 1, 2
	appointments := newStubAppointmentRepo()
	notifier := &captureNotifier{delivered: make(chan Confirmation, 4)}

	service := NewAppointmentService(appointments, patients, doctors, notifier, nil, clock.NowFunc())
	return &appointmentFixture{
		service:      service,
		appointments: appointments,
		patients:     patients,
		doctors:      doctors,
		notifier:     notifier,
		now:          clock.Now(),
	}
}

func validCreateInput() CreateAppointmentInput {
	return CreateAppointmentInput{
		PatientID: 1,
		DoctorID:  1,
		Date:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Time:      scheduler.TimeOfDay(10 * 60),
		Notes:     "Control anual",
	}
}

func TestAppointmentService_Create(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)

	appointment, err := fx.service.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if appointment.ID == 0 || appointment.Status != scheduler.StatusScheduled {
		t.Fatalf("unexpected appointment: %+v", appointment)
	}

	select {
	case confirmation := <-fx.notifier.delivered:
		if confirmation.AppointmentID != appointment.ID || confirmation.PatientEmail != "ana@example.com" {
			t.Fatalf("unexpected confirmation: %+v", confirmation)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a confirmation to be delivered")
	}
}

type refusingNotifier struct {
	done chan struct{}
}

func (n *refusingNotifier) AppointmentScheduled(_ context.Context, _ Confirmation) bool {
	close(n.done)
	return false
}

type panickingNotifier struct {
	done chan struct{}
}

func (n *panickingNotifier) AppointmentScheduled(_ context.Context, _ Confirmation) bool {
	defer close(n.done)
	panic("smtp handshake blew up")
}

func TestAppointmentService_CreateSurvivesNotifierRefusal(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	notifier := &refusingNotifier{done: make(chan struct{})}
	service := NewAppointmentService(fx.appointments, fx.patients, fx.doctors, notifier, nil,
		testfixtures.NewClock(time.Time{}).NowFunc())

	appointment, err := service.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if appointment.ID == 0 || appointment.Status != scheduler.StatusScheduled {
		t.Fatalf("expected a persisted booking despite the refused confirmation, got %+v", appointment)
	}

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the notifier to be invoked")
	}
}

func TestAppointmentService_CreateSurvivesNotifierPanic(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	notifier := &panickingNotifier{done: make(chan struct{})}
	service := NewAppointmentService(fx.appointments, fx.patients, fx.doctors, notifier, nil,
		testfixtures.NewClock(time.Time{}).NowFunc())

	appointment, err := service.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the notifier to be invoked")
	}

	// The booking must remain committed and readable afterwards.
	if _, err := service.Get(context.Background(), appointment.ID); err != nil {
		t.Fatalf("expected booking to survive the notifier panic: %v", err)
	}
}

func TestAppointmentService_CreateRejectsEarlierSameDaySlot(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)

	input := validCreateInput()
	input.Date = scheduler.DateOf(fx.now)
	input.Time = scheduler.TimeOfDay(8 * 60) // the fixture clock reads 09:00

	_, err := fx.service.Create(context.Background(), input)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := vErr.FieldErrors["time"]; !ok {
		t.Fatalf("expected time field error, got %+v", vErr.FieldErrors)
	}
}

func TestAppointmentService_CreateDetectsDoctorConflict(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	ctx := context.Background()

	if _, err := fx.service.Create(ctx, validCreateInput()); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	input := validCreateInput()
	input.PatientID = 2
	_, err := fx.service.Create(ctx, input)

	var cErr *ConflictError
	if !errors.As(err, &cErr) || cErr.Party != "doctor" {
		t.Fatalf("expected doctor conflict, got %v", err)
	}
}

func TestAppointmentService_CreateDetectsPatientConflict(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	ctx := context.Background()

	if _, err := fx.service.Create(ctx, validCreateInput()); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	input := validCreateInput()
	input.DoctorID = 2
	_, err := fx.service.Create(ctx, input)

	var cErr *ConflictError
	if !errors.As(err, &cErr) || cErr.Party != "patient" {
		t.Fatalf("expected patient conflict, got %v", err)
	}
}

func TestAppointmentService_CreateAllowsFreedSlot(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	ctx := context.Background()

	first, err := fx.service.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := fx.service.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := fx.service.Create(ctx, validCreateInput()); err != nil {
		t.Fatalf("expected freed slot to be bookable, got %v", err)
	}
}

func TestAppointmentService_CreateMapsStorageSlotRace(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	fx.appointments.createErr = persistence.ErrDoctorSlotTaken

	_, err := fx.service.Create(context.Background(), validCreateInput())
	var cErr *ConflictError
	if !errors.As(err, &cErr) || cErr.Party != "doctor" {
		t.Fatalf("expected doctor conflict from storage race, got %v", err)
	}
}

func TestAppointmentService_CreateUnknownPatient(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)

	input := validCreateInput()
	input.PatientID = 99
	if _, err := fx.service.Create(context.Background(), input); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppointmentService_UpdateNotesSkipsConflictCheck(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	fx.appointments.mu.Lock()
	fx.appointments.activeCalls = 0
	fx.appointments.mu.Unlock()

	input := UpdateAppointmentInput{
		PatientID: created.PatientID,
		DoctorID:  created.DoctorID,
		Date:      created.Date,
		Time:      created.Time,
		Notes:     "Traer exámenes recientes",
	}
	updated, err := fx.service.Update(ctx, created.ID, input)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Notes != "Traer exámenes recientes" {
		t.Fatalf("notes not updated: %q", updated.Notes)
	}

	fx.appointments.mu.Lock()
	calls := fx.appointments.activeCalls
	fx.appointments.mu.Unlock()
	if calls != 0 {
		t.Fatalf("expected no conflict lookup for unchanged slot, got %d", calls)
	}
}

func TestAppointmentService_UpdateKeepingSlotDoesNotSelfConflict(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Changing the doctor forces a conflict re-check on the same slot.
	// The booking's own row must not count against it.
	input := UpdateAppointmentInput{
		PatientID: created.PatientID,
		DoctorID:  2,
		Date:      created.Date,
		Time:      created.Time,
		Notes:     created.Notes,
	}
	if _, err := fx.service.Update(ctx, created.ID, input); err != nil {
		t.Fatalf("update failed: %v", err)
	}
}

func TestAppointmentService_UpdateDetectsConflictOnNewSlot(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	ctx := context.Background()

	if _, err := fx.service.Create(ctx, validCreateInput()); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	other := validCreateInput()
	other.PatientID = 2
	other.Time = scheduler.TimeOfDay(11 * 60)
	second, err := fx.service.Create(ctx, other)
	if err != nil {
		t.Fatalf("second booking failed: %v", err)
	}

	// Move the second booking onto the first one's slot.
	input := UpdateAppointmentInput{
		PatientID: second.PatientID,
		DoctorID:  second.DoctorID,
		Date:      second.Date,
		Time:      scheduler.TimeOfDay(10 * 60),
		Notes:     second.Notes,
	}
	_, err = fx.service.Update(ctx, second.ID, input)
	var cErr *ConflictError
	if !errors.As(err, &cErr) || cErr.Party != "doctor" {
		t.Fatalf("expected doctor conflict, got %v", err)
	}
}

func TestAppointmentService_CancelAndAttend(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := fx.service.Cancel(ctx, created.ID)
	if err != nil || !found {
		t.Fatalf("cancel = (%v, %v)", found, err)
	}

	if _, err := fx.service.Cancel(ctx, created.ID); !errors.Is(err, scheduler.ErrAlreadyInState) {
		t.Fatalf("expected ErrAlreadyInState, got %v", err)
	}
	if _, err := fx.service.MarkAttended(ctx, created.ID); !errors.Is(err, scheduler.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAppointmentService_CancelMissingReportsNotFound(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)

	found, err := fx.service.Cancel(context.Background(), 404)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected found=false for a missing booking")
	}
}

func TestAppointmentService_DeleteGuardsFutureScheduled(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := fx.service.Delete(ctx, created.ID); !errors.Is(err, ErrDeleteNotAllowed) {
		t.Fatalf("expected ErrDeleteNotAllowed, got %v", err)
	}

	if _, err := fx.service.Cancel(ctx, created.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	found, err := fx.service.Delete(ctx, created.ID)
	if err != nil || !found {
		t.Fatalf("delete after cancel = (%v, %v)", found, err)
	}

	found, err = fx.service.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected found=false for a deleted booking")
	}
}

func TestAppointmentService_Statistics(t *testing.T) {
	t.Parallel()
	fx := newAppointmentFixture(t)
	ctx := context.Background()

	first, err := fx.service.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second := validCreateInput()
	second.Time = scheduler.TimeOfDay(12 * 60)
	if _, err := fx.service.Create(ctx, second); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := fx.service.MarkAttended(ctx, first.ID); err != nil {
		t.Fatalf("attend failed: %v", err)
	}

	stats, err := fx.service.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.Total != 2 || stats.Scheduled != 1 || stats.Attended != 1 || stats.Cancelled != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

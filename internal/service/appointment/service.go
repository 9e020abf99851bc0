package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/realtime"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/internal/schedule"
	"github.com/jwalitptl/clinic-booking/internal/service"
	"github.com/jwalitptl/clinic-booking/internal/service/notification"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

const (
	channelStaff   = "staff"
	channelPatient = "patient"
)

// Reminder delivers appointment reminders.
type Reminder interface {
	SendReminder(ctx context.Context, appointmentID uuid.UUID, phone string, data notification.ReminderData) model.NotificationResult
}

type Options struct {
	// MaxAdvanceDays rejects bookings further ahead than this. Zero disables the check.
	MaxAdvanceDays int
}

type Service struct {
	store    repository.Store
	catalog  repository.CatalogRepository
	grid     *schedule.Grid
	clock    schedule.Clock
	events   *realtime.Emitter
	reminder Reminder
	metrics  *metrics.Metrics
	logger   *logger.Logger
	opts     Options
}

func NewService(
	store repository.Store,
	catalog repository.CatalogRepository,
	grid *schedule.Grid,
	clock schedule.Clock,
	events *realtime.Emitter,
	reminder Reminder,
	m *metrics.Metrics,
	log *logger.Logger,
	opts Options,
) *Service {
	return &Service{
		store:    store,
		catalog:  catalog,
		grid:     grid,
		clock:    clock,
		events:   events,
		reminder: reminder,
		metrics:  m,
		logger:   log,
		opts:     opts,
	}
}

// IsSlotTaken reports whether a non-cancelled appointment holds the slot. A store failure is
// returned as a Transient error and must not be read as "available".
func (s *Service) IsSlotTaken(ctx context.Context, doctorID uuid.UUID, date model.Date, t model.Clock) (bool, error) {
	taken, err := s.store.Appointments().IsSlotTaken(ctx, doctorID, date, t)
	if err != nil {
		return false, service.StoreError(err, "slot")
	}
	return taken, nil
}

// DaySlots returns the doctor's grid for date with taken and past flags.
func (s *Service) DaySlots(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.SlotState, error) {
	if _, err := s.catalog.GetDoctor(ctx, doctorID); err != nil {
		return nil, service.StoreError(err, "doctor")
	}
	taken, err := s.store.Appointments().TakenSlots(ctx, doctorID, date)
	if err != nil {
		return nil, service.StoreError(err, "slot")
	}
	takenSet := make(map[model.Clock]bool, len(taken))
	for _, t := range taken {
		takenSet[t] = true
	}

	now := s.clock.Now()
	slots := s.grid.Slots()
	out := make([]model.SlotState, len(slots))
	for i, t := range slots {
		out[i] = model.SlotState{
			Time:  t,
			Taken: takenSet[t],
			Past:  schedule.IsInPast(date, t, now),
		}
	}
	return out, nil
}

// CreateAppointment books a slot and creates its medical record stub and planned treatment
// lines as one unit.
func (s *Service) CreateAppointment(ctx context.Context, user model.CurrentUser, in model.NewAppointment) (*model.Appointment, error) {
	channel := channelStaff
	if user.Role == model.RolePatient {
		channel = channelPatient
	}

	appointment, err := s.createAppointment(ctx, user, in)
	switch {
	case err == nil:
		s.metrics.Bookings.WithLabelValues(channel, "created").Inc()
	case apperrors.Is(err, apperrors.ErrConflict):
		s.metrics.SlotConflicts.Inc()
		s.metrics.Bookings.WithLabelValues(channel, "conflict").Inc()
	default:
		s.metrics.Bookings.WithLabelValues(channel, "rejected").Inc()
	}
	return appointment, err
}

func (s *Service) createAppointment(ctx context.Context, user model.CurrentUser, in model.NewAppointment) (*model.Appointment, error) {
	if user.Role == model.RolePatient {
		patient, err := s.catalog.PatientByUser(ctx, user.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.Forbidden("no patient profile for this account")
			}
			return nil, service.StoreError(err, "patient")
		}
		in.PatientID = patient.ID
		in.Status = model.AppointmentStatusWaiting
	}
	if in.Status == "" {
		in.Status = user.DefaultStatus()
	}

	if err := s.validate(in); err != nil {
		return nil, err
	}

	if _, err := s.catalog.GetDoctor(ctx, in.DoctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Validation("unknown doctor")
		}
		return nil, service.StoreError(err, "doctor")
	}
	if _, err := s.catalog.GetPatient(ctx, in.PatientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Validation("unknown patient")
		}
		return nil, service.StoreError(err, "patient")
	}

	treatments, err := s.lookupTreatments(ctx, in.TreatmentIDs)
	if err != nil {
		return nil, err
	}

	taken, err := s.IsSlotTaken(ctx, in.DoctorID, in.Date, in.Time)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Conflict("slot is already booked, please pick another time", nil)
	}

	appointment := &model.Appointment{
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Date:      in.Date,
		Time:      in.Time,
		Complaint: in.Complaint,
		Status:    in.Status,
	}

	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.Appointments().Create(ctx, appointment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.Conflict("slot is already booked, please pick another time", err)
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		record := &model.MedicalRecord{
			AppointmentID:    appointment.ID,
			PatientID:        appointment.PatientID,
			Diagnosis:        model.DiagnosisPending,
			TreatmentSummary: model.SummarizeTreatments(treatments),
		}
		if err := tx.MedicalRecords().Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create medical record: %w", err)
		}

		details := model.NewTreatmentDetails(record.ID, treatments, s.clock.Now())
		if err := tx.MedicalRecords().AddTreatments(ctx, details); err != nil {
			return fmt.Errorf("failed to add treatment details: %w", err)
		}
		return nil
	})
	if err != nil {
		s.handleFailedUnit(err, appointment)
		return nil, service.StoreError(err, "appointment")
	}

	s.logger.Info("appointment created",
		"appointment_id", appointment.ID.String(),
		"doctor_id", appointment.DoctorID.String(),
		"slot", appointment.Date.String()+" "+appointment.Time.String(),
		"status", string(appointment.Status),
	)
	s.events.Emit(ctx, realtime.OpInsert, realtime.TableAppointments, realtime.TableMedicalRecords)
	return appointment, nil
}

// handleFailedUnit records a rolled back booking. When the rollback itself failed the
// appointment row may still exist without its record.
func (s *Service) handleFailedUnit(err error, appointment *model.Appointment) {
	var rbErr *repository.RollbackError
	if errors.As(err, &rbErr) {
		s.metrics.OrphanedAppointments.Inc()
		s.logger.Error(rbErr.RollbackErr, "booking rollback failed, appointment may be orphaned",
			"event", "orphaned_appointment",
			"appointment_id", appointment.ID.String(),
			"doctor_id", appointment.DoctorID.String(),
			"slot", appointment.Date.String()+" "+appointment.Time.String(),
			"cause", rbErr.Cause.Error(),
		)
		return
	}
	if apperrors.Is(err, apperrors.ErrConflict) {
		return
	}
	s.metrics.Rollbacks.Inc()
	s.logger.Error(err, "booking rolled back", "doctor_id", appointment.DoctorID.String())
}

func (s *Service) validate(in model.NewAppointment) error {
	if in.PatientID == uuid.Nil {
		return apperrors.Validation("patient is required")
	}
	if in.DoctorID == uuid.Nil {
		return apperrors.Validation("doctor is required")
	}
	if in.Date.IsZero() {
		return apperrors.Validation("date is required")
	}
	if !s.grid.Contains(in.Time) {
		return apperrors.Validation(fmt.Sprintf("%s is not a bookable time", in.Time))
	}
	if !in.Status.Valid() || in.Status.Terminal() {
		return apperrors.Validation(fmt.Sprintf("appointments cannot be created as %q", in.Status))
	}

	now := s.clock.Now()
	if schedule.IsInPast(in.Date, in.Time, now) {
		return apperrors.Validation("cannot book a time that has already passed")
	}
	if s.opts.MaxAdvanceDays > 0 && in.Date.After(model.DateOf(now).AddDays(s.opts.MaxAdvanceDays)) {
		return apperrors.Validation(fmt.Sprintf("bookings are open up to %d days ahead", s.opts.MaxAdvanceDays))
	}
	return nil
}

// lookupTreatments resolves ids in order and rejects unknown or inactive treatments.
func (s *Service) lookupTreatments(ctx context.Context, ids []uuid.UUID) ([]*model.Treatment, error) {
	return LookupTreatments(ctx, s.catalog, ids)
}

// LookupTreatments is shared with the examination flow.
func LookupTreatments(ctx context.Context, catalog repository.CatalogRepository, ids []uuid.UUID) ([]*model.Treatment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	treatments, err := catalog.TreatmentsByIDs(ctx, ids)
	if err != nil {
		return nil, service.StoreError(err, "treatment")
	}
	if len(treatments) != len(ids) {
		found := make(map[uuid.UUID]bool, len(treatments))
		for _, t := range treatments {
			found[t.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, apperrors.Validation(fmt.Sprintf("unknown treatment %s", id))
			}
		}
	}
	return treatments, nil
}

// GetAppointment returns one appointment. Doctors and patients only see their own.
func (s *Service) GetAppointment(ctx context.Context, user model.CurrentUser, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return nil, service.StoreError(err, "appointment")
	}
	if err := s.authorize(ctx, user, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// ListQueue lists appointments visible to user, ordered by date then time.
func (s *Service) ListQueue(ctx context.Context, user model.CurrentUser, filters model.AppointmentFilters) ([]*model.Appointment, error) {
	switch user.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		doctor, err := s.catalog.DoctorByUser(ctx, user.ID)
		if err != nil {
			return nil, s.profileError(err, "doctor")
		}
		filters.DoctorID = doctor.ID
	case model.RolePatient:
		patient, err := s.catalog.PatientByUser(ctx, user.ID)
		if err != nil {
			return nil, s.profileError(err, "patient")
		}
		filters.PatientID = patient.ID
	default:
		return nil, apperrors.Forbidden("unknown role")
	}

	appointments, err := s.store.Appointments().List(ctx, &filters)
	if err != nil {
		return nil, service.StoreError(err, "appointment")
	}
	return appointments, nil
}

func (s *Service) authorize(ctx context.Context, user model.CurrentUser, appointment *model.Appointment) error {
	switch user.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleDoctor:
		doctor, err := s.catalog.DoctorByUser(ctx, user.ID)
		if err != nil {
			return s.profileError(err, "doctor")
		}
		if doctor.ID != appointment.DoctorID {
			return apperrors.Forbidden("appointment belongs to another doctor")
		}
		return nil
	case model.RolePatient:
		patient, err := s.catalog.PatientByUser(ctx, user.ID)
		if err != nil {
			return s.profileError(err, "patient")
		}
		if patient.ID != appointment.PatientID {
			return apperrors.Forbidden("appointment belongs to another patient")
		}
		return nil
	default:
		return apperrors.Forbidden("unknown role")
	}
}

func (s *Service) profileError(err error, kind string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.Forbidden(fmt.Sprintf("no %s profile for this account", kind))
	}
	return service.StoreError(err, kind)
}

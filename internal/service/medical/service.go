package medical

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
	"github.com/jwalitptl/clinic-booking/internal/service/appointment"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

type Service struct {
	store   repository.Store
	catalog repository.CatalogRepository
	clock   schedule.Clock
	events  *realtime.Emitter
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewService(store repository.Store, catalog repository.CatalogRepository, clock schedule.Clock, events *realtime.Emitter, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		clock:   clock,
		events:  events,
		metrics: m,
		logger:  log,
	}
}

// GetRecord returns a medical record with its treatment lines.
func (s *Service) GetRecord(ctx context.Context, user model.CurrentUser, id uuid.UUID) (*model.MedicalRecord, error) {
	record, err := s.store.MedicalRecords().Get(ctx, id)
	if err != nil {
		return nil, service.StoreError(err, "medical record")
	}
	return s.load(ctx, user, record)
}

// RecordByAppointment returns the record created with the appointment.
func (s *Service) RecordByAppointment(ctx context.Context, user model.CurrentUser, appointmentID uuid.UUID) (*model.MedicalRecord, error) {
	record, err := s.store.MedicalRecords().GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, service.StoreError(err, "medical record")
	}
	return s.load(ctx, user, record)
}

func (s *Service) load(ctx context.Context, user model.CurrentUser, record *model.MedicalRecord) (*model.MedicalRecord, error) {
	appt, err := s.store.Appointments().Get(ctx, record.AppointmentID)
	if err != nil {
		return nil, service.StoreError(err, "appointment")
	}
	if err := s.authorize(ctx, user, appt); err != nil {
		return nil, err
	}

	details, err := s.store.MedicalRecords().ListTreatments(ctx, record.ID)
	if err != nil {
		return nil, service.StoreError(err, "treatment detail")
	}
	record.Treatments = details
	return record, nil
}

// RecordExamination writes the doctor's diagnosis and replaces the record's treatment lines
// with the final set, priced at today's catalog prices. The appointment must be completed and
// the record not yet paid.
func (s *Service) RecordExamination(ctx context.Context, user model.CurrentUser, recordID uuid.UUID, exam model.Examination) (*model.MedicalRecord, error) {
	if exam.Diagnosis == "" {
		return nil, apperrors.Validation("diagnosis is required")
	}
	if exam.Diagnosis == model.DiagnosisPending {
		return nil, apperrors.Validation("diagnosis must describe the examination")
	}

	record, err := s.store.MedicalRecords().Get(ctx, recordID)
	if err != nil {
		return nil, service.StoreError(err, "medical record")
	}
	appt, err := s.store.Appointments().Get(ctx, record.AppointmentID)
	if err != nil {
		return nil, service.StoreError(err, "appointment")
	}
	if err := s.authorize(ctx, user, appt); err != nil {
		return nil, err
	}
	if appt.Status != model.AppointmentStatusCompleted {
		return nil, apperrors.Validation(fmt.Sprintf("examination can only be recorded for completed appointments, this one is %s", appt.Status.Label()))
	}

	treatments, err := appointment.LookupTreatments(ctx, s.catalog, exam.TreatmentIDs)
	if err != nil {
		return nil, err
	}

	record.Diagnosis = exam.Diagnosis
	record.Notes = exam.Notes
	record.TreatmentSummary = model.SummarizeTreatments(treatments)
	details := model.NewTreatmentDetails(record.ID, treatments, s.clock.Now())

	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		// a payment finalized after this point waits for the lock and prices the new lines
		if _, err := tx.MedicalRecords().Lock(ctx, record.ID); err != nil {
			return fmt.Errorf("failed to lock medical record: %w", err)
		}
		if _, err := tx.Transactions().GetByRecord(ctx, record.ID); err == nil {
			return apperrors.Integrity("medical record is already paid", nil)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check payment: %w", err)
		}

		if err := tx.MedicalRecords().UpdateExamination(ctx, record); err != nil {
			return fmt.Errorf("failed to update medical record: %w", err)
		}
		if err := tx.MedicalRecords().ReplaceTreatments(ctx, record.ID, details); err != nil {
			return fmt.Errorf("failed to replace treatment details: %w", err)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		var rbErr *repository.RollbackError
		if errors.As(err, &rbErr) {
			s.logger.Error(rbErr.RollbackErr, "examination rollback failed",
				"event", "partial_examination",
				"medical_record_id", record.ID.String(),
				"cause", rbErr.Cause.Error(),
			)
		} else {
			s.metrics.Rollbacks.Inc()
		}
		return nil, service.StoreError(err, "medical record")
	}

	record.Treatments = details
	s.logger.Info("examination recorded",
		"medical_record_id", record.ID.String(),
		"appointment_id", appt.ID.String(),
		"treatments", len(details),
	)
	s.events.Emit(ctx, realtime.OpUpdate, realtime.TableMedicalRecords)
	return record, nil
}

// authorize lets admins through and limits doctors to their own patients' records.
func (s *Service) authorize(ctx context.Context, user model.CurrentUser, appt *model.Appointment) error {
	switch user.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleDoctor:
		doctor, err := s.catalog.DoctorByUser(ctx, user.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.Forbidden("no doctor profile for this account")
			}
			return service.StoreError(err, "doctor")
		}
		if doctor.ID != appt.DoctorID {
			return apperrors.Forbidden("medical record belongs to another doctor")
		}
		return nil
	default:
		return apperrors.Forbidden("medical records are only available to clinic staff")
	}
}

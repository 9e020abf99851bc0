package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service"
	"github.com/jwalitptl/clinic-booking/internal/service/notification"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

// ReminderSummary is the outcome of one reminder run.
type ReminderSummary struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// SendReminder sends a WhatsApp reminder for one appointment. A delivery failure is reported
// in the result and is not an error.
func (s *Service) SendReminder(ctx context.Context, id uuid.UUID) (model.NotificationResult, error) {
	appointment, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return model.NotificationResult{}, service.StoreError(err, "appointment")
	}
	if appointment.Status.Terminal() {
		return model.NotificationResult{}, apperrors.Validation("reminders are only sent for upcoming appointments")
	}
	return s.remind(ctx, appointment)
}

func (s *Service) remind(ctx context.Context, appointment *model.Appointment) (model.NotificationResult, error) {
	patient, err := s.catalog.GetPatient(ctx, appointment.PatientID)
	if err != nil {
		return model.NotificationResult{}, service.StoreError(err, "patient")
	}
	doctor, err := s.catalog.GetDoctor(ctx, appointment.DoctorID)
	if err != nil {
		return model.NotificationResult{}, service.StoreError(err, "doctor")
	}
	return s.reminder.SendReminder(ctx, appointment.ID, patient.Phone, notificationData(patient, doctor, appointment)), nil
}

// SendDueReminders reminds every upcoming appointment on date that has not been reminded yet.
func (s *Service) SendDueReminders(ctx context.Context, date model.Date) (ReminderSummary, error) {
	var summary ReminderSummary

	appointments, err := s.store.Appointments().List(ctx, &model.AppointmentFilters{
		Date:     &date,
		Statuses: []model.AppointmentStatus{model.AppointmentStatusWaiting, model.AppointmentStatusConfirmed},
	})
	if err != nil {
		return summary, service.StoreError(err, "appointment")
	}

	for _, appointment := range appointments {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		sent, err := s.store.Notifications().HasSent(ctx, appointment.ID, model.NotificationKindReminder)
		if err != nil {
			return summary, service.StoreError(err, "notification")
		}
		if sent {
			summary.Skipped++
			continue
		}

		result, err := s.remind(ctx, appointment)
		if err != nil || !result.Success {
			summary.Failed++
			if err != nil {
				s.logger.Error(err, "failed to send reminder", "appointment_id", appointment.ID.String())
			}
			continue
		}
		summary.Sent++
	}

	s.logger.Info("reminder run finished",
		"date", date.String(),
		"sent", summary.Sent,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

func notificationData(patient *model.Patient, doctor *model.Doctor, appointment *model.Appointment) notification.ReminderData {
	return notification.ReminderData{
		PatientName: patient.Name,
		DoctorName:  doctor.Name,
		Date:        appointment.Date.String(),
		Time:        appointment.Time.String(),
	}
}

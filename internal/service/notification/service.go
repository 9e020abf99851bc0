package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

var ErrNoRecipient = errors.New("no recipient")

// Service renders clinic messages, sends them and records every attempt.
type Service struct {
	repo       repository.NotificationRepository
	whatsapp   Sender
	mailer     Mailer
	clinicName string
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

// NewService wires the channels. mailer may be nil when SMTP is not configured.
func NewService(repo repository.NotificationRepository, whatsapp Sender, mailer Mailer, clinicName string, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		whatsapp:   whatsapp,
		mailer:     mailer,
		clinicName: clinicName,
		metrics:    m,
		logger:     log,
	}
}

// SendReminder sends the appointment reminder over WhatsApp. Delivery failures are reported
// in the result, not as an error.
func (s *Service) SendReminder(ctx context.Context, appointmentID uuid.UUID, phone string, data ReminderData) model.NotificationResult {
	data.ClinicName = s.clinicName
	content, err := render(reminderTemplate, data)
	if err != nil {
		return model.NotificationResult{Success: false, Message: err.Error()}
	}

	var result model.NotificationResult
	if phone == "" {
		result = model.NotificationResult{Success: false, Message: "patient has no phone number"}
	} else {
		result = s.whatsapp.Send(ctx, phone, content)
	}

	s.record(ctx, &model.Notification{
		AppointmentID: appointmentID,
		Kind:          model.NotificationKindReminder,
		Channel:       model.ChannelWhatsApp,
		Recipient:     phone,
		Content:       content,
	}, result)
	return result
}

// SendReceipt emails a payment receipt. It returns ErrNoRecipient when the patient has no
// email address or no mailer is configured.
func (s *Service) SendReceipt(ctx context.Context, appointmentID uuid.UUID, email string, data ReceiptData) error {
	if s.mailer == nil || email == "" {
		return ErrNoRecipient
	}
	data.ClinicName = s.clinicName
	body, err := render(receiptTemplate, data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Kwitansi pembayaran %s", s.clinicName)
	sendErr := s.mailer.SendEmail(ctx, email, subject, body)

	result := model.NotificationResult{Success: sendErr == nil, Message: "receipt sent"}
	if sendErr != nil {
		result.Message = sendErr.Error()
	}
	s.record(ctx, &model.Notification{
		AppointmentID: appointmentID,
		Kind:          model.NotificationKindReceipt,
		Channel:       model.ChannelEmail,
		Recipient:     email,
		Content:       body,
	}, result)
	return sendErr
}

func (s *Service) record(ctx context.Context, n *model.Notification, result model.NotificationResult) {
	n.Status = model.NotificationStatusSent
	if !result.Success {
		n.Status = model.NotificationStatusFailed
		n.LastError = result.Message
	}
	s.metrics.Notifications.WithLabelValues(string(n.Kind), string(n.Status)).Inc()

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error(err, "failed to record notification",
			"appointment_id", n.AppointmentID.String(),
			"kind", string(n.Kind),
		)
	}
}

package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository/memory"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

type fakeSender struct {
	phone, message string
	result         model.NotificationResult
}

func (f *fakeSender) Send(ctx context.Context, phone, message string) model.NotificationResult {
	f.phone, f.message = phone, message
	return f.result
}

type fakeMailer struct {
	to, subject, body string
	err               error
}

func (f *fakeMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

func newTestService(sender Sender, mailer Mailer) (*Service, *memory.Store) {
	store := memory.NewStore()
	m := metrics.NewMetrics("test", "", prometheus.NewRegistry())
	return NewService(store.Notifications(), sender, mailer, "Klinik Sehat", m, logger.Nop()), store
}

func TestSendReminderRecordsResult(t *testing.T) {
	sender := &fakeSender{result: model.NotificationResult{Success: true, Message: "queued"}}
	svc, store := newTestService(sender, nil)
	appointmentID := uuid.New()

	result := svc.SendReminder(context.Background(), appointmentID, "081234567890", ReminderData{
		PatientName: "Budi",
		DoctorName:  "dr. Sari",
		Date:        "2025-06-02",
		Time:        "10:00",
	})

	assert.True(t, result.Success)
	assert.Contains(t, sender.message, "Klinik Sehat")
	assert.Contains(t, sender.message, "dr. Sari")
	assert.Contains(t, sender.message, "2025-06-02 pukul 10:00")

	sent := store.SentNotifications()
	require.Len(t, sent, 1)
	assert.Equal(t, model.NotificationStatusSent, sent[0].Status)
	assert.Equal(t, appointmentID, sent[0].AppointmentID)

	already, err := store.Notifications().HasSent(context.Background(), appointmentID, model.NotificationKindReminder)
	require.NoError(t, err)
	assert.True(t, already)
}

func TestSendReminderWithoutPhone(t *testing.T) {
	sender := &fakeSender{}
	svc, store := newTestService(sender, nil)

	result := svc.SendReminder(context.Background(), uuid.New(), "", ReminderData{PatientName: "Budi"})

	assert.False(t, result.Success)
	assert.Empty(t, sender.message)
	sent := store.SentNotifications()
	require.Len(t, sent, 1)
	assert.Equal(t, model.NotificationStatusFailed, sent[0].Status)
}

func TestSendReceipt(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _ := newTestService(&fakeSender{}, mailer)

	err := svc.SendReceipt(context.Background(), uuid.New(), "budi@example.com", ReceiptData{
		PatientName: "Budi",
		Amount:      175000,
		Method:      "qris",
	})
	require.NoError(t, err)

	assert.Equal(t, "budi@example.com", mailer.to)
	assert.Contains(t, mailer.subject, "Klinik Sehat")
	assert.Contains(t, mailer.body, "Rp 175.000")
}

func TestSendReceiptWithoutMailer(t *testing.T) {
	svc, _ := newTestService(&fakeSender{}, nil)
	err := svc.SendReceipt(context.Background(), uuid.New(), "budi@example.com", ReceiptData{})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSendReceiptFailureIsRecorded(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp timeout")}
	svc, store := newTestService(&fakeSender{}, mailer)

	err := svc.SendReceipt(context.Background(), uuid.New(), "budi@example.com", ReceiptData{})
	assert.Error(t, err)

	sent := store.SentNotifications()
	require.Len(t, sent, 1)
	assert.Equal(t, "smtp timeout", sent[0].LastError)
}

func TestRupiah(t *testing.T) {
	assert.Equal(t, "Rp 0", Rupiah(0))
	assert.Equal(t, "Rp 950", Rupiah(950))
	assert.Equal(t, "Rp 150.000", Rupiah(150000))
	assert.Equal(t, "Rp 1.250.000", Rupiah(1250000))
	assert.Equal(t, "-Rp 5.000", Rupiah(-5000))
}

func TestSMTPMailerMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "kasir@klinik.id"})
	msg := m.message("budi@example.com", "Kwitansi", "isi")

	assert.Equal(t, []string{"kasir@klinik.id"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"budi@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Kwitansi"}, msg.GetHeader("Subject"))
}

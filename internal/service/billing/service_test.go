package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/realtime"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/internal/repository/memory"
	"github.com/jwalitptl/clinic-booking/internal/service/notification"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

type fakeReceipts struct {
	mu   sync.Mutex
	err  error
	sent []notification.ReceiptData
	to   []string
}

func (f *fakeReceipts) SendReceipt(ctx context.Context, appointmentID uuid.UUID, email string, data notification.ReceiptData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	f.to = append(f.to, email)
	return f.err
}

type fixture struct {
	svc      *Service
	store    *memory.Store
	metrics  *metrics.Metrics
	receipts *fakeReceipts
	doctor   *model.Doctor
	patient  *model.Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	m := metrics.NewMetrics("test", "billing", prometheus.NewRegistry())
	receipts := &fakeReceipts{}

	f := &fixture{
		store:    store,
		metrics:  m,
		receipts: receipts,
		svc:      NewService(store, store.Catalog(), realtime.NewEmitter(realtime.NewHub(), m, logger.Nop()), receipts, m, logger.Nop()),
	}
	f.doctor = store.AddDoctor(&model.Doctor{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), Name: "drg. Sari"})
	f.patient = store.AddPatient(&model.Patient{Base: model.Base{ID: uuid.New()}, Name: "Budi", Email: "budi@example.com"})
	return f
}

// visit seeds an appointment in status with a record priced at prices.
func (f *fixture) visit(t *testing.T, status model.AppointmentStatus, hour int, prices ...int64) *model.MedicalRecord {
	t.Helper()
	ctx := context.Background()

	appt := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Date:      model.NewDate(2025, 6, 2),
		Time:      model.NewClock(hour, 0),
		Status:    status,
	}
	require.NoError(t, f.store.Appointments().Create(ctx, appt))

	record := &model.MedicalRecord{
		Base:             model.Base{ID: uuid.New()},
		AppointmentID:    appt.ID,
		PatientID:        f.patient.ID,
		Diagnosis:        "Karies",
		TreatmentSummary: "Tambal",
	}
	require.NoError(t, f.store.MedicalRecords().Create(ctx, record))

	var details []model.TreatmentDetail
	for _, p := range prices {
		details = append(details, model.TreatmentDetail{ID: uuid.New(), MedicalRecordID: record.ID, TreatmentID: uuid.New(), TreatmentName: "Tambal", Price: p})
	}
	require.NoError(t, f.store.MedicalRecords().AddTreatments(ctx, details))
	return record
}

func TestFinalizeTransactionIsOnceOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := f.visit(t, model.AppointmentStatusCompleted, 10, 150000, 50000)

	pending, err := f.svc.PendingPayments(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(200000), pending[0].AmountDue)
	assert.Equal(t, "Budi", pending[0].PatientName)

	txn, err := f.svc.FinalizeTransaction(ctx, record.ID, 200000, model.PaymentMethodQRIS)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, txn.Status)

	pending, err = f.svc.PendingPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.svc.FinalizeTransaction(ctx, record.ID, 200000, model.PaymentMethodCash)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrIntegrity))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transactions.WithLabelValues("qris")))
}

func TestFinalizeTransactionDefaultsToAmountDue(t *testing.T) {
	f := newFixture(t)
	record := f.visit(t, model.AppointmentStatusCompleted, 10, 120000, 30000)

	txn, err := f.svc.FinalizeTransaction(context.Background(), record.ID, 0, model.PaymentMethodCash)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), txn.Amount)
}

func TestFinalizeTransactionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	confirmed := f.visit(t, model.AppointmentStatusConfirmed, 10, 100000)
	completed := f.visit(t, model.AppointmentStatusCompleted, 11, 100000)

	_, err := f.svc.FinalizeTransaction(ctx, confirmed.ID, 100000, model.PaymentMethodCash)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = f.svc.FinalizeTransaction(ctx, completed.ID, 100000, model.PaymentMethod("barter"))
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = f.svc.FinalizeTransaction(ctx, completed.ID, -1, model.PaymentMethodCash)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = f.svc.FinalizeTransaction(ctx, uuid.New(), 100000, model.PaymentMethodCash)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestPendingPaymentsNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.visit(t, model.AppointmentStatusCompleted, 10, 100000)
	time.Sleep(2 * time.Millisecond)
	second := f.visit(t, model.AppointmentStatusCompleted, 11, 100000)
	f.visit(t, model.AppointmentStatusWaiting, 14, 100000)

	pending, err := f.svc.PendingPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.ID, pending[0].MedicalRecordID)
	assert.Equal(t, first.ID, pending[1].MedicalRecordID)
}

func TestReceiptFailureDoesNotFailPayment(t *testing.T) {
	f := newFixture(t)
	f.receipts.err = errors.New("smtp down")
	record := f.visit(t, model.AppointmentStatusCompleted, 10, 100000)

	_, err := f.svc.FinalizeTransaction(context.Background(), record.ID, 0, model.PaymentMethodTransfer)
	require.NoError(t, err)
	f.svc.Wait()

	require.Len(t, f.receipts.sent, 1)
	assert.Equal(t, "budi@example.com", f.receipts.to[0])
	assert.Equal(t, int64(100000), f.receipts.sent[0].Amount)
}

func TestPendingPaymentsReportsStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn("transactions.select", errors.New("timeout"))

	_, err := f.svc.PendingPayments(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrTransient))
}

func TestFinalizeTransactionLocksRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := f.visit(t, model.AppointmentStatusCompleted, 10, 150000)

	f.store.FailOn("medical_records.lock", errors.New("lock timeout"))
	_, err := f.svc.FinalizeTransaction(ctx, record.ID, 0, model.PaymentMethodCash)
	assert.True(t, apperrors.Is(err, apperrors.ErrTransient))

	f.store.ClearFaults()
	_, err = f.store.Transactions().GetByRecord(ctx, record.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	txn, err := f.svc.FinalizeTransaction(ctx, record.ID, 0, model.PaymentMethodCash)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), txn.Amount)
}

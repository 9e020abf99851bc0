package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/realtime"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/internal/service"
	"github.com/jwalitptl/clinic-booking/internal/service/notification"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

// Receipts delivers payment receipts.
type Receipts interface {
	SendReceipt(ctx context.Context, appointmentID uuid.UUID, email string, data notification.ReceiptData) error
}

type Service struct {
	store    repository.Store
	catalog  repository.CatalogRepository
	events   *realtime.Emitter
	receipts Receipts
	metrics  *metrics.Metrics
	logger   *logger.Logger

	wg sync.WaitGroup
}

// NewService wires billing. receipts may be nil to disable receipts.
func NewService(store repository.Store, catalog repository.CatalogRepository, events *realtime.Emitter, receipts Receipts, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  catalog,
		events:   events,
		receipts: receipts,
		metrics:  m,
		logger:   log,
	}
}

// PendingPayments lists records of completed appointments that have no transaction yet,
// newest first.
func (s *Service) PendingPayments(ctx context.Context) ([]*model.PendingPayment, error) {
	pending, err := s.store.Transactions().Pending(ctx)
	if err != nil {
		return nil, service.StoreError(err, "pending payment")
	}
	return pending, nil
}

// FinalizeTransaction records the payment of a medical record. An amount of zero charges the
// sum of the record's treatment lines. A record can only be paid once.
func (s *Service) FinalizeTransaction(ctx context.Context, recordID uuid.UUID, amount int64, method model.PaymentMethod) (*model.Transaction, error) {
	if !method.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown payment method %q", method))
	}
	if amount < 0 {
		return nil, apperrors.Validation("amount cannot be negative")
	}

	record, err := s.store.MedicalRecords().Get(ctx, recordID)
	if err != nil {
		return nil, service.StoreError(err, "medical record")
	}
	appt, err := s.store.Appointments().Get(ctx, record.AppointmentID)
	if err != nil {
		return nil, service.StoreError(err, "appointment")
	}
	if appt.Status != model.AppointmentStatusCompleted {
		return nil, apperrors.Validation(fmt.Sprintf("only completed appointments can be paid, this one is %s", appt.Status.Label()))
	}

	txn := &model.Transaction{
		Base:            model.Base{ID: uuid.New()},
		MedicalRecordID: record.ID,
		Amount:          amount,
		Method:          method,
		Status:          model.PaymentStatusPaid,
	}
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		// serializes with an examination rewriting the lines being charged
		if _, err := tx.MedicalRecords().Lock(ctx, record.ID); err != nil {
			return fmt.Errorf("failed to lock medical record: %w", err)
		}
		if txn.Amount == 0 {
			details, err := tx.MedicalRecords().ListTreatments(ctx, record.ID)
			if err != nil {
				return fmt.Errorf("failed to list treatment details: %w", err)
			}
			txn.Amount = model.TotalPrice(details)
		}
		return tx.Transactions().Create(ctx, txn)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Integrity("medical record has already been paid", err)
		}
		return nil, service.StoreError(err, "transaction")
	}

	s.metrics.Transactions.WithLabelValues(string(method)).Inc()
	s.logger.Info("transaction finalized",
		"transaction_id", txn.ID.String(),
		"medical_record_id", record.ID.String(),
		"amount", txn.Amount,
		"method", string(txn.Method),
	)
	s.events.Emit(ctx, realtime.OpInsert, realtime.TableTransactions)

	s.sendReceipt(ctx, appt, record, txn)
	return txn, nil
}

// sendReceipt mails the receipt in the background. Failures are logged and never reach the
// cashier.
func (s *Service) sendReceipt(ctx context.Context, appt *model.Appointment, record *model.MedicalRecord, txn *model.Transaction) {
	if s.receipts == nil {
		return
	}
	patient, err := s.catalog.GetPatient(ctx, appt.PatientID)
	if err != nil {
		s.logger.Warn("skipping receipt, patient lookup failed", "appointment_id", appt.ID.String(), "error", err.Error())
		return
	}
	if patient.Email == "" {
		return
	}
	doctor, err := s.catalog.GetDoctor(ctx, appt.DoctorID)
	if err != nil {
		s.logger.Warn("skipping receipt, doctor lookup failed", "appointment_id", appt.ID.String(), "error", err.Error())
		return
	}

	data := notification.ReceiptData{
		PatientName:      patient.Name,
		DoctorName:       doctor.Name,
		Date:             appt.Date.String(),
		Time:             appt.Time.String(),
		TreatmentSummary: record.TreatmentSummary,
		Method:           string(txn.Method),
		Amount:           txn.Amount,
		TransactionID:    txn.ID.String(),
	}

	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.receipts.SendReceipt(ctx, appt.ID, patient.Email, data); err != nil {
			s.logger.Error(err, "failed to send receipt", "transaction_id", txn.ID.String())
		}
	}()
}

// Wait blocks until receipts in flight are done.
func (s *Service) Wait() {
	s.wg.Wait()
}

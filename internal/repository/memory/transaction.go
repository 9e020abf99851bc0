package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type transactionRepository struct {
	s *Store
	j *journal
}

func (r *transactionRepository) Create(ctx context.Context, txn *model.Transaction) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("transactions.insert"); err != nil {
		return err
	}
	if _, ok := s.transactions[txn.MedicalRecordID]; ok {
		return repository.ErrDuplicate
	}

	txn.Touch(s.now())
	cp := *txn
	s.transactions[txn.MedicalRecordID] = &cp

	recordID := txn.MedicalRecordID
	r.j.record(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.fault("transactions.undo"); err != nil {
			return err
		}
		delete(s.transactions, recordID)
		return nil
	})
	return nil
}

func (r *transactionRepository) GetByRecord(ctx context.Context, recordID uuid.UUID) (*model.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("transactions.select"); err != nil {
		return nil, err
	}
	t, ok := r.s.transactions[recordID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *transactionRepository) Pending(ctx context.Context) ([]*model.PendingPayment, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.fault("transactions.select"); err != nil {
		return nil, err
	}

	var out []*model.PendingPayment
	for _, rec := range s.records {
		if _, paid := s.transactions[rec.ID]; paid {
			continue
		}
		a, ok := s.appointments[rec.AppointmentID]
		if !ok || a.Status != model.AppointmentStatusCompleted {
			continue
		}
		p := &model.PendingPayment{
			MedicalRecordID:  rec.ID,
			AppointmentID:    a.ID,
			PatientID:        a.PatientID,
			Date:             a.Date,
			Time:             a.Time,
			Diagnosis:        rec.Diagnosis,
			TreatmentSummary: rec.TreatmentSummary,
			AmountDue:        model.TotalPrice(s.details[rec.ID]),
			RecordedAt:       rec.CreatedAt,
		}
		if patient, ok := s.patients[a.PatientID]; ok {
			p.PatientName = patient.Name
		}
		if doctor, ok := s.doctors[a.DoctorID]; ok {
			p.DoctorName = doctor.Name
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}

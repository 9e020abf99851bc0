// Package memory is a map-backed Store. It has no native transactions: WithTx keeps a journal
// of undo actions and replays it in reverse when the unit of work fails.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	appointments map[uuid.UUID]*model.Appointment
	records      map[uuid.UUID]*model.MedicalRecord
	details      map[uuid.UUID][]model.TreatmentDetail
	transactions map[uuid.UUID]*model.Transaction
	doctors      map[uuid.UUID]*model.Doctor
	patients     map[uuid.UUID]*model.Patient
	treatments   map[uuid.UUID]*model.Treatment
	sent         []*model.Notification

	faults map[string]error
	now    func() time.Time
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		appointments: make(map[uuid.UUID]*model.Appointment),
		records:      make(map[uuid.UUID]*model.MedicalRecord),
		details:      make(map[uuid.UUID][]model.TreatmentDetail),
		transactions: make(map[uuid.UUID]*model.Transaction),
		doctors:      make(map[uuid.UUID]*model.Doctor),
		patients:     make(map[uuid.UUID]*model.Patient),
		treatments:   make(map[uuid.UUID]*model.Treatment),
		faults:       make(map[string]error),
		now:          time.Now,
	}
}

// FailOn makes every later call of op return err until ClearFaults. Operation names are
// "<table>.<action>", e.g. "treatment_details.insert" or "appointments.undo".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]error)
}

// fault must be called with s.mu held.
func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{s: s}
}

func (s *Store) MedicalRecords() repository.MedicalRecordRepository {
	return &medicalRecordRepository{s: s}
}

func (s *Store) Transactions() repository.TransactionRepository {
	return &transactionRepository{s: s}
}

func (s *Store) Catalog() repository.CatalogRepository {
	return &catalogRepository{s: s}
}

func (s *Store) Notifications() repository.NotificationRepository {
	return &notificationRepository{s: s}
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fault("store.ping")
}

// WithTx runs fn and, when it fails, undoes its writes newest first.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	j := &journal{}
	tx := &txView{s: s, j: j}

	defer func() {
		if p := recover(); p != nil {
			j.rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := j.rollback(); rbErr != nil {
			return &repository.RollbackError{Cause: err, RollbackErr: rbErr}
		}
		return err
	}
	return nil
}

type journal struct {
	undo []func() error
}

func (j *journal) record(fn func() error) {
	if j != nil {
		j.undo = append(j.undo, fn)
	}
}

// rollback runs every undo action even if one fails and reports the first failure.
func (j *journal) rollback() error {
	var first error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](); err != nil && first == nil {
			first = err
		}
	}
	j.undo = nil
	return first
}

type txView struct {
	s *Store
	j *journal
}

func (t *txView) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{s: t.s, j: t.j}
}

func (t *txView) MedicalRecords() repository.MedicalRecordRepository {
	return &medicalRecordRepository{s: t.s, j: t.j}
}

func (t *txView) Transactions() repository.TransactionRepository {
	return &transactionRepository{s: t.s, j: t.j}
}

// Seeding helpers for the catalog, which the service only reads.

func (s *Store) AddDoctor(d *model.Doctor) *model.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.Touch(s.now())
	cp := *d
	s.doctors[d.ID] = &cp
	return d
}

func (s *Store) AddPatient(p *model.Patient) *model.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Touch(s.now())
	cp := *p
	s.patients[p.ID] = &cp
	return p
}

func (s *Store) AddTreatment(t *model.Treatment) *model.Treatment {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Touch(s.now())
	cp := *t
	s.treatments[t.ID] = &cp
	return t
}

// SetTreatmentPrice changes catalog prices in place.
func (s *Store) SetTreatmentPrice(id uuid.UUID, price int64, promo *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.treatments[id]; ok {
		t.Price = price
		t.PromoPrice = promo
	}
}

// Counts reports the number of appointments, medical records and treatment details.
func (s *Store) Counts() (appointments, records, details int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.details {
		details += len(d)
	}
	return len(s.appointments), len(s.records), details
}

// Notifications recorded so far, oldest first.
func (s *Store) SentNotifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Notification, 0, len(s.sent))
	for _, n := range s.sent {
		out = append(out, *n)
	}
	return out
}

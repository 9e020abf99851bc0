package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type medicalRecordRepository struct {
	s *Store
	j *journal
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("medical_records.insert"); err != nil {
		return err
	}
	for _, existing := range s.records {
		if existing.AppointmentID == record.AppointmentID {
			return repository.ErrDuplicate
		}
	}

	record.Touch(s.now())
	cp := *record
	cp.Treatments = nil
	s.records[record.ID] = &cp

	id := record.ID
	r.j.record(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.fault("medical_records.undo"); err != nil {
			return err
		}
		delete(s.records, id)
		return nil
	})
	return nil
}

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("medical_records.select"); err != nil {
		return nil, err
	}
	rec, ok := r.s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// Lock is a plain read; the memory store applies each write under its own mutex.
func (r *medicalRecordRepository) Lock(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("medical_records.lock"); err != nil {
		return nil, err
	}
	rec, ok := r.s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *medicalRecordRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("medical_records.select"); err != nil {
		return nil, err
	}
	for _, rec := range r.s.records {
		if rec.AppointmentID == appointmentID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *medicalRecordRepository) UpdateExamination(ctx context.Context, record *model.MedicalRecord) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("medical_records.update"); err != nil {
		return err
	}
	rec, ok := s.records[record.ID]
	if !ok {
		return repository.ErrNotFound
	}

	prev := *rec
	rec.Diagnosis = record.Diagnosis
	rec.Notes = record.Notes
	rec.TreatmentSummary = record.TreatmentSummary
	rec.UpdatedAt = s.now()
	record.UpdatedAt = rec.UpdatedAt

	r.j.record(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.fault("medical_records.undo"); err != nil {
			return err
		}
		if rec, ok := s.records[prev.ID]; ok {
			*rec = prev
		}
		return nil
	})
	return nil
}

func (r *medicalRecordRepository) AddTreatments(ctx context.Context, details []model.TreatmentDetail) error {
	if len(details) == 0 {
		return nil
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("treatment_details.insert"); err != nil {
		return err
	}
	byRecord := make(map[uuid.UUID]int)
	for _, d := range details {
		if _, ok := s.records[d.MedicalRecordID]; !ok {
			return repository.ErrNotFound
		}
		byRecord[d.MedicalRecordID] = len(s.details[d.MedicalRecordID])
	}
	for _, d := range details {
		s.details[d.MedicalRecordID] = append(s.details[d.MedicalRecordID], d)
	}

	r.j.record(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.fault("treatment_details.undo"); err != nil {
			return err
		}
		for recordID, n := range byRecord {
			if n == 0 {
				delete(s.details, recordID)
				continue
			}
			s.details[recordID] = s.details[recordID][:n]
		}
		return nil
	})
	return nil
}

func (r *medicalRecordRepository) ReplaceTreatments(ctx context.Context, recordID uuid.UUID, details []model.TreatmentDetail) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("treatment_details.delete"); err != nil {
		return err
	}
	if _, ok := s.records[recordID]; !ok {
		return repository.ErrNotFound
	}
	if len(details) > 0 {
		if err := s.fault("treatment_details.insert"); err != nil {
			return err
		}
	}

	prev := s.details[recordID]
	if len(details) == 0 {
		delete(s.details, recordID)
	} else {
		s.details[recordID] = append([]model.TreatmentDetail(nil), details...)
	}

	r.j.record(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.fault("treatment_details.undo"); err != nil {
			return err
		}
		if prev == nil {
			delete(s.details, recordID)
		} else {
			s.details[recordID] = prev
		}
		return nil
	})
	return nil
}

func (r *medicalRecordRepository) ListTreatments(ctx context.Context, recordID uuid.UUID) ([]model.TreatmentDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("treatment_details.select"); err != nil {
		return nil, err
	}
	return append([]model.TreatmentDetail(nil), r.s.details[recordID]...), nil
}

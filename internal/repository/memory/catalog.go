package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type catalogRepository struct {
	s *Store
}

func (r *catalogRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("doctors.select"); err != nil {
		return nil, err
	}
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *catalogRepository) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("patients.select"); err != nil {
		return nil, err
	}
	p, ok := r.s.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *catalogRepository) DoctorByUser(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.doctors {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *catalogRepository) PatientByUser(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.patients {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *catalogRepository) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("doctors.select"); err != nil {
		return nil, err
	}
	out := make([]*model.Doctor, 0, len(r.s.doctors))
	for _, d := range r.s.doctors {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *catalogRepository) TreatmentsByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Treatment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("treatments.select"); err != nil {
		return nil, err
	}
	out := make([]*model.Treatment, 0, len(ids))
	for _, id := range ids {
		t, ok := r.s.treatments[id]
		if !ok || !t.Active {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

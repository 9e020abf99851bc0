package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type appointmentRepository struct {
	s *Store
	j *journal
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("appointments.insert"); err != nil {
		return err
	}
	if appointment.Status.OccupiesSlot() && s.slotTakenLocked(appointment.DoctorID, appointment.Date, appointment.Time) {
		return repository.ErrDuplicate
	}

	appointment.Touch(s.now())
	cp := *appointment
	s.appointments[appointment.ID] = &cp

	id := appointment.ID
	r.j.record(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.fault("appointments.undo"); err != nil {
			return err
		}
		delete(s.appointments, id)
		return nil
	})
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("appointments.get"); err != nil {
		return nil, err
	}
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) (*model.Appointment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("appointments.update"); err != nil {
		return nil, err
	}
	a, ok := s.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if a.Status != from {
		return nil, repository.ErrStale
	}
	if !from.OccupiesSlot() && to.OccupiesSlot() && s.slotTakenLocked(a.DoctorID, a.Date, a.Time) {
		return nil, repository.ErrDuplicate
	}

	prevStatus, prevUpdated := a.Status, a.UpdatedAt
	a.Status = to
	a.UpdatedAt = s.now()

	r.j.record(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.fault("appointments.undo"); err != nil {
			return err
		}
		if a, ok := s.appointments[id]; ok {
			a.Status, a.UpdatedAt = prevStatus, prevUpdated
		}
		return nil
	})

	cp := *a
	return &cp, nil
}

func (r *appointmentRepository) IsSlotTaken(ctx context.Context, doctorID uuid.UUID, date model.Date, t model.Clock) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("appointments.select"); err != nil {
		return false, err
	}
	return r.s.slotTakenLocked(doctorID, date, t), nil
}

func (r *appointmentRepository) TakenSlots(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.Clock, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("appointments.select"); err != nil {
		return nil, err
	}
	var taken []model.Clock
	for _, a := range r.s.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Status.OccupiesSlot() {
			taken = append(taken, a.Time)
		}
	}
	sort.Slice(taken, func(i, j int) bool { return taken[i] < taken[j] })
	return taken, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.fault("appointments.select"); err != nil {
		return nil, err
	}
	var out []*model.Appointment
	for _, a := range r.s.appointments {
		if filters.Match(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) slotTakenLocked(doctorID uuid.UUID, date model.Date, t model.Clock) bool {
	for _, a := range s.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Time == t && a.Status.OccupiesSlot() {
			return true
		}
	}
	return false
}

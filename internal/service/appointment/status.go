package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/realtime"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/internal/service"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

// StatusChange is an optimistic status update. Previous is the appointment as it was before
// the change and is what a view shows again if Commit fails.
type StatusChange struct {
	AppointmentID uuid.UUID               `json:"appointment_id"`
	From          model.AppointmentStatus `json:"from"`
	To            model.AppointmentStatus `json:"to"`
	Previous      model.Appointment       `json:"previous"`
	Optimistic    model.Appointment       `json:"optimistic"`
}

// ApplyOptimistic validates the transition and returns the change to display immediately.
// Nothing is written. Doctors may only change their own appointments.
func (s *Service) ApplyOptimistic(ctx context.Context, user model.CurrentUser, id uuid.UUID, next model.AppointmentStatus) (*StatusChange, error) {
	if !next.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", next))
	}
	current, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return nil, service.StoreError(err, "appointment")
	}
	if err := s.authorize(ctx, user, current); err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, apperrors.Validation(fmt.Sprintf("appointment is already %s", current.Status.Label()))
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, apperrors.Validation(fmt.Sprintf("cannot change status from %s to %s", current.Status.Label(), next.Label()))
	}

	optimistic := *current
	optimistic.Status = next
	return &StatusChange{
		AppointmentID: id,
		From:          current.Status,
		To:            next,
		Previous:      *current,
		Optimistic:    optimistic,
	}, nil
}

// Commit persists change. The write only succeeds if the stored status is still change.From.
func (s *Service) Commit(ctx context.Context, change *StatusChange) (*model.Appointment, error) {
	updated, err := s.store.Appointments().UpdateStatus(ctx, change.AppointmentID, change.From, change.To)
	if err != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(change.To), "failed").Inc()
		if errors.Is(err, repository.ErrStale) {
			return nil, apperrors.Conflict("appointment was changed by someone else, please reload", err)
		}
		return nil, service.StoreError(err, "appointment")
	}

	s.metrics.StatusTransitions.WithLabelValues(string(change.To), "ok").Inc()
	s.logger.Info("appointment status changed",
		"appointment_id", change.AppointmentID.String(),
		"from", string(change.From),
		"to", string(change.To),
	)
	s.events.Emit(ctx, realtime.OpUpdate, realtime.TableAppointments)
	return updated, nil
}

// Rollback returns the appointment to show after a failed Commit.
func (s *Service) Rollback(change *StatusChange) model.Appointment {
	return change.Previous
}

// UpdateStatus applies and commits a transition in one call.
func (s *Service) UpdateStatus(ctx context.Context, user model.CurrentUser, id uuid.UUID, next model.AppointmentStatus) (*model.Appointment, error) {
	change, err := s.ApplyOptimistic(ctx, user, id, next)
	if err != nil {
		return nil, err
	}
	return s.Commit(ctx, change)
}

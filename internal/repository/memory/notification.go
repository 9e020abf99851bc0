package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

type notificationRepository struct {
	s *Store
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault("notifications.insert"); err != nil {
		return err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.now()
	}
	cp := *n
	r.s.sent = append(r.s.sent, &cp)
	return nil
}

func (r *notificationRepository) HasSent(ctx context.Context, appointmentID uuid.UUID, kind model.NotificationKind) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, n := range r.s.sent {
		if n.AppointmentID == appointmentID && n.Kind == kind && n.Status == model.NotificationStatusSent {
			return true, nil
		}
	}
	return false, nil
}

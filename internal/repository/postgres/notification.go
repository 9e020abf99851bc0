package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, appointment_id, kind, channel, recipient,
			content, status, last_error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := r.q.ExecContext(ctx, query,
		n.ID,
		n.AppointmentID,
		n.Kind,
		n.Channel,
		n.Recipient,
		n.Content,
		n.Status,
		n.LastError,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", mapError(err))
	}
	return nil
}

func (r *notificationRepository) HasSent(ctx context.Context, appointmentID uuid.UUID, kind model.NotificationKind) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE appointment_id = $1 AND kind = $2 AND status = 'sent'
		)
	`
	var sent bool
	if err := r.q.GetContext(ctx, &sent, query, appointmentID, kind); err != nil {
		return false, fmt.Errorf("failed to check notifications: %w", err)
	}
	return sent, nil
}

package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

const appointmentColumns = `id, patient_id, doctor_id, slot_date, slot_time, complaint, status, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, slot_date, slot_time,
			complaint, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	appointment.Touch(time.Now())

	_, err := r.q.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.Date,
		appointment.Time,
		appointment.Complaint,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", mapError(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.q.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", mapError(err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) (*model.Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + appointmentColumns

	var appointment model.Appointment
	err := r.q.GetContext(ctx, &appointment, query, to, time.Now(), id, from)
	if err == nil {
		return &appointment, nil
	}

	err = mapError(err)
	if err != repository.ErrNotFound {
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}

	var exists bool
	if err := r.q.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM appointments WHERE id = $1)`, id); err != nil {
		return nil, fmt.Errorf("failed to check appointment: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("failed to update appointment status: %w", repository.ErrNotFound)
	}
	return nil, fmt.Errorf("failed to update appointment status: %w", repository.ErrStale)
}

func (r *appointmentRepository) IsSlotTaken(ctx context.Context, doctorID uuid.UUID, date model.Date, t model.Clock) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND slot_date = $2
			AND slot_time = $3
			AND status <> 'cancelled'
		)
	`
	var taken bool
	if err := r.q.GetContext(ctx, &taken, query, doctorID, date, t); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return taken, nil
}

func (r *appointmentRepository) TakenSlots(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.Clock, error) {
	query := `
		SELECT slot_time FROM appointments
		WHERE doctor_id = $1 AND slot_date = $2 AND status <> 'cancelled'
		ORDER BY slot_time
	`
	var taken []model.Clock
	if err := r.q.SelectContext(ctx, &taken, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list taken slots: %w", err)
	}
	return taken, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filters != nil {
		if filters.DoctorID != uuid.Nil {
			add("doctor_id = $%d", filters.DoctorID)
		}
		if filters.PatientID != uuid.Nil {
			add("patient_id = $%d", filters.PatientID)
		}
		if filters.Date != nil {
			add("slot_date = $%d", *filters.Date)
		}
		if len(filters.Statuses) > 0 {
			statuses := make([]string, len(filters.Statuses))
			for i, s := range filters.Statuses {
				statuses[i] = string(s)
			}
			add("status = ANY($%d)", pq.Array(statuses))
		}
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY slot_date, slot_time, created_at"

	var appointments []*model.Appointment
	if err := r.q.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

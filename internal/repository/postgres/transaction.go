package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

func (r *transactionRepository) Create(ctx context.Context, txn *model.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, medical_record_id, amount, method, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	txn.Touch(time.Now())

	_, err := r.q.ExecContext(ctx, query,
		txn.ID,
		txn.MedicalRecordID,
		txn.Amount,
		txn.Method,
		txn.Status,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", mapError(err))
	}
	return nil
}

func (r *transactionRepository) GetByRecord(ctx context.Context, recordID uuid.UUID) (*model.Transaction, error) {
	query := `
		SELECT id, medical_record_id, amount, method, status, created_at, updated_at
		FROM transactions
		WHERE medical_record_id = $1
	`
	var txn model.Transaction
	if err := r.q.GetContext(ctx, &txn, query, recordID); err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", mapError(err))
	}
	return &txn, nil
}

func (r *transactionRepository) Pending(ctx context.Context) ([]*model.PendingPayment, error) {
	query := `
		SELECT
			mr.id AS medical_record_id,
			a.id AS appointment_id,
			a.patient_id,
			p.name AS patient_name,
			d.name AS doctor_name,
			a.slot_date,
			a.slot_time,
			mr.diagnosis,
			mr.treatment_summary,
			COALESCE(SUM(td.price), 0) AS amount_due,
			mr.created_at AS recorded_at
		FROM medical_records mr
		JOIN appointments a ON a.id = mr.appointment_id
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id
		LEFT JOIN treatment_details td ON td.medical_record_id = mr.id
		WHERE a.status = 'completed'
		AND NOT EXISTS (SELECT 1 FROM transactions t WHERE t.medical_record_id = mr.id)
		GROUP BY mr.id, a.id, p.name, d.name
		ORDER BY mr.created_at DESC
	`
	var pending []*model.PendingPayment
	if err := r.q.SelectContext(ctx, &pending, query); err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	return pending, nil
}

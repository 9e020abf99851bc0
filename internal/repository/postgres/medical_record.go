package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

const recordColumns = `id, appointment_id, patient_id, diagnosis, notes, treatment_summary, created_at, updated_at`

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (
			id, appointment_id, patient_id, diagnosis, notes,
			treatment_summary, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	record.Touch(time.Now())

	_, err := r.q.ExecContext(ctx, query,
		record.ID,
		record.AppointmentID,
		record.PatientID,
		record.Diagnosis,
		record.Notes,
		record.TreatmentSummary,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medical record: %w", mapError(err))
	}
	return nil
}

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE id = $1`

	var record model.MedicalRecord
	if err := r.q.GetContext(ctx, &record, query, id); err != nil {
		return nil, fmt.Errorf("failed to get medical record: %w", mapError(err))
	}
	return &record, nil
}

func (r *medicalRecordRepository) Lock(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE id = $1 FOR UPDATE`

	var record model.MedicalRecord
	if err := r.q.GetContext(ctx, &record, query, id); err != nil {
		return nil, fmt.Errorf("failed to lock medical record: %w", mapError(err))
	}
	return &record, nil
}

func (r *medicalRecordRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE appointment_id = $1`

	var record model.MedicalRecord
	if err := r.q.GetContext(ctx, &record, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to get medical record: %w", mapError(err))
	}
	return &record, nil
}

func (r *medicalRecordRepository) UpdateExamination(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		UPDATE medical_records
		SET diagnosis = $1, notes = $2, treatment_summary = $3, updated_at = $4
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.q.GetContext(ctx, &record.UpdatedAt, query,
		record.Diagnosis,
		record.Notes,
		record.TreatmentSummary,
		time.Now(),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medical record: %w", mapError(err))
	}
	return nil
}

func (r *medicalRecordRepository) AddTreatments(ctx context.Context, details []model.TreatmentDetail) error {
	query := `
		INSERT INTO treatment_details (
			id, medical_record_id, treatment_id, treatment_name, price, position, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, d := range details {
		if d.CreatedAt.IsZero() {
			d.CreatedAt = time.Now()
		}
		_, err := r.q.ExecContext(ctx, query,
			d.ID,
			d.MedicalRecordID,
			d.TreatmentID,
			d.TreatmentName,
			d.Price,
			d.Position,
			d.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to add treatment detail: %w", mapError(err))
		}
	}
	return nil
}

func (r *medicalRecordRepository) ReplaceTreatments(ctx context.Context, recordID uuid.UUID, details []model.TreatmentDetail) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM treatment_details WHERE medical_record_id = $1`, recordID); err != nil {
		return fmt.Errorf("failed to clear treatment details: %w", mapError(err))
	}
	return r.AddTreatments(ctx, details)
}

func (r *medicalRecordRepository) ListTreatments(ctx context.Context, recordID uuid.UUID) ([]model.TreatmentDetail, error) {
	query := `
		SELECT id, medical_record_id, treatment_id, treatment_name, price, position, created_at
		FROM treatment_details
		WHERE medical_record_id = $1
		ORDER BY created_at, position, id
	`
	var details []model.TreatmentDetail
	if err := r.q.SelectContext(ctx, &details, query, recordID); err != nil {
		return nil, fmt.Errorf("failed to list treatment details: %w", err)
	}
	return details, nil
}

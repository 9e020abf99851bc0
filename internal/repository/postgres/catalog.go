package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

const (
	doctorColumns    = `id, user_id, name, specialty, phone, created_at, updated_at`
	patientColumns   = `id, user_id, name, nik, phone, email, created_at, updated_at`
	treatmentColumns = `id, name, price, promo_price, active, created_at, updated_at`
)

func (r *catalogRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.q.GetContext(ctx, &doctor, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", mapError(err))
	}
	return &doctor, nil
}

func (r *catalogRepository) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	if err := r.q.GetContext(ctx, &patient, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", mapError(err))
	}
	return &patient, nil
}

func (r *catalogRepository) DoctorByUser(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.q.GetContext(ctx, &doctor, `SELECT `+doctorColumns+` FROM doctors WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("failed to get doctor by user: %w", mapError(err))
	}
	return &doctor, nil
}

func (r *catalogRepository) PatientByUser(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	if err := r.q.GetContext(ctx, &patient, `SELECT `+patientColumns+` FROM patients WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("failed to get patient by user: %w", mapError(err))
	}
	return &patient, nil
}

func (r *catalogRepository) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	var doctors []*model.Doctor
	if err := r.q.SelectContext(ctx, &doctors, `SELECT `+doctorColumns+` FROM doctors ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *catalogRepository) TreatmentsByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Treatment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	query := `SELECT ` + treatmentColumns + ` FROM treatments WHERE active AND id = ANY($1::uuid[])`

	var found []*model.Treatment
	if err := r.q.SelectContext(ctx, &found, query, pq.Array(keys)); err != nil {
		return nil, fmt.Errorf("failed to get treatments: %w", err)
	}

	byID := make(map[uuid.UUID]*model.Treatment, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	out := make([]*model.Treatment, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

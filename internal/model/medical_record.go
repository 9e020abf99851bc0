package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DiagnosisPending is stored until the doctor writes a real diagnosis.
	DiagnosisPending = "Awaiting Examination"
	// DefaultTreatmentSummary is used when a booking carries no planned treatments.
	DefaultTreatmentSummary = "General Consultation"
)

type MedicalRecord struct {
	Base
	AppointmentID    uuid.UUID         `db:"appointment_id" json:"appointment_id"`
	PatientID        uuid.UUID         `db:"patient_id" json:"patient_id"`
	Diagnosis        string            `db:"diagnosis" json:"diagnosis"`
	Notes            string            `db:"notes" json:"notes"`
	TreatmentSummary string            `db:"treatment_summary" json:"treatment_summary"`
	Treatments       []TreatmentDetail `db:"-" json:"treatments,omitempty"`
}

func (r *MedicalRecord) Examined() bool {
	return r.Diagnosis != DiagnosisPending
}

// TreatmentDetail is one priced line of a medical record. Price is a snapshot taken when the
// line was attached and never follows later catalog changes.
type TreatmentDetail struct {
	ID              uuid.UUID `db:"id" json:"id"`
	MedicalRecordID uuid.UUID `db:"medical_record_id" json:"medical_record_id"`
	TreatmentID     uuid.UUID `db:"treatment_id" json:"treatment_id"`
	TreatmentName   string    `db:"treatment_name" json:"treatment_name"`
	Price           int64     `db:"price" json:"price"`
	// Position keeps lines in the order they were chosen.
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewTreatmentDetails snapshots the effective price of each treatment for recordID.
func NewTreatmentDetails(recordID uuid.UUID, treatments []*Treatment, now time.Time) []TreatmentDetail {
	details := make([]TreatmentDetail, 0, len(treatments))
	for i, t := range treatments {
		details = append(details, TreatmentDetail{
			ID:              uuid.New(),
			MedicalRecordID: recordID,
			TreatmentID:     t.ID,
			TreatmentName:   t.Name,
			Price:           t.EffectivePrice(),
			Position:        i,
			CreatedAt:       now,
		})
	}
	return details
}

// SummarizeTreatments joins treatment names for the record's summary column.
func SummarizeTreatments(treatments []*Treatment) string {
	if len(treatments) == 0 {
		return DefaultTreatmentSummary
	}
	names := make([]string, 0, len(treatments))
	for _, t := range treatments {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

// TotalPrice sums the snapshotted prices.
func TotalPrice(details []TreatmentDetail) int64 {
	var total int64
	for _, d := range details {
		total += d.Price
	}
	return total
}

type ExaminationRequest struct {
	Diagnosis    string   `json:"diagnosis" binding:"required,max=2000"`
	Notes        string   `json:"notes" binding:"max=4000"`
	TreatmentIDs []string `json:"treatment_ids" binding:"omitempty,dive,uuid"`
}

// Examination is the validated input of a doctor's examination write.
type Examination struct {
	Diagnosis    string
	Notes        string
	TreatmentIDs []uuid.UUID
}

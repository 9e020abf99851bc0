package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodQRIS     PaymentMethod = "qris"
	PaymentMethodCard     PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodQRIS, PaymentMethodCard:
		return true
	}
	return false
}

type PaymentStatus string

// PaymentStatusPaid is the only state a transaction can be in.
const PaymentStatusPaid PaymentStatus = "paid"

type Transaction struct {
	Base
	MedicalRecordID uuid.UUID     `db:"medical_record_id" json:"medical_record_id"`
	Amount          int64         `db:"amount" json:"amount"`
	Method          PaymentMethod `db:"method" json:"method"`
	Status          PaymentStatus `db:"status" json:"status"`
}

// PendingPayment is one row of the cashier queue.
type PendingPayment struct {
	MedicalRecordID  uuid.UUID `db:"medical_record_id" json:"medical_record_id"`
	AppointmentID    uuid.UUID `db:"appointment_id" json:"appointment_id"`
	PatientID        uuid.UUID `db:"patient_id" json:"patient_id"`
	PatientName      string    `db:"patient_name" json:"patient_name"`
	DoctorName       string    `db:"doctor_name" json:"doctor_name"`
	Date             Date      `db:"slot_date" json:"date"`
	Time             Clock     `db:"slot_time" json:"time"`
	Diagnosis        string    `db:"diagnosis" json:"diagnosis"`
	TreatmentSummary string    `db:"treatment_summary" json:"treatment_summary"`
	AmountDue        int64     `db:"amount_due" json:"amount_due"`
	RecordedAt       time.Time `db:"recorded_at" json:"recorded_at"`
}

type FinalizeTransactionRequest struct {
	Amount int64  `json:"amount" binding:"gte=0"`
	Method string `json:"method" binding:"required,paymethod"`
}

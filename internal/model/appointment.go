package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusWaiting   AppointmentStatus = "waiting"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// statusLabels holds the front-desk labels used by the clinic staff.
var statusLabels = map[AppointmentStatus]string{
	AppointmentStatusWaiting:   "Menunggu",
	AppointmentStatusConfirmed: "Dikonfirmasi",
	AppointmentStatusCompleted: "Selesai",
	AppointmentStatusCancelled: "Batal",
}

var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusWaiting:   {AppointmentStatusConfirmed, AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

// ParseAppointmentStatus accepts either the API value or the front-desk label.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	v := strings.TrimSpace(s)
	for status, label := range statusLabels {
		if strings.EqualFold(v, string(status)) || strings.EqualFold(v, label) {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

func (s AppointmentStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s AppointmentStatus) Label() string {
	return statusLabels[s]
}

// Terminal reports whether no further transition is allowed.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// OccupiesSlot reports whether an appointment in this status blocks its slot.
func (s AppointmentStatus) OccupiesSlot() bool {
	return s != AppointmentStatusCancelled
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Date      Date              `db:"slot_date" json:"date"`
	Time      Clock             `db:"slot_time" json:"time"`
	Complaint string            `db:"complaint" json:"complaint"`
	Status    AppointmentStatus `db:"status" json:"status"`
}

// Slot identifies the (doctor, date, time) triple an appointment occupies.
type Slot struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     Date      `json:"date"`
	Time     Clock     `json:"time"`
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s %s", s.DoctorID, s.Date, s.Time)
}

func (a *Appointment) Slot() Slot {
	return Slot{DoctorID: a.DoctorID, Date: a.Date, Time: a.Time}
}

// SlotState is one entry of a doctor's day as rendered on booking forms.
type SlotState struct {
	Time  Clock `json:"time"`
	Taken bool  `json:"taken"`
	Past  bool  `json:"past"`
}

func (s SlotState) Bookable() bool {
	return !s.Taken && !s.Past
}

type CreateAppointmentRequest struct {
	PatientID    string   `json:"patient_id" binding:"omitempty,uuid"`
	DoctorID     string   `json:"doctor_id" binding:"required,uuid"`
	Date         string   `json:"date" binding:"required,datetime=2006-01-02"`
	Time         string   `json:"time" binding:"required,slottime"`
	Complaint    string   `json:"complaint" binding:"max=1000"`
	TreatmentIDs []string `json:"treatment_ids" binding:"omitempty,dive,uuid"`
	// Status overrides the role default for staff bookings.
	Status string `json:"status" binding:"omitempty,appointmentstatus"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,appointmentstatus"`
}

// NewAppointment is the validated input of a booking.
type NewAppointment struct {
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	Date         Date
	Time         Clock
	Complaint    string
	TreatmentIDs []uuid.UUID
	Status       AppointmentStatus
}

// AppointmentFilters narrows a listing. Zero values mean "any".
type AppointmentFilters struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      *Date
	Statuses  []AppointmentStatus
}

func (f *AppointmentFilters) Match(a *Appointment) bool {
	if f == nil {
		return true
	}
	if f.DoctorID != uuid.Nil && a.DoctorID != f.DoctorID {
		return false
	}
	if f.PatientID != uuid.Nil && a.PatientID != f.PatientID {
		return false
	}
	if f.Date != nil && !a.Date.Equal(*f.Date) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if a.Status == s {
			return true
		}
	}
	return false
}

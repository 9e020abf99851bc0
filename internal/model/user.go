package model

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDoctor || r == RolePatient
}

// CurrentUser is the identity supplied by the auth layer for one request.
type CurrentUser struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// DefaultStatus is the initial status of an appointment booked by this user. Staff bookings
// are confirmed on entry; self-service bookings wait for the front desk.
func (u CurrentUser) DefaultStatus() AppointmentStatus {
	if u.Role == RolePatient {
		return AppointmentStatusWaiting
	}
	return AppointmentStatusConfirmed
}

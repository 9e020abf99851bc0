package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

type NotificationKind string

const (
	NotificationKindReminder NotificationKind = "reminder"
	NotificationKindReceipt  NotificationKind = "receipt"
)

const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
)

type Notification struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	AppointmentID uuid.UUID          `db:"appointment_id" json:"appointment_id"`
	Kind          NotificationKind   `db:"kind" json:"kind"`
	Channel       string             `db:"channel" json:"channel"`
	Recipient     string             `db:"recipient" json:"recipient"`
	Content       string             `db:"content" json:"content"`
	Status        NotificationStatus `db:"status" json:"status"`
	LastError     string             `db:"last_error" json:"last_error,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
}

// NotificationResult is what the operator sees after a send attempt.
type NotificationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

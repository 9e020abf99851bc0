package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

// All repository interfaces in one file
type (
	// Store is the injected handle to the clinic's persistent state.
	Store interface {
		Tx
		Catalog() CatalogRepository
		Notifications() NotificationRepository

		// WithTx runs fn as one unit of work. When fn returns an error every write made through
		// the Tx is undone; if undoing fails the returned error is a *RollbackError.
		WithTx(ctx context.Context, fn func(tx Tx) error) error
		Ping(ctx context.Context) error
	}

	// Tx exposes the repositories that take part in a unit of work.
	Tx interface {
		Appointments() AppointmentRepository
		MedicalRecords() MedicalRecordRepository
		Transactions() TransactionRepository
	}

	AppointmentRepository interface {
		// Create returns ErrDuplicate when the slot already holds a non-cancelled appointment.
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// UpdateStatus moves the appointment from one status to another. It returns ErrStale
		// when the stored status is no longer from.
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) (*model.Appointment, error)
		IsSlotTaken(ctx context.Context, doctorID uuid.UUID, date model.Date, t model.Clock) (bool, error)
		TakenSlots(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.Clock, error)
		// List orders by date then time.
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalRecord, error)
		// Lock reads the record and holds it until the surrounding unit of work ends, so
		// payment and examination writes on one record are serialized.
		Lock(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		UpdateExamination(ctx context.Context, record *model.MedicalRecord) error
		AddTreatments(ctx context.Context, details []model.TreatmentDetail) error
		// ReplaceTreatments deletes every detail of the record and inserts details.
		ReplaceTreatments(ctx context.Context, recordID uuid.UUID, details []model.TreatmentDetail) error
		// ListTreatments returns details in the order they were added.
		ListTreatments(ctx context.Context, recordID uuid.UUID) ([]model.TreatmentDetail, error)
	}

	TransactionRepository interface {
		// Create returns ErrDuplicate when the record already has a transaction.
		Create(ctx context.Context, txn *model.Transaction) error
		GetByRecord(ctx context.Context, recordID uuid.UUID) (*model.Transaction, error)
		// Pending lists records of completed appointments with no transaction, newest first.
		Pending(ctx context.Context) ([]*model.PendingPayment, error)
	}

	CatalogRepository interface {
		GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		DoctorByUser(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		PatientByUser(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
		ListDoctors(ctx context.Context) ([]*model.Doctor, error)
		// TreatmentsByIDs returns active treatments in the order of ids. Unknown ids are skipped.
		TreatmentsByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Treatment, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		HasSent(ctx context.Context, appointmentID uuid.UUID, kind model.NotificationKind) (bool, error)
	}
)

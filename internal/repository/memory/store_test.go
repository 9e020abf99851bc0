package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

func newAppointment(doctorID uuid.UUID, status model.AppointmentStatus) *model.Appointment {
	return &model.Appointment{
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		Date:      model.NewDate(2025, 6, 2),
		Time:      model.NewClock(10, 0),
		Status:    status,
	}
}

func TestCreateRejectsOccupiedSlot(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	doctorID := uuid.New()

	require.NoError(t, s.Appointments().Create(ctx, newAppointment(doctorID, model.AppointmentStatusConfirmed)))

	err := s.Appointments().Create(ctx, newAppointment(doctorID, model.AppointmentStatusWaiting))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	// other doctor, same time
	require.NoError(t, s.Appointments().Create(ctx, newAppointment(uuid.New(), model.AppointmentStatusWaiting)))
}

func TestCancelledAppointmentDoesNotOccupySlot(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	doctorID := uuid.New()

	first := newAppointment(doctorID, model.AppointmentStatusWaiting)
	require.NoError(t, s.Appointments().Create(ctx, first))
	_, err := s.Appointments().UpdateStatus(ctx, first.ID, model.AppointmentStatusWaiting, model.AppointmentStatusCancelled)
	require.NoError(t, err)

	taken, err := s.Appointments().IsSlotTaken(ctx, doctorID, first.Date, first.Time)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, s.Appointments().Create(ctx, newAppointment(doctorID, model.AppointmentStatusWaiting)))
}

func TestUpdateStatusDetectsStaleWrite(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := newAppointment(uuid.New(), model.AppointmentStatusWaiting)
	require.NoError(t, s.Appointments().Create(ctx, a))

	_, err := s.Appointments().UpdateStatus(ctx, a.ID, model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted)
	assert.ErrorIs(t, err, repository.ErrStale)

	_, err = s.Appointments().UpdateStatus(ctx, uuid.New(), model.AppointmentStatusWaiting, model.AppointmentStatusConfirmed)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentCreateKeepsOneAppointmentPerSlot(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	doctorID := uuid.New()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Appointments().Create(ctx, newAppointment(doctorID, model.AppointmentStatusWaiting)); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestWithTxUndoesWritesOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.FailOn("treatment_details.insert", errors.New("disk full"))

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		a := newAppointment(uuid.New(), model.AppointmentStatusWaiting)
		if err := tx.Appointments().Create(ctx, a); err != nil {
			return err
		}
		rec := &model.MedicalRecord{AppointmentID: a.ID, PatientID: a.PatientID, Diagnosis: model.DiagnosisPending}
		if err := tx.MedicalRecords().Create(ctx, rec); err != nil {
			return err
		}
		return tx.MedicalRecords().AddTreatments(ctx, []model.TreatmentDetail{{ID: uuid.New(), MedicalRecordID: rec.ID}})
	})
	require.Error(t, err)

	var rbErr *repository.RollbackError
	assert.False(t, errors.As(err, &rbErr))

	appointments, records, details := s.Counts()
	assert.Zero(t, appointments)
	assert.Zero(t, records)
	assert.Zero(t, details)
}

func TestWithTxReportsFailedUndo(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.FailOn("medical_records.insert", errors.New("boom"))
	s.FailOn("appointments.undo", errors.New("connection lost"))

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		a := newAppointment(uuid.New(), model.AppointmentStatusWaiting)
		if err := tx.Appointments().Create(ctx, a); err != nil {
			return err
		}
		return tx.MedicalRecords().Create(ctx, &model.MedicalRecord{AppointmentID: a.ID})
	})

	var rbErr *repository.RollbackError
	require.True(t, errors.As(err, &rbErr))
	assert.Contains(t, rbErr.RollbackErr.Error(), "connection lost")

	appointments, _, _ := s.Counts()
	assert.Equal(t, 1, appointments)
}

func TestReplaceTreatmentsUndo(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := newAppointment(uuid.New(), model.AppointmentStatusCompleted)
	require.NoError(t, s.Appointments().Create(ctx, a))
	rec := &model.MedicalRecord{AppointmentID: a.ID}
	require.NoError(t, s.MedicalRecords().Create(ctx, rec))
	require.NoError(t, s.MedicalRecords().AddTreatments(ctx, []model.TreatmentDetail{
		{ID: uuid.New(), MedicalRecordID: rec.ID, Price: 100},
		{ID: uuid.New(), MedicalRecordID: rec.ID, Price: 200},
	}))

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.MedicalRecords().ReplaceTreatments(ctx, rec.ID, nil); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	details, err := s.MedicalRecords().ListTreatments(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, details, 2)
}

func TestPendingPayments(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	doctor := s.AddDoctor(&model.Doctor{Name: "dr. Sari"})
	patient := s.AddPatient(&model.Patient{Name: "Budi"})

	mk := func(status model.AppointmentStatus, clock model.Clock) *model.MedicalRecord {
		a := &model.Appointment{PatientID: patient.ID, DoctorID: doctor.ID, Date: model.NewDate(2025, 6, 2), Time: clock, Status: status}
		require.NoError(t, s.Appointments().Create(ctx, a))
		rec := &model.MedicalRecord{AppointmentID: a.ID, PatientID: patient.ID}
		require.NoError(t, s.MedicalRecords().Create(ctx, rec))
		return rec
	}

	done := mk(model.AppointmentStatusCompleted, model.NewClock(10, 0))
	require.NoError(t, s.MedicalRecords().AddTreatments(ctx, []model.TreatmentDetail{
		{ID: uuid.New(), MedicalRecordID: done.ID, Price: 150000},
		{ID: uuid.New(), MedicalRecordID: done.ID, Price: 50000},
	}))
	mk(model.AppointmentStatusConfirmed, model.NewClock(10, 30))
	paid := mk(model.AppointmentStatusCompleted, model.NewClock(11, 0))
	require.NoError(t, s.Transactions().Create(ctx, &model.Transaction{MedicalRecordID: paid.ID, Amount: 1, Status: model.PaymentStatusPaid}))

	pending, err := s.Transactions().Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, done.ID, pending[0].MedicalRecordID)
	assert.Equal(t, int64(200000), pending[0].AmountDue)
	assert.Equal(t, "Budi", pending[0].PatientName)
	assert.Equal(t, "dr. Sari", pending[0].DoctorName)

	err = s.Transactions().Create(ctx, &model.Transaction{MedicalRecordID: paid.ID})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestListTreatmentsKeepsAddedOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	record := &model.MedicalRecord{Base: model.Base{ID: uuid.New()}, AppointmentID: uuid.New(), Diagnosis: model.DiagnosisPending}
	require.NoError(t, s.MedicalRecords().Create(ctx, record))

	var treatments []*model.Treatment
	for _, name := range []string{"Tambal", "Konsultasi", "Scaling", "Cabut", "Rontgen"} {
		treatments = append(treatments, &model.Treatment{Base: model.Base{ID: uuid.New()}, Name: name, Price: 100000})
	}
	now := time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC)
	require.NoError(t, s.MedicalRecords().ReplaceTreatments(ctx, record.ID, model.NewTreatmentDetails(record.ID, treatments, now)))

	details, err := s.MedicalRecords().ListTreatments(ctx, record.ID)
	require.NoError(t, err)
	require.Len(t, details, len(treatments))
	for i, d := range details {
		assert.Equal(t, treatments[i].Name, d.TreatmentName)
		assert.Equal(t, i, d.Position)
	}
}

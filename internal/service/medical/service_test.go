package medical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/realtime"
	"github.com/jwalitptl/clinic-booking/internal/repository/memory"
	"github.com/jwalitptl/clinic-booking/internal/schedule"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

type fixture struct {
	svc        *Service
	store      *memory.Store
	doctor     *model.Doctor
	treatments []*model.Treatment
	record     *model.MedicalRecord
	appt       *model.Appointment
	admin      model.CurrentUser
}

// newFixture seeds one appointment in status with a record holding three planned treatments.
func newFixture(t *testing.T, status model.AppointmentStatus) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	m := metrics.NewMetrics("test", "medical", prometheus.NewRegistry())
	clock := schedule.FixedClock(time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC))

	f := &fixture{
		store: store,
		admin: model.CurrentUser{ID: uuid.New(), Role: model.RoleAdmin},
	}
	f.svc = NewService(store, store.Catalog(), clock, realtime.NewEmitter(realtime.NewHub(), m, logger.Nop()), m, logger.Nop())

	f.doctor = store.AddDoctor(&model.Doctor{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), Name: "drg. Sari"})
	for _, name := range []string{"Konsultasi", "Scaling", "Tambal"} {
		f.treatments = append(f.treatments, store.AddTreatment(&model.Treatment{
			Base: model.Base{ID: uuid.New()}, Name: name, Price: 100000, Active: true,
		}))
	}

	f.appt = &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: uuid.New(),
		DoctorID:  f.doctor.ID,
		Date:      model.NewDate(2025, 6, 2),
		Time:      model.NewClock(10, 0),
		Status:    status,
	}
	require.NoError(t, store.Appointments().Create(ctx, f.appt))

	f.record = &model.MedicalRecord{
		Base:          model.Base{ID: uuid.New()},
		AppointmentID: f.appt.ID,
		PatientID:     f.appt.PatientID,
		Diagnosis:     model.DiagnosisPending,
	}
	require.NoError(t, store.MedicalRecords().Create(ctx, f.record))
	require.NoError(t, store.MedicalRecords().AddTreatments(ctx, model.NewTreatmentDetails(f.record.ID, f.treatments, clock.Now())))
	return f
}

func TestRecordExaminationReplacesTreatments(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)
	ctx := context.Background()

	record, err := f.svc.RecordExamination(ctx, f.admin, f.record.ID, model.Examination{
		Diagnosis: "Karies gigi 36",
		Notes:     "kontrol 2 minggu",
	})
	require.NoError(t, err)
	assert.Empty(t, record.Treatments)
	assert.Equal(t, model.DefaultTreatmentSummary, record.TreatmentSummary)

	details, err := f.store.MedicalRecords().ListTreatments(ctx, f.record.ID)
	require.NoError(t, err)
	assert.Empty(t, details)

	stored, err := f.svc.GetRecord(ctx, f.admin, f.record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Karies gigi 36", stored.Diagnosis)
	assert.True(t, stored.Examined())
}

func TestRecordExaminationSnapshotsCurrentPrices(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)
	ctx := context.Background()

	promo := int64(75000)
	f.store.SetTreatmentPrice(f.treatments[1].ID, 300000, &promo)

	record, err := f.svc.RecordExamination(ctx, f.admin, f.record.ID, model.Examination{
		Diagnosis:    "Kalkulus",
		TreatmentIDs: []uuid.UUID{f.treatments[1].ID},
	})
	require.NoError(t, err)
	require.Len(t, record.Treatments, 1)
	assert.Equal(t, int64(75000), record.Treatments[0].Price)
	assert.Equal(t, "Scaling", record.TreatmentSummary)
}

func TestRecordExaminationRequiresCompletedAppointment(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusConfirmed)

	_, err := f.svc.RecordExamination(context.Background(), f.admin, f.record.ID, model.Examination{Diagnosis: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestRecordExaminationRollsBackOnFailure(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)
	ctx := context.Background()

	f.store.FailOn("treatment_details.delete", errors.New("lock timeout"))
	_, err := f.svc.RecordExamination(ctx, f.admin, f.record.ID, model.Examination{Diagnosis: "Karies"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrTransient))

	f.store.ClearFaults()
	stored, err := f.svc.GetRecord(ctx, f.admin, f.record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DiagnosisPending, stored.Diagnosis)
	assert.Len(t, stored.Treatments, 3)
}

func TestRecordExaminationRejectsPaidRecord(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)
	ctx := context.Background()

	require.NoError(t, f.store.Transactions().Create(ctx, &model.Transaction{
		MedicalRecordID: f.record.ID,
		Amount:          300000,
		Method:          model.PaymentMethodCash,
		Status:          model.PaymentStatusPaid,
	}))

	_, err := f.svc.RecordExamination(ctx, f.admin, f.record.ID, model.Examination{Diagnosis: "Karies"})
	assert.True(t, apperrors.Is(err, apperrors.ErrIntegrity))

	details, err := f.store.MedicalRecords().ListTreatments(ctx, f.record.ID)
	require.NoError(t, err)
	assert.Len(t, details, 3)
}

func TestRecordExaminationChecksPaymentUnderLock(t *testing.T) {
	for _, op := range []string{"medical_records.lock", "transactions.select"} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t, model.AppointmentStatusCompleted)
			ctx := context.Background()

			f.store.FailOn(op, errors.New("connection reset"))
			_, err := f.svc.RecordExamination(ctx, f.admin, f.record.ID, model.Examination{Diagnosis: "Karies"})
			assert.True(t, apperrors.Is(err, apperrors.ErrTransient))

			f.store.ClearFaults()
			stored, err := f.svc.GetRecord(ctx, f.admin, f.record.ID)
			require.NoError(t, err)
			assert.Equal(t, model.DiagnosisPending, stored.Diagnosis)
			assert.Len(t, stored.Treatments, 3)
		})
	}
}

func TestRecordAccessByRole(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)
	ctx := context.Background()

	owner := model.CurrentUser{ID: f.doctor.UserID, Role: model.RoleDoctor}
	record, err := f.svc.RecordByAppointment(ctx, owner, f.appt.ID)
	require.NoError(t, err)
	assert.Equal(t, f.record.ID, record.ID)
	assert.Len(t, record.Treatments, 3)

	other := f.store.AddDoctor(&model.Doctor{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), Name: "dr. Andi"})
	_, err = f.svc.GetRecord(ctx, model.CurrentUser{ID: other.UserID, Role: model.RoleDoctor}, f.record.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = f.svc.GetRecord(ctx, model.CurrentUser{ID: uuid.New(), Role: model.RolePatient}, f.record.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = f.svc.GetRecord(ctx, f.admin, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingForm struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	Time     string `json:"time" validate:"required,slottime"`
	Method   string `json:"method" validate:"omitempty,paymethod"`
	Status   string `json:"status" validate:"omitempty,appointmentstatus"`
}

func TestCustomTags(t *testing.T) {
	v := New()

	valid := bookingForm{
		DoctorID: "6f1c2b9e-7a51-4c55-9d0e-1f2a3b4c5d6e",
		Time:     "14:30",
		Method:   "qris",
		Status:   "Dikonfirmasi",
	}
	assert.NoError(t, v.Struct(valid))

	err := v.Struct(bookingForm{DoctorID: "nope", Time: "2pm", Method: "cheque", Status: "lost"})
	require.Error(t, err)

	fields, ok := Fields(err)
	require.True(t, ok)

	byField := map[string]string{}
	for _, f := range fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "must be a valid id", byField["doctor_id"])
	assert.Equal(t, "must be a time formatted HH:MM", byField["time"])
	assert.Contains(t, byField, "method")
	assert.Contains(t, byField, "status")
}

func TestSlotTimeRejectsSeconds(t *testing.T) {
	v := New()
	err := v.Struct(bookingForm{DoctorID: "6f1c2b9e-7a51-4c55-9d0e-1f2a3b4c5d6e", Time: "10:00:00"})
	assert.Error(t, err)
}

func TestFieldsIgnoresOtherErrors(t *testing.T) {
	_, ok := Fields(assert.AnError)
	assert.False(t, ok)
}

func TestSummary(t *testing.T) {
	s := Summary([]FieldError{{Field: "date", Message: "is required"}, {Field: "time", Message: "is required"}})
	assert.Equal(t, "date is required; time is required", s)
}

package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTreatmentDetailsKeepsChosenOrder(t *testing.T) {
	promo := int64(40000)
	treatments := []*Treatment{
		{Base: Base{ID: uuid.New()}, Name: "Scaling", Price: 300000},
		{Base: Base{ID: uuid.New()}, Name: "Konsultasi", Price: 50000, PromoPrice: &promo},
		{Base: Base{ID: uuid.New()}, Name: "Scaling", Price: 300000},
	}
	now := time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC)
	recordID := uuid.New()

	details := NewTreatmentDetails(recordID, treatments, now)
	require.Len(t, details, 3)
	for i, d := range details {
		assert.Equal(t, i, d.Position)
		assert.Equal(t, treatments[i].ID, d.TreatmentID)
		assert.Equal(t, recordID, d.MedicalRecordID)
		assert.Equal(t, now, d.CreatedAt)
	}
	assert.Equal(t, int64(40000), details[1].Price)
	assert.Equal(t, int64(640000), TotalPrice(details))
}

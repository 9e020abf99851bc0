package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

func TestDefaultGrid(t *testing.T) {
	g, err := NewGrid(nil)
	require.NoError(t, err)

	slots := g.Slots()
	require.Len(t, slots, 14)
	assert.Equal(t, "10:00", slots[0].String())
	assert.Equal(t, "12:30", slots[5].String())
	assert.Equal(t, "14:00", slots[6].String())
	assert.Equal(t, "17:30", slots[13].String())

	assert.True(t, g.Contains(model.NewClock(11, 30)))
	assert.False(t, g.Contains(model.NewClock(13, 0)))
	assert.False(t, g.Contains(model.NewClock(10, 15)))
}

func TestSlotsIsRestartable(t *testing.T) {
	g := MustGrid(DefaultShifts)

	first := g.Slots()
	first[0] = model.NewClock(23, 0)

	assert.Equal(t, "10:00", g.Slots()[0].String())
	assert.Equal(t, g.Len(), len(g.Slots()))
}

func TestNewGridRejectsBadShifts(t *testing.T) {
	tests := []struct {
		name   string
		shifts []Shift
	}{
		{"bad start", []Shift{{Start: "25:00", End: "26:00", Interval: 30}}},
		{"zero interval", []Shift{{Start: "10:00", End: "11:00", Interval: 0}}},
		{"end before start", []Shift{{Start: "11:00", End: "10:00", Interval: 30}}},
		{"overlap", []Shift{
			{Start: "10:00", End: "12:00", Interval: 30},
			{Start: "11:30", End: "13:00", Interval: 30},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.shifts)
			assert.Error(t, err)
		})
	}
}

package schedule

import (
	"fmt"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

// Shift is one contiguous practice session. End is the start of the last slot.
type Shift struct {
	Start    string `mapstructure:"start"`
	End      string `mapstructure:"end"`
	Interval int    `mapstructure:"interval_minutes"`
}

// DefaultShifts is the clinic's morning and afternoon session.
var DefaultShifts = []Shift{
	{Start: "10:00", End: "12:30", Interval: 30},
	{Start: "14:00", End: "17:30", Interval: 30},
}

// Grid is the ordered set of bookable times for any clinic day.
type Grid struct {
	slots []model.Clock
	index map[model.Clock]int
}

func NewGrid(shifts []Shift) (*Grid, error) {
	if len(shifts) == 0 {
		shifts = DefaultShifts
	}

	g := &Grid{index: make(map[model.Clock]int)}
	var last model.Clock = -1
	for i, s := range shifts {
		start, err := model.ParseClock(s.Start)
		if err != nil {
			return nil, fmt.Errorf("shift %d start: %w", i, err)
		}
		end, err := model.ParseClock(s.End)
		if err != nil {
			return nil, fmt.Errorf("shift %d end: %w", i, err)
		}
		if s.Interval <= 0 {
			return nil, fmt.Errorf("shift %d: interval must be positive", i)
		}
		if end < start {
			return nil, fmt.Errorf("shift %d: end %s before start %s", i, end, start)
		}
		if start <= last {
			return nil, fmt.Errorf("shift %d overlaps the previous shift", i)
		}
		for t := start; t <= end; t += model.Clock(s.Interval) {
			g.index[t] = len(g.slots)
			g.slots = append(g.slots, t)
			last = t
		}
	}
	return g, nil
}

// MustGrid is NewGrid for static configuration.
func MustGrid(shifts []Shift) *Grid {
	g, err := NewGrid(shifts)
	if err != nil {
		panic(err)
	}
	return g
}

// Slots returns a fresh copy of the grid; callers may iterate it as often as they like.
func (g *Grid) Slots() []model.Clock {
	out := make([]model.Clock, len(g.slots))
	copy(out, g.slots)
	return out
}

func (g *Grid) Len() int {
	return len(g.slots)
}

func (g *Grid) Contains(t model.Clock) bool {
	_, ok := g.index[t]
	return ok
}

package chart

import (
	"fmt"
	"sort"
)

// A ControlPoint changes the tempo and/or time signature from a given
// tick onward. Ticks are measure-denominated: position 1.5 is halfway
// through the second measure.
type ControlPoint struct {
	Tick     float64
	BPM      float64
	SigNum   int
	SigDenom int
}

// Seconds one full measure lasts under this control point.
func (cp *ControlPoint) MeasureDuration() float64 {
	return 240.0 * float64(cp.SigNum) / (float64(cp.SigDenom) * cp.BPM)
}

type ControlPoints struct {
	points []*ControlPoint
}

// NewControlPoints starts with the implicit root point at tick 0.
func NewControlPoints() *ControlPoints {
	return &ControlPoints{
		points: []*ControlPoint{{Tick: 0, BPM: 120, SigNum: 4, SigDenom: 4}},
	}
}

func (c *ControlPoints) Len() int                 { return len(c.points) }
func (c *ControlPoints) Point(i int) ControlPoint { return *c.points[i] }

// GetOrCreate returns the control point governing tick. With exactOnly
// set, the returned point sits exactly at tick, created as a copy of the
// most recent point if none was there yet; repeated calls for the same
// tick mutate the same point instead of stacking duplicates.
func (c *ControlPoints) GetOrCreate(tick float64, exactOnly bool) *ControlPoint {
	i := sort.Search(len(c.points), func(i int) bool {
		return c.points[i].Tick >= tick
	})
	if i < len(c.points) && c.points[i].Tick == tick {
		return c.points[i]
	}
	if !exactOnly {
		// i is the first point past tick, so the governing one is before it
		if i == 0 {
			return c.points[0]
		}
		return c.points[i-1]
	}
	prev := c.points[0]
	if i > 0 {
		prev = c.points[i-1]
	}
	cp := &ControlPoint{Tick: tick, BPM: prev.BPM, SigNum: prev.SigNum, SigDenom: prev.SigDenom}
	c.points = append(c.points, nil)
	copy(c.points[i+1:], c.points[i:])
	c.points[i] = cp
	return cp
}

// MostRecentAtTick returns the latest point at or before tick.
func (c *ControlPoints) MostRecentAtTick(tick float64) *ControlPoint {
	return c.GetOrCreate(tick, false)
}

// MostRecentAtTime returns the latest point whose start time is at or
// before the given absolute time in seconds.
func (c *ControlPoints) MostRecentAtTime(time float64) *ControlPoint {
	sel := c.points[0]
	elapsed := 0.0
	for i := 1; i < len(c.points); i++ {
		cp := c.points[i]
		elapsed += (cp.Tick - sel.Tick) * sel.MeasureDuration()
		if elapsed > time {
			break
		}
		sel = cp
	}
	return sel
}

// TimeAt integrates tempo piecewise to convert a tick to seconds.
func (c *ControlPoints) TimeAt(tick float64) float64 {
	t := 0.0
	for i, cp := range c.points {
		if i+1 < len(c.points) && c.points[i+1].Tick <= tick {
			t += (c.points[i+1].Tick - cp.Tick) * cp.MeasureDuration()
			continue
		}
		t += (tick - cp.Tick) * cp.MeasureDuration()
		break
	}
	return t
}

// TickAt is the inverse of TimeAt. Monotonic as long as every BPM is
// positive, which Validate guarantees.
func (c *ControlPoints) TickAt(time float64) float64 {
	elapsed := 0.0
	for i, cp := range c.points {
		d := cp.MeasureDuration()
		if i+1 < len(c.points) {
			span := (c.points[i+1].Tick - cp.Tick) * d
			if elapsed+span <= time {
				elapsed += span
				continue
			}
		}
		return cp.Tick + (time-elapsed)/d
	}
	return 0
}

// Validate rejects tempo data the rest of the core cannot work with.
func (c *ControlPoints) Validate() error {
	for i, cp := range c.points {
		if cp.BPM <= 0 {
			return fmt.Errorf("control point at tick %v has non-positive bpm %v", cp.Tick, cp.BPM)
		}
		if cp.SigNum <= 0 || cp.SigDenom <= 0 {
			return fmt.Errorf("control point at tick %v has zero-length measure %v/%v", cp.Tick, cp.SigNum, cp.SigDenom)
		}
		if i > 0 && cp.Tick <= c.points[i-1].Tick {
			return fmt.Errorf("control points out of order at tick %v", cp.Tick)
		}
	}
	return nil
}

package chart

import "sort"

const (
	BTLaneCount    = 4
	FXLaneCount    = 2
	LaserLaneCount = 2
)

// Chart is the converted, playable timeline. The converter is its only
// writer; once built it is read-only and safe to share between every
// lane judge.
type Chart struct {
	Control *ControlPoints

	BT     [BTLaneCount][]*Button
	FX     [FXLaneCount][]*Button
	Lasers [LaserLaneCount][]*Analog
	Events []*Event

	Offset float64 // seconds the audio leads tick 0

	Meta map[string]string
}

func New() *Chart {
	return &Chart{Control: NewControlPoints(), Meta: map[string]string{}}
}

// TimeAt converts a tick position to offset-adjusted seconds.
func (c *Chart) TimeAt(tick float64) float64 {
	return c.Control.TimeAt(tick) + c.Offset
}

func (c *Chart) TickAt(time float64) float64 {
	return c.Control.TickAt(time - c.Offset)
}

// MaxBpm is used by the judges to pick score tick density.
func (c *Chart) MaxBpm() float64 {
	max := 0.0
	for i := 0; i < c.Control.Len(); i++ {
		if p := c.Control.Point(i); p.BPM > max {
			max = p.BPM
		}
	}
	return max
}

// Duration is the end time of the last entity on any lane, in seconds.
func (c *Chart) Duration() float64 {
	end := 0.0
	grow := func(pos, dur float64) {
		if t := c.TimeAt(pos + dur); t > end {
			end = t
		}
	}
	for _, lane := range c.BT {
		for _, b := range lane {
			grow(b.Pos, b.Dur)
		}
	}
	for _, lane := range c.FX {
		for _, b := range lane {
			grow(b.Pos, b.Dur)
		}
	}
	for _, lane := range c.Lasers {
		for _, a := range lane {
			grow(a.Pos, a.Dur)
		}
	}
	return end
}

// MostRecentButtonAt returns the latest button on the lane starting at
// or before the tick, or nil. Lanes 0-3 are bt, 4-5 fx.
func (c *Chart) MostRecentButtonAt(lane int, tick float64) *Button {
	var seq []*Button
	if lane < BTLaneCount {
		seq = c.BT[lane]
	} else {
		seq = c.FX[lane-BTLaneCount]
	}
	i := sort.Search(len(seq), func(i int) bool { return seq[i].Pos > tick })
	if i == 0 {
		return nil
	}
	return seq[i-1]
}

// MostRecentLaserAt returns the latest segment on the lane starting at
// or before the tick, or nil.
func (c *Chart) MostRecentLaserAt(lane int, tick float64) *Analog {
	seq := c.Lasers[lane]
	i := sort.Search(len(seq), func(i int) bool { return seq[i].Pos > tick })
	if i == 0 {
		return nil
	}
	return seq[i-1]
}

// SampleValue interpolates the laser value on a lane at a tick. The
// second return is false when no segment covers the tick.
func (c *Chart) SampleValue(lane int, tick float64) (float64, bool) {
	a := c.MostRecentLaserAt(lane, tick)
	if a == nil {
		return 0, false
	}
	if tick > a.Pos+a.Dur {
		return 0, false
	}
	return a.ValueAt(tick), true
}

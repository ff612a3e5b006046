package ksh

import (
	"github.com/zacharied/theori/internal/chart"
)

// ButtonState is one character of a bar line's button columns.
type ButtonState int

const (
	ButtonOff ButtonState = iota
	ButtonChip
	ButtonHold
)

// FXState is a fx button column; legacy single-letter codes select an
// effect kind and imply a hold.
type FXState struct {
	State ButtonState
	Kind  chart.FXKind
}

type LaserKind int

const (
	// LaserInactive is '-': no laser on this side.
	LaserInactive LaserKind = iota
	// LaserInterp is ':': the running segment continues toward its
	// next absolute position.
	LaserInterp
	// LaserPosition is an alphabet character giving an absolute
	// position 0..50.
	LaserPosition
)

type LaserState struct {
	Kind  LaserKind
	Value int
}

type AddKind int

const (
	AddSpin AddKind = iota
	AddSwing
	AddWobble
)

// Add is the trailing motion directive of a bar line, e.g. "@(192".
// Duration is in raw ticks at 192 subdivisions per measure.
type Add struct {
	Kind      AddKind
	Direction int
	Duration  int
	Amplitude float64
	Frequency float64
	Decay     float64
}

// Setting is one key=value line in the chart body. Order matters, so
// they are kept as a list rather than a map.
type Setting struct {
	Key   string
	Value string
}

// Tick is one bar-data line plus the settings that preceded it.
type Tick struct {
	BT       [4]ButtonState
	FX       [2]FXState
	Laser    [2]LaserState
	Settings []Setting
	Add      *Add
}

// Block is one measure's worth of ticks; the tick grid resolution is
// simply however many lines the measure was written with.
type Block struct {
	Ticks []Tick
}

// EffectDef is a #define_fx or #define_filter entry.
type EffectDef struct {
	Name   string
	Params map[string]string
}

// Chart is the raw parsed source: header metadata, the tick stream and
// the two effect definition tables.
type Chart struct {
	Meta    map[string]string
	Blocks  []Block
	FX      map[string]EffectDef
	Filters map[string]EffectDef
}

// Position of a tick in measure units.
func (c *Chart) Position(block, tick int) float64 {
	n := len(c.Blocks[block].Ticks)
	if n == 0 {
		return float64(block)
	}
	return float64(block) + float64(tick)/float64(n)
}

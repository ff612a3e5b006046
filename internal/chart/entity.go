package chart

// FXKind identifies one of the built-in fx effect families a button or
// event can select.
type FXKind int

const (
	FXNone FXKind = iota
	FXBitCrush
	FXGate4
	FXGate8
	FXGate12
	FXGate16
	FXGate24
	FXGate32
	FXRetrigger8
	FXRetrigger12
	FXRetrigger16
	FXRetrigger24
	FXRetrigger32
	FXPhaser
	FXFlanger
	FXWobble
	FXSideChain
	FXTapeStop
)

func (k FXKind) String() string {
	switch k {
	case FXBitCrush:
		return "bitcrush"
	case FXGate4, FXGate8, FXGate12, FXGate16, FXGate24, FXGate32:
		return "gate"
	case FXRetrigger8, FXRetrigger12, FXRetrigger16, FXRetrigger24, FXRetrigger32:
		return "retrigger"
	case FXPhaser:
		return "phaser"
	case FXFlanger:
		return "flanger"
	case FXWobble:
		return "wobble"
	case FXSideChain:
		return "sidechain"
	case FXTapeStop:
		return "tapestop"
	}
	return "none"
}

// An EffectDef is a named effect with its parameter table, either one of
// the chart's #define_fx/#define_filter entries or a built-in kind.
type EffectDef struct {
	Name   string
	Kind   FXKind
	Params map[string]string
}

// Button is a chip (Dur 0) or hold on one of the bt/fx lanes.
type Button struct {
	Lane   int
	Pos    float64
	Dur    float64
	Effect *EffectDef
	Sample string
}

func (b *Button) Chip() bool { return b.Dur == 0 }

// Analog is one laser segment. Segments belonging to one continuous
// gesture link to their neighbours through Prev/Next, which index into
// the owning lane's slice; -1 means no link.
type Analog struct {
	Lane          int
	Pos           float64
	Dur           float64
	Start         float64
	End           float64
	RangeExtended bool
	Prev          int
	Next          int
}

func (a *Analog) Slam() bool { return a.Dur == 0 }

// Direction is -1, 0 or 1 following the sign of End-Start.
func (a *Analog) Direction() int {
	switch {
	case a.End > a.Start:
		return 1
	case a.End < a.Start:
		return -1
	}
	return 0
}

// ValueAt linearly interpolates the segment's value at a tick. Slams
// resolve to their end value.
func (a *Analog) ValueAt(tick float64) float64 {
	if a.Dur == 0 {
		return a.End
	}
	f := (tick - a.Pos) / a.Dur
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return a.Start + (a.End-a.Start)*f
}

type EventKind int

const (
	EventEffectKind EventKind = iota
	EventFilterKind
	EventFilterGain
	EventLaserApplication
	EventSlamVolume
	EventCameraPath
	EventImpulse
)

type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterPeak
	FilterLowPass
	FilterHighPass
	FilterBitCrush
)

type CameraParam int

const (
	CameraZoomTop CameraParam = iota
	CameraZoomBottom
	CameraZoomSide
	CameraTilt
)

type ImpulseKind int

const (
	ImpulseSpin ImpulseKind = iota
	ImpulseSwing
	ImpulseWobble
)

// Event is an instantaneous parameter change on the timeline. Only the
// fields relevant to its Kind are set; the layout follows the one fat
// event struct per stream convention.
type Event struct {
	Pos  float64
	Kind EventKind
	Lane int // fx lane or laser side where that applies, else -1

	Effect    *EffectDef  // EventEffectKind
	Filter    FilterKind  // EventFilterKind
	Value     float64     // EventFilterGain, EventSlamVolume, EventCameraPath
	Camera    CameraParam // EventCameraPath
	Impulse   ImpulseKind // EventImpulse
	Direction int         // EventImpulse, -1 left / 1 right
	Dur       float64     // EventImpulse, in ticks
	Amplitude float64     // EventImpulse
	Frequency float64     // EventImpulse
	Decay     float64     // EventImpulse
}

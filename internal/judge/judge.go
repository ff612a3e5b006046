package judge

import (
	"time"

	"github.com/zacharied/theori/internal/chart"
)

// Kind is the ordered precision taxonomy of a judged tick.
type Kind int

const (
	Miss Kind = iota
	Near
	Critical
	Perfect
	// Passive is awarded for held holds and tracked lasers, where
	// precision bands do not apply.
	Passive
)

func (k Kind) String() string {
	switch k {
	case Near:
		return "near"
	case Critical:
		return "critical"
	case Perfect:
		return "perfect"
	case Passive:
		return "passive"
	}
	return "miss"
}

// Window pairs a precision band with its half-width. Config.Windows is
// ordered tightest first; the last entry is the hit/miss boundary.
type Window struct {
	Time time.Duration
	Kind Kind
}

type Config struct {
	Windows []Window
	// Offset is the global input latency calibration, subtracted from
	// every transport position before comparison.
	Offset time.Duration
	// ActiveRange is how far the laser cursor may sit from the desired
	// value and still count as being played, in lane widths.
	ActiveRange float64
	// SwitchRadius is the tolerance around a direction switch tick.
	SwitchRadius time.Duration
	// LockDuration is how long a matching input keeps the laser cursor
	// glued to the desired value.
	LockDuration float64
}

func DefaultConfig() Config {
	return Config{
		Windows: []Window{
			{Time: 25 * time.Millisecond, Kind: Perfect},
			{Time: 50 * time.Millisecond, Kind: Critical},
			{Time: 100 * time.Millisecond, Kind: Near},
		},
		ActiveRange:  0.1,
		SwitchRadius: 100 * time.Millisecond,
		LockDuration: 0.4,
	}
}

// missWindow is the hit/miss boundary in seconds.
func (c *Config) missWindow() float64 {
	return c.Windows[len(c.Windows)-1].Time.Seconds()
}

func (c *Config) classify(delta float64) Kind {
	d := delta
	if d < 0 {
		d = -d
	}
	for _, w := range c.Windows {
		if d <= w.Time.Seconds() {
			return w.Kind
		}
	}
	return Miss
}

type EventKind int

const (
	EventResult EventKind = iota
	EventLaneActive
	EventLaneIdle
	EventCursorShown
	EventCursorHidden
	EventSlamHit
)

// Result is one scored tick.
type Result struct {
	Lane   int
	Pos    float64 // tick position
	Delta  float64 // signed seconds, input minus scheduled
	Kind   Kind
	Button *chart.Button
	Laser  *chart.Analog
}

// Event is one notification out of the engine. The dispatcher queues
// them in emission order; the caller drains the queue once per frame.
type Event struct {
	Kind   EventKind
	Lane   int
	Time   float64
	Value  float64 // cursor value for EventCursorShown / EventSlamHit
	Result *Result
}

type queue struct {
	events []Event
}

func (q *queue) push(ev Event) {
	q.events = append(q.events, ev)
}

func (q *queue) drain() []Event {
	evs := q.events
	q.events = nil
	return evs
}

// Dispatcher owns one judge per lane and fans the transport position
// out to all of them. Lane numbering: 0-3 bt, 4-5 fx, then laser lanes
// are addressed separately by side.
type Dispatcher struct {
	q       queue
	buttons [chart.BTLaneCount + chart.FXLaneCount]*ButtonJudge
	lasers  [chart.LaserLaneCount]*LaserJudge
}

func NewDispatcher(c *chart.Chart, cfg Config) *Dispatcher {
	d := &Dispatcher{}
	step := scoreTickStep(c)
	for lane := range d.buttons {
		d.buttons[lane] = newButtonJudge(c, lane, cfg, step, &d.q)
	}
	for lane := range d.lasers {
		d.lasers[lane] = newLaserJudge(c, lane, cfg, step, &d.q)
	}
	return d
}

// scoreTickStep picks the scoring density from the chart's peak tempo,
// in measure units.
func scoreTickStep(c *chart.Chart) float64 {
	if c.MaxBpm() >= 255 {
		return 1.0 / 8.0
	}
	return 1.0 / 16.0
}

// AdvancePosition is called once per frame with the monotonic transport
// time in seconds.
func (d *Dispatcher) AdvancePosition(position float64) {
	for _, b := range d.buttons {
		b.AdvancePosition(position)
	}
	for _, l := range d.lasers {
		l.AdvancePosition(position)
	}
}

// Press delivers a button press edge on a bt/fx lane.
func (d *Dispatcher) Press(lane int, position float64) {
	d.buttons[lane].Press(position)
}

func (d *Dispatcher) Release(lane int, position float64) {
	d.buttons[lane].Release(position)
}

// UserInput delivers a signed analog delta on a laser lane.
func (d *Dispatcher) UserInput(lane int, amount, position float64) {
	d.lasers[lane].UserInput(amount, position)
}

// Cursor reports the live cursor value of a laser lane for rendering.
func (d *Dispatcher) Cursor(lane int) (float64, bool) {
	return d.lasers[lane].Cursor()
}

// Events returns and clears the pending notification queue.
func (d *Dispatcher) Events() []Event {
	return d.q.drain()
}

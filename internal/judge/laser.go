package judge

import (
	"log"
	"math"
	"sort"

	"github.com/zacharied/theori/internal/chart"
)

// State of a laser lane judge. CursorReset, LaserBegin, LaserEnd and
// SwitchDirection are transient transitions driven by state ticks; only
// these three persist between frames.
type State int

const (
	Idle State = iota
	ActiveOn
	ActiveOff
)

type stateTickKind int

const (
	tickCursorReset stateTickKind = iota
	tickLaserBegin
	tickSwitchDirection
	tickLaserEnd
)

type stateTick struct {
	kind  stateTickKind
	pos   float64
	time  float64
	value float64 // cursor value at reset/begin, target value at a switch
	dir   int
	slam  bool
	a     *chart.Analog
}

type laserScoreTick struct {
	pos  float64
	time float64
	a    *chart.Analog
	slam bool
}

// LaserJudge scores one analog lane. Both tick sequences are consumed
// strictly forward; a fast transport seek drains everything due in one
// call rather than one tick per frame.
type LaserJudge struct {
	c    *chart.Chart
	lane int
	cfg  Config
	q    *queue

	stateTicks []stateTick
	scoreTicks []laserScoreTick
	si, ci     int

	state     State
	dir       int
	cursor    float64
	shown     bool
	lockTimer float64
	lastAdj   float64
}

func newLaserJudge(c *chart.Chart, lane int, cfg Config, step float64, q *queue) *LaserJudge {
	j := &LaserJudge{c: c, lane: lane, cfg: cfg, q: q}

	seq := c.Lasers[lane]
	prevEnd := 0.0
	for _, a := range seq {
		if a.Prev != -1 {
			continue
		}
		// Walk one connected chain
		first, last := a, a
		dir := a.Direction()
		j.stateTicks = append(j.stateTicks,
			stateTick{kind: tickCursorReset, pos: math.Max(prevEnd, a.Pos-1), value: a.Start, a: a},
			stateTick{kind: tickLaserBegin, pos: a.Pos, value: a.Start, dir: dir, slam: a.Slam(), a: a},
		)
		slams := []float64{}
		if a.Slam() {
			j.scoreTicks = append(j.scoreTicks, laserScoreTick{pos: a.Pos, a: a, slam: true})
			slams = append(slams, a.Pos)
		}
		for last.Next != -1 {
			s := seq[last.Next]
			if d := s.Direction(); d != 0 && dir != 0 && d != dir {
				target := s.Start
				if s.Slam() {
					target = s.End
				}
				j.stateTicks = append(j.stateTicks, stateTick{
					kind: tickSwitchDirection, pos: s.Pos, value: target, dir: d, slam: s.Slam(), a: s,
				})
			}
			if d := s.Direction(); d != 0 {
				dir = d
			}
			if s.Slam() {
				j.scoreTicks = append(j.scoreTicks, laserScoreTick{pos: s.Pos, a: s, slam: true})
				slams = append(slams, s.Pos)
			}
			last = s
		}
		end := last.Pos + last.Dur
		// Periodic ticks belong to the segment covering them; a position
		// that already carries a slam tick is not judged a second time
		seg := first
		for p := first.Pos; p < end-1e-9; p += step {
			for seg.Next != -1 && p >= seg.Pos+seg.Dur-1e-9 {
				seg = seq[seg.Next]
			}
			if onSlam(slams, p) {
				continue
			}
			j.scoreTicks = append(j.scoreTicks, laserScoreTick{pos: p, a: seg})
		}
		j.stateTicks = append(j.stateTicks, stateTick{kind: tickLaserEnd, pos: end, a: last})
		prevEnd = end
	}

	sort.SliceStable(j.scoreTicks, func(a, b int) bool { return j.scoreTicks[a].pos < j.scoreTicks[b].pos })
	sort.SliceStable(j.stateTicks, func(a, b int) bool { return j.stateTicks[a].pos < j.stateTicks[b].pos })
	for i := range j.scoreTicks {
		j.scoreTicks[i].time = c.TimeAt(j.scoreTicks[i].pos)
	}
	for i := range j.stateTicks {
		j.stateTicks[i].time = c.TimeAt(j.stateTicks[i].pos)
	}
	return j
}

func onSlam(slams []float64, p float64) bool {
	for _, sp := range slams {
		if math.Abs(p-sp) < 1e-9 {
			return true
		}
	}
	return false
}

func (j *LaserJudge) adjusted(position float64) float64 {
	return position - j.cfg.Offset.Seconds()
}

// Cursor reports the live cursor value and whether it is shown.
func (j *LaserJudge) Cursor() (float64, bool) {
	return j.cursor, j.shown
}

func (j *LaserJudge) State() State { return j.state }

// desired is the chain's interpolated value at the adjusted position.
func (j *LaserJudge) desired(adj float64) (float64, bool) {
	return j.c.SampleValue(j.lane, j.c.TickAt(adj))
}

func (j *LaserJudge) beingPlayed(adj float64) bool {
	d, ok := j.desired(adj)
	if !ok {
		return false
	}
	return math.Abs(d-j.cursor) <= j.cfg.ActiveRange
}

func (j *LaserJudge) AdvancePosition(position float64) {
	adj := j.adjusted(position)
	radius := j.cfg.SwitchRadius.Seconds()

	// Decay the lock; any matching input resets it
	if j.lockTimer > 0 {
		j.lockTimer -= adj - j.lastAdj
		if j.lockTimer < 0 {
			j.lockTimer = 0
		}
	}
	j.lastAdj = adj

	// While locked the cursor rides the desired value, so score ticks
	// drained this frame see the tracked position
	if j.state != Idle && j.lockTimer > 0 {
		if d, ok := j.desired(adj); ok {
			j.cursor = d
		}
	}

	// Drain everything due this frame. State and score ticks merge by
	// time; begins/resets/switches run before score ticks sharing their
	// tick, ends after.
	for {
		var st *stateTick
		if j.si < len(j.stateTicks) {
			st = &j.stateTicks[j.si]
		}
		var sc *laserScoreTick
		if j.ci < len(j.scoreTicks) {
			sc = &j.scoreTicks[j.ci]
		}

		stDue := st != nil && adj >= st.time
		if st != nil && st.kind == tickSwitchDirection {
			stDue = adj >= st.time+radius
		}
		scDue := sc != nil && adj >= sc.time

		if !stDue && !scDue {
			break
		}
		if stDue && (!scDue || st.time < sc.time || (st.time == sc.time && st.kind != tickLaserEnd)) {
			j.applyStateTick(st, position)
			j.si++
			continue
		}
		j.scoreTick(sc, position, adj)
		j.ci++
	}

	if j.state != Idle {
		if j.beingPlayed(adj) {
			j.state = ActiveOn
		} else {
			j.state = ActiveOff
		}
	}
}

func (j *LaserJudge) applyStateTick(st *stateTick, position float64) {
	switch st.kind {
	case tickCursorReset:
		j.cursor = st.value
		if !j.shown {
			j.shown = true
			j.q.push(Event{Kind: EventCursorShown, Lane: j.lane, Time: position, Value: j.cursor})
		}

	case tickLaserBegin:
		j.dir = st.dir
		if math.Abs(j.cursor-st.value) <= j.cfg.ActiveRange {
			j.state = ActiveOn
		} else {
			j.state = ActiveOff
		}
		j.q.push(Event{Kind: EventLaneActive, Lane: j.lane, Time: position})

	case tickSwitchDirection:
		// Only reached after the tolerance radius passed in silence
		log.Printf("laser %d missed direction switch at tick %v", j.lane, st.pos)
		j.dir = st.dir

	case tickLaserEnd:
		j.state = Idle
		j.dir = 0
		j.lockTimer = 0
		if j.shown {
			j.shown = false
			j.q.push(Event{Kind: EventCursorHidden, Lane: j.lane, Time: position})
		}
		j.q.push(Event{Kind: EventLaneIdle, Lane: j.lane, Time: position})
	}
}

func (j *LaserJudge) scoreTick(sc *laserScoreTick, position, adj float64) {
	kind := Miss
	if sc.slam {
		// A slam scores on whether either end is being played; an early
		// trigger already snapped the cursor to the tail
		if math.Abs(sc.a.Start-j.cursor) <= j.cfg.ActiveRange ||
			math.Abs(sc.a.End-j.cursor) <= j.cfg.ActiveRange {
			kind = Passive
			j.cursor = sc.a.End
			j.lockTimer = j.cfg.LockDuration
			j.q.push(Event{Kind: EventSlamHit, Lane: j.lane, Time: position, Value: sc.a.End})
		}
	} else if j.beingPlayed(adj) {
		kind = Passive
	}
	j.q.push(Event{Kind: EventResult, Lane: j.lane, Time: position, Result: &Result{
		Lane: j.lane, Pos: sc.pos, Kind: kind, Laser: sc.a,
	}})
}

// UserInput nudges the cursor by a signed amount and feeds the lock and
// direction-switch machinery. Called between position advances from the
// same thread.
func (j *LaserJudge) UserInput(amount, position float64) {
	if j.state == Idle || amount == 0 {
		return
	}
	adj := j.adjusted(position)
	radius := j.cfg.SwitchRadius.Seconds()

	j.cursor += amount
	if j.cursor < 0 {
		j.cursor = 0
	} else if j.cursor > 1 {
		j.cursor = 1
	}

	inDir := 1
	if amount < 0 {
		inDir = -1
	}

	// Pending direction switch within its tolerance radius
	if j.si < len(j.stateTicks) {
		st := &j.stateTicks[j.si]
		if st.kind == tickSwitchDirection && math.Abs(adj-st.time) <= radius {
			if inDir == st.dir {
				// The slam leniency: close enough to the target counts
				// as tracking it, no pixel-exact cursor work required
				if !st.slam || math.Abs(j.cursor-st.value) <= j.cfg.ActiveRange {
					j.dir = st.dir
					j.si++
					if st.slam {
						j.cursor = st.value
					}
					j.lockTimer = j.cfg.LockDuration
					return
				}
			}
			if inDir == j.dir {
				// Old direction is still accepted without a transition
				j.lockTimer = j.cfg.LockDuration
			}
			return
		}
	}

	if j.dir == 0 || inDir == j.dir {
		j.lockTimer = j.cfg.LockDuration
	}
}

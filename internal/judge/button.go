package judge

import (
	"github.com/zacharied/theori/internal/chart"
)

type buttonTick struct {
	pos  float64
	time float64
	b    *chart.Button
	head bool // requires a press edge; body ticks only require holding
	done bool
}

// ButtonJudge scores one bt or fx lane. It walks its precomputed score
// ticks with a monotonic cursor; chips and hold heads are matched to
// press edges by timing band, hold bodies score passively while held.
type ButtonJudge struct {
	lane int
	cfg  Config
	q    *queue

	ticks  []buttonTick
	cursor int

	holding bool
	held    *chart.Button
	heldEnd float64
}

func newButtonJudge(c *chart.Chart, lane int, cfg Config, step float64, q *queue) *ButtonJudge {
	j := &ButtonJudge{lane: lane, cfg: cfg, q: q}

	var seq []*chart.Button
	if lane < chart.BTLaneCount {
		seq = c.BT[lane]
	} else {
		seq = c.FX[lane-chart.BTLaneCount]
	}

	for _, b := range seq {
		j.ticks = append(j.ticks, buttonTick{pos: b.Pos, time: c.TimeAt(b.Pos), b: b, head: true})
		if b.Chip() {
			continue
		}
		body := 0
		for p := b.Pos + step; p < b.Pos+b.Dur-1e-9; p += step {
			j.ticks = append(j.ticks, buttonTick{pos: p, time: c.TimeAt(p), b: b})
			body++
		}
		if body == 0 {
			// Short holds still need at least one passive tick
			p := b.Pos + b.Dur
			j.ticks = append(j.ticks, buttonTick{pos: p, time: c.TimeAt(p), b: b})
		}
	}
	return j
}

func (j *ButtonJudge) adjusted(position float64) float64 {
	return position - j.cfg.Offset.Seconds()
}

func (j *ButtonJudge) AdvancePosition(position float64) {
	adj := j.adjusted(position)
	for j.cursor < len(j.ticks) {
		tk := &j.ticks[j.cursor]
		if tk.done {
			j.cursor++
			continue
		}
		if tk.head {
			// A head stays matchable until its window closes
			if adj < tk.time+j.cfg.missWindow() {
				break
			}
			tk.done = true
			j.cursor++
			j.q.push(Event{Kind: EventResult, Lane: j.lane, Time: position, Result: &Result{
				Lane: j.lane, Pos: tk.pos, Delta: j.cfg.missWindow(), Kind: Miss, Button: tk.b,
			}})
			continue
		}
		if adj < tk.time {
			break
		}
		kind := Miss
		if j.holding && j.held == tk.b {
			kind = Passive
		}
		tk.done = true
		j.cursor++
		j.q.push(Event{Kind: EventResult, Lane: j.lane, Time: position, Result: &Result{
			Lane: j.lane, Pos: tk.pos, Kind: kind, Button: tk.b,
		}})
	}
}

// Press matches the next judgeable head tick within the outermost
// window and classifies it by absolute time delta.
func (j *ButtonJudge) Press(position float64) {
	adj := j.adjusted(position)
	for i := j.cursor; i < len(j.ticks); i++ {
		tk := &j.ticks[i]
		if tk.done {
			continue
		}
		if tk.time > adj+j.cfg.missWindow() {
			break
		}
		if !tk.head || adj > tk.time+j.cfg.missWindow() {
			continue
		}
		delta := adj - tk.time
		tk.done = true
		if !tk.b.Chip() {
			j.holding = true
			j.held = tk.b
			j.heldEnd = j.heldEndTime(i)
		}
		j.q.push(Event{Kind: EventResult, Lane: j.lane, Time: position, Result: &Result{
			Lane: j.lane, Pos: tk.pos, Delta: delta, Kind: j.cfg.classify(delta), Button: tk.b,
		}})
		return
	}
}

func (j *ButtonJudge) heldEndTime(head int) float64 {
	// The last body tick of this hold bounds the release deadline
	end := j.ticks[head].time
	for i := head + 1; i < len(j.ticks); i++ {
		if j.ticks[i].b != j.ticks[head].b {
			break
		}
		end = j.ticks[i].time
	}
	return end
}

// Release ends a hold. Letting go before the body is done degrades the
// rest of the hold; the remaining passive ticks fall through to Miss.
func (j *ButtonJudge) Release(position float64) {
	if !j.holding {
		return
	}
	adj := j.adjusted(position)
	held := j.held
	j.holding = false
	j.held = nil
	if adj < j.heldEnd-j.cfg.missWindow() {
		j.q.push(Event{Kind: EventResult, Lane: j.lane, Time: position, Result: &Result{
			Lane: j.lane, Pos: held.Pos, Delta: adj - j.heldEnd, Kind: Near, Button: held,
		}})
	}
}

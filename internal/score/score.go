package score

import (
	"time"

	"github.com/zacharied/theori/internal/judge"
)

// Tally accumulates the result stream of one play.
type Tally struct {
	Counts     map[string]int64
	TotalError time.Duration
	Hits       int64
}

func NewTally() *Tally {
	return &Tally{Counts: map[string]int64{}}
}

// Add folds one drained judge event into the tally. Non-result
// lifecycle events are ignored.
func (t *Tally) Add(ev judge.Event) {
	if ev.Kind != judge.EventResult || ev.Result == nil {
		return
	}
	t.Counts[ev.Result.Kind.String()]++
	if ev.Result.Kind != judge.Miss {
		t.Hits++
		d := time.Duration(ev.Result.Delta * float64(time.Second))
		if d < 0 {
			d = -d
		}
		t.TotalError += d
	}
}

// MeanError is the average absolute timing error of all hits.
func (t *Tally) MeanError() time.Duration {
	if t.Hits == 0 {
		return 0
	}
	return t.TotalError / time.Duration(t.Hits)
}

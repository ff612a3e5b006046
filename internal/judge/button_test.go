package judge

import (
	"math"
	"testing"
	"time"

	"github.com/zacharied/theori/internal/chart"
)

func chipChart() *chart.Chart {
	c := chart.New()
	c.BT[0] = []*chart.Button{{Lane: 0, Pos: 0}}
	return c
}

func results(evs []Event) []*Result {
	rs := []*Result{}
	for _, ev := range evs {
		if ev.Kind == EventResult {
			rs = append(rs, ev.Result)
		}
	}
	return rs
}

func TestChipHit(t *testing.T) {
	d := NewDispatcher(chipChart(), DefaultConfig())
	d.AdvancePosition(0)
	d.Press(0, 0)
	rs := results(d.Events())
	if len(rs) != 1 {
		t.Fatalf("expected 1 result, got %v", len(rs))
	}
	if rs[0].Kind != Perfect || rs[0].Delta != 0 {
		t.Fatalf("expected perfect at delta 0, got %+v", rs[0])
	}
	// The chip is consumed; nothing more comes out
	d.Press(0, 0.01)
	d.AdvancePosition(1)
	if rs := results(d.Events()); len(rs) != 0 {
		t.Fatalf("consumed chip judged again: %+v", rs[0])
	}
}

func TestChipBands(t *testing.T) {
	tests := map[float64]Kind{
		0.01:  Perfect,
		-0.02: Perfect,
		0.04:  Critical,
		-0.08: Near,
		0.099: Near,
	}
	for delta, expected := range tests {
		d := NewDispatcher(chipChart(), DefaultConfig())
		d.Press(0, delta)
		rs := results(d.Events())
		if len(rs) != 1 || rs[0].Kind != expected {
			t.Log("delta   ", delta)
			t.Log("results ", rs)
			t.Log("expected", expected)
			t.Fail()
		}
	}
}

func TestChipMiss(t *testing.T) {
	d := NewDispatcher(chipChart(), DefaultConfig())
	d.AdvancePosition(0.05)
	if rs := results(d.Events()); len(rs) != 0 {
		t.Fatal("chip missed while its window was still open")
	}
	d.AdvancePosition(0.2)
	rs := results(d.Events())
	if len(rs) != 1 || rs[0].Kind != Miss {
		t.Fatalf("expected miss, got %+v", rs)
	}
	// A press after the window closed hits nothing
	d.Press(0, 0.21)
	if rs := results(d.Events()); len(rs) != 0 {
		t.Fail()
	}
}

func TestJudgementOffset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Offset = 50 * time.Millisecond
	d := NewDispatcher(chipChart(), cfg)
	d.Press(0, 0.05)
	rs := results(d.Events())
	if len(rs) != 1 || rs[0].Kind != Perfect {
		t.Fatalf("offset not subtracted from input position: %+v", rs)
	}
}

func TestHoldLifecycle(t *testing.T) {
	c := chart.New()
	c.BT[2] = []*chart.Button{{Lane: 2, Pos: 0, Dur: 1}}
	d := NewDispatcher(c, DefaultConfig())

	// 120 bpm 4/4: body ticks every 16th, 0.125s apart
	d.Press(2, 0)
	d.AdvancePosition(1.0)
	rs := results(d.Events())
	if len(rs) != 9 {
		t.Fatalf("expected head + 8 body ticks, got %v", len(rs))
	}
	if rs[0].Kind != Perfect {
		t.Fatalf("head should judge by band, got %v", rs[0].Kind)
	}
	for _, r := range rs[1:] {
		if r.Kind != Passive {
			t.Fatalf("held body tick judged %v", r.Kind)
		}
	}

	// Early release degrades, and the rest of the body decays to miss
	d.Release(2, 1.0)
	rs = results(d.Events())
	if len(rs) != 1 || rs[0].Kind != Near {
		t.Fatalf("expected degraded release, got %+v", rs)
	}
	d.AdvancePosition(2.0)
	for _, r := range results(d.Events()) {
		if r.Kind != Miss {
			t.Fatalf("released body tick judged %v", r.Kind)
		}
	}
}

func TestHoldHeldToEnd(t *testing.T) {
	c := chart.New()
	c.FX[0] = []*chart.Button{{Lane: 4, Pos: 0, Dur: 0.5}}
	d := NewDispatcher(c, DefaultConfig())

	d.Press(4, 0)
	d.AdvancePosition(1.0)
	d.Release(4, 1.0)
	rs := results(d.Events())
	misses := 0
	for _, r := range rs {
		if r.Kind == Miss || r.Kind == Near {
			misses++
		}
	}
	if misses != 0 {
		t.Fatalf("full hold still produced %v degraded results", misses)
	}
}

func TestEndOfChartIsNoOp(t *testing.T) {
	d := NewDispatcher(chipChart(), DefaultConfig())
	d.AdvancePosition(10)
	d.Events()
	// Cursors are exhausted; further advancement is a quiet no-op
	d.AdvancePosition(20)
	d.Press(0, 20)
	d.Release(0, 20)
	if evs := d.Events(); len(evs) != 0 {
		t.Fatalf("expected silence after the chart ended, got %v events", len(evs))
	}
}

func TestScoreTickDensity(t *testing.T) {
	c := chipChart()
	if step := scoreTickStep(c); step != 1.0/16.0 {
		t.Fatalf("expected 16ths under 255 bpm, got %v", step)
	}
	c.Control.GetOrCreate(1, true).BPM = 300
	if step := scoreTickStep(c); step != 1.0/8.0 {
		t.Fatalf("expected 8ths at high bpm, got %v", step)
	}
	if math.Abs(c.MaxBpm()-300) > 1e-9 {
		t.Fail()
	}
}

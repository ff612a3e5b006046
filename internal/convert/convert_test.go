package convert

import (
	"math"
	"testing"

	"github.com/zacharied/theori/internal/chart"
	"github.com/zacharied/theori/internal/ksh"
)

func emptyTicks(n int) []ksh.Tick {
	return make([]ksh.Tick, n)
}

func header() map[string]string {
	return map[string]string{"t": "120", "beat": "4/4"}
}

func TestConvertChipAtZero(t *testing.T) {
	src := &ksh.Chart{Meta: header()}
	ticks := emptyTicks(4)
	ticks[0].BT[0] = ksh.ButtonChip
	src.Blocks = []ksh.Block{{Ticks: ticks}}

	c, err := Convert(src)
	if nil != err {
		t.Fatalf("convert failed: %v", err)
	}
	if len(c.BT[0]) != 1 {
		t.Fatalf("expected 1 button, got %v", len(c.BT[0]))
	}
	b := c.BT[0][0]
	if !b.Chip() || b.Pos != 0 {
		t.Fatalf("expected chip at tick 0, got %+v", b)
	}
	if c.TimeAt(b.Pos) != 0 {
		t.Fatalf("chip should sit at 0.0s, got %v", c.TimeAt(b.Pos))
	}
}

func TestConvertHold(t *testing.T) {
	src := &ksh.Chart{Meta: header()}
	ticks := emptyTicks(4)
	ticks[0].BT[1] = ksh.ButtonHold
	ticks[1].BT[1] = ksh.ButtonHold
	ticks[2].BT[1] = ksh.ButtonHold
	src.Blocks = []ksh.Block{{Ticks: ticks}}

	c, err := Convert(src)
	if nil != err {
		t.Fatalf("convert failed: %v", err)
	}
	if len(c.BT[1]) != 1 {
		t.Fatalf("expected 1 hold, got %v", len(c.BT[1]))
	}
	b := c.BT[1][0]
	if b.Pos != 0 || b.Dur != 0.75 {
		t.Fatalf("expected hold 0..0.75, got %+v", b)
	}
}

func TestConvertHoldRunsToStreamEnd(t *testing.T) {
	src := &ksh.Chart{Meta: header()}
	ticks := emptyTicks(2)
	ticks[0].BT[0] = ksh.ButtonHold
	ticks[1].BT[0] = ksh.ButtonHold
	src.Blocks = []ksh.Block{{Ticks: ticks}}

	c, err := Convert(src)
	if nil != err {
		t.Fatalf("convert failed: %v", err)
	}
	if b := c.BT[0][0]; b.Dur != 1 {
		t.Fatalf("unterminated hold should close at the stream end, got %+v", b)
	}
}

func TestConvertFXHoldEffect(t *testing.T) {
	src := &ksh.Chart{
		Meta: header(),
		FX:   map[string]ksh.EffectDef{"Crunch": {Name: "Crunch", Params: map[string]string{"depth": "12"}}},
	}
	ticks := emptyTicks(4)
	ticks[0].Settings = []ksh.Setting{{Key: "fx-l", Value: "Crunch"}}
	ticks[0].FX[0].State = ksh.ButtonHold
	ticks[2].Settings = []ksh.Setting{{Key: "fx-r", Value: "NoSuchEffect"}}
	ticks[2].FX[1].State = ksh.ButtonHold
	src.Blocks = []ksh.Block{{Ticks: ticks}}

	c, err := Convert(src)
	if nil != err {
		t.Fatalf("convert failed: %v", err)
	}
	left := c.FX[0][0]
	if left.Effect == nil || left.Effect.Name != "Crunch" || left.Effect.Params["depth"] != "12" {
		t.Fatalf("expected Crunch effect, got %+v", left.Effect)
	}
	// Undefined references degrade to no effect, never a failure
	right := c.FX[1][0]
	if right.Effect != nil {
		t.Fatalf("unknown effect should be nil, got %+v", right.Effect)
	}
}

func TestConvertLegacyFXChar(t *testing.T) {
	src := &ksh.Chart{Meta: header()}
	ticks := emptyTicks(2)
	ticks[0].FX[0] = ksh.FXState{State: ksh.ButtonHold, Kind: chart.FXTapeStop}
	ticks[1].FX[0] = ksh.FXState{State: ksh.ButtonHold, Kind: chart.FXTapeStop}
	src.Blocks = []ksh.Block{{Ticks: ticks}}

	c, err := Convert(src)
	if nil != err {
		t.Fatalf("convert failed: %v", err)
	}
	b := c.FX[0][0]
	if b.Effect == nil || b.Effect.Kind != chart.FXTapeStop {
		t.Fatalf("expected tapestop effect, got %+v", b.Effect)
	}
}

func TestConvertTempoBeforeEntities(t *testing.T) {
	src := &ksh.Chart{Meta: header()}
	b0 := emptyTicks(4)
	b1 := emptyTicks(4)
	b1[0].Settings = []ksh.Setting{{Key: "t", Value: "240"}}
	b1[0].BT[0] = ksh.ButtonChip
	b1[2].BT[0] = ksh.ButtonChip
	src.Blocks = []ksh.Block{{Ticks: b0}, {Ticks: b1}}

	c, err := Convert(src)
	if nil != err {
		t.Fatalf("convert failed: %v", err)
	}
	if bpm := c.Control.MostRecentAtTick(1).BPM; bpm != 240 {
		t.Fatalf("tempo change not applied at tick 1, bpm %v", bpm)
	}
	// First measure at 120 (2s), then 240 (1s per measure)
	if got := c.TimeAt(c.BT[0][1].Pos); math.Abs(got-2.5) > 1e-9 {
		t.Fatalf("chip at tick 1.5 should sit at 2.5s, got %v", got)
	}
}

func TestConvertMidTickTempoSnapsToCeiling(t *testing.T) {
	src := &ksh.Chart{Meta: header()}
	b0 := emptyTicks(4)
	b0[2].Settings = []ksh.Setting{{Key: "t", Value: "60"}}
	src.Blocks = []ksh.Block{{Ticks: b0}, {Ticks: emptyTicks(4)}}

	c, err := Convert(src)
	if nil != err {
		t.Fatalf("convert failed: %v", err)
	}
	if got := c.Control.MostRecentAtTick(0.9).BPM; got != 120 {
		t.Fatalf("tempo change leaked before its measure boundary: %v", got)
	}
	if got := c.Control.MostRecentAtTick(1).BPM; got != 60 {
		t.Fatalf("tempo change missing at the ceiling tick: %v", got)
	}
}

func TestConvertRejectsBadTempo(t *testing.T) {
	src := &ksh.Chart{Meta: header()}
	b0 := emptyTicks(1)
	b0[0].Settings = []ksh.Setting{{Key: "t", Value: "-10"}}
	src.Blocks = []ksh.Block{{Ticks: b0}}
	if _, err := Convert(src); nil == err {
		t.Fatal("negative tempo accepted")
	}

	src = &ksh.Chart{Meta: map[string]string{"t": "0"}}
	if _, err := Convert(src); nil == err {
		t.Fatal("zero header tempo accepted")
	}
}

func TestConvertLaserSegment(t *testing.T) {
	src := &ksh.Chart{Meta: header()}
	blocks := make([]ksh.Block, 5)
	for i := range blocks {
		blocks[i].Ticks = emptyTicks(4)
		for j := range blocks[i].Ticks {
			blocks[i].Ticks[j].Laser[0] = ksh.LaserState{Kind: ksh.LaserInterp}
		}
	}
	blocks[0].Ticks[0].Laser[0] = ksh.LaserState{Kind: ksh.LaserPosition, Value: 0}
	blocks[4].Ticks[0].Laser[0] = ksh.LaserState{Kind: ksh.LaserPosition, Value: 50}
	src.Blocks = blocks

	c, err := Convert(src)
	if nil != err {
		t.Fatalf("convert failed: %v", err)
	}
	if len(c.Lasers[0]) != 1 {
		t.Fatalf("expected 1 segment, got %v", len(c.Lasers[0]))
	}
	a := c.Lasers[0][0]
	if a.Pos != 0 || a.Dur != 4 || a.Start != 0 || a.End != 1 {
		t.Fatalf("bad segment %+v", a)
	}
	if a.RangeExtended {
		t.Fatal("segment should not be range extended")
	}
	v, ok := c.SampleValue(0, 2)
	if !ok || math.Abs(v-0.5) > 1e-9 {
		t.Fatalf("expected midpoint 0.5 at tick 2, got %v", v)
	}
}

func TestConvertSlam(t *testing.T) {
	src := &ksh.Chart{Meta: header()}
	ticks := emptyTicks(64)
	ticks[0].Laser[1] = ksh.LaserState{Kind: ksh.LaserPosition, Value: 0}
	ticks[1].Laser[1] = ksh.LaserState{Kind: ksh.LaserPosition, Value: 50}
	for i := 2; i < 8; i++ {
		ticks[i].Laser[1] = ksh.LaserState{Kind: ksh.LaserInterp}
	}
	ticks[8].Laser[1] = ksh.LaserState{Kind: ksh.LaserPosition, Value: 25}
	src.Blocks = []ksh.Block{{Ticks: ticks}}

	c, err := Convert(src)
	if nil != err {
		t.Fatalf("convert failed: %v", err)
	}
	if len(c.Lasers[1]) != 2 {
		t.Fatalf("expected 2 segments, got %v", len(c.Lasers[1]))
	}
	slam := c.Lasers[1][0]
	if !slam.Slam() || slam.Start != 0 || slam.End != 1 {
		t.Fatalf("expected slam 0→1, got %+v", slam)
	}
	// The follow-up segment starts at the slam's own tick
	next := c.Lasers[1][1]
	if next.Pos != 0 || math.Abs(next.Dur-0.125) > 1e-9 || next.Start != 1 || next.End != 0.5 {
		t.Fatalf("bad follow-up segment %+v", next)
	}
	if slam.Next != 1 || next.Prev != 0 {
		t.Fatal("segments not linked")
	}
}

func TestConvertLaserRange(t *testing.T) {
	src := &ksh.Chart{Meta: header()}
	ticks := emptyTicks(4)
	ticks[0].Settings = []ksh.Setting{{Key: "laserrange_l", Value: "2x"}}
	ticks[0].Laser[0] = ksh.LaserState{Kind: ksh.LaserPosition, Value: 0}
	ticks[1].Laser[0] = ksh.LaserState{Kind: ksh.LaserPosition, Value: 50}
	ticks[2].Laser[0] = ksh.LaserState{Kind: ksh.LaserInactive}
	ticks[3].Laser[0] = ksh.LaserState{Kind: ksh.LaserPosition, Value: 10}
	src.Blocks = []ksh.Block{{Ticks: ticks}, {Ticks: emptyTicks(1)}}

	c, err := Convert(src)
	if nil != err {
		t.Fatalf("convert failed: %v", err)
	}
	if !c.Lasers[0][0].RangeExtended {
		t.Fatal("first segment should carry the extended range flag")
	}
	// Inactive resets the sticky flag; a later gesture is back to normal
	if len(c.Lasers[0]) > 1 && c.Lasers[0][1].RangeExtended {
		t.Fatal("extended flag leaked past the gesture end")
	}
	found := false
	for _, ev := range c.Events {
		if ev.Kind == chart.EventLaserApplication {
			found = true
			if ev.Lane != 0 || ev.Value != 2 {
				t.Fatalf("bad laser application event %+v", ev)
			}
		}
	}
	if !found {
		t.Fatal("missing laser application event")
	}
}

func TestConvertEvents(t *testing.T) {
	src := &ksh.Chart{Meta: header()}
	ticks := emptyTicks(4)
	ticks[0].Settings = []ksh.Setting{
		{Key: "filtertype", Value: "hpf1"},
		{Key: "pfiltergain", Value: "50"},
		{Key: "chokkakuvol", Value: "40"},
		{Key: "zoom_top", Value: "300"},
	}
	ticks[2].Add = &ksh.Add{Kind: ksh.AddSpin, Direction: 1, Duration: 96, Amplitude: 100, Frequency: 2}
	src.Blocks = []ksh.Block{{Ticks: ticks}}

	c, err := Convert(src)
	if nil != err {
		t.Fatalf("convert failed: %v", err)
	}
	kinds := map[chart.EventKind]*chart.Event{}
	for _, ev := range c.Events {
		kinds[ev.Kind] = ev
	}
	if ev := kinds[chart.EventFilterKind]; ev == nil || ev.Filter != chart.FilterHighPass {
		t.Fatalf("bad filter event %+v", ev)
	}
	if ev := kinds[chart.EventFilterGain]; ev == nil || ev.Value != 0.5 {
		t.Fatalf("bad gain event %+v", ev)
	}
	if ev := kinds[chart.EventSlamVolume]; ev == nil || ev.Value != 0.4 {
		t.Fatalf("bad slam volume event %+v", ev)
	}
	if ev := kinds[chart.EventCameraPath]; ev == nil || ev.Camera != chart.CameraZoomTop || ev.Value != 300 {
		t.Fatalf("bad camera event %+v", ev)
	}
	imp := kinds[chart.EventImpulse]
	if imp == nil || imp.Impulse != chart.ImpulseSpin || imp.Direction != 1 {
		t.Fatalf("bad impulse event %+v", imp)
	}
	if imp.Pos != 0.5 || imp.Dur != 0.5 {
		t.Fatalf("impulse at tick %v with duration %v", imp.Pos, imp.Dur)
	}
}

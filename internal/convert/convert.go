package convert

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/zacharied/theori/internal/chart"
	"github.com/zacharied/theori/internal/ksh"
)

// Two Position ticks closer together than this are squashed into a slam.
const slamThreshold = 1.0 / 32.0

// Raw add-directive durations are counted at this many subdivisions per
// measure.
const addResolution = 192.0

type pendingHold struct {
	open   bool
	pos    float64
	effect *chart.EffectDef
}

type pendingLaser struct {
	open     bool
	pos      float64
	value    float64
	extended bool
}

type converter struct {
	src *ksh.Chart
	out *chart.Chart

	holds  [chart.BTLaneCount + chart.FXLaneCount]pendingHold
	lasers [chart.LaserLaneCount]pendingLaser

	// Currently selected effect per fx lane and pending chip sample
	effects [chart.FXLaneCount]*chart.EffectDef
	samples [chart.FXLaneCount]string

	unknownFX map[string]bool
}

// Convert walks the parsed tick stream once, in tick order, and builds
// the playable chart. The only hard failure is invalid tempo data.
func Convert(src *ksh.Chart) (*chart.Chart, error) {
	cv := &converter{src: src, out: chart.New(), unknownFX: map[string]bool{}}
	for k, v := range src.Meta {
		cv.out.Meta[k] = v
	}

	if err := cv.applyHeader(); nil != err {
		return nil, err
	}

	for bi := range src.Blocks {
		for ti := range src.Blocks[bi].Ticks {
			pos := src.Position(bi, ti)
			tick := &src.Blocks[bi].Ticks[ti]

			// Settings first, so tempo changes on this tick are
			// visible to every entity emitted at it
			for _, s := range tick.Settings {
				if err := cv.applySetting(pos, s); nil != err {
					return nil, err
				}
			}

			for lane := 0; lane < chart.BTLaneCount; lane++ {
				cv.applyButton(pos, lane, tick.BT[lane], chart.FXNone)
			}
			for lane := 0; lane < chart.FXLaneCount; lane++ {
				fx := tick.FX[lane]
				cv.applyButton(pos, chart.BTLaneCount+lane, fx.State, fx.Kind)
			}
			for lane := 0; lane < chart.LaserLaneCount; lane++ {
				cv.applyLaser(pos, lane, tick.Laser[lane])
			}
			if tick.Add != nil {
				cv.applyAdd(pos, tick.Add)
			}
		}
	}

	// Close anything left hanging at the end of the stream
	end := float64(len(src.Blocks))
	for lane := range cv.holds {
		cv.closeHold(end, lane)
	}

	if err := cv.out.Control.Validate(); nil != err {
		return nil, err
	}
	return cv.out, nil
}

func (cv *converter) applyHeader() error {
	if v, ok := cv.src.Meta["t"]; ok {
		// Ranged tempo headers ("90-180") defer to body t= settings
		if !strings.Contains(v, "-") {
			bpm, err := strconv.ParseFloat(v, 64)
			if nil != err || bpm <= 0 {
				return fmt.Errorf("invalid header tempo %q", v)
			}
			cv.out.Control.GetOrCreate(0, true).BPM = bpm
		}
	}
	if v, ok := cv.src.Meta["beat"]; ok {
		num, denom, err := parseBeat(v)
		if nil != err {
			return err
		}
		cp := cv.out.Control.GetOrCreate(0, true)
		cp.SigNum, cp.SigDenom = num, denom
	}
	if v, ok := cv.src.Meta["o"]; ok {
		if ms, err := strconv.ParseFloat(v, 64); nil == err {
			cv.out.Offset = ms / 1000.0
		}
	}
	return nil
}

func parseBeat(v string) (int, int, error) {
	parts := strings.SplitN(v, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid beat %q", v)
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	denom, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if nil != err1 || nil != err2 || num <= 0 || denom <= 0 {
		return 0, 0, fmt.Errorf("invalid beat %q", v)
	}
	return num, denom, nil
}

func (cv *converter) applySetting(pos float64, s ksh.Setting) error {
	switch s.Key {
	case "t":
		bpm, err := strconv.ParseFloat(s.Value, 64)
		if nil != err || bpm <= 0 {
			return fmt.Errorf("invalid tempo %q at tick %v", s.Value, pos)
		}
		// Tempo never changes mid-tick; snap to the next boundary
		cv.out.Control.GetOrCreate(math.Ceil(pos), true).BPM = bpm

	case "beat":
		num, denom, err := parseBeat(s.Value)
		if nil != err {
			return fmt.Errorf("%v at tick %v", err, pos)
		}
		cp := cv.out.Control.GetOrCreate(math.Ceil(pos), true)
		cp.SigNum, cp.SigDenom = num, denom

	case "fx-l", "fx-r":
		lane := 0
		if s.Key == "fx-r" {
			lane = 1
		}
		cv.effects[lane] = cv.lookupEffect(s.Value)

	case "fx-l_se", "fx-r_se":
		lane := 0
		if s.Key == "fx-r_se" {
			lane = 1
		}
		cv.samples[lane] = s.Value

	case "filtertype":
		cv.emitFilter(pos, s.Value)

	case "pfiltergain":
		if v, err := strconv.ParseFloat(s.Value, 64); nil == err {
			cv.emit(&chart.Event{Pos: pos, Kind: chart.EventFilterGain, Lane: -1, Value: v / 100.0})
		}

	case "chokkakuvol":
		if v, err := strconv.ParseFloat(s.Value, 64); nil == err {
			cv.emit(&chart.Event{Pos: pos, Kind: chart.EventSlamVolume, Lane: -1, Value: v / 100.0})
		}

	case "laserrange_l", "laserrange_r":
		lane := 0
		if s.Key == "laserrange_r" {
			lane = 1
		}
		scale := 1.0
		if s.Value == "2x" {
			scale = 2.0
		}
		cv.lasers[lane].extended = scale == 2.0
		cv.emit(&chart.Event{Pos: pos, Kind: chart.EventLaserApplication, Lane: lane, Value: scale})

	case "zoom_top", "zoom_bottom", "zoom_side", "tilt":
		cv.emitCamera(pos, s.Key, s.Value)
	}
	return nil
}

func (cv *converter) lookupEffect(name string) *chart.EffectDef {
	if def, ok := cv.src.FX[name]; ok {
		params := map[string]string{}
		for k, v := range def.Params {
			params[k] = v
		}
		return &chart.EffectDef{Name: def.Name, Params: params}
	}
	if kind, ok := builtinEffects[effectBase(name)]; ok {
		return &chart.EffectDef{Name: name, Kind: kind, Params: effectArgs(name)}
	}
	// Undefined references silently produce no effect, but chart
	// authors get one warning per name
	if !cv.unknownFX[name] {
		cv.unknownFX[name] = true
		log.Println("unknown effect definition", name)
	}
	return nil
}

func (cv *converter) emitFilter(pos float64, value string) {
	kind := chart.FilterNone
	switch effectBase(value) {
	case "peak":
		kind = chart.FilterPeak
	case "lpf1", "lpf":
		kind = chart.FilterLowPass
	case "hpf1", "hpf":
		kind = chart.FilterHighPass
	case "bitc", "bitcrush":
		kind = chart.FilterBitCrush
	case "fx":
		// fx;name routes a defined effect through the filter knob
		if def := cv.lookupEffect(strings.TrimPrefix(value, "fx;")); def != nil {
			cv.emit(&chart.Event{Pos: pos, Kind: chart.EventEffectKind, Lane: -1, Effect: def})
			return
		}
	default:
		if def, ok := cv.src.Filters[value]; ok {
			params := map[string]string{}
			for k, v := range def.Params {
				params[k] = v
			}
			cv.emit(&chart.Event{Pos: pos, Kind: chart.EventEffectKind, Lane: -1,
				Effect: &chart.EffectDef{Name: def.Name, Params: params}})
			return
		}
		log.Println("unknown filter type", value)
	}
	cv.emit(&chart.Event{Pos: pos, Kind: chart.EventFilterKind, Lane: -1, Filter: kind})
}

func (cv *converter) emitCamera(pos float64, key, value string) {
	v, err := strconv.ParseFloat(value, 64)
	if nil != err {
		return
	}
	var param chart.CameraParam
	switch key {
	case "zoom_top":
		param = chart.CameraZoomTop
	case "zoom_bottom":
		param = chart.CameraZoomBottom
	case "zoom_side":
		param = chart.CameraZoomSide
	case "tilt":
		param = chart.CameraTilt
	}
	cv.emit(&chart.Event{Pos: pos, Kind: chart.EventCameraPath, Lane: -1, Camera: param, Value: v})
}

func (cv *converter) emit(ev *chart.Event) {
	cv.out.Events = append(cv.out.Events, ev)
}

func (cv *converter) applyButton(pos float64, lane int, state ksh.ButtonState, kind chart.FXKind) {
	switch state {
	case ksh.ButtonOff:
		cv.closeHold(pos, lane)

	case ksh.ButtonChip:
		cv.closeHold(pos, lane)
		b := &chart.Button{Lane: lane, Pos: pos}
		if lane >= chart.BTLaneCount {
			fxLane := lane - chart.BTLaneCount
			b.Sample = cv.samples[fxLane]
			cv.samples[fxLane] = ""
		}
		cv.appendButton(b)

	case ksh.ButtonHold:
		if cv.holds[lane].open {
			return
		}
		h := pendingHold{open: true, pos: pos}
		if lane >= chart.BTLaneCount {
			fxLane := lane - chart.BTLaneCount
			if kind != chart.FXNone {
				h.effect = &chart.EffectDef{Name: kind.String(), Kind: kind, Params: map[string]string{}}
			} else {
				h.effect = cv.effects[fxLane]
			}
		}
		cv.holds[lane] = h
	}
}

func (cv *converter) closeHold(pos float64, lane int) {
	h := cv.holds[lane]
	if !h.open {
		return
	}
	cv.holds[lane] = pendingHold{}
	cv.appendButton(&chart.Button{Lane: lane, Pos: h.pos, Dur: pos - h.pos, Effect: h.effect})
}

func (cv *converter) appendButton(b *chart.Button) {
	if b.Lane < chart.BTLaneCount {
		cv.out.BT[b.Lane] = append(cv.out.BT[b.Lane], b)
	} else {
		cv.out.FX[b.Lane-chart.BTLaneCount] = append(cv.out.FX[b.Lane-chart.BTLaneCount], b)
	}
}

func (cv *converter) applyLaser(pos float64, lane int, state ksh.LaserState) {
	p := &cv.lasers[lane]
	switch state.Kind {
	case ksh.LaserInactive:
		p.open = false
		p.extended = false

	case ksh.LaserInterp:
		// Segment continues; nothing to do until the next absolute
		// position arrives

	case ksh.LaserPosition:
		value := float64(state.Value) / float64(ksh.LaserRange)
		if !p.open {
			p.open = true
			p.pos, p.value = pos, value
			return
		}
		dur := pos - p.pos
		if dur < slamThreshold {
			dur = 0
		}
		cv.appendLaser(lane, &chart.Analog{
			Lane:          lane,
			Pos:           p.pos,
			Dur:           dur,
			Start:         p.value,
			End:           value,
			RangeExtended: p.extended,
		})
		// The next segment starts where this one ended; a slam's
		// successor starts at the same tick
		p.pos, p.value = p.pos+dur, value
	}
}

func (cv *converter) appendLaser(lane int, a *chart.Analog) {
	seq := cv.out.Lasers[lane]
	a.Prev, a.Next = -1, -1
	if n := len(seq); n > 0 {
		prev := seq[n-1]
		// Only link segments forming one continuous gesture
		if prev.Pos+prev.Dur == a.Pos && prev.End == a.Start {
			prev.Next = n
			a.Prev = n - 1
		}
	}
	cv.out.Lasers[lane] = append(cv.out.Lasers[lane], a)
}

func (cv *converter) applyAdd(pos float64, add *ksh.Add) {
	var kind chart.ImpulseKind
	switch add.Kind {
	case ksh.AddSpin:
		kind = chart.ImpulseSpin
	case ksh.AddSwing:
		kind = chart.ImpulseSwing
	case ksh.AddWobble:
		kind = chart.ImpulseWobble
	}
	cv.emit(&chart.Event{
		Pos:       pos,
		Kind:      chart.EventImpulse,
		Lane:      -1,
		Impulse:   kind,
		Direction: add.Direction,
		Dur:       float64(add.Duration) / addResolution,
		Amplitude: add.Amplitude,
		Frequency: add.Frequency,
		Decay:     add.Decay,
	})
}

// Built-in effect names usable without a #define_fx, optionally with
// ;-separated arguments like "Retrigger;8".
var builtinEffects = map[string]chart.FXKind{
	"BitCrusher": chart.FXBitCrush,
	"Gate":       chart.FXGate8,
	"Retrigger":  chart.FXRetrigger8,
	"Phaser":     chart.FXPhaser,
	"Flanger":    chart.FXFlanger,
	"Wobble":     chart.FXWobble,
	"SideChain":  chart.FXSideChain,
	"TapeStop":   chart.FXTapeStop,
}

func effectBase(name string) string {
	if i := strings.IndexByte(name, ';'); i >= 0 {
		return name[:i]
	}
	return name
}

func effectArgs(name string) map[string]string {
	params := map[string]string{}
	parts := strings.Split(name, ";")
	for i, p := range parts[1:] {
		params["arg"+strconv.Itoa(i)] = p
	}
	return params
}

package ksh

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zacharied/theori/internal/chart"
)

// Legacy fx column characters. An unlisted character reads as off.
var fxChars = map[byte]chart.FXKind{
	'B': chart.FXBitCrush,
	'G': chart.FXGate4,
	'H': chart.FXGate8,
	'K': chart.FXGate12,
	'I': chart.FXGate16,
	'L': chart.FXGate24,
	'J': chart.FXGate32,
	'S': chart.FXRetrigger8,
	'V': chart.FXRetrigger12,
	'T': chart.FXRetrigger16,
	'W': chart.FXRetrigger24,
	'U': chart.FXRetrigger32,
	'Q': chart.FXPhaser,
	'F': chart.FXFlanger,
	'X': chart.FXWobble,
	'D': chart.FXSideChain,
	'A': chart.FXTapeStop,
}

func ParseFile(path string) (*Chart, error) {
	f, err := os.Open(path)
	if nil != err {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the whole line-oriented chart. Hand-authored charts
// commonly contain stray lines, so anything that does not match a known
// line shape is skipped, never a failure.
func Parse(r io.Reader) (*Chart, error) {
	c := &Chart{
		Meta:    map[string]string{},
		FX:      map[string]EffectDef{},
		Filters: map[string]EffectDef{},
	}

	inBody := false
	block := Block{}
	pending := []Setting{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		line = strings.TrimPrefix(line, "\ufeff")
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if line == "--" {
			if !inBody {
				// End of header, body starts
				inBody = true
				continue
			}
			c.Blocks = append(c.Blocks, block)
			block = Block{}
			continue
		}

		if strings.HasPrefix(line, "#") {
			parseDefine(c, line)
			continue
		}

		if i := strings.IndexByte(line, '|'); i >= 0 {
			tick, ok := parseBar(line)
			if !ok {
				continue
			}
			tick.Settings = pending
			pending = nil
			block.Ticks = append(block.Ticks, tick)
			continue
		}

		if i := strings.IndexByte(line, '='); i > 0 {
			key, value := line[:i], line[i+1:]
			if inBody {
				pending = append(pending, Setting{Key: key, Value: value})
			} else {
				c.Meta[key] = value
			}
			continue
		}
		// Anything else is a stray line; tolerated
	}
	if err := scanner.Err(); nil != err {
		return nil, err
	}
	if len(block.Ticks) > 0 {
		c.Blocks = append(c.Blocks, block)
	}
	return c, nil
}

func parseDefine(c *Chart, line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return
	}
	def := EffectDef{Name: fields[1], Params: map[string]string{}}
	if len(fields) > 2 {
		for _, kv := range strings.Split(strings.Join(fields[2:], " "), ";") {
			i := strings.IndexByte(kv, '=')
			if i <= 0 {
				continue
			}
			def.Params[strings.TrimSpace(kv[:i])] = strings.TrimSpace(kv[i+1:])
		}
	}
	switch fields[0] {
	case "#define_fx":
		c.FX[def.Name] = def
	case "#define_filter":
		c.Filters[def.Name] = def
	}
}

func parseBar(line string) (Tick, bool) {
	var t Tick
	parts := strings.SplitN(line, "|", 3)
	if len(parts) < 3 {
		// Missing columns default to off rather than failing
		parts = append(parts, make([]string, 3-len(parts))...)
	}

	bt := parts[0]
	for i := 0; i < 4 && i < len(bt); i++ {
		switch bt[i] {
		case '1':
			t.BT[i] = ButtonChip
		case '2':
			t.BT[i] = ButtonHold
		}
	}

	fx := parts[1]
	for i := 0; i < 2 && i < len(fx); i++ {
		switch {
		case fx[i] == '1':
			t.FX[i].State = ButtonHold
		case fx[i] == '2':
			t.FX[i].State = ButtonChip
		default:
			if kind, ok := fxChars[fx[i]]; ok {
				t.FX[i].State = ButtonHold
				t.FX[i].Kind = kind
			}
		}
	}

	laser := parts[2]
	for i := 0; i < 2 && i < len(laser); i++ {
		switch {
		case laser[i] == '-':
			t.Laser[i].Kind = LaserInactive
		case laser[i] == ':':
			t.Laser[i].Kind = LaserInterp
		default:
			if v, ok := LaserValue(laser[i]); ok {
				t.Laser[i].Kind = LaserPosition
				t.Laser[i].Value = v
			}
		}
	}
	if len(laser) > 2 {
		t.Add = parseAdd(laser[2:])
	}

	return t, true
}

// parseAdd decodes the "@(", "@)", "@<", "@>", "S<", "S>" motion suffix
// with its ;-separated duration/amplitude/frequency/decay arguments.
func parseAdd(s string) *Add {
	if len(s) < 2 {
		return nil
	}
	add := &Add{Duration: 192, Amplitude: 100, Frequency: 2}
	switch s[:2] {
	case "@(":
		add.Kind, add.Direction = AddSpin, -1
	case "@)":
		add.Kind, add.Direction = AddSpin, 1
	case "@<":
		add.Kind, add.Direction = AddSwing, -1
	case "@>":
		add.Kind, add.Direction = AddSwing, 1
	case "S<":
		add.Kind, add.Direction = AddWobble, -1
	case "S>":
		add.Kind, add.Direction = AddWobble, 1
	default:
		return nil
	}
	args := strings.Split(s[2:], ";")
	for i, arg := range args {
		v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if nil != err {
			continue
		}
		switch i {
		case 0:
			add.Duration = int(v)
		case 1:
			add.Amplitude = v
		case 2:
			add.Frequency = v
		case 3:
			add.Decay = v
		}
	}
	return add
}

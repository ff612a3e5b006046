package config

import (
	"time"

	"github.com/zacharied/theori/internal/judge"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	Directory   = kingpin.Arg("directory", "Song/chart directory").Required().ExistingDir()
	Rate        = kingpin.Flag("rate", "Playback speed").Default("1.0").Short('r').Float64()
	Offset      = kingpin.Flag("offset", "Global judgement offset").Default("0ms").Short('o').Duration()
	Delay       = kingpin.Flag("delay", "Start delay").Default("1.5s").Short('d').Duration()
	FramePeriod = kingpin.Flag("frame-period", "Render frame period").Default("1ms").Short('p').Duration()
	LaserStep   = kingpin.Flag("laser-step", "Cursor movement per laser key").Default("0.05").Float64()
	windowScale = kingpin.Flag("window-scale", "Judgement window scale").Default("1.0").Float64()
	keysBT      = kingpin.Flag("keys-bt", "Keys for the 4 bt lanes").Default("dfjk").String()
	keysFX      = kingpin.Flag("keys-fx", "Keys for the 2 fx lanes").Default("cm").String()
	keysLaser   = kingpin.Flag("keys-laser", "Keys for lasers, left pair then right pair").Default("wesl").String()

	Judgement judge.Config
)

// ButtonColumn maps a pressed key to a dispatcher lane, bt then fx.
// Returns -1 for keys that are not bound.
func ButtonColumn(r rune) int {
	for i, c := range *keysBT {
		if r == c {
			return i
		}
	}
	for i, c := range *keysFX {
		if r == c {
			return 4 + i
		}
	}
	return -1
}

// LaserInput maps a pressed key to a laser lane and nudge amount. Each
// side has a left key and a right key.
func LaserInput(r rune) (int, float64, bool) {
	for i, c := range *keysLaser {
		if r != c {
			continue
		}
		amount := *LaserStep
		if i%2 == 0 {
			amount = -amount
		}
		return i / 2, amount, true
	}
	return 0, 0, false
}

func init() {
	kingpin.Version("0.1.0")
	kingpin.Parse()

	Judgement = judge.DefaultConfig()
	Judgement.Offset = *Offset
	for i := range Judgement.Windows {
		w := float64(Judgement.Windows[i].Time) * *windowScale
		Judgement.Windows[i].Time = time.Duration(w)
	}
}

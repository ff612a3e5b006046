package main

import (
	"fmt"
	"os"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/zacharied/theori/internal/chart"
	"github.com/zacharied/theori/internal/config"
	"github.com/zacharied/theori/internal/judge"
	"github.com/zacharied/theori/internal/render"
	"github.com/zacharied/theori/internal/score"
	"github.com/zacharied/theori/internal/theme"
	"golang.org/x/term"
)

// Terminals deliver repeats, not release edges, so a pressed button is
// held until its repeat stream goes quiet for this long.
const keyHoldGrace = 0.2

type Program struct {
	Renderer render.Renderer
	Theme    theme.Theme
	Store    *score.Store
	Chart    *chart.Chart
	Sum      string

	dispatcher *judge.Dispatcher
	tally      *score.Tally

	pressed   [chart.BTLaneCount + chart.FXLaneCount]bool
	heldUntil [chart.BTLaneCount + chart.FXLaneCount]float64
	counts    map[judge.Kind]int64
	lastKind  judge.Kind
	haveLast  bool

	bestMean time.Duration
	haveBest bool
}

func (p *Program) Run(keyChannel <-chan keyboard.KeyEvent) error {
	columns, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if nil != err {
		return fmt.Errorf("unable to get terminal size: %w", err)
	}

	p.dispatcher = judge.NewDispatcher(p.Chart, config.Judgement)
	p.tally = score.NewTally()
	p.counts = map[judge.Kind]int64{}

	// Best mean error of earlier plays of this chart, if any
	for _, rec := range p.Store.Load(p.Sum) {
		hits := int64(0)
		for kind, n := range rec.Counts {
			if kind != "miss" {
				hits += n
			}
		}
		if hits == 0 {
			continue
		}
		mean := time.Duration(rec.TotalError / hits)
		if !p.haveBest || mean < p.bestMean {
			p.haveBest = true
			p.bestMean = mean
		}
	}

	if err := p.Renderer.Init(); nil != err {
		return err
	}
	defer func() {
		p.Renderer.Deinit()
	}()

	end := p.Chart.Duration() + 3
	sideCol := columns - 30
	if sideCol < 2 {
		sideCol = 2
	}
	barRow := rows - 4

	p.Renderer.RenderLoop(*config.Delay, func(start time.Time, duration time.Duration) bool {
		pos := duration.Seconds() * *config.Rate
		if pos > end {
			return false
		}

		// Drain the key events that occurred so far
		for i := 0; i < len(keyChannel); i++ {
			key := <-keyChannel
			if key.Key == keyboard.KeyEsc {
				return false
			}
			if lane := config.ButtonColumn(key.Rune); lane >= 0 {
				if !p.pressed[lane] {
					p.pressed[lane] = true
					p.dispatcher.Press(lane, pos)
				}
				p.heldUntil[lane] = pos + keyHoldGrace
				continue
			}
			if lane, amount, ok := config.LaserInput(key.Rune); ok {
				p.dispatcher.UserInput(lane, amount, pos)
			}
		}
		for lane := range p.pressed {
			if p.pressed[lane] && pos > p.heldUntil[lane] {
				p.pressed[lane] = false
				p.dispatcher.Release(lane, pos)
			}
		}

		p.dispatcher.AdvancePosition(pos)
		for _, ev := range p.dispatcher.Events() {
			p.tally.Add(ev)
			switch ev.Kind {
			case judge.EventResult:
				p.counts[ev.Result.Kind]++
				p.lastKind = ev.Result.Kind
				p.haveLast = true
			case judge.EventSlamHit:
				p.Renderer.AddDecoration(barRow-1, 2+ev.Lane*4, "\033[1;33m◆\033[0m", 120)
			}
		}

		p.renderFrame(pos, barRow, sideCol, columns)
		return true
	})

	p.Store.Save(p.Sum, *config.Rate, p.tally)
	return nil
}

func (p *Program) renderFrame(pos float64, barRow, sideCol, columns int) {
	r := p.Renderer

	// Hit bar with pressed lanes highlighted
	for lane := range p.pressed {
		glyph := p.Theme.LaneGlyph(lane)
		if !p.pressed[lane] {
			glyph = "\033[2m" + glyph + "\033[0m"
		}
		r.Fill(barRow, 4+lane*4, glyph)
	}

	// Laser cursors
	width := columns - 8
	for lane := 0; lane < chart.LaserLaneCount; lane++ {
		row := barRow + 1 + lane
		if value, shown := p.dispatcher.Cursor(lane); shown {
			r.Fill(row, 4, p.Theme.CursorBar(lane, value, width))
		} else {
			r.Fill(row, 4, fmt.Sprintf("%*s", width, ""))
		}
	}

	r.Fill(2, sideCol, fmt.Sprintf("   Time: %7.2fs", pos))
	r.Fill(3, sideCol, fmt.Sprintf("   Mean: %6.2f ms", float64(p.tally.MeanError())/float64(time.Millisecond)))
	if p.haveBest {
		r.Fill(4, sideCol, fmt.Sprintf("   Best: %6.2f ms", float64(p.bestMean)/float64(time.Millisecond)))
	}
	for i, kind := range []judge.Kind{judge.Perfect, judge.Critical, judge.Near, judge.Passive, judge.Miss} {
		r.Fill(5+i, sideCol, fmt.Sprintf("%v: %6v", p.Theme.Judgement(kind), p.counts[kind]))
	}
	if p.haveLast {
		r.Fill(barRow-3, 4, p.Theme.Judgement(p.lastKind))
	}
}

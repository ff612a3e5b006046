package theme

import "github.com/zacharied/theori/internal/judge"

type Theme interface {
	Judgement(kind judge.Kind) string
	LaneGlyph(lane int) string
	CursorBar(lane int, value float64, width int) string
}

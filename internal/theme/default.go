package theme

import (
	"strings"

	"github.com/zacharied/theori/internal/judge"
)

type DefaultTheme struct{}

const cursorSym = "◆"

var (
	laneSyms   = [...]string{"⬤", "⬤", "⬤", "⬤", "▬", "▬"}
	laserTints = [...]string{"\033[1;36m", "\033[1;35m"} // left cyan, right magenta
	judgements = map[judge.Kind]string{
		judge.Perfect:  "  \033[38;5;153mPerfect\033[0m",
		judge.Critical: " \033[1;33mCritical\033[0m",
		judge.Near:     "     \033[1;35mNear\033[0m",
		judge.Passive:  "  \033[1;32mPassive\033[0m",
		judge.Miss:     "     \033[1;31mMiss\033[0m",
	}
)

func (t *DefaultTheme) Judgement(kind judge.Kind) string {
	return judgements[kind]
}

func (t *DefaultTheme) LaneGlyph(lane int) string {
	if lane < len(laneSyms) {
		return laneSyms[lane]
	}
	return "?"
}

// CursorBar renders a laser lane's cursor as a one-line track.
func (t *DefaultTheme) CursorBar(lane int, value float64, width int) string {
	if width < 3 {
		width = 3
	}
	pos := int(value * float64(width-1))
	var b strings.Builder
	b.WriteString(laserTints[lane%2])
	for i := 0; i < width; i++ {
		if i == pos {
			b.WriteString(cursorSym)
		} else {
			b.WriteString("─")
		}
	}
	b.WriteString("\033[0m")
	return b.String()
}

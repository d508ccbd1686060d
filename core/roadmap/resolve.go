package roadmap

import (
	"fmt"
	"strings"
)

const flatTrackSeparator = " / "

// EffectiveValue resolves the display value of a track for a quarter-group:
// an override wins over the base calendar default. It never mutates its inputs.
// Unknown tracks and groups outside the calendar resolve to "".
func EffectiveValue(cal Calendar, snap Snapshot, tr Track, key GroupKey) string {
	cells, ok := cal.Group(key)
	if !ok {
		return ""
	}

	switch tr {
	case TrackThinking:
		return effectiveThinking(cells, snap, key)
	case TrackSubject:
		if v, ok := snap.Subject(key); ok {
			return v
		}
		return cells[0].Labels.Subject
	case TrackGifted, TrackContest, TrackArithmetic:
		return joinLabels(cells, tr)
	}
	return ""
}

func effectiveThinking(cells []MonthCell, snap Snapshot, key GroupKey) string {
	base := cells[0].Labels.Thinking

	if lvl, ok := snap.ThinkingLevel(key); ok {
		typ, ok := snap.ThinkingType(key)
		if !ok {
			if typ, ok = parseThinkingType(base); !ok {
				typ = ThinkingWMO
			}
		}
		return formatThinking(typ, lvl)
	}

	uniform := true
	for _, c := range cells[1:] {
		if c.Labels.Thinking != base {
			uniform = false
			break
		}
	}
	if uniform {
		return base
	}

	// months disagree: report the level range
	lo, hi, found := 0, 0, false
	for _, c := range cells {
		lvl, ok := parseThinkingLevel(c.Labels.Thinking)
		if !ok {
			continue
		}
		if !found || lvl < lo {
			lo = lvl
		}
		if !found || lvl > hi {
			hi = lvl
		}
		found = true
	}
	if !found {
		return base
	}
	return fmt.Sprintf("%s LV. %d~%d", ThinkingWMO, lo, hi)
}

func joinLabels(cells []MonthCell, tr Track) string {
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		if l := c.Labels.Get(tr); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, flatTrackSeparator)
}

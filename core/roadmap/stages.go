package roadmap

import (
	"regexp"
	"strconv"
)

// Thinking types, in rotation order.
const (
	ThinkingWMO = "WMO"
	ThinkingGT  = "GT"
	ThinkingGTA = "GTA"

	MinThinkingLevel = 1
	MaxThinkingLevel = 20

	FinalStage = "고등"
)

var (
	ThinkingTypes = []string{ThinkingWMO, ThinkingGT, ThinkingGTA}

	// SubjectStages is the ordered curriculum used by the subject track.
	SubjectStages = []string{
		"초3-1", "초3-2",
		"초4-1", "초4-2",
		"초5-1", "초5-2",
		"초6-1", "초6-2",
		"중1-1", "중1-2",
		"중2-1", "중2-2",
		"중3-1", "중3-2",
		FinalStage,
	}

	thinkingTypeRegex  = regexp.MustCompile(`^\s*(GTA|GT|WMO)\b`)
	thinkingLevelRegex = regexp.MustCompile(`LV\.\s*(\d+)`)
)

func IsThinkingType(s string) bool {
	for _, t := range ThinkingTypes {
		if s == t {
			return true
		}
	}
	return false
}

func IsThinkingLevel(lvl int) bool {
	return lvl >= MinThinkingLevel && lvl <= MaxThinkingLevel
}

// StageIndex returns the position of s in SubjectStages, or -1.
func StageIndex(s string) int {
	for i, st := range SubjectStages {
		if st == s {
			return i
		}
	}
	return -1
}

func IsSubjectStage(s string) bool {
	return StageIndex(s) >= 0
}

// nextThinkingType rotates WMO -> GT -> GTA -> WMO. Unknown values restart the cycle.
func nextThinkingType(cur string) string {
	for i, t := range ThinkingTypes {
		if t == cur {
			return ThinkingTypes[(i+1)%len(ThinkingTypes)]
		}
	}
	return ThinkingTypes[0]
}

// parseThinkingType extracts the type prefix of a label like "GT LV. 7".
func parseThinkingType(label string) (string, bool) {
	m := thinkingTypeRegex.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// parseThinkingLevel extracts the level of a label like "WMO LV. 7".
func parseThinkingLevel(label string) (int, bool) {
	m := thinkingLevelRegex.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	lvl, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return lvl, true
}

func formatThinking(typ string, lvl int) string {
	return typ + " LV. " + strconv.Itoa(lvl)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

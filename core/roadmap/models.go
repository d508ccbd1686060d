package roadmap

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Tracks
const (
	TrackSubject    Track = "subject"
	TrackThinking   Track = "thinking"
	TrackGifted     Track = "gifted"
	TrackContest    Track = "contest"
	TrackArithmetic Track = "arithmetic"
)

const (
	MonthsPerYear  = 12
	MonthsPerGroup = 3
	GroupsPerYear  = MonthsPerYear / MonthsPerGroup
)

// Editable overrides
const (
	EditThinkingType  Edit = "thinkingType"
	EditThinkingLevel Edit = "thinkingLevel"
	EditSubject       Edit = "subject"
)

var (
	AllTracks = []Track{TrackSubject, TrackThinking, TrackGifted, TrackContest, TrackArithmetic}
	AllEdits  = []Edit{EditThinkingType, EditThinkingLevel, EditSubject}
)

// Track is one of the independent label rows of the calendar.
type Track string

func (tr Track) IsValid() bool {
	for _, t := range AllTracks {
		if t == tr {
			return true
		}
	}
	return false
}

// Edit names an override map that a click can cascade through.
type Edit string

func (e Edit) IsValid() bool {
	for _, ed := range AllEdits {
		if ed == e {
			return true
		}
	}
	return false
}

// Labels holds the default label of every track for one month.
type Labels struct {
	Subject    string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Thinking   string `json:"thinking,omitempty" yaml:"thinking,omitempty"`
	Gifted     string `json:"gifted,omitempty" yaml:"gifted,omitempty"`
	Contest    string `json:"contest,omitempty" yaml:"contest,omitempty"`
	Arithmetic string `json:"arithmetic,omitempty" yaml:"arithmetic,omitempty"`
}

func (l Labels) Get(tr Track) string {
	switch tr {
	case TrackSubject:
		return l.Subject
	case TrackThinking:
		return l.Thinking
	case TrackGifted:
		return l.Gifted
	case TrackContest:
		return l.Contest
	case TrackArithmetic:
		return l.Arithmetic
	}
	return ""
}

type MonthCell struct {
	Month       int    `json:"month" yaml:"month"`
	GlobalIndex int    `json:"globalIndex" yaml:"globalIndex"`
	YearOffset  int    `json:"yearOffset" yaml:"yearOffset"`
	Labels      Labels `json:"labels" yaml:"labels"`
}

type RoadmapBlock struct {
	AcademicYear int                      `json:"academicYear" yaml:"academicYear"`
	GradeLabel   string                   `json:"gradeLabel" yaml:"gradeLabel"`
	Months       [MonthsPerYear]MonthCell `json:"months" yaml:"months"`
}

// Calendar is the base calendar of a student: blocks ordered by ascending academic year.
// It is never mutated once loaded.
type Calendar []RoadmapBlock

// Group returns the three month cells of the quarter-group.
func (cal Calendar) Group(key GroupKey) ([]MonthCell, bool) {
	if key.YearOffset < 0 || key.YearOffset >= len(cal) || key.GroupIndex < 0 || key.GroupIndex >= GroupsPerYear {
		return nil, false
	}
	start := key.GroupIndex * MonthsPerGroup
	return cal[key.YearOffset].Months[start : start+MonthsPerGroup], true
}

// GroupDefault is the label of the first month of the group.
// All three months are assumed to share one default per track.
func (cal Calendar) GroupDefault(tr Track, key GroupKey) string {
	cells, ok := cal.Group(key)
	if !ok {
		return ""
	}
	return cells[0].Labels.Get(tr)
}

// GroupKey identifies a quarter-group. Keys are ordered by (YearOffset, GroupIndex).
type GroupKey struct {
	YearOffset int `json:"yearOffset" validate:"min=0"`
	GroupIndex int `json:"groupIndex" validate:"min=0,max=3"`
}

func (k GroupKey) String() string {
	return strconv.Itoa(k.YearOffset) + "-" + strconv.Itoa(k.GroupIndex)
}

// Less reports whether k comes before other in global group order.
func (k GroupKey) Less(other GroupKey) bool {
	if k.YearOffset != other.YearOffset {
		return k.YearOffset < other.YearOffset
	}
	return k.GroupIndex < other.GroupIndex
}

// InWindow reports whether the key addresses a group of a `years` long window.
func (k GroupKey) InWindow(years int) bool {
	return k.YearOffset >= 0 && k.YearOffset < years && k.GroupIndex >= 0 && k.GroupIndex < GroupsPerYear
}

// ParseGroupKey parses the "yearOffset-groupIndex" form.
func ParseGroupKey(s string) (GroupKey, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return GroupKey{}, errors.Errorf("invalid group key %q", s)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return GroupKey{}, errors.Wrapf(err, "invalid group key %q", s)
	}
	g, err := strconv.Atoi(parts[1])
	if err != nil {
		return GroupKey{}, errors.Wrapf(err, "invalid group key %q", s)
	}
	return GroupKey{YearOffset: y, GroupIndex: g}, nil
}

// forward returns the keys from `from` (included) to the end of a `years` long window, in global order.
func forward(from GroupKey, years int) []GroupKey {
	if !from.InWindow(years) {
		return nil
	}
	keys := make([]GroupKey, 0, (years-from.YearOffset)*GroupsPerYear)
	for y := from.YearOffset; y < years; y++ {
		g := 0
		if y == from.YearOffset {
			g = from.GroupIndex
		}
		for ; g < GroupsPerYear; g++ {
			keys = append(keys, GroupKey{YearOffset: y, GroupIndex: g})
		}
	}
	return keys
}

// BaseSettings are the student's calendar inputs, carried through saves verbatim.
type BaseSettings struct {
	StartAcademicYear   int    `json:"startAcademicYear" validate:"required,min=2000,max=2100"`
	StartGrade          string `json:"startGrade" validate:"required"`
	GradePromotionMonth int    `json:"gradePromotionMonth" validate:"omitempty,min=1,max=12"`
}

type ThinkingTypeEntry struct {
	YearOffset int    `json:"yearOffset" validate:"min=0"`
	GroupIndex int    `json:"groupIndex" validate:"min=0,max=3"`
	Type       string `json:"type" validate:"thinkingtype"`
}

type ThinkingLevelEntry struct {
	YearOffset int `json:"yearOffset" validate:"min=0"`
	GroupIndex int `json:"groupIndex" validate:"min=0,max=3"`
	Level      int `json:"level" validate:"min=1,max=20"`
}

type SubjectEntry struct {
	YearOffset int    `json:"yearOffset" validate:"min=0"`
	GroupIndex int    `json:"groupIndex" validate:"min=0,max=3"`
	Value      string `json:"value" validate:"subjectstage"`
}

// Extras is the persisted override payload. Gifted and Contests are not managed
// here and travel through load/save untouched.
type Extras struct {
	ThinkingTypes  []ThinkingTypeEntry  `json:"thinkingTypes" validate:"dive"`
	ThinkingLevels []ThinkingLevelEntry `json:"thinkingLevels" validate:"dive"`
	SubjectGroups  []SubjectEntry       `json:"subjectGroups" validate:"dive"`
	Gifted         json.RawMessage      `json:"gifted,omitempty"`
	Contests       json.RawMessage      `json:"contests,omitempty"`
}

// Document is what the persistence adapter stores for a student.
type Document struct {
	Base   BaseSettings `json:"base"`
	Extras Extras       `json:"extras"`
}

// Roadmap is the full read payload: persisted document plus the base calendar.
type Roadmap struct {
	Base   BaseSettings `json:"base"`
	Blocks Calendar     `json:"blocks"`
	Extras Extras       `json:"extras"`
}

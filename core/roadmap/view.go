package roadmap

// GroupView is the resolved content of one quarter-group.
type GroupView struct {
	Key          string     `json:"key"`
	YearOffset   int        `json:"yearOffset"`
	GroupIndex   int        `json:"groupIndex"`
	AcademicYear int        `json:"academicYear"`
	GradeLabel   string     `json:"gradeLabel"`
	Months       [3]int     `json:"months"`
	Subject      string     `json:"subject"`
	Thinking     string     `json:"thinking"`
	Gifted       string     `json:"gifted"`
	Contest      string     `json:"contest"`
	Arithmetic   string     `json:"arithmetic"`
	Overridden   Overridden `json:"overridden"`
}

type Overridden struct {
	ThinkingType  bool `json:"thinkingType"`
	ThinkingLevel bool `json:"thinkingLevel"`
	Subject       bool `json:"subject"`
}

// View is the rendered grid of a session.
type View struct {
	StudentID string       `json:"studentId"`
	Years     int          `json:"years"`
	Base      BaseSettings `json:"base"`
	Dirty     bool         `json:"dirty"`
	Groups    []GroupView  `json:"groups"`
}

// Value returns the group's effective value for the track.
func (gv GroupView) Value(tr Track) string {
	switch tr {
	case TrackSubject:
		return gv.Subject
	case TrackThinking:
		return gv.Thinking
	case TrackGifted:
		return gv.Gifted
	case TrackContest:
		return gv.Contest
	case TrackArithmetic:
		return gv.Arithmetic
	}
	return ""
}

// BuildView resolves every group of the calendar in global order.
func BuildView(cal Calendar, snap Snapshot) []GroupView {
	groups := make([]GroupView, 0, len(cal)*GroupsPerYear)
	for y, block := range cal {
		for g := 0; g < GroupsPerYear; g++ {
			key := GroupKey{YearOffset: y, GroupIndex: g}
			cells, _ := cal.Group(key)
			_, typOk := snap.ThinkingType(key)
			_, lvlOk := snap.ThinkingLevel(key)
			_, subjOk := snap.Subject(key)
			groups = append(groups, GroupView{
				Key:          key.String(),
				YearOffset:   y,
				GroupIndex:   g,
				AcademicYear: block.AcademicYear,
				GradeLabel:   block.GradeLabel,
				Months:       [3]int{cells[0].Month, cells[1].Month, cells[2].Month},
				Subject:      EffectiveValue(cal, snap, TrackSubject, key),
				Thinking:     EffectiveValue(cal, snap, TrackThinking, key),
				Gifted:       EffectiveValue(cal, snap, TrackGifted, key),
				Contest:      EffectiveValue(cal, snap, TrackContest, key),
				Arithmetic:   EffectiveValue(cal, snap, TrackArithmetic, key),
				Overridden:   Overridden{ThinkingType: typOk, ThinkingLevel: lvlOk, Subject: subjOk},
			})
		}
	}
	return groups
}

func (s *Session) View() View {
	return View{
		StudentID: s.studentID,
		Years:     s.years,
		Base:      s.Base(),
		Dirty:     s.Dirty(),
		Groups:    BuildView(s.calendar, s.Snapshot()),
	}
}

// BaseView resolves the calendar with no overrides at all.
func (s *Session) BaseView() []GroupView {
	return BuildView(s.calendar, Snapshot{})
}

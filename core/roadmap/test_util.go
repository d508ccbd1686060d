package roadmap

import (
	"context"
	"fmt"
	"sync"
)

// NewTestCalendar builds a `years` long calendar starting at startYear.
// Every quarter-group gets uniform labels: subject stages advance one per group
// from "초3-1", thinking levels advance one per group from "WMO LV. 1".
func NewTestCalendar(startYear, years int) Calendar {
	cal := make(Calendar, years)
	for y := 0; y < years; y++ {
		block := RoadmapBlock{
			AcademicYear: startYear + y,
			GradeLabel:   fmt.Sprintf("G%d", y+1),
		}
		for i := 0; i < MonthsPerYear; i++ {
			grp := y*GroupsPerYear + i/MonthsPerGroup
			block.Months[i] = MonthCell{
				Month:       (i+2)%MonthsPerYear + 1, // academic year starts in March
				GlobalIndex: y*MonthsPerYear + i,
				YearOffset:  y,
				Labels: Labels{
					Subject:  SubjectStages[minInt(grp, len(SubjectStages)-1)],
					Thinking: formatThinking(ThinkingWMO, minInt(grp+1, MaxThinkingLevel)),
				},
			}
		}
		cal[y] = block
	}
	return cal
}

// StaticCalendars is a CalendarSource serving fixed calendars, for tests.
type StaticCalendars struct {
	mu        sync.Mutex
	calendars map[string]Calendar
	err       error
}

var _ CalendarSource = (*StaticCalendars)(nil) // interface compliance check

func NewStaticCalendars() *StaticCalendars {
	return &StaticCalendars{calendars: make(map[string]Calendar)}
}

func (sc *StaticCalendars) Set(studentID string, cal Calendar) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendars[studentID] = cal
}

// Fail makes every following call return err (nil restores normal behaviour).
func (sc *StaticCalendars) Fail(err error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.err = err
}

func (sc *StaticCalendars) BaseCalendar(_ context.Context, studentID string, _ BaseSettings, years int) (Calendar, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.err != nil {
		return nil, sc.err
	}
	cal, ok := sc.calendars[studentID]
	if !ok {
		return nil, ErrNotFound
	}
	if len(cal) > years {
		cal = cal[:years]
	}
	return cal, nil
}

package calendarsvc

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
)

type (
	calendarFile struct {
		Students map[string][]fileBlock `yaml:"students"`
	}

	fileBlock struct {
		AcademicYear int         `yaml:"academicYear"`
		GradeLabel   string      `yaml:"gradeLabel"`
		Months       []fileMonth `yaml:"months"`
	}

	fileMonth struct {
		Month  int            `yaml:"month"`
		Labels roadmap.Labels `yaml:"labels"`
	}
)

// FileSource serves base calendars precomputed in a YAML file:
//
//	students:
//	  <student id>:
//	    - academicYear: 2024
//	      gradeLabel: 초3
//	      months:
//	        - {month: 3, labels: {subject: 초3-1, thinking: WMO LV. 1}}
//	        ...
type FileSource struct {
	path string

	mu       sync.RWMutex
	students map[string][]roadmap.RoadmapBlock
}

var _ roadmap.CalendarSource = (*FileSource)(nil) // interface compliance check

// NewFileSource reads the calendar file at path.
func NewFileSource(path string) (*FileSource, error) {
	src := &FileSource{path: path}
	if err := src.Reload(); err != nil {
		return nil, err
	}
	return src, nil
}

// Reload reads the file again. On failure the calendars already loaded are kept.
func (src *FileSource) Reload() error {
	data, err := os.ReadFile(src.path)
	if err != nil {
		return errors.Wrap(err, "reading calendar file")
	}
	students, err := parse(data)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", src.path)
	}

	src.mu.Lock()
	src.students = students
	src.mu.Unlock()
	return nil
}

func parse(data []byte) (map[string][]roadmap.RoadmapBlock, error) {
	var file calendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	students := make(map[string][]roadmap.RoadmapBlock, len(file.Students))
	for id, fblocks := range file.Students {
		blocks := make([]roadmap.RoadmapBlock, 0, len(fblocks))
		for _, fb := range fblocks {
			if len(fb.Months) != roadmap.MonthsPerYear {
				return nil, errors.Errorf("student %s, year %d: want %d months, got %d",
					id, fb.AcademicYear, roadmap.MonthsPerYear, len(fb.Months))
			}
			block := roadmap.RoadmapBlock{AcademicYear: fb.AcademicYear, GradeLabel: fb.GradeLabel}
			for i, m := range fb.Months {
				block.Months[i] = roadmap.MonthCell{Month: m.Month, Labels: m.Labels}
			}
			blocks = append(blocks, block)
		}
		sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].AcademicYear < blocks[j].AcademicYear })
		students[id] = blocks
	}
	return students, nil
}

// BaseCalendar returns the first `years` blocks starting at base.StartAcademicYear.
func (src *FileSource) BaseCalendar(_ context.Context, studentID string, base roadmap.BaseSettings, years int) (roadmap.Calendar, error) {
	src.mu.RLock()
	blocks, ok := src.students[studentID]
	src.mu.RUnlock()
	if !ok {
		return nil, roadmap.ErrNotFound
	}

	cal := make(roadmap.Calendar, 0, years)
	for _, block := range blocks {
		if len(cal) == years {
			break
		}
		if block.AcademicYear < base.StartAcademicYear {
			continue
		}
		y := len(cal)
		for i := range block.Months {
			block.Months[i].YearOffset = y
			block.Months[i].GlobalIndex = y*roadmap.MonthsPerYear + i
		}
		cal = append(cal, block)
	}
	if len(cal) < years {
		return nil, errors.Wrapf(roadmap.ErrIncompleteCalendar, "student %s has %d of %d years", studentID, len(cal), years)
	}
	return cal, nil
}

// Students lists the student ids of the file, sorted.
func (src *FileSource) Students() []string {
	src.mu.RLock()
	defer src.mu.RUnlock()
	ids := make([]string, 0, len(src.students))
	for id := range src.students {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

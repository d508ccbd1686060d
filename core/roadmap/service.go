package roadmap

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/rwonjong94/anchormoms-web-sub002/core"
)

var (
	// errors
	ErrNotFound           = errors.New("roadmap not found")
	ErrRoadmapExists      = errors.New("a roadmap already exists for this student")
	ErrNoSession          = errors.New("no roadmap loaded for this student")
	ErrGroupOutOfWindow   = errors.New("group is outside the loaded years")
	ErrNotEditable        = errors.New("not an editable override")
	ErrInvalidYears       = errors.New("invalid number of years")
	ErrIncompleteCalendar = errors.New("base calendar does not cover the requested years")
	ErrInvalidOverride    = errors.New("invalid override value")
)

type (
	// Repository is the persistence adapter. SaveRoadmap replaces the three
	// override arrays of the student wholesale; the last write wins.
	Repository interface {
		CreateRoadmap(ctx context.Context, studentID string, base BaseSettings) error
		GetRoadmap(ctx context.Context, studentID string) (Document, error)
		SaveRoadmap(ctx context.Context, studentID string, doc Document) error
		DeleteRoadmap(ctx context.Context, studentID string) error
	}

	// CalendarSource produces the base calendar of a student: exactly `years`
	// blocks starting at base.StartAcademicYear.
	CalendarSource interface {
		BaseCalendar(ctx context.Context, studentID string, base BaseSettings, years int) (Calendar, error)
	}

	Service struct {
		repo      Repository
		calendars CalendarSource
		logger    core.Logger
		maxYears  int

		mu       sync.Mutex
		sessions map[string]*Session
	}
)

func NewService(repo Repository, calendars CalendarSource, logger core.Logger, maxYears int) *Service {
	return &Service{
		repo:      repo,
		calendars: calendars,
		logger:    logger,
		maxYears:  maxYears,
		sessions:  make(map[string]*Session),
	}
}

func (svc *Service) checkYears(years int) error {
	if years < 1 || years > svc.maxYears {
		return core.NewValidationError(ErrInvalidYears, core.FieldError{
			Field: "years",
			Error: "years must be between 1 and " + strconv.Itoa(svc.maxYears),
		})
	}
	return nil
}

// build loads everything a session needs without touching the installed sessions.
func (svc *Service) build(ctx context.Context, studentID string, years int) (*Session, error) {
	if err := svc.checkYears(years); err != nil {
		return nil, err
	}

	doc, err := svc.repo.GetRoadmap(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching roadmap")
	}
	cal, err := svc.calendars.BaseCalendar(ctx, studentID, doc.Base, years)
	if err != nil {
		return nil, errors.Wrap(err, "fetching base calendar")
	}
	if len(cal) != years {
		return nil, errors.Wrapf(ErrIncompleteCalendar, "got %d of %d years", len(cal), years)
	}

	sess, dropped := newSession(studentID, years, doc, cal)
	if dropped > 0 {
		svc.logger.Debug("dropped override entries on load", map[string]interface{}{
			"student": studentID,
			"years":   years,
			"dropped": dropped,
		})
	}
	return sess, nil
}

// Load starts a fresh editing session, replacing any previous one of the student.
// On failure the previous session is kept as is.
func (svc *Service) Load(ctx context.Context, studentID string, years int) (*Session, error) {
	sess, err := svc.build(ctx, studentID, years)
	if err != nil {
		return nil, err
	}

	svc.mu.Lock()
	svc.sessions[studentID] = sess
	svc.mu.Unlock()
	return sess, nil
}

// Preview builds a session without installing it.
func (svc *Service) Preview(ctx context.Context, studentID string, years int) (*Session, error) {
	return svc.build(ctx, studentID, years)
}

func (svc *Service) Session(studentID string) (*Session, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	sess, ok := svc.sessions[studentID]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// ChangeYearWindow reloads the student's roadmap with another window; unsaved edits are discarded.
func (svc *Service) ChangeYearWindow(ctx context.Context, studentID string, years int) (*Session, error) {
	if _, err := svc.Session(studentID); err != nil {
		return nil, err
	}
	return svc.Load(ctx, studentID, years)
}

// Save submits the session and reloads it to confirm what was stored.
// When the submission fails the session is left untouched.
func (svc *Service) Save(ctx context.Context, studentID string) (*Session, error) {
	sess, err := svc.Session(studentID)
	if err != nil {
		return nil, err
	}

	doc, rev := sess.submission()
	if err := svc.repo.SaveRoadmap(ctx, studentID, doc); err != nil {
		return nil, errors.Wrap(err, "saving roadmap")
	}
	sess.markSaved(rev)
	svc.logger.Info("roadmap saved", map[string]interface{}{
		"student":        studentID,
		"thinkingTypes":  len(doc.Extras.ThinkingTypes),
		"thinkingLevels": len(doc.Extras.ThinkingLevels),
		"subjectGroups":  len(doc.Extras.SubjectGroups),
	})

	reloaded, err := svc.Load(ctx, studentID, sess.Years())
	if err != nil {
		return nil, errors.Wrap(err, "reloading saved roadmap")
	}
	return reloaded, nil
}

// Discard drops the student's session, reporting whether there was one.
func (svc *Service) Discard(studentID string) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	_, ok := svc.sessions[studentID]
	delete(svc.sessions, studentID)
	if ok {
		svc.logger.Debug("roadmap session discarded", map[string]interface{}{"student": studentID})
	}
	return ok
}

func (svc *Service) Create(ctx context.Context, studentID string, base BaseSettings) error {
	if err := svc.repo.CreateRoadmap(ctx, studentID, base); err != nil {
		if errors.Cause(err) == ErrRoadmapExists {
			return core.NewValidationError(err, core.FieldError{Field: "studentId", Error: err.Error()})
		}
		return errors.Wrap(err, "creating roadmap")
	}
	return nil
}

// Roadmap returns the persisted document with the base calendar of the window.
// Override arrays are returned as stored.
func (svc *Service) Roadmap(ctx context.Context, studentID string, years int) (Roadmap, error) {
	if err := svc.checkYears(years); err != nil {
		return Roadmap{}, err
	}
	doc, err := svc.repo.GetRoadmap(ctx, studentID)
	if err != nil {
		return Roadmap{}, errors.Wrap(err, "fetching roadmap")
	}
	cal, err := svc.calendars.BaseCalendar(ctx, studentID, doc.Base, years)
	if err != nil {
		return Roadmap{}, errors.Wrap(err, "fetching base calendar")
	}
	return Roadmap{Base: doc.Base, Blocks: cal, Extras: doc.Extras}, nil
}

// Replace stores doc as the student's full roadmap, bypassing any session.
func (svc *Service) Replace(ctx context.Context, studentID string, doc Document) error {
	if err := svc.repo.SaveRoadmap(ctx, studentID, doc); err != nil {
		return errors.Wrap(err, "saving roadmap")
	}
	return nil
}

func (svc *Service) Delete(ctx context.Context, studentID string) error {
	if err := svc.repo.DeleteRoadmap(ctx, studentID); err != nil {
		return errors.Wrap(err, "deleting roadmap")
	}
	svc.Discard(studentID)
	return nil
}

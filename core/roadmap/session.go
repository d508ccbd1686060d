package roadmap

import (
	"encoding/json"
	"sync"
)

// Session is the editing state of one student's roadmap for one year window.
// It is created by a successful load and replaced wholesale by the next one.
type Session struct {
	mu sync.Mutex

	studentID string
	years     int
	base      BaseSettings
	calendar  Calendar
	overrides *OverrideStore
	gifted    json.RawMessage
	contests  json.RawMessage
	dirty     bool
	rev       uint64 // bumped on every edit
}

// newSession assembles a session from a persisted document and the matching base calendar.
// It returns the number of override entries dropped for being out of window or invalid.
func newSession(studentID string, years int, doc Document, cal Calendar) (*Session, int) {
	store, dropped := OverrideStoreFromExtras(doc.Extras, years)
	sess := &Session{
		studentID: studentID,
		years:     years,
		base:      doc.Base,
		calendar:  cal,
		overrides: store,
		gifted:    cloneRaw(doc.Extras.Gifted),
		contests:  cloneRaw(doc.Extras.Contests),
	}
	return sess, dropped
}

func (s *Session) StudentID() string { return s.studentID }

func (s *Session) Years() int { return s.years }

func (s *Session) Calendar() Calendar { return s.calendar }

func (s *Session) Base() BaseSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

// SetBase replaces the base settings forwarded on save. The loaded calendar is not regenerated.
func (s *Session) SetBase(base BaseSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = base
	s.touch()
}

// Dirty reports whether the session has edits that were not saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overrides.Snapshot()
}

func (s *Session) EffectiveValue(tr Track, key GroupKey) string {
	return EffectiveValue(s.calendar, s.Snapshot(), tr, key)
}

func (s *Session) ToggleThinkingType(key GroupKey) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	typ, err := s.overrides.ToggleThinkingType(key, s.years)
	if err == nil {
		s.touch()
	}
	return typ, err
}

func (s *Session) ToggleThinkingLevel(key GroupKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lvl, err := s.overrides.ToggleThinkingLevel(key, s.years)
	if err == nil {
		s.touch()
	}
	return lvl, err
}

func (s *Session) ToggleSubject(key GroupKey) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stage, err := s.overrides.ToggleSubject(s.calendar, key, s.years)
	if err == nil {
		s.touch()
	}
	return stage, err
}

func (s *Session) Toggle(edit Edit, key GroupKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.overrides.Toggle(s.calendar, edit, key, s.years); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *Session) touch() {
	s.dirty = true
	s.rev++
}

// submission flattens the session into the save payload and returns the
// revision it was taken at.
func (s *Session) submission() (Document, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ext := s.overrides.Flatten()
	ext.Gifted = cloneRaw(s.gifted)
	ext.Contests = cloneRaw(s.contests)
	return Document{Base: s.base, Extras: ext}, s.rev
}

// markSaved clears the dirty flag unless the session was edited after rev.
func (s *Session) markSaved(rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rev == rev {
		s.dirty = false
	}
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

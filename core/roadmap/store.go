package roadmap

import (
	"sort"

	"github.com/pkg/errors"
)

// OverrideStore holds the sparse admin overrides of the editable tracks.
// A missing entry means "use the base calendar default".
type OverrideStore struct {
	thinkingTypes  map[GroupKey]string
	thinkingLevels map[GroupKey]int
	subjects       map[GroupKey]string
}

func NewOverrideStore() *OverrideStore {
	return &OverrideStore{
		thinkingTypes:  make(map[GroupKey]string),
		thinkingLevels: make(map[GroupKey]int),
		subjects:       make(map[GroupKey]string),
	}
}

// OverrideStoreFromExtras populates a store for a `years` long window.
// Entries outside the window or with an invalid value are dropped; the number
// of dropped entries is returned.
func OverrideStoreFromExtras(ext Extras, years int) (*OverrideStore, int) {
	store := NewOverrideStore()
	var dropped int
	for _, e := range ext.ThinkingTypes {
		if store.setThinkingType(GroupKey{e.YearOffset, e.GroupIndex}, e.Type, years) != nil {
			dropped++
		}
	}
	for _, e := range ext.ThinkingLevels {
		if store.setThinkingLevel(GroupKey{e.YearOffset, e.GroupIndex}, e.Level, years) != nil {
			dropped++
		}
	}
	for _, e := range ext.SubjectGroups {
		if store.setSubject(GroupKey{e.YearOffset, e.GroupIndex}, e.Value, years) != nil {
			dropped++
		}
	}
	return store, dropped
}

func (s *OverrideStore) ThinkingType(key GroupKey) (string, bool) {
	v, ok := s.thinkingTypes[key]
	return v, ok
}

func (s *OverrideStore) ThinkingLevel(key GroupKey) (int, bool) {
	v, ok := s.thinkingLevels[key]
	return v, ok
}

func (s *OverrideStore) Subject(key GroupKey) (string, bool) {
	v, ok := s.subjects[key]
	return v, ok
}

func (s *OverrideStore) SetThinkingType(key GroupKey, typ string, years int) error {
	return s.setThinkingType(key, typ, years)
}

func (s *OverrideStore) SetThinkingLevel(key GroupKey, lvl int, years int) error {
	return s.setThinkingLevel(key, lvl, years)
}

func (s *OverrideStore) SetSubject(key GroupKey, stage string, years int) error {
	return s.setSubject(key, stage, years)
}

func (s *OverrideStore) setThinkingType(key GroupKey, typ string, years int) error {
	if !key.InWindow(years) {
		return ErrGroupOutOfWindow
	}
	if !IsThinkingType(typ) {
		return errors.Wrapf(ErrInvalidOverride, "thinking type %q", typ)
	}
	s.thinkingTypes[key] = typ
	return nil
}

func (s *OverrideStore) setThinkingLevel(key GroupKey, lvl int, years int) error {
	if !key.InWindow(years) {
		return ErrGroupOutOfWindow
	}
	if !IsThinkingLevel(lvl) {
		return errors.Wrapf(ErrInvalidOverride, "thinking level %d", lvl)
	}
	s.thinkingLevels[key] = lvl
	return nil
}

func (s *OverrideStore) setSubject(key GroupKey, stage string, years int) error {
	if !key.InWindow(years) {
		return ErrGroupOutOfWindow
	}
	if !IsSubjectStage(stage) {
		return errors.Wrapf(ErrInvalidOverride, "subject stage %q", stage)
	}
	s.subjects[key] = stage
	return nil
}

// Len returns the number of entries of every track.
func (s *OverrideStore) Len() (types, levels, subjects int) {
	return len(s.thinkingTypes), len(s.thinkingLevels), len(s.subjects)
}

// Flatten returns the overrides as arrays in global group order.
// Gifted and Contests are left empty. Empty tracks give empty, non-nil arrays.
func (s *OverrideStore) Flatten() Extras {
	ext := Extras{
		ThinkingTypes:  make([]ThinkingTypeEntry, 0, len(s.thinkingTypes)),
		ThinkingLevels: make([]ThinkingLevelEntry, 0, len(s.thinkingLevels)),
		SubjectGroups:  make([]SubjectEntry, 0, len(s.subjects)),
	}
	for _, k := range sortedKeys(s.thinkingTypes) {
		ext.ThinkingTypes = append(ext.ThinkingTypes, ThinkingTypeEntry{k.YearOffset, k.GroupIndex, s.thinkingTypes[k]})
	}
	for _, k := range sortedKeys(s.thinkingLevels) {
		ext.ThinkingLevels = append(ext.ThinkingLevels, ThinkingLevelEntry{k.YearOffset, k.GroupIndex, s.thinkingLevels[k]})
	}
	for _, k := range sortedKeys(s.subjects) {
		ext.SubjectGroups = append(ext.SubjectGroups, SubjectEntry{k.YearOffset, k.GroupIndex, s.subjects[k]})
	}
	return ext
}

// Snapshot returns a read-only copy of the current overrides.
func (s *OverrideStore) Snapshot() Snapshot {
	snap := Snapshot{
		thinkingTypes:  make(map[GroupKey]string, len(s.thinkingTypes)),
		thinkingLevels: make(map[GroupKey]int, len(s.thinkingLevels)),
		subjects:       make(map[GroupKey]string, len(s.subjects)),
	}
	for k, v := range s.thinkingTypes {
		snap.thinkingTypes[k] = v
	}
	for k, v := range s.thinkingLevels {
		snap.thinkingLevels[k] = v
	}
	for k, v := range s.subjects {
		snap.subjects[k] = v
	}
	return snap
}

// Snapshot is an immutable view of an OverrideStore. The zero value has no overrides.
type Snapshot struct {
	thinkingTypes  map[GroupKey]string
	thinkingLevels map[GroupKey]int
	subjects       map[GroupKey]string
}

func (snap Snapshot) ThinkingType(key GroupKey) (string, bool) {
	v, ok := snap.thinkingTypes[key]
	return v, ok
}

func (snap Snapshot) ThinkingLevel(key GroupKey) (int, bool) {
	v, ok := snap.thinkingLevels[key]
	return v, ok
}

func (snap Snapshot) Subject(key GroupKey) (string, bool) {
	v, ok := snap.subjects[key]
	return v, ok
}

func sortedKeys[V any](m map[GroupKey]V) []GroupKey {
	keys := make([]GroupKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

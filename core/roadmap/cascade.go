package roadmap

import "strings"

// The cascades below rewrite the override of the clicked group and of every
// group after it in global order, up to the end of the `years` long window.
// Each rule differs per track and is applied exactly as product defined it.

// ToggleThinkingType rotates the clicked group's type and sets the same new
// type on every following group. It returns the new type.
func (s *OverrideStore) ToggleThinkingType(key GroupKey, years int) (string, error) {
	if !key.InWindow(years) {
		return "", ErrGroupOutOfWindow
	}

	cur, ok := s.ThinkingType(key)
	if !ok {
		cur = ThinkingWMO
	}
	next := nextThinkingType(cur)

	for _, k := range forward(key, years) {
		if err := s.setThinkingType(k, next, years); err != nil {
			return "", err
		}
	}
	return next, nil
}

// ToggleThinkingLevel starts an ascending run of levels at the clicked group:
// one above its current level (back to 1 after 20), then +1 per following group,
// saturating at 20. It returns the clicked group's new level.
func (s *OverrideStore) ToggleThinkingLevel(key GroupKey, years int) (int, error) {
	if !key.InWindow(years) {
		return 0, ErrGroupOutOfWindow
	}

	cur, ok := s.ThinkingLevel(key)
	if !ok {
		cur = MinThinkingLevel
	}
	start := cur + 1
	if cur >= MaxThinkingLevel {
		start = MinThinkingLevel
	}

	for seq, k := range forward(key, years) {
		if err := s.setThinkingLevel(k, minInt(MaxThinkingLevel, start+seq), years); err != nil {
			return 0, err
		}
	}
	return start, nil
}

// ToggleSubject advances the clicked group to the next stage, wrapping from the
// final stage back to the first one, and walks the following groups one stage
// further each. The walk itself never wraps: once it reaches the final stage every
// remaining group stays there. cal provides the default of a group without override.
// It returns the clicked group's new stage.
func (s *OverrideStore) ToggleSubject(cal Calendar, key GroupKey, years int) (string, error) {
	if !key.InWindow(years) {
		return "", ErrGroupOutOfWindow
	}

	cur, ok := s.Subject(key)
	if !ok {
		cur = cal.GroupDefault(TrackSubject, key)
	}
	curIdx := StageIndex(strings.TrimSpace(cur))
	if curIdx < 0 {
		curIdx = 0
	}

	last := len(SubjectStages) - 1
	idx := (curIdx + 1) % len(SubjectStages)
	first := SubjectStages[idx]
	for _, k := range forward(key, years) {
		stage := SubjectStages[minInt(idx, last)]
		if err := s.setSubject(k, stage, years); err != nil {
			return "", err
		}
		if stage == FinalStage {
			idx = last
		} else {
			idx = minInt(idx+1, last)
		}
	}
	return first, nil
}

// Toggle dispatches a click to the cascade of the edited override.
func (s *OverrideStore) Toggle(cal Calendar, edit Edit, key GroupKey, years int) error {
	var err error
	switch edit {
	case EditThinkingType:
		_, err = s.ToggleThinkingType(key, years)
	case EditThinkingLevel:
		_, err = s.ToggleThinkingLevel(key, years)
	case EditSubject:
		_, err = s.ToggleSubject(cal, key, years)
	default:
		err = ErrNotEditable
	}
	return err
}

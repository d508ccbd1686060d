package roadmap_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwonjong94/anchormoms-web-sub002/core"
	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
	"github.com/rwonjong94/anchormoms-web-sub002/storage/database/dummy"
	"github.com/rwonjong94/anchormoms-web-sub002/tests"
)

var (
	ctx  = context.Background()
	base = roadmap.BaseSettings{StartAcademicYear: 2024, StartGrade: "초3", GradePromotionMonth: 3}
)

type failingRepo struct {
	roadmap.Repository
	saveErr    error
	beforeSave func()
}

func (repo *failingRepo) SaveRoadmap(ctx context.Context, studentID string, doc roadmap.Document) error {
	if repo.beforeSave != nil {
		repo.beforeSave()
	}
	if repo.saveErr != nil {
		return repo.saveErr
	}
	return repo.Repository.SaveRoadmap(ctx, studentID, doc)
}

func setup(t *testing.T) (*roadmap.Service, *failingRepo, *roadmap.StaticCalendars) {
	db, err := dummydb.Open()
	require.NoError(t, err)
	repo := &failingRepo{Repository: dummydb.NewRoadmapRepository(db)}

	cals := roadmap.NewStaticCalendars()
	cals.Set("s1", roadmap.NewTestCalendar(2024, 6))
	return roadmap.NewService(repo, cals, core.NopLogger{}, 6), repo, cals
}

func TestService_Load(t *testing.T) {
	t.Run("window truncation", func(t *testing.T) {
		svc, repo, _ := setup(t)
		testutil.CreateRoadmap(t, repo, "s1", base, roadmap.Extras{
			ThinkingLevels: []roadmap.ThinkingLevelEntry{
				{YearOffset: 1, GroupIndex: 0, Level: 5},
				{YearOffset: 5, GroupIndex: 0, Level: 5},
			},
			SubjectGroups: []roadmap.SubjectEntry{{YearOffset: 0, GroupIndex: 0, Value: "중1-1"}},
		})

		sess, err := svc.Load(ctx, "s1", 2)
		require.NoError(t, err)
		snap := sess.Snapshot()
		_, ok := snap.ThinkingLevel(roadmap.GroupKey{YearOffset: 5, GroupIndex: 0})
		assert.False(t, ok)
		lvl, ok := snap.ThinkingLevel(roadmap.GroupKey{YearOffset: 1, GroupIndex: 0})
		assert.True(t, ok)
		assert.Equal(t, 5, lvl)
		assert.Len(t, sess.Calendar(), 2)
		assert.False(t, sess.Dirty())
	})

	t.Run("invalid years", func(t *testing.T) {
		svc, repo, _ := setup(t)
		testutil.CreateRoadmap(t, repo, "s1", base)
		for _, years := range []int{0, -1, 7} {
			_, err := svc.Load(ctx, "s1", years)
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr), "years=%d", years)
			assert.Equal(t, roadmap.ErrInvalidYears, vErr.Err)
		}
	})

	t.Run("unknown student", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.Load(ctx, "nobody", 1)
		assert.Equal(t, roadmap.ErrNotFound, errors.Cause(err))
	})

	t.Run("incomplete calendar", func(t *testing.T) {
		svc, repo, cals := setup(t)
		testutil.CreateRoadmap(t, repo, "s2", base)
		cals.Set("s2", roadmap.NewTestCalendar(2024, 1))
		_, err := svc.Load(ctx, "s2", 3)
		assert.Equal(t, roadmap.ErrIncompleteCalendar, errors.Cause(err))
		_, err = svc.Session("s2")
		assert.Equal(t, roadmap.ErrNoSession, err)
	})

	t.Run("failure keeps the previous session", func(t *testing.T) {
		svc, repo, cals := setup(t)
		testutil.CreateRoadmap(t, repo, "s1", base)
		sess, err := svc.Load(ctx, "s1", 2)
		require.NoError(t, err)
		_, err = sess.ToggleThinkingLevel(roadmap.GroupKey{})
		require.NoError(t, err)

		cals.Fail(errors.New("generator down"))
		_, err = svc.Load(ctx, "s1", 3)
		require.Error(t, err)

		cur, err := svc.Session("s1")
		require.NoError(t, err)
		assert.Same(t, sess, cur)
		assert.True(t, cur.Dirty())
		lvl, _ := cur.Snapshot().ThinkingLevel(roadmap.GroupKey{})
		assert.Equal(t, 2, lvl)
	})
}

func TestService_Save(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		svc, repo, _ := setup(t)
		testutil.CreateRoadmap(t, repo, "s1", base, roadmap.Extras{
			Gifted:   json.RawMessage(`{"program":"영재원","round":2}`),
			Contests: json.RawMessage(`["KMC","HME"]`),
		})

		sess, err := svc.Load(ctx, "s1", 3)
		require.NoError(t, err)
		_, err = sess.ToggleThinkingType(roadmap.GroupKey{YearOffset: 1, GroupIndex: 2})
		require.NoError(t, err)
		_, err = sess.ToggleThinkingLevel(roadmap.GroupKey{YearOffset: 0, GroupIndex: 3})
		require.NoError(t, err)
		_, err = sess.ToggleSubject(roadmap.GroupKey{YearOffset: 2, GroupIndex: 1})
		require.NoError(t, err)
		before := sess.Snapshot()

		saved, err := svc.Save(ctx, "s1")
		require.NoError(t, err)
		assert.NotSame(t, sess, saved)
		assert.False(t, saved.Dirty())
		assert.Equal(t, before, saved.Snapshot())

		doc, err := repo.GetRoadmap(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, base, doc.Base)
		assert.JSONEq(t, `{"program":"영재원","round":2}`, string(doc.Extras.Gifted))
		assert.JSONEq(t, `["KMC","HME"]`, string(doc.Extras.Contests))
		assert.Len(t, doc.Extras.ThinkingTypes, 6)
		assert.Len(t, doc.Extras.ThinkingLevels, 9)
		assert.Len(t, doc.Extras.SubjectGroups, 3)
	})

	t.Run("base edits are forwarded", func(t *testing.T) {
		svc, repo, _ := setup(t)
		testutil.CreateRoadmap(t, repo, "s1", base)
		sess, err := svc.Load(ctx, "s1", 1)
		require.NoError(t, err)

		edited := roadmap.BaseSettings{StartAcademicYear: 2025, StartGrade: "초4", GradePromotionMonth: 2}
		sess.SetBase(edited)
		_, err = svc.Save(ctx, "s1")
		require.NoError(t, err)

		doc, err := repo.GetRoadmap(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, edited, doc.Base)
	})

	t.Run("failure keeps edits", func(t *testing.T) {
		svc, repo, _ := setup(t)
		testutil.CreateRoadmap(t, repo, "s1", base)
		sess, err := svc.Load(ctx, "s1", 1)
		require.NoError(t, err)
		_, err = sess.ToggleSubject(roadmap.GroupKey{})
		require.NoError(t, err)
		want := sess.Snapshot()

		repo.saveErr = errors.New("connection reset")
		_, err = svc.Save(ctx, "s1")
		require.Error(t, err)

		cur, err := svc.Session("s1")
		require.NoError(t, err)
		assert.Same(t, sess, cur)
		assert.True(t, cur.Dirty())
		assert.Equal(t, want, cur.Snapshot())

		doc, err := repo.GetRoadmap(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, doc.Extras.SubjectGroups)
	})

	t.Run("edit during save stays dirty", func(t *testing.T) {
		svc, repo, cals := setup(t)
		testutil.CreateRoadmap(t, repo, "s1", base)
		sess, err := svc.Load(ctx, "s1", 1)
		require.NoError(t, err)
		_, err = sess.ToggleSubject(roadmap.GroupKey{})
		require.NoError(t, err)

		repo.beforeSave = func() {
			_, err := sess.ToggleThinkingType(roadmap.GroupKey{GroupIndex: 2})
			require.NoError(t, err)
			cals.Fail(errors.New("generator down"))
		}
		_, err = svc.Save(ctx, "s1")
		require.Error(t, err)

		cur, err := svc.Session("s1")
		require.NoError(t, err)
		assert.Same(t, sess, cur)
		assert.True(t, cur.Dirty())

		doc, err := repo.GetRoadmap(ctx, "s1")
		require.NoError(t, err)
		assert.Len(t, doc.Extras.SubjectGroups, 4)
		assert.Empty(t, doc.Extras.ThinkingTypes)
	})

	t.Run("no session", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.Save(ctx, "s1")
		assert.Equal(t, roadmap.ErrNoSession, err)
	})
}

func TestService_ChangeYearWindow(t *testing.T) {
	svc, repo, _ := setup(t)
	testutil.CreateRoadmap(t, repo, "s1", base, roadmap.Extras{
		SubjectGroups: []roadmap.SubjectEntry{{YearOffset: 2, GroupIndex: 1, Value: "중2-1"}},
	})

	_, err := svc.ChangeYearWindow(ctx, "s1", 3)
	assert.Equal(t, roadmap.ErrNoSession, err)

	sess, err := svc.Load(ctx, "s1", 2)
	require.NoError(t, err)
	_, err = sess.ToggleThinkingLevel(roadmap.GroupKey{})
	require.NoError(t, err)

	wider, err := svc.ChangeYearWindow(ctx, "s1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, wider.Years())
	assert.False(t, wider.Dirty())
	_, ok := wider.Snapshot().ThinkingLevel(roadmap.GroupKey{})
	assert.False(t, ok, "unsaved edits are discarded")
	stage, ok := wider.Snapshot().Subject(roadmap.GroupKey{YearOffset: 2, GroupIndex: 1})
	assert.True(t, ok)
	assert.Equal(t, "중2-1", stage)
}

func TestService_CreateDelete(t *testing.T) {
	svc, repo, _ := setup(t)
	require.NoError(t, svc.Create(ctx, "s1", base))

	err := svc.Create(ctx, "s1", base)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "studentId", vErr.Fields[0].Field)

	_, err = svc.Load(ctx, "s1", 1)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "s1"))
	_, err = svc.Session("s1")
	assert.Equal(t, roadmap.ErrNoSession, err)
	_, err = repo.GetRoadmap(ctx, "s1")
	assert.Equal(t, roadmap.ErrNotFound, err)
}

func TestSession_View(t *testing.T) {
	svc, repo, _ := setup(t)
	testutil.CreateRoadmap(t, repo, "s1", base, roadmap.Extras{
		ThinkingLevels: []roadmap.ThinkingLevelEntry{{YearOffset: 0, GroupIndex: 1, Level: 9}},
	})
	sess, err := svc.Load(ctx, "s1", 2)
	require.NoError(t, err)

	view := sess.View()
	assert.Equal(t, "s1", view.StudentID)
	require.Len(t, view.Groups, 8)
	assert.Equal(t, "0-1", view.Groups[1].Key)
	assert.Equal(t, [3]int{6, 7, 8}, view.Groups[1].Months)
	assert.Equal(t, "WMO LV. 9", view.Groups[1].Thinking)
	assert.True(t, view.Groups[1].Overridden.ThinkingLevel)
	assert.Equal(t, "WMO LV. 2", sess.BaseView()[1].Thinking)
	assert.Equal(t, 2025, view.Groups[4].AcademicYear)
}

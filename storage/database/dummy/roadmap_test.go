package dummydb

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
)

func newRepo(t *testing.T) roadmap.Repository {
	db, err := Open()
	require.NoError(t, err)
	return NewRoadmapRepository(db)
}

func Test_roadmapRepository(t *testing.T) {
	ctx := context.Background()
	base := roadmap.BaseSettings{StartAcademicYear: 2024, StartGrade: "초3", GradePromotionMonth: 3}

	t.Run("create then get", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateRoadmap(ctx, "s1", base))
		assert.Equal(t, roadmap.ErrRoadmapExists, repo.CreateRoadmap(ctx, "s1", base))

		doc, err := repo.GetRoadmap(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, base, doc.Base)
		assert.NotNil(t, doc.Extras.ThinkingTypes)
		assert.Empty(t, doc.Extras.ThinkingTypes)
		assert.Nil(t, doc.Extras.Gifted)
	})

	t.Run("unknown student", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetRoadmap(ctx, "nope")
		assert.Equal(t, roadmap.ErrNotFound, err)
		assert.Equal(t, roadmap.ErrNotFound, repo.DeleteRoadmap(ctx, "nope"))
	})

	t.Run("save replaces and detaches", func(t *testing.T) {
		repo := newRepo(t)
		doc := roadmap.Document{
			Base: base,
			Extras: roadmap.Extras{
				ThinkingLevels: []roadmap.ThinkingLevelEntry{{YearOffset: 0, GroupIndex: 1, Level: 4}},
				SubjectGroups:  []roadmap.SubjectEntry{{YearOffset: 1, GroupIndex: 0, Value: "중1-1"}},
				Gifted:         json.RawMessage(`{"program":"영재원"}`),
			},
		}
		require.NoError(t, repo.SaveRoadmap(ctx, "s2", doc))
		doc.Extras.ThinkingLevels[0].Level = 9
		doc.Extras.Gifted[2] = 'X'

		got, err := repo.GetRoadmap(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, 4, got.Extras.ThinkingLevels[0].Level)
		assert.JSONEq(t, `{"program":"영재원"}`, string(got.Extras.Gifted))

		require.NoError(t, repo.SaveRoadmap(ctx, "s2", roadmap.Document{Base: base}))
		got, err = repo.GetRoadmap(ctx, "s2")
		require.NoError(t, err)
		assert.Empty(t, got.Extras.ThinkingLevels)
		assert.Empty(t, got.Extras.SubjectGroups)
		assert.Nil(t, got.Extras.Gifted)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateRoadmap(ctx, "s3", base))
		require.NoError(t, repo.DeleteRoadmap(ctx, "s3"))
		_, err := repo.GetRoadmap(ctx, "s3")
		assert.Equal(t, roadmap.ErrNotFound, err)
	})
}

package dummydb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
)

type roadmapRepository struct {
	db *roadmapTable
}

var _ roadmap.Repository = (*roadmapRepository)(nil) // interface compliance check

func NewRoadmapRepository(db *DB) roadmap.Repository {
	return &roadmapRepository{db: db.roadmap}
}

func (repo *roadmapRepository) CreateRoadmap(_ context.Context, studentID string, base roadmap.BaseSettings) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[studentID]; ok {
		return roadmap.ErrRoadmapExists
	}
	now := time.Now().UTC()
	repo.db.table[studentID] = &roadmapRow{
		doc:       copyDocument(roadmap.Document{Base: base}),
		createdAt: now,
		updatedAt: now,
	}
	return nil
}

func (repo *roadmapRepository) GetRoadmap(_ context.Context, studentID string) (roadmap.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.db.table[studentID]; ok {
		return copyDocument(row.doc), nil
	}
	return roadmap.Document{}, roadmap.ErrNotFound
}

func (repo *roadmapRepository) SaveRoadmap(_ context.Context, studentID string, doc roadmap.Document) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	row, ok := repo.db.table[studentID]
	if !ok {
		row = &roadmapRow{createdAt: now}
		repo.db.table[studentID] = row
	}
	row.doc = copyDocument(doc)
	row.updatedAt = now
	return nil
}

func (repo *roadmapRepository) DeleteRoadmap(_ context.Context, studentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[studentID]; !ok {
		return roadmap.ErrNotFound
	}
	delete(repo.db.table, studentID)
	return nil
}

// copyDocument detaches doc from the caller. Missing arrays are stored as empty ones.
func copyDocument(doc roadmap.Document) roadmap.Document {
	ext := doc.Extras
	cp := roadmap.Document{
		Base: doc.Base,
		Extras: roadmap.Extras{
			ThinkingTypes:  append(make([]roadmap.ThinkingTypeEntry, 0, len(ext.ThinkingTypes)), ext.ThinkingTypes...),
			ThinkingLevels: append(make([]roadmap.ThinkingLevelEntry, 0, len(ext.ThinkingLevels)), ext.ThinkingLevels...),
			SubjectGroups:  append(make([]roadmap.SubjectEntry, 0, len(ext.SubjectGroups)), ext.SubjectGroups...),
		},
	}
	if ext.Gifted != nil {
		cp.Extras.Gifted = append(json.RawMessage(nil), ext.Gifted...)
	}
	if ext.Contests != nil {
		cp.Extras.Contests = append(json.RawMessage(nil), ext.Contests...)
	}
	return cp
}

package dummydb

import (
	"sync"
	"time"

	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
)

type (
	DB struct {
		roadmap *roadmapTable
	}

	roadmapRow struct {
		doc       roadmap.Document
		createdAt time.Time
		updatedAt time.Time
	}

	roadmapTable struct {
		sync.RWMutex
		table map[string]*roadmapRow
	}
)

func Open() (*DB, error) {
	db := &DB{
		roadmap: &roadmapTable{table: make(map[string]*roadmapRow)},
	}
	return db, nil
}

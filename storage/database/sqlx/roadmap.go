package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
)

type (
	roadmapRow struct {
		StudentID           string    `db:"student_id"`
		StartAcademicYear   int       `db:"start_academic_year"`
		StartGrade          string    `db:"start_grade"`
		GradePromotionMonth int       `db:"grade_promotion_month"`
		Gifted              null.JSON `db:"gifted"`
		Contests            null.JSON `db:"contests"`
		CreatedAt           time.Time `db:"created_at"`
		UpdatedAt           time.Time `db:"updated_at"`
	}

	overrideRow struct {
		Track      string      `db:"track"`
		YearOffset int         `db:"year_offset"`
		GroupIndex int         `db:"group_index"`
		Value      null.String `db:"value"`
		Level      null.Int    `db:"level"`
	}
)

type roadmapRepository struct {
	db *sqlx.DB
}

var _ roadmap.Repository = (*roadmapRepository)(nil) // interface compliance check

func NewRoadmapRepository(db *sqlx.DB) roadmap.Repository {
	return &roadmapRepository{db: db}
}

const (
	insertRoadmapQuery = `
		INSERT INTO roadmap (student_id, start_academic_year, start_grade, grade_promotion_month, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (student_id) DO NOTHING`

	upsertRoadmapQuery = `
		INSERT INTO roadmap (student_id, start_academic_year, start_grade, grade_promotion_month, gifted, contests, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $7)
		ON CONFLICT (student_id) DO UPDATE SET
			start_academic_year = EXCLUDED.start_academic_year,
			start_grade = EXCLUDED.start_grade,
			grade_promotion_month = EXCLUDED.grade_promotion_month,
			gifted = EXCLUDED.gifted,
			contests = EXCLUDED.contests,
			updated_at = EXCLUDED.updated_at`

	selectRoadmapQuery = `
		SELECT student_id, start_academic_year, start_grade, grade_promotion_month, gifted, contests, created_at, updated_at
		FROM roadmap WHERE student_id = $1`

	selectOverridesQuery = `
		SELECT track, year_offset, group_index, value, level
		FROM roadmap_override WHERE student_id = $1
		ORDER BY year_offset, group_index, track`

	deleteOverridesQuery = `DELETE FROM roadmap_override WHERE student_id = $1`

	insertOverrideQuery = `
		INSERT INTO roadmap_override (student_id, track, year_offset, group_index, value, level)
		VALUES ($1, $2, $3, $4, $5, $6)`

	deleteRoadmapQuery = `DELETE FROM roadmap WHERE student_id = $1`
)

func (repo *roadmapRepository) CreateRoadmap(ctx context.Context, studentID string, base roadmap.BaseSettings) error {
	res, err := repo.db.ExecContext(ctx, insertRoadmapQuery,
		studentID, base.StartAcademicYear, base.StartGrade, base.GradePromotionMonth, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "inserting roadmap")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "inserting roadmap")
	}
	if n == 0 {
		return roadmap.ErrRoadmapExists
	}
	return nil
}

func (repo *roadmapRepository) GetRoadmap(ctx context.Context, studentID string) (roadmap.Document, error) {
	var row roadmapRow
	if err := repo.db.GetContext(ctx, &row, selectRoadmapQuery, studentID); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return roadmap.Document{}, roadmap.ErrNotFound
		}
		return roadmap.Document{}, errors.Wrap(err, "querying roadmap")
	}

	var overrides []overrideRow
	if err := repo.db.SelectContext(ctx, &overrides, selectOverridesQuery, studentID); err != nil {
		return roadmap.Document{}, errors.Wrap(err, "querying roadmap overrides")
	}
	return unboil(row, overrides), nil
}

// SaveRoadmap replaces the whole roadmap of the student in one transaction.
func (repo *roadmapRepository) SaveRoadmap(ctx context.Context, studentID string, doc roadmap.Document) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, upsertRoadmapQuery,
		studentID,
		doc.Base.StartAcademicYear,
		doc.Base.StartGrade,
		doc.Base.GradePromotionMonth,
		jsonParam(doc.Extras.Gifted),
		jsonParam(doc.Extras.Contests),
		time.Now().UTC(),
	); err != nil {
		return errors.Wrap(err, "upserting roadmap")
	}

	if _, err = tx.ExecContext(ctx, deleteOverridesQuery, studentID); err != nil {
		return errors.Wrap(err, "deleting roadmap overrides")
	}
	for _, o := range boil(doc.Extras) {
		if _, err = tx.ExecContext(ctx, insertOverrideQuery,
			studentID, o.Track, o.YearOffset, o.GroupIndex, o.Value, o.Level); err != nil {
			return errors.Wrapf(err, "inserting %s override %d-%d", o.Track, o.YearOffset, o.GroupIndex)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing roadmap")
	}
	return nil
}

func (repo *roadmapRepository) DeleteRoadmap(ctx context.Context, studentID string) error {
	res, err := repo.db.ExecContext(ctx, deleteRoadmapQuery, studentID)
	if err != nil {
		return errors.Wrap(err, "deleting roadmap")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting roadmap")
	}
	if n == 0 {
		return roadmap.ErrNotFound
	}
	return nil
}

// jsonParam passes raw JSON as text; lib/pq would send []byte as bytea.
func jsonParam(raw json.RawMessage) null.String {
	return null.NewString(string(raw), raw != nil)
}

func boil(ext roadmap.Extras) []overrideRow {
	rows := make([]overrideRow, 0, len(ext.ThinkingTypes)+len(ext.ThinkingLevels)+len(ext.SubjectGroups))
	for _, e := range ext.ThinkingTypes {
		rows = append(rows, overrideRow{
			Track: string(roadmap.EditThinkingType), YearOffset: e.YearOffset, GroupIndex: e.GroupIndex,
			Value: null.StringFrom(e.Type),
		})
	}
	for _, e := range ext.ThinkingLevels {
		rows = append(rows, overrideRow{
			Track: string(roadmap.EditThinkingLevel), YearOffset: e.YearOffset, GroupIndex: e.GroupIndex,
			Level: null.IntFrom(e.Level),
		})
	}
	for _, e := range ext.SubjectGroups {
		rows = append(rows, overrideRow{
			Track: string(roadmap.EditSubject), YearOffset: e.YearOffset, GroupIndex: e.GroupIndex,
			Value: null.StringFrom(e.Value),
		})
	}
	return rows
}

func unboil(row roadmapRow, overrides []overrideRow) roadmap.Document {
	doc := roadmap.Document{
		Base: roadmap.BaseSettings{
			StartAcademicYear:   row.StartAcademicYear,
			StartGrade:          row.StartGrade,
			GradePromotionMonth: row.GradePromotionMonth,
		},
		Extras: roadmap.Extras{
			ThinkingTypes:  make([]roadmap.ThinkingTypeEntry, 0),
			ThinkingLevels: make([]roadmap.ThinkingLevelEntry, 0),
			SubjectGroups:  make([]roadmap.SubjectEntry, 0),
		},
	}
	if row.Gifted.Valid {
		doc.Extras.Gifted = json.RawMessage(row.Gifted.JSON)
	}
	if row.Contests.Valid {
		doc.Extras.Contests = json.RawMessage(row.Contests.JSON)
	}

	for _, o := range overrides {
		switch roadmap.Edit(o.Track) {
		case roadmap.EditThinkingType:
			doc.Extras.ThinkingTypes = append(doc.Extras.ThinkingTypes, roadmap.ThinkingTypeEntry{
				YearOffset: o.YearOffset, GroupIndex: o.GroupIndex, Type: o.Value.String,
			})
		case roadmap.EditThinkingLevel:
			doc.Extras.ThinkingLevels = append(doc.Extras.ThinkingLevels, roadmap.ThinkingLevelEntry{
				YearOffset: o.YearOffset, GroupIndex: o.GroupIndex, Level: o.Level.Int,
			})
		case roadmap.EditSubject:
			doc.Extras.SubjectGroups = append(doc.Extras.SubjectGroups, roadmap.SubjectEntry{
				YearOffset: o.YearOffset, GroupIndex: o.GroupIndex, Value: o.Value.String,
			})
		}
	}
	return doc
}

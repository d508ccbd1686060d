package exportsvc

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
)

const (
	SheetName   = "Roadmap"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var Headers = []string{"Year", "Grade", "Group", "Months", "Subject", "Thinking", "Gifted", "Contest", "Arithmetic"}

// Filename is the attachment name of a student's workbook.
func Filename(view roadmap.View) string {
	return fmt.Sprintf("roadmap-%s-%dy.xlsx", view.StudentID, view.Years)
}

// NewWorkbook lays the effective grid out on a single sheet, one row per quarter-group.
func NewWorkbook(view roadmap.View) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "writing header")
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		_ = f.SetRowStyle(SheetName, 1, 1, headerStyle)
	}

	for i, grp := range view.Groups {
		row := []interface{}{
			grp.AcademicYear,
			grp.GradeLabel,
			grp.GroupIndex + 1,
			months(grp.Months),
			grp.Subject,
			grp.Thinking,
			grp.Gifted,
			grp.Contest,
			grp.Arithmetic,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "writing group %s", grp.Key)
		}
	}

	_ = f.SetColWidth(SheetName, "D", "D", 12)
	_ = f.SetColWidth(SheetName, "E", "I", 18)
	return f, nil
}

// WriteRoadmap writes the workbook of view to w.
func WriteRoadmap(w io.Writer, view roadmap.View) error {
	f, err := NewWorkbook(view)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func months(ms [3]int) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

// Package export renders ledger projections as spreadsheets.
package export

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/dormledger/hostel-inventory/internal/inventory"
	"github.com/dormledger/hostel-inventory/pkg/enums"
	pkgerrors "github.com/dormledger/hostel-inventory/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Assigned (Pivot)"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	minColumnWidth = 12
	maxColumnWidth = 40
)

var baseHeader = []string{"ID студента", "ПІБ", "Кімната", "Факультет", "Група"}

// AssignmentSource is the read-only projection the export needs from the ledger.
type AssignmentSource interface {
	ListActiveAssignmentsFlat(ctx context.Context) ([]inventory.Assignment, error)
}

// Service builds spreadsheet exports.
type Service interface {
	AssignedWorkbook(ctx context.Context) (*bytes.Buffer, error)
}

type service struct {
	source AssignmentSource
}

// NewService wires the export service.
func NewService(source AssignmentSource) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("assignment source required")
	}
	return &service{source: source}, nil
}

type pivotRow struct {
	inventory.Assignment
	byKind map[enums.InventoryKind]int
}

// AssignedWorkbook renders one row per student holding anything, with a column per kind
// that anyone holds.
func (s *service) AssignedWorkbook(ctx context.Context) (*bytes.Buffer, error) {
	rows, err := s.source.ListActiveAssignmentsFlat(ctx)
	if err != nil {
		return nil, err
	}

	kinds, students := pivot(rows)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, exportErr(err)
	}

	header := make([]any, 0, len(baseHeader)+len(kinds))
	for _, h := range baseHeader {
		header = append(header, h)
	}
	for _, kind := range kinds {
		header = append(header, kind.Label())
	}

	widths := make([]int, len(header))
	track := func(col int, v string) {
		if w := utf8.RuneCountInString(v) + 2; w > widths[col] {
			widths[col] = w
		}
	}
	for i, h := range header {
		track(i, h.(string))
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, exportErr(err)
	}

	for i, student := range students {
		line := []any{
			student.StudentID,
			student.FullName,
			student.RoomNumber,
			student.Faculty,
			student.StudyGroup,
		}
		for _, kind := range kinds {
			if qty, ok := student.byKind[kind]; ok {
				line = append(line, qty)
			} else {
				line = append(line, nil)
			}
		}
		for col, v := range line {
			if v != nil {
				track(col, fmt.Sprint(v))
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, exportErr(err)
		}
		if err := f.SetSheetRow(SheetName, cell, &line); err != nil {
			return nil, exportErr(err)
		}
	}

	if err := styleHeader(f, len(header)); err != nil {
		return nil, exportErr(err)
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, exportErr(err)
		}
		if err := f.SetColWidth(SheetName, col, col, float64(clampWidth(w))); err != nil {
			return nil, exportErr(err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, exportErr(err)
	}
	return buf, nil
}

// pivot groups flat rows by student, keeping the incoming order, and returns the kinds
// present in declaration order.
func pivot(rows []inventory.Assignment) ([]enums.InventoryKind, []*pivotRow) {
	present := map[enums.InventoryKind]struct{}{}
	index := map[int64]*pivotRow{}
	students := []*pivotRow{}
	for _, row := range rows {
		present[row.Kind] = struct{}{}
		bucket, ok := index[row.StudentID]
		if !ok {
			bucket = &pivotRow{Assignment: row, byKind: map[enums.InventoryKind]int{}}
			index[row.StudentID] = bucket
			students = append(students, bucket)
		}
		bucket.byKind[row.Kind] += row.Quantity
	}

	kinds := make([]enums.InventoryKind, 0, len(present))
	for _, kind := range enums.InventoryKinds() {
		if _, ok := present[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds, students
}

func styleHeader(f *excelize.File, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, "A1", last, style)
}

func clampWidth(w int) int {
	if w < minColumnWidth {
		return minColumnWidth
	}
	if w > maxColumnWidth {
		return maxColumnWidth
	}
	return w
}

func exportErr(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build spreadsheet")
}

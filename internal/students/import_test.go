package students

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dormledger/hostel-inventory/pkg/db"
	"github.com/dormledger/hostel-inventory/pkg/db/dbtest"
	"github.com/dormledger/hostel-inventory/pkg/db/models"
	pkgerrors "github.com/dormledger/hostel-inventory/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func newTestImporter(t *testing.T) (Importer, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	imp, err := NewImporter(NewRepository(conn), db.FromConn(conn), nil)
	require.NoError(t, err)
	return imp, conn
}

func TestImportWithUkrainianHeaders(t *testing.T) {
	imp, conn := newTestImporter(t)
	existing := dbtest.SeedStudent(t, conn, "Petro Vasylenko")

	buf := workbook(t, [][]any{
		{"ПІБ студента", "№ кімнати", "Факультет", "Курс", "Група"},
		{"Iryna  Tkachenko", "305", "FEM", "1", "EK-11"},
		{"Iryna Tkachenko", "305", "FEM", "1", "EK-11"},
		{existing.FullName, existing.RoomNumber, existing.Faculty, "2", existing.StudyGroup},
		{"Bo", "305", "FEM", "x1", "EK-11"},
		{"Yurii Savchuk", "12", "FEM", "2", "EK-21"},
	})

	report, err := imp.ImportXLSX(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, 5, report.TotalRows)
	assert.Equal(t, 3, report.ValidRows)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 2, report.DuplicatesSkipped)
	require.Len(t, report.InvalidRows, 2)

	assert.Equal(t, 5, report.InvalidRows[0].RowIndex)
	assert.Contains(t, report.InvalidRows[0].Errors, "course: must be a whole number")
	assert.Contains(t, report.InvalidRows[0].Errors, "full_name: must be at least 6")

	assert.Equal(t, 6, report.InvalidRows[1].RowIndex)
	assert.Equal(t, []string{"room_number: must be at least 3"}, report.InvalidRows[1].Errors)

	var count int64
	require.NoError(t, conn.Model(&models.Student{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	var imported models.Student
	require.NoError(t, conn.Where("full_name = ?", "Iryna Tkachenko").First(&imported).Error)
	assert.Equal(t, 1, imported.Course)
}

func TestImportAcceptsEnglishHeadersInAnyOrder(t *testing.T) {
	imp, _ := newTestImporter(t)

	buf := workbook(t, [][]any{
		{"studyGroup", "course", "fullName", "faculty", "roomNumber", "notes"},
		{"KN-41", 4, "Oksana Moroz", "FIT", "401", "ignored"},
	})

	report, err := imp.ImportXLSX(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Empty(t, report.InvalidRows)
}

func TestImportRejectsUnreadableInput(t *testing.T) {
	imp, _ := newTestImporter(t)

	_, err := imp.ImportXLSX(context.Background(), strings.NewReader("not a workbook"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestImportRejectsEmptySheet(t *testing.T) {
	imp, _ := newTestImporter(t)

	_, err := imp.ImportXLSX(context.Background(), workbook(t, nil))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, normalizeHeader("№ кімнати"), normalizeHeader("  № КІМНАТИ "))
	assert.Equal(t, "піб", normalizeHeader("П.І.Б"))
	assert.Equal(t, "fullname", normalizeHeader("full_name"))
}

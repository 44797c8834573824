package students

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/dormledger/hostel-inventory/pkg/db"
	"github.com/dormledger/hostel-inventory/pkg/db/models"
	pkgerrors "github.com/dormledger/hostel-inventory/pkg/errors"
	"github.com/dormledger/hostel-inventory/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const (
	importChunkSize = 1000
	// headerRow is the 1-based sheet row holding column names; data starts right after.
	headerRow = 1
)

type column string

const (
	columnFullName   column = "full_name"
	columnRoomNumber column = "room_number"
	columnFaculty    column = "faculty"
	columnCourse     column = "course"
	columnStudyGroup column = "study_group"
)

var headerAliases = buildHeaderAliases()

func buildHeaderAliases() map[string]column {
	pairs := map[column][]string{
		columnFullName:   {"fullName", "full_name", "ПІБ", "П.І.Б", "ФИО", "ПІБ студента", "Прізвище та ім’я", "Прізвище ім’я по батькові"},
		columnRoomNumber: {"roomNumber", "room_number", "Номер кімнати", "Кімната", "Комната", "Кімната №", "№ кімнати", "Комната №"},
		columnFaculty:    {"faculty", "Факультет"},
		columnCourse:     {"course", "Курс", "Рік навчання"},
		columnStudyGroup: {"studyGroup", "study_group", "Навчальна група", "Група", "Группа"},
	}
	out := map[string]column{}
	for canon, synonyms := range pairs {
		for _, s := range synonyms {
			out[normalizeHeader(s)] = canon
		}
	}
	return out
}

// normalizeHeader folds a header cell to lower-case letters and digits so
// "№ кімнати", "Кімната №" and "Номер  кімнати" style variants match.
func normalizeHeader(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

// InvalidRow lists validation failures for one sheet row.
type InvalidRow struct {
	RowIndex int      `json:"row_index"`
	Errors   []string `json:"errors"`
}

// ImportReport summarizes an import run.
type ImportReport struct {
	TotalRows         int          `json:"total_rows"`
	ValidRows         int          `json:"valid_rows"`
	Inserted          int          `json:"inserted"`
	DuplicatesSkipped int          `json:"duplicates_skipped"`
	InvalidRows       []InvalidRow `json:"invalid_rows"`
}

// Importer loads students in bulk from spreadsheets.
type Importer interface {
	ImportXLSX(ctx context.Context, r io.Reader) (*ImportReport, error)
}

type importer struct {
	repo     Repository
	tx       db.TxRunner
	validate *validator.Validate
	logg     *logger.Logger
}

// NewImporter wires the spreadsheet importer.
func NewImporter(repo Repository, tx db.TxRunner, logg *logger.Logger) (Importer, error) {
	if repo == nil {
		return nil, fmt.Errorf("students repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &importer{repo: repo, tx: tx, validate: v, logg: logg}, nil
}

type sheetRow struct {
	index  int
	values map[column]string
}

func (i *importer) ImportXLSX(ctx context.Context, r io.Reader) (*ImportReport, error) {
	rows, err := readSheet(r)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{TotalRows: len(rows), InvalidRows: []InvalidRow{}}
	prepared := make([]CreateStudentInput, 0, len(rows))
	for _, row := range rows {
		input, errs := i.prepare(row)
		if len(errs) > 0 {
			report.InvalidRows = append(report.InvalidRows, InvalidRow{RowIndex: row.index, Errors: errs})
			continue
		}
		prepared = append(prepared, input)
	}
	report.ValidRows = len(prepared)

	unique := dedupe(prepared)
	inserted, err := i.insert(ctx, unique)
	if err != nil {
		return nil, err
	}
	report.Inserted = int(inserted)
	report.DuplicatesSkipped = report.ValidRows - report.Inserted

	ctx = i.logg.WithFields(ctx, map[string]any{
		"total_rows":         report.TotalRows,
		"inserted":           report.Inserted,
		"duplicates_skipped": report.DuplicatesSkipped,
		"invalid_rows":       len(report.InvalidRows),
	})
	i.logg.Info(ctx, "students.import.completed")
	return report, nil
}

func readSheet(r io.Reader) ([]sheetRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is not a readable xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read first sheet")
	}
	if len(raw) < headerRow {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}

	header := map[int]column{}
	for idx, cell := range raw[headerRow-1] {
		if canon, ok := headerAliases[normalizeHeader(cell)]; ok {
			if _, taken := reverseLookup(header, canon); !taken {
				header[idx] = canon
			}
		}
	}
	if len(header) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no recognised student columns in header row")
	}

	out := make([]sheetRow, 0, len(raw)-headerRow)
	for offset, cells := range raw[headerRow:] {
		if isBlank(cells) {
			continue
		}
		values := map[column]string{}
		for idx, cell := range cells {
			if canon, ok := header[idx]; ok {
				values[canon] = normalizeSpace(cell)
			}
		}
		out = append(out, sheetRow{index: headerRow + offset + 1, values: values})
	}
	return out, nil
}

func reverseLookup(header map[int]column, canon column) (int, bool) {
	for idx, c := range header {
		if c == canon {
			return idx, true
		}
	}
	return 0, false
}

func isBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (i *importer) prepare(row sheetRow) (CreateStudentInput, []string) {
	input := CreateStudentInput{
		FullName:   row.values[columnFullName],
		RoomNumber: row.values[columnRoomNumber],
		Faculty:    row.values[columnFaculty],
		StudyGroup: row.values[columnStudyGroup],
	}

	var errs []string
	if course := row.values[columnCourse]; course != "" {
		if !digitsOnly.MatchString(course) {
			errs = append(errs, "course: must be a whole number")
		} else if n, err := strconv.Atoi(course); err == nil {
			input.Course = n
		}
	}

	if err := i.validate.Struct(input); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				if fe.Field() == string(columnCourse) && len(errs) > 0 {
					continue
				}
				errs = append(errs, fmt.Sprintf("%s: %s", fe.Field(), rowValidationMessage(fe)))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}
	sort.Strings(errs)
	return input, errs
}

func rowValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}

func dedupe(rows []CreateStudentInput) []CreateStudentInput {
	seen := make(map[Identity]struct{}, len(rows))
	out := make([]CreateStudentInput, 0, len(rows))
	for _, row := range rows {
		key := row.identity()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

func (i *importer) insert(ctx context.Context, rows []CreateStudentInput) (int64, error) {
	var inserted int64
	err := i.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := i.repo.WithTx(tx)
		for start := 0; start < len(rows); start += importChunkSize {
			end := start + importChunkSize
			if end > len(rows) {
				end = len(rows)
			}
			chunk := make([]models.Student, 0, end-start)
			for _, row := range rows[start:end] {
				chunk = append(chunk, row.toModel())
			}
			n, err := repo.InsertIgnoringDuplicates(ctx, chunk)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert students chunk")
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

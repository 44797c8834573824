package issuance

import (
	"context"
	"time"

	"github.com/dormledger/hostel-inventory/pkg/db/models"
	"github.com/dormledger/hostel-inventory/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReturnResult reports the outcome of a return. Closed is true when the line was fully
// returned; Record always carries the line as it stands after the write.
type ReturnResult struct {
	Closed bool
	Record *models.StudentInventory
}

// AssignmentRow is one (student, kind) pair of the flat active-assignment projection.
type AssignmentRow struct {
	StudentID  int64
	FullName   string
	RoomNumber string
	Faculty    string
	StudyGroup string
	Kind       enums.InventoryKind
	Quantity   int
}

// Repository owns active and closed issuance lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ActiveQuantityByKind(ctx context.Context, kind enums.InventoryKind) (int, error)
	ActiveQuantityGrouped(ctx context.Context) (map[enums.InventoryKind]int, error)
	FindActive(ctx context.Context, studentID int64, kind enums.InventoryKind) (*models.StudentInventory, error)
	ListActiveForStudent(ctx context.Context, studentID int64) ([]models.StudentInventory, error)
	IncrementOrCreate(ctx context.Context, studentID int64, kind enums.InventoryKind, delta int) (*models.StudentInventory, error)
	ApplyReturn(ctx context.Context, studentID int64, kind enums.InventoryKind, requested *int) (ReturnResult, error)
	ListActiveAssignmentsFlat(ctx context.Context) ([]AssignmentRow, error)
}

type repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository returns an issuance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, now: r.now}
}

func (r *repository) active() *gorm.DB {
	return r.db.Where("returned_at IS NULL")
}

func (r *repository) ActiveQuantityByKind(ctx context.Context, kind enums.InventoryKind) (int, error) {
	var total int64
	err := r.active().WithContext(ctx).
		Model(&models.StudentInventory{}).
		Where("kind = ?", kind).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

type kindTotal struct {
	Kind  enums.InventoryKind
	Total int64
}

func (r *repository) ActiveQuantityGrouped(ctx context.Context) (map[enums.InventoryKind]int, error) {
	var rows []kindTotal
	err := r.active().WithContext(ctx).
		Model(&models.StudentInventory{}).
		Select("kind, SUM(quantity) AS total").
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.InventoryKind]int, len(rows))
	for _, row := range rows {
		out[row.Kind] = int(row.Total)
	}
	return out, nil
}

func (r *repository) FindActive(ctx context.Context, studentID int64, kind enums.InventoryKind) (*models.StudentInventory, error) {
	var row models.StudentInventory
	if err := r.active().WithContext(ctx).
		Where("student_id = ? AND kind = ?", studentID, kind).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListActiveForStudent(ctx context.Context, studentID int64) ([]models.StudentInventory, error) {
	var rows []models.StudentInventory
	if err := r.active().WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("issued_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// IncrementOrCreate adds delta to the active line for (student, kind) or opens a new
// one. The partial unique index on active lines is the conflict target, so concurrent
// writers converge on a single row.
func (r *repository) IncrementOrCreate(ctx context.Context, studentID int64, kind enums.InventoryKind, delta int) (*models.StudentInventory, error) {
	row := &models.StudentInventory{
		StudentID: studentID,
		Kind:      kind,
		Quantity:  delta,
		IssuedAt:  r.now(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "student_id"}, {Name: "kind"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "returned_at IS NULL"}}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("student_inventory.quantity + excluded.quantity"),
			}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.FindActive(ctx, studentID, kind)
}

// ApplyReturn closes the active line when requested is nil or covers the whole
// quantity, otherwise decrements it. A missing active line yields gorm.ErrRecordNotFound.
func (r *repository) ApplyReturn(ctx context.Context, studentID int64, kind enums.InventoryKind, requested *int) (ReturnResult, error) {
	var row models.StudentInventory
	if err := r.active().WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND kind = ?", studentID, kind).
		First(&row).Error; err != nil {
		return ReturnResult{}, err
	}

	if requested == nil || *requested >= row.Quantity {
		now := r.now()
		res := r.db.WithContext(ctx).
			Model(&models.StudentInventory{}).
			Where("id = ? AND returned_at IS NULL", row.ID).
			Update("returned_at", now)
		if res.Error != nil {
			return ReturnResult{}, res.Error
		}
		if res.RowsAffected == 0 {
			return ReturnResult{}, gorm.ErrRecordNotFound
		}
		row.ReturnedAt = &now
		return ReturnResult{Closed: true, Record: &row}, nil
	}

	res := r.db.WithContext(ctx).
		Model(&models.StudentInventory{}).
		Where("id = ? AND returned_at IS NULL AND quantity > ?", row.ID, *requested).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", *requested))
	if res.Error != nil {
		return ReturnResult{}, res.Error
	}
	if res.RowsAffected == 0 {
		return ReturnResult{}, gorm.ErrRecordNotFound
	}
	row.Quantity -= *requested
	return ReturnResult{Record: &row}, nil
}

func (r *repository) ListActiveAssignmentsFlat(ctx context.Context) ([]AssignmentRow, error) {
	var rows []AssignmentRow
	err := r.db.WithContext(ctx).
		Table("student_inventory AS si").
		Select("s.id AS student_id, s.full_name, s.room_number, s.faculty, s.study_group, si.kind, SUM(si.quantity) AS quantity").
		Joins("JOIN students AS s ON s.id = si.student_id").
		Where("si.returned_at IS NULL").
		Group("s.id, s.full_name, s.room_number, s.faculty, s.study_group, si.kind").
		Order("s.full_name ASC, s.id ASC, si.kind ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

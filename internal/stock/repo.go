package stock

import (
	"context"
	"time"

	"github.com/dormledger/hostel-inventory/pkg/db/models"
	"github.com/dormledger/hostel-inventory/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository owns the per-kind stock totals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, kind enums.InventoryKind, total int) (*models.InventoryStock, error)
	List(ctx context.Context) ([]models.InventoryStock, error)
	FindByKind(ctx context.Context, kind enums.InventoryKind) (*models.InventoryStock, error)
	LockByKind(ctx context.Context, kind enums.InventoryKind) (*models.InventoryStock, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert replaces the total for kind, creating the row on first use.
func (r *repository) Upsert(ctx context.Context, kind enums.InventoryKind, total int) (*models.InventoryStock, error) {
	now := time.Now().UTC()
	record := &models.InventoryStock{Kind: kind, Total: total, UpdatedAt: now}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}},
			DoUpdates: clause.Assignments(map[string]any{"total": total, "updated_at": now}),
		}).
		Create(record).Error
	if err != nil {
		return nil, err
	}
	return r.FindByKind(ctx, kind)
}

func (r *repository) List(ctx context.Context) ([]models.InventoryStock, error) {
	var rows []models.InventoryStock
	if err := r.db.WithContext(ctx).Order("kind ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByKind(ctx context.Context, kind enums.InventoryKind) (*models.InventoryStock, error) {
	var row models.InventoryStock
	if err := r.db.WithContext(ctx).Where("kind = ?", kind).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// LockByKind loads the row with SELECT ... FOR UPDATE so issues of the same kind
// serialize until the surrounding transaction ends.
func (r *repository) LockByKind(ctx context.Context, kind enums.InventoryKind) (*models.InventoryStock, error) {
	var row models.InventoryStock
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("kind = ?", kind).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

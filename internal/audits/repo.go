package audits

import (
	"context"

	"github.com/dormledger/hostel-inventory/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists audit snapshots and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, audit *models.InventoryAudit) error
	List(ctx context.Context) ([]models.InventoryAudit, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryAudit, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audits repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create writes the audit together with its Items association.
func (r *repository) Create(ctx context.Context, audit *models.InventoryAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

func (r *repository) withItems() *gorm.DB {
	return r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("kind ASC")
	})
}

func (r *repository) List(ctx context.Context) ([]models.InventoryAudit, error) {
	var rows []models.InventoryAudit
	if err := r.withItems().WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryAudit, error) {
	var row models.InventoryAudit
	if err := r.withItems().WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Exists reports whether the audit header row is still present.
func (r *repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryAudit{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the audit and its items, returning gorm.ErrRecordNotFound when the id
// is unknown.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("audit_id = ?", id).
		Delete(&models.InventoryAuditItem{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&models.InventoryAudit{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package models

import (
	"time"

	"github.com/dormledger/hostel-inventory/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryAudit is an immutable point-in-time reconciliation of stock and issuance.
type InventoryAudit struct {
	ID        uuid.UUID            `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	Items     []InventoryAuditItem `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE"`
}

func (InventoryAudit) TableName() string {
	return "inventory_audits"
}

func (a *InventoryAudit) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// InventoryAuditItem is one per-kind line of an audit. Available may be negative when
// issuance exceeds registered stock.
type InventoryAuditItem struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey"`
	AuditID   uuid.UUID           `gorm:"column:audit_id;type:uuid;not null;uniqueIndex:ux_inventory_audit_items_audit_kind"`
	Kind      enums.InventoryKind `gorm:"column:kind;type:inventory_kind_enum;not null;uniqueIndex:ux_inventory_audit_items_audit_kind"`
	Total     int                 `gorm:"column:total;not null"`
	Issued    int                 `gorm:"column:issued;not null"`
	Available int                 `gorm:"column:available;not null"`
}

func (InventoryAuditItem) TableName() string {
	return "inventory_audit_items"
}

func (i *InventoryAuditItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

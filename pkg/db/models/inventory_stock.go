package models

import (
	"time"

	"github.com/dormledger/hostel-inventory/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryStock holds the dormitory's total holdings of one kind.
type InventoryStock struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Kind      enums.InventoryKind `gorm:"column:kind;type:inventory_kind_enum;not null;uniqueIndex:ux_inventory_stock_kind"`
	Total     int                 `gorm:"column:total;not null;default:0"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryStock) TableName() string {
	return "inventory_stock"
}

func (s *InventoryStock) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

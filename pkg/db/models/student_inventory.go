package models

import (
	"time"

	"github.com/dormledger/hostel-inventory/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentInventory is one issuance line. ReturnedAt == nil marks it active; at most one
// active line exists per (student, kind).
type StudentInventory struct {
	ID         uuid.UUID           `gorm:"type:uuid;primaryKey"`
	StudentID  int64               `gorm:"column:student_id;not null;index;uniqueIndex:ux_student_inventory_active,where:returned_at IS NULL"`
	Kind       enums.InventoryKind `gorm:"column:kind;type:inventory_kind_enum;not null;uniqueIndex:ux_student_inventory_active,where:returned_at IS NULL"`
	Quantity   int                 `gorm:"column:quantity;not null"`
	IssuedAt   time.Time           `gorm:"column:issued_at;not null;autoCreateTime"`
	ReturnedAt *time.Time          `gorm:"column:returned_at"`
}

func (StudentInventory) TableName() string {
	return "student_inventory"
}

func (s *StudentInventory) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the line has not been fully returned.
func (s StudentInventory) IsActive() bool {
	return s.ReturnedAt == nil
}

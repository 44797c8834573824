package inventory

import (
	"time"

	"github.com/dormledger/hostel-inventory/internal/issuance"
	"github.com/dormledger/hostel-inventory/pkg/db/models"
	"github.com/dormledger/hostel-inventory/pkg/enums"
	"github.com/google/uuid"
)

// UpsertStockInput sets the registered total for one kind.
type UpsertStockInput struct {
	Kind  enums.InventoryKind `json:"kind" validate:"required"`
	Total int                 `json:"total" validate:"min=0"`
}

// IssueInput hands quantity items of kind to a student.
type IssueInput struct {
	StudentID int64               `json:"student_id" validate:"required,gt=0"`
	Kind      enums.InventoryKind `json:"kind" validate:"required"`
	Quantity  int                 `json:"quantity" validate:"required,gt=0"`
}

// ReturnInput takes items back. A nil Quantity returns everything held.
type ReturnInput struct {
	StudentID int64               `json:"student_id" validate:"required,gt=0"`
	Kind      enums.InventoryKind `json:"kind" validate:"required"`
	Quantity  *int                `json:"quantity,omitempty" validate:"omitempty,gt=0"`
}

// StockDTO is one catalog line with its derived availability.
type StockDTO struct {
	Kind      enums.InventoryKind `json:"kind"`
	Label     string              `json:"label"`
	Total     int                 `json:"total"`
	Available int                 `json:"available"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// IssuanceDTO is the API view of an issuance line.
type IssuanceDTO struct {
	ID         uuid.UUID           `json:"id"`
	StudentID  int64               `json:"student_id"`
	Kind       enums.InventoryKind `json:"kind"`
	Label      string              `json:"label"`
	Quantity   int                 `json:"quantity"`
	IssuedAt   time.Time           `json:"issued_at"`
	ReturnedAt *time.Time          `json:"returned_at,omitempty"`
}

// ReturnOutcome is either the still-active line after a partial return or a closed marker.
type ReturnOutcome struct {
	Closed bool         `json:"closed"`
	Record *IssuanceDTO `json:"record,omitempty"`
}

// Assignment is one (student, kind) holding for exports.
type Assignment struct {
	StudentID  int64
	FullName   string
	RoomNumber string
	Faculty    string
	StudyGroup string
	Kind       enums.InventoryKind
	Quantity   int
}

func issuanceFromModel(m *models.StudentInventory) *IssuanceDTO {
	if m == nil {
		return nil
	}
	return &IssuanceDTO{
		ID:         m.ID,
		StudentID:  m.StudentID,
		Kind:       m.Kind,
		Label:      m.Kind.Label(),
		Quantity:   m.Quantity,
		IssuedAt:   m.IssuedAt,
		ReturnedAt: m.ReturnedAt,
	}
}

func assignmentFromRow(row issuance.AssignmentRow) Assignment {
	return Assignment{
		StudentID:  row.StudentID,
		FullName:   row.FullName,
		RoomNumber: row.RoomNumber,
		Faculty:    row.Faculty,
		StudyGroup: row.StudyGroup,
		Kind:       row.Kind,
		Quantity:   row.Quantity,
	}
}

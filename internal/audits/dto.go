package audits

import (
	"sort"
	"time"

	"github.com/dormledger/hostel-inventory/pkg/db/models"
	"github.com/dormledger/hostel-inventory/pkg/enums"
	"github.com/google/uuid"
)

// AuditDTO is a snapshot with its per-kind lines.
type AuditDTO struct {
	ID        uuid.UUID      `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Items     []AuditItemDTO `json:"items"`
}

// AuditItemDTO is one reconciled kind. Available is negative when more is issued than
// registered.
type AuditItemDTO struct {
	Kind      enums.InventoryKind `json:"kind"`
	Label     string              `json:"label"`
	Total     int                 `json:"total"`
	Issued    int                 `json:"issued"`
	Available int                 `json:"available"`
}

// DeleteResult echoes the removed audit id.
type DeleteResult struct {
	ID uuid.UUID `json:"id"`
}

func fromModel(m *models.InventoryAudit) AuditDTO {
	items := make([]AuditItemDTO, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, AuditItemDTO{
			Kind:      item.Kind,
			Label:     item.Kind.Label(),
			Total:     item.Total,
			Issued:    item.Issued,
			Available: item.Available,
		})
	}
	rank := kindRank()
	sort.SliceStable(items, func(i, j int) bool { return rank[items[i].Kind] < rank[items[j].Kind] })
	return AuditDTO{ID: m.ID, CreatedAt: m.CreatedAt, Items: items}
}

// kindRank maps each kind to its declaration position, which is also the order of the
// Postgres enum.
func kindRank() map[enums.InventoryKind]int {
	kinds := enums.InventoryKinds()
	rank := make(map[enums.InventoryKind]int, len(kinds))
	for i, kind := range kinds {
		rank[kind] = i
	}
	return rank
}

func (a AuditDTO) clone() AuditDTO {
	items := make([]AuditItemDTO, len(a.Items))
	copy(items, a.Items)
	a.Items = items
	return a
}

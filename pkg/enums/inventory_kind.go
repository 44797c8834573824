package enums

import "fmt"

// InventoryKind describes the allowed values for the `kind` column of stock, issuance and audit rows.
type InventoryKind string

const (
	InventoryKindTulle         InventoryKind = "tulle"
	InventoryKindCurtains      InventoryKind = "curtains"
	InventoryKindBlanket       InventoryKind = "blanket"
	InventoryKindMattress      InventoryKind = "mattress"
	InventoryKindPillowcase    InventoryKind = "pillowcase"
	InventoryKindMattressCover InventoryKind = "mattressCover"
	InventoryKindDuvetCover    InventoryKind = "duvetCover"
	InventoryKindWaffleTowel   InventoryKind = "waffleTowel"
	InventoryKindTerryTowel    InventoryKind = "terryTowel"
	InventoryKindSheet         InventoryKind = "sheet"
	InventoryKindCover         InventoryKind = "cover"
	InventoryKindPillow        InventoryKind = "pillow"
	InventoryKindTablecloth    InventoryKind = "tablecloth"
	InventoryKindBedSet        InventoryKind = "bedSet"
)

var validInventoryKinds = []InventoryKind{
	InventoryKindTulle,
	InventoryKindCurtains,
	InventoryKindBlanket,
	InventoryKindMattress,
	InventoryKindPillowcase,
	InventoryKindMattressCover,
	InventoryKindDuvetCover,
	InventoryKindWaffleTowel,
	InventoryKindTerryTowel,
	InventoryKindSheet,
	InventoryKindCover,
	InventoryKindPillow,
	InventoryKindTablecloth,
	InventoryKindBedSet,
}

// Ukrainian display labels used by spreadsheet exports.
var inventoryKindLabels = map[InventoryKind]string{
	InventoryKindTulle:         "Тюль",
	InventoryKindCurtains:      "Штори",
	InventoryKindBlanket:       "Ковдра",
	InventoryKindMattress:      "Матрац",
	InventoryKindPillowcase:    "Наволочки",
	InventoryKindMattressCover: "Чохол",
	InventoryKindDuvetCover:    "Підковдра",
	InventoryKindWaffleTowel:   "Рушник вафельний",
	InventoryKindTerryTowel:    "Рушник махровий",
	InventoryKindSheet:         "Простирадла",
	InventoryKindCover:         "Покривала",
	InventoryKindPillow:        "Подушка",
	InventoryKindTablecloth:    "Скатертина",
	InventoryKindBedSet:        "К-т білизни",
}

// InventoryKinds returns the canonical kinds in declaration order.
func InventoryKinds() []InventoryKind {
	out := make([]InventoryKind, len(validInventoryKinds))
	copy(out, validInventoryKinds)
	return out
}

// IsValid reports whether the value matches the canonical inventory kind enum.
func (k InventoryKind) IsValid() bool {
	for _, candidate := range validInventoryKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Label returns the display label, falling back to the raw value.
func (k InventoryKind) Label() string {
	if label, ok := inventoryKindLabels[k]; ok {
		return label
	}
	return string(k)
}

func (k InventoryKind) String() string {
	return string(k)
}

// ParseInventoryKind converts the raw string to InventoryKind.
func ParseInventoryKind(value string) (InventoryKind, error) {
	for _, candidate := range validInventoryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory kind %q", value)
}

package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInventoryKind(t *testing.T) {
	kind, err := ParseInventoryKind("mattressCover")
	require.NoError(t, err)
	assert.Equal(t, InventoryKindMattressCover, kind)

	_, err = ParseInventoryKind("Mattress")
	require.Error(t, err)

	_, err = ParseInventoryKind("")
	require.Error(t, err)
}

func TestInventoryKindsAreValidAndLabelled(t *testing.T) {
	kinds := InventoryKinds()
	require.Len(t, kinds, 14)
	for _, kind := range kinds {
		assert.True(t, kind.IsValid(), kind)
		assert.NotEqual(t, string(kind), kind.Label(), "missing label for %s", kind)
	}

	kinds[0] = "mutated"
	assert.Equal(t, InventoryKindTulle, InventoryKinds()[0])
}

func TestInventoryKindLabelFallsBackToRawValue(t *testing.T) {
	assert.Equal(t, "Матрац", InventoryKindMattress.Label())
	assert.Equal(t, "unknown", InventoryKind("unknown").Label())
	assert.False(t, InventoryKind("unknown").IsValid())
}

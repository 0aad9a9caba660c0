package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemByID(t *testing.T) {
	item, ok := ItemByID("gold_pack_large")
	require.True(t, ok)
	assert.Equal(t, 3, item.GemCost)
	assert.Equal(t, 10000, item.GoldGrant)

	_, ok = ItemByID("mystery_box")
	assert.False(t, ok)
}

func TestCatalogEntriesAreConsistent(t *testing.T) {
	items := Items()
	require.NotEmpty(t, items)

	seen := map[string]bool{}
	for _, item := range items {
		assert.False(t, seen[item.ID], item.ID)
		seen[item.ID] = true
		// Every entry costs something and grants something.
		assert.Positive(t, item.GoldCost+item.GemCost, item.ID)
		assert.Positive(t, item.GoldGrant+item.GemGrant+item.ExpGrant, item.ID)
	}
}

func TestItemsReturnsACopy(t *testing.T) {
	items := Items()
	items[0].GoldCost = 1

	fresh, ok := ItemByID(items[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, 1, fresh.GoldCost)
}

package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitCost_ReferenceChain(t *testing.T) {
	// baseCost=10: 10, ceil(11.8)=12, ceil(13.924)=14
	assert.Equal(t, 10.0, UnitCost(10, 0))
	assert.Equal(t, 12.0, UnitCost(10, 1))
	assert.Equal(t, 14.0, UnitCost(10, 2))
}

func TestUnitCost_StrictlyIncreasing(t *testing.T) {
	bases := []float64{1, 10, 100, 1_200, 15_000}
	for _, base := range bases {
		for n := 0; n < 60; n++ {
			require.Greater(t, UnitCost(base, n+1), UnitCost(base, n),
				"base=%v n=%d", base, n)
		}
	}
}

func TestBulkCost_MatchesPerTermSum(t *testing.T) {
	for _, owned := range []int{0, 3, 17} {
		for q := 0; q <= 25; q++ {
			want := 0.0
			for i := 0; i < q; i++ {
				want += UnitCost(10, owned+i)
			}
			assert.Equal(t, want, BulkCost(10, owned, q), "owned=%d q=%d", owned, q)
		}
	}
}

func TestBulkCost_ZeroQuantity(t *testing.T) {
	assert.Equal(t, 0.0, BulkCost(10, 5, 0))
}

func TestMaxAffordable_Boundary(t *testing.T) {
	for _, budget := range []float64{0, 9, 10, 73, 100, 5_000} {
		q := MaxAffordable(10, 0, budget)
		assert.LessOrEqual(t, BulkCost(10, 0, q), budget, "budget=%v", budget)
		assert.Greater(t, BulkCost(10, 0, q+1), budget, "budget=%v", budget)
	}
}

func TestMaxAffordable_ReferenceScenario(t *testing.T) {
	// 10+12+14+17+20 = 73, the 6th unit costs 23 for 96 total, the 7th
	// costs 27 and would overshoot 100.
	require.Equal(t, 73.0, BulkCost(10, 0, 5))
	require.Equal(t, 23.0, UnitCost(10, 5))
	assert.Equal(t, 6, MaxAffordable(10, 0, 100))
	assert.Equal(t, 0, MaxAffordable(10, 0, 9))
}

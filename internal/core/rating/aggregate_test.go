package rating

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompute_PlainMean(t *testing.T) {
	agg := Compute([]int{5, 3, 4})
	require.Equal(t, 4.0, agg.AverageRating)
	require.Equal(t, int64(3), agg.ReviewCount)
}

func TestCompute_HalfStarMean(t *testing.T) {
	agg := Compute([]int{5, 4})
	require.Equal(t, 4.5, agg.AverageRating)
	require.Equal(t, int64(2), agg.ReviewCount)
}

func TestCompute_RoundsToTwoPlaces(t *testing.T) {
	// 13/3 = 4.333...
	agg := Compute([]int{5, 4, 4})
	require.Equal(t, 4.33, agg.AverageRating)

	// 14/3 = 4.666... rounds half-up
	agg = Compute([]int{5, 5, 4})
	require.Equal(t, 4.67, agg.AverageRating)
}

func TestCompute_EmptyIsZero(t *testing.T) {
	agg := Compute(nil)
	require.True(t, agg.IsZero())
	require.Equal(t, 0.0, agg.AverageRating)
	require.Equal(t, int64(0), agg.ReviewCount)
}

func TestFromMean_NormalizesRawAverage(t *testing.T) {
	agg := FromMean(4.333333333333333, 3)
	require.Equal(t, 4.33, agg.AverageRating)
	require.Equal(t, int64(3), agg.ReviewCount)
}

func TestFromMean_ZeroCountIgnoresMean(t *testing.T) {
	// A stale mean with no qualifying reviews must collapse to Zero.
	require.Equal(t, Zero, FromMean(4.2, 0))
}

func TestFromSum_ZeroCount(t *testing.T) {
	require.Equal(t, Zero, FromSum(0, 0))
}

package rating

import "github.com/shopspring/decimal"

// averagePlaces is the decimal precision aggregates are stored with.
// Keeping writes at a fixed precision makes repeated reconciliation runs
// byte-identical: the same review set always produces the same row values.
const averagePlaces = 2

// Aggregate is the (average_rating, review_count) pair summarizing a
// restaurant's non-deleted reviews. The zero value is the correct aggregate
// for a restaurant with no qualifying reviews.
type Aggregate struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

// Zero is the aggregate written for restaurants with no qualifying reviews.
var Zero = Aggregate{}

// IsZero reports whether the aggregate is the no-reviews aggregate.
func (a Aggregate) IsZero() bool {
	return a.ReviewCount == 0 && a.AverageRating == 0
}

// FromSum builds an aggregate from a rating sum over count reviews.
// The mean is a plain arithmetic average, rounded half-up to two places.
func FromSum(sum, count int64) Aggregate {
	if count <= 0 {
		return Zero
	}
	avg := decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), averagePlaces)
	return Aggregate{
		AverageRating: avg.InexactFloat64(),
		ReviewCount:   count,
	}
}

// FromMean normalizes a raw floating mean (such as a document-store $avg
// result) to the stored precision. Count 0 always yields Zero, never a NaN
// or a stale mean.
func FromMean(mean float64, count int64) Aggregate {
	if count <= 0 {
		return Zero
	}
	avg := decimal.NewFromFloat(mean).Round(averagePlaces)
	return Aggregate{
		AverageRating: avg.InexactFloat64(),
		ReviewCount:   count,
	}
}

// Compute returns the aggregate over individual star ratings.
func Compute(ratings []int) Aggregate {
	if len(ratings) == 0 {
		return Zero
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	return FromSum(sum, int64(len(ratings)))
}

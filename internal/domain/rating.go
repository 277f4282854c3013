package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrRatingOutOfRange is returned for ratings outside [1,5].
var ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")

var (
	minRating = decimal.NewFromInt(1)
	maxRating = decimal.NewFromInt(5)
)

// Rating is a customer's rating of a product, between 1 and 5.
type Rating uint8

// NewRating validates r and returns it as a Rating.
func NewRating(r int) (Rating, error) {
	if r < 1 || r > 5 {
		return 0, fmt.Errorf("%w: %d", ErrRatingOutOfRange, r)
	}
	return Rating(r), nil
}

// UnmarshalJSON rejects out-of-range ratings.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewRating(v)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// AverageRating is the mean rating of a product and the number of ratings
// behind it. A zero count means "no ratings" and the mean is ignored.
type AverageRating struct {
	mean  decimal.Decimal
	count uint64
}

// NewAverageRating validates the mean when count > 0.
func NewAverageRating(mean decimal.Decimal, count uint64) (AverageRating, error) {
	if count == 0 {
		return AverageRating{}, nil
	}
	if mean.LessThan(minRating) || mean.GreaterThan(maxRating) {
		return AverageRating{}, fmt.Errorf("%w: average %s", ErrRatingOutOfRange, mean)
	}
	return AverageRating{mean: mean, count: count}, nil
}

// Mean returns the average rating, or false when there are no ratings.
func (a AverageRating) Mean() (decimal.Decimal, bool) {
	if a.count == 0 {
		return decimal.Decimal{}, false
	}
	return a.mean, true
}

// Count returns the number of ratings.
func (a AverageRating) Count() uint64 { return a.count }

// Compare orders by mean only; "no ratings" sorts below any rating.
func (a AverageRating) Compare(b AverageRating) int {
	switch {
	case a.count == 0 && b.count == 0:
		return 0
	case a.count == 0:
		return -1
	case b.count == 0:
		return 1
	}
	return a.mean.Cmp(b.mean)
}

func (a AverageRating) String() string {
	if a.count == 0 {
		return "No ratings"
	}
	return a.mean.StringFixed(1)
}

type averageRatingJSON struct {
	Mean  *decimal.Decimal `json:"mean,omitempty"`
	Count uint64           `json:"count"`
}

// MarshalJSON omits the mean when there are no ratings.
func (a AverageRating) MarshalJSON() ([]byte, error) {
	out := averageRatingJSON{Count: a.count}
	if mean, ok := a.Mean(); ok {
		out.Mean = &mean
	}
	return json.Marshal(out)
}

package deal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(hours int) time.Time { return t0.Add(time.Duration(hours) * time.Hour) }

func until(hours int) *time.Time {
	t := at(hours)
	return &t
}

func TestSpecialOfferActiveAt(t *testing.T) {
	o := SpecialOffer{Deal: Batch(3, 2), ValidFrom: at(0), ValidUntil: until(10)}

	assert.False(t, o.ActiveAt(at(-1)))
	assert.True(t, o.ActiveAt(at(0)), "start is inclusive")
	assert.True(t, o.ActiveAt(at(9)))
	assert.False(t, o.ActiveAt(at(10)), "end is exclusive")

	open := SpecialOffer{ValidFrom: at(0)}
	assert.True(t, open.ActiveAt(at(10000)))
}

func TestSpecialOfferOverlaps(t *testing.T) {
	tests := []struct {
		name   string
		a, b   SpecialOffer
		expect bool
	}{
		{
			name:   "disjoint",
			a:      SpecialOffer{ValidFrom: at(0), ValidUntil: until(5)},
			b:      SpecialOffer{ValidFrom: at(6), ValidUntil: until(8)},
			expect: false,
		},
		{
			name:   "touching windows do not overlap",
			a:      SpecialOffer{ValidFrom: at(0), ValidUntil: until(5)},
			b:      SpecialOffer{ValidFrom: at(5), ValidUntil: until(8)},
			expect: false,
		},
		{
			name:   "nested",
			a:      SpecialOffer{ValidFrom: at(0), ValidUntil: until(10)},
			b:      SpecialOffer{ValidFrom: at(2), ValidUntil: until(3)},
			expect: true,
		},
		{
			name:   "open ended after start",
			a:      SpecialOffer{ValidFrom: at(0)},
			b:      SpecialOffer{ValidFrom: at(100), ValidUntil: until(101)},
			expect: true,
		},
		{
			name:   "open ended before start",
			a:      SpecialOffer{ValidFrom: at(100)},
			b:      SpecialOffer{ValidFrom: at(0), ValidUntil: until(100)},
			expect: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.expect, tt.b.Overlaps(tt.a))
		})
	}
}

func TestSpecialOfferValidate(t *testing.T) {
	tests := []struct {
		name      string
		offer     SpecialOffer
		expectErr error
	}{
		{
			name:  "valid",
			offer: SpecialOffer{Deal: Discount(dec("8")), ValidFrom: at(0), ValidUntil: until(1), LimitPerCustomer: u32(2)},
		},
		{
			name:      "empty window",
			offer:     SpecialOffer{Deal: Discount(dec("8")), ValidFrom: at(1), ValidUntil: until(1)},
			expectErr: ErrInvalidWindow,
		},
		{
			name:      "zero limit",
			offer:     SpecialOffer{Deal: Discount(dec("8")), ValidFrom: at(0), LimitPerCustomer: u32(0)},
			expectErr: ErrOutOfRange,
		},
		{
			name:      "no discount",
			offer:     SpecialOffer{Deal: Discount(dec("12")), ValidFrom: at(0)},
			expectErr: ErrNoDiscount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.offer.Validate(dec("10"))
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSpecialOfferValidateNormalizes(t *testing.T) {
	o := SpecialOffer{Deal: BatchPrice(1, dec("6")), ValidFrom: at(0)}
	require.NoError(t, o.Validate(dec("10")))
	assert.Equal(t, KindDiscount, o.Deal.Kind)
}

func TestSpecialOfferApply(t *testing.T) {
	p := dec("4")
	limited := SpecialOffer{Deal: Batch(3, 2), LimitPerCustomer: u32(2)}

	final, uses := limited.Apply(9, p, false, 0)
	assert.Equal(t, uint32(2), uses)
	assert.True(t, final.Equal(dec("28")))

	final, uses = limited.Apply(9, p, false, 1)
	assert.Equal(t, uint32(1), uses)
	assert.True(t, final.Equal(dec("32")))

	final, uses = limited.Apply(9, p, false, 5)
	assert.Equal(t, uint32(0), uses)
	assert.True(t, final.Equal(dec("36")))

	members := SpecialOffer{Deal: Discount(dec("3")), MembersOnly: true}
	final, uses = members.Apply(2, p, false, 0)
	assert.Equal(t, uint32(0), uses)
	assert.True(t, final.Equal(dec("8")))

	final, uses = members.Apply(2, p, true, 0)
	assert.Equal(t, uint32(2), uses)
	assert.True(t, final.Equal(dec("6")))
}

func TestRemainingUses(t *testing.T) {
	assert.Nil(t, SpecialOffer{}.RemainingUses(3))

	o := SpecialOffer{LimitPerCustomer: u32(3)}
	assert.Equal(t, uint32(2), *o.RemainingUses(1))
	assert.Equal(t, uint32(0), *o.RemainingUses(7))
}

package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 {
	return &v
}

var now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestComputeFinalPriceNoDiscount(t *testing.T) {
	got, err := ComputeFinalPrice(Input{BasePrice: 6000, Currency: "INR", GSTPercentage: 18}, now)
	assert.Nil(t, err)
	assert.Equal(t, 7080.00, got)
}

func TestComputeFinalPricePercentageDiscount(t *testing.T) {
	valid := now.Add(24 * time.Hour)
	got, err := ComputeFinalPrice(Input{
		BasePrice:          1000,
		DiscountPercentage: f64(20),
		DiscountValidUntil: &valid,
		GSTPercentage:      18,
	}, now)
	assert.Nil(t, err)
	assert.Equal(t, 944.00, got)
}

func TestComputeFinalPriceDeterministic(t *testing.T) {
	in := Input{BasePrice: 4999.99, DiscountAmount: f64(500), GSTPercentage: 18, OtherCharges: 99}
	first, err := ComputeFinalPrice(in, now)
	assert.Nil(t, err)
	second, err := ComputeFinalPrice(in, now)
	assert.Nil(t, err)
	assert.Equal(t, first, second)
}

func TestComputeFinalPriceExpiredDiscount(t *testing.T) {
	expired := now.Add(-time.Minute)
	in := Input{BasePrice: 2500, DiscountPercentage: f64(50), DiscountValidUntil: &expired, GSTPercentage: 18}
	withExpired, err := ComputeFinalPrice(in, now)
	assert.Nil(t, err)

	none, err := ComputeFinalPrice(Input{BasePrice: 2500, GSTPercentage: 18}, now)
	assert.Nil(t, err)
	assert.Equal(t, none, withExpired)
}

func TestComputeFinalPriceDiscountBoundary(t *testing.T) {
	until := now
	in := Input{BasePrice: 1000, DiscountPercentage: f64(10), DiscountValidUntil: &until}
	got, err := ComputeFinalPrice(in, now)
	assert.Nil(t, err)
	// validity window is exclusive of the boundary instant
	assert.Equal(t, 1000.00, got)
}

func TestComputeFinalPriceNonNegative(t *testing.T) {
	got, err := ComputeFinalPrice(Input{BasePrice: 100, DiscountAmount: f64(100), GSTPercentage: 18}, now)
	assert.Nil(t, err)
	assert.Equal(t, 0.00, got)
}

func TestComputeFinalPriceFlatChargesAfterTaxes(t *testing.T) {
	got, err := ComputeFinalPrice(Input{BasePrice: 1000, GSTPercentage: 18, ServiceTaxPercent: 2, OtherCharges: 50}, now)
	assert.Nil(t, err)
	assert.Equal(t, 1250.00, got)
}

func TestComputeFinalPriceRoundsHalfUp(t *testing.T) {
	// 333.33 * 1.18 = 393.3294 -> 393.33
	got, err := ComputeFinalPrice(Input{BasePrice: 333.33, GSTPercentage: 18}, now)
	assert.Nil(t, err)
	assert.Equal(t, 393.33, got)

	// 100.125 carries an exact half at the third decimal; it rounds up
	got, err = ComputeFinalPrice(Input{BasePrice: 100.125}, now)
	assert.Nil(t, err)
	assert.Equal(t, 100.13, got)
}

func TestComputeFinalPriceInvalidInputs(t *testing.T) {
	cases := []struct {
		name  string
		in    Input
		field string
	}{
		{"negative base", Input{BasePrice: -1}, "base_price"},
		{"percentage above 100", Input{BasePrice: 100, DiscountPercentage: f64(120)}, "discount_percentage"},
		{"negative percentage", Input{BasePrice: 100, DiscountPercentage: f64(-5)}, "discount_percentage"},
		{"amount above base", Input{BasePrice: 100, DiscountAmount: f64(150)}, "discount_amount"},
		{"both discounts", Input{BasePrice: 100, DiscountPercentage: f64(10), DiscountAmount: f64(10)}, "discount"},
		{"negative gst", Input{BasePrice: 100, GSTPercentage: -1}, "gst_percentage"},
		{"negative other charges", Input{BasePrice: 100, OtherCharges: -10}, "other_charges"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeFinalPrice(tc.in, now)
			assert.NotNil(t, err)
			verr, ok := err.(*ValidationError)
			assert.True(t, ok)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestNormalizeDiscountedMatchesCanonical(t *testing.T) {
	valid := now.Add(time.Hour)
	// sticker price 800 on a base of 1000 is the same as a fixed 200 discount
	normalized, err := NormalizeDiscounted(Input{BasePrice: 1000, GSTPercentage: 18}, true, 800, &valid)
	assert.Nil(t, err)

	fromSticker, err := ComputeFinalPrice(normalized, now)
	assert.Nil(t, err)
	canonical, err := ComputeFinalPrice(Input{
		BasePrice:          1000,
		DiscountAmount:     f64(200),
		DiscountValidUntil: &valid,
		GSTPercentage:      18,
	}, now)
	assert.Nil(t, err)
	assert.Equal(t, canonical, fromSticker)
}

func TestNormalizeDiscountedNotDiscounted(t *testing.T) {
	normalized, err := NormalizeDiscounted(Input{BasePrice: 1000, DiscountPercentage: f64(10)}, false, 0, nil)
	assert.Nil(t, err)
	assert.Nil(t, normalized.DiscountPercentage)
	assert.Nil(t, normalized.DiscountAmount)
}

func TestNormalizeDiscountedInvalidSticker(t *testing.T) {
	_, err := NormalizeDiscounted(Input{BasePrice: 1000}, true, 1200, nil)
	assert.NotNil(t, err)
	_, err = NormalizeDiscounted(Input{BasePrice: 1000}, true, -1, nil)
	assert.NotNil(t, err)
}

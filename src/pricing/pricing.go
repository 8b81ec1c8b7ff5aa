package pricing

import (
	"fmt"
	"math"
	"time"
)

// ValidationError reports a structurally invalid pricing input. Malformed
// inputs are never clamped; only the computed result is floored at zero.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Input is the canonical pricing representation. The older site data carried
// two shapes for discounts; both are converted to this form before any
// arithmetic happens, so there is exactly one discount and rounding code path.
type Input struct {
	BasePrice          float64
	Currency           string
	DiscountPercentage *float64
	DiscountAmount     *float64
	DiscountValidUntil *time.Time
	GSTPercentage      float64
	ServiceTaxPercent  float64
	OtherCharges       float64
}

// NormalizeDiscounted converts the "discounted sticker price" shape
// (isDiscounted + discountPrice) into the canonical fixed-amount form.
func NormalizeDiscounted(in Input, isDiscounted bool, discountPrice float64, validUntil *time.Time) (Input, error) {
	out := in
	out.DiscountPercentage = nil
	out.DiscountAmount = nil
	out.DiscountValidUntil = nil
	if !isDiscounted {
		return out, nil
	}
	if discountPrice < 0 || discountPrice > in.BasePrice {
		return Input{}, &ValidationError{Field: "discount_price", Message: "must be between 0 and base price"}
	}
	amount := in.BasePrice - discountPrice
	out.DiscountAmount = &amount
	out.DiscountValidUntil = validUntil
	return out, nil
}

// ComputeFinalPrice computes the payable amount for a service: apply a
// currently-valid discount to the base price, add percentage taxes on the
// post-discount amount, add flat charges, round half-up to 2 decimals.
// The caller supplies now; the system clock is never read here.
func ComputeFinalPrice(in Input, now time.Time) (float64, error) {
	if err := validate(in); err != nil {
		return 0, err
	}

	amount := in.BasePrice
	if discountActive(in, now) {
		if in.DiscountPercentage != nil {
			amount -= in.BasePrice * (*in.DiscountPercentage) / 100
		} else if in.DiscountAmount != nil {
			amount -= *in.DiscountAmount
		}
		if amount < 0 {
			amount = 0
		}
	}

	total := amount
	total += amount * in.GSTPercentage / 100
	total += amount * in.ServiceTaxPercent / 100
	total += in.OtherCharges

	if total < 0 {
		total = 0
	}
	return Round2(total), nil
}

func validate(in Input) error {
	if in.BasePrice < 0 {
		return &ValidationError{Field: "base_price", Message: "must not be negative"}
	}
	if in.DiscountPercentage != nil && in.DiscountAmount != nil {
		return &ValidationError{Field: "discount", Message: "percentage and amount are mutually exclusive"}
	}
	if in.DiscountPercentage != nil {
		pct := *in.DiscountPercentage
		if pct < 0 || pct > 100 {
			return &ValidationError{Field: "discount_percentage", Message: "must be between 0 and 100"}
		}
	}
	if in.DiscountAmount != nil {
		amt := *in.DiscountAmount
		if amt < 0 || amt > in.BasePrice {
			return &ValidationError{Field: "discount_amount", Message: "must be between 0 and base price"}
		}
	}
	if in.GSTPercentage < 0 {
		return &ValidationError{Field: "gst_percentage", Message: "must not be negative"}
	}
	if in.ServiceTaxPercent < 0 {
		return &ValidationError{Field: "service_tax_percentage", Message: "must not be negative"}
	}
	if in.OtherCharges < 0 {
		return &ValidationError{Field: "other_charges", Message: "must not be negative"}
	}
	return nil
}

// discountActive reports whether a discount exists and its validity window,
// if any, has not lapsed. An expired window means no discount, not an error.
func discountActive(in Input, now time.Time) bool {
	if in.DiscountPercentage == nil && in.DiscountAmount == nil {
		return false
	}
	if in.DiscountValidUntil != nil && !now.Before(*in.DiscountValidUntil) {
		return false
	}
	return true
}

// Round2 rounds half-up to 2 decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

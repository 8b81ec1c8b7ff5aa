package models

import (
	"dsb/src/types"
	"time"
)

// ServicePricing is embedded into Service. FinalPrice is a display cache only;
// every amount charged is recomputed from the other fields at booking time.
type ServicePricing struct {
	BasePrice          float64    `json:"base_price"`
	Currency           string     `json:"currency,omitempty"`
	DiscountPercentage *float64   `json:"discount_percentage,omitempty"`
	DiscountAmount     *float64   `json:"discount_amount,omitempty"`
	DiscountValidUntil *time.Time `json:"discount_valid_until,omitempty"`
	GSTPercentage      float64    `json:"gst_percentage,omitempty"`
	ServiceTaxPercent  float64    `json:"service_tax_percentage,omitempty"`
	OtherCharges       float64    `json:"other_charges,omitempty"`
	FinalPrice         float64    `json:"final_price"`
}

type Service struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	Slug        string            `gorm:"index" json:"slug,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Features    types.StringArray `gorm:"type:jsonb" json:"features,omitempty"`
	Category    types.ServiceType `gorm:"default:'training'" json:"category"`
	Pricing     ServicePricing    `gorm:"embedded;embeddedPrefix:pricing_" json:"pricing"`
	IsActive    bool              `gorm:"default:true" json:"is_active"`
	Priority    int               `json:"priority"`

	Bookings []Booking `json:"bookings,omitempty"`

	types.Timestamps
}

func (s *Service) Scheduled() bool {
	return s.Category == types.SERVICE_TRAINING
}

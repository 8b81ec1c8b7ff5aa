package models

import (
	"dsb/src/types"
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	ServiceID   uint              `json:"service_id,omitempty"`
	ServiceType types.ServiceType `json:"service_type,omitempty"`
	ReferenceID uuid.UUID         `gorm:"type:uuid;index" json:"reference_id,omitempty"`

	// Customer snapshot copied from the form at creation time. Later edits to
	// any learner profile never alter historical bookings.
	CustomerName    string `json:"customer_name,omitempty"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`
	Notes           string `json:"notes,omitempty"`

	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`

	Status        types.BookingStatus `gorm:"default:'pending'" json:"status,omitempty"`
	PaymentStatus types.PaymentStatus `gorm:"default:'pending'" json:"payment_status,omitempty"`

	Amount   float64              `json:"amount"`
	Currency string               `json:"currency,omitempty"`
	Gateway  types.PaymentGateway `json:"gateway,omitempty"`

	// PaymentDetails is set if and only if PaymentStatus is paid.
	PaymentDetails types.JSONB `gorm:"type:jsonb" json:"payment_details,omitempty"`

	Service *Service `gorm:"foreignKey:service_id" json:"service,omitempty"`

	types.Timestamps
}

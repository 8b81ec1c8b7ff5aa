package models

import (
	"dsb/src/types"

	"github.com/google/uuid"
)

// Transaction rows are append-only. A refund is a new row referencing the same
// booking, never an edit of the payment row.
type Transaction struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	BookingID uint
	ServiceID uint
	Type      types.TransactionType `gorm:"default:'payment'"`
	Amount    float64
	Currency  string
	Status    types.TransactionStatus `gorm:"default:'pending'"`
	Gateway   types.PaymentGateway

	// GatewayTransactionID is the idempotency key for webhook retries.
	GatewayTransactionID *string `gorm:"uniqueIndex"`
	GatewayOrderID       *string
	GatewaySignature     *string

	Metadata types.JSONB `gorm:"type:jsonb"`

	types.Timestamps

	Booking Booking `gorm:"foreignKey:booking_id" json:"-"`
}

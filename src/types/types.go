package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *StringArray) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type ServiceType string

const (
	SERVICE_TRAINING ServiceType = "training"
	SERVICE_ONLINE   ServiceType = "online"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_COMPLETED BookingStatus = "completed"
	BOOKING_CANCELED  BookingStatus = "cancelled"
	BOOKING_REFUNDED  BookingStatus = "refunded"
)

type PaymentStatus string

const (
	PAYMENT_PENDING  PaymentStatus = "pending"
	PAYMENT_PAID     PaymentStatus = "paid"
	PAYMENT_FAILED   PaymentStatus = "failed"
	PAYMENT_REFUNDED PaymentStatus = "refunded"
)

type TransactionStatus string

const (
	TRANSACTION_PENDING  TransactionStatus = "pending"
	TRANSACTION_SUCCESS  TransactionStatus = "success"
	TRANSACTION_FAILED   TransactionStatus = "failed"
	TRANSACTION_CANCELED TransactionStatus = "cancelled"
)

type TransactionType string

const (
	TRANSACTION_PAYMENT        TransactionType = "payment"
	TRANSACTION_REFUND         TransactionType = "refund"
	TRANSACTION_PARTIAL_REFUND TransactionType = "partial_refund"
)

type PaymentGateway string

const (
	GATEWAY_RAZORPAY PaymentGateway = "razorpay"
	GATEWAY_STRIPE   PaymentGateway = "stripe"
)

type APIEnv string

const (
	Local      APIEnv = "local"
	Test       APIEnv = "test"
	Production APIEnv = "production"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type ServicePricingBody struct {
	BasePrice          float64  `json:"base_price" binding:"gte=0"`
	Currency           string   `json:"currency" binding:"required,oneof=INR USD"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty" binding:"omitempty,gte=0,lte=100"`
	DiscountAmount     *float64 `json:"discount_amount,omitempty" binding:"omitempty,gte=0"`
	DiscountValidUntil *string  `json:"discount_valid_until,omitempty" binding:"omitempty" time_format:"2006-01-02 15:04:05 -07:00"`
	IsDiscounted       *bool    `json:"is_discounted,omitempty"`
	DiscountPrice      *float64 `json:"discount_price,omitempty" binding:"omitempty,gte=0"`
	GSTPercentage      float64  `json:"gst_percentage,omitempty" binding:"gte=0"`
	ServiceTaxPercent  float64  `json:"service_tax_percentage,omitempty" binding:"gte=0"`
	OtherCharges       float64  `json:"other_charges,omitempty" binding:"gte=0"`
}

type UpsertServiceRequestBody struct {
	ID          uint               `json:"id,omitempty"`
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description,omitempty"`
	Features    []string           `json:"features,omitempty"`
	Category    string             `json:"category" binding:"required,oneof=training online"`
	Pricing     ServicePricingBody `json:"pricing" binding:"required"`
	Priority    int                `json:"priority,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
}

type CreateBookingRequestBody struct {
	ServiceID       uint    `json:"service_id" binding:"required"`
	CustomerName    string  `json:"customer_name" binding:"required"`
	CustomerEmail   string  `json:"customer_email" binding:"required"`
	CustomerPhone   string  `json:"customer_phone" binding:"required"`
	CustomerAddress string  `json:"customer_address,omitempty" binding:"omitempty,max=200"`
	Notes           string  `json:"notes,omitempty" binding:"omitempty,max=500"`
	ScheduledDate   *string `json:"scheduled_date,omitempty" binding:"omitempty,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Gateway         string  `json:"gateway,omitempty" binding:"omitempty,oneof=razorpay stripe"`
}

type RefundRequestBody struct {
	Amount float64 `json:"amount,omitempty" binding:"omitempty,gt=0"`
	Reason string  `json:"reason,omitempty"`
}

type UpsertInstructorRequestBody struct {
	ID            uint     `json:"id,omitempty"`
	Name          string   `json:"name" binding:"required"`
	LicenseNumber string   `json:"license_number" binding:"required"`
	Experience    uint     `json:"experience_years,omitempty"`
	Vehicles      []string `json:"vehicles,omitempty"`
	Photo         string   `json:"photo,omitempty"`
}

type CreateTestimonialRequestBody struct {
	Author   string `json:"author" binding:"required"`
	Content  string `json:"content" binding:"required,max=1000"`
	Rating   uint8  `json:"rating" binding:"required,gte=1,lte=5"`
	Priority int    `json:"priority,omitempty"`
}

type UpdateSettingsRequestBody struct {
	SchoolName   string `json:"school_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty" binding:"omitempty,email"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Address      string `json:"address,omitempty"`
	MapsURL      string `json:"maps_url,omitempty"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

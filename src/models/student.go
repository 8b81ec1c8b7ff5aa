package models

import "dsb/src/types"

type Student struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `json:"name"`
	Email string `gorm:"index" json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	Bookings []Booking `gorm:"-" json:"bookings,omitempty"`

	types.Timestamps
}

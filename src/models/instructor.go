package models

import "dsb/src/types"

type Instructor struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	Name          string            `json:"name"`
	LicenseNumber string            `json:"license_number,omitempty"`
	Experience    uint              `json:"experience_years,omitempty"`
	Vehicles      types.StringArray `gorm:"type:jsonb" json:"vehicles,omitempty"`
	Photo         string            `json:"photo,omitempty"`
	IsActive      bool              `gorm:"default:true" json:"is_active"`

	types.Timestamps
}

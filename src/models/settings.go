package models

import "dsb/src/types"

// SiteSettings is a single-row table edited from the admin panel.
type SiteSettings struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	SchoolName   string `json:"school_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Address      string `json:"address,omitempty"`
	MapsURL      string `json:"maps_url,omitempty"`

	types.Timestamps
}

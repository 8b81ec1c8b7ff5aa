package models

import "dsb/src/types"

type Testimonial struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Author   string `json:"author"`
	Content  string `json:"content"`
	Rating   uint8  `json:"rating"`
	Priority int    `json:"priority"`
	Approved bool   `gorm:"default:false" json:"approved"`

	types.Timestamps
}

package models

import "dsb/src/types"

type AdminUser struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	Name         string `json:"name,omitempty"`
	PasswordHash string `json:"-"`
	UID          string `json:"uid,omitempty"`
	Role         string `gorm:"default:'admin'" json:"role,omitempty"`

	types.Timestamps
}

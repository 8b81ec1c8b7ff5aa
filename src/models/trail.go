package models

import (
	"dsb/src/types"

	"github.com/google/uuid"
)

type TrailLog struct {
	ID        uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Action    string
	Target    string
	Initiator string

	types.Timestamps
}

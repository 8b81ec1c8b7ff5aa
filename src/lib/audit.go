package lib

import (
	"log"

	"dsb/src/db"
	"dsb/src/models"

	"github.com/google/uuid"
)

// Audit writes one trail row per admin or payment mutation. The result only
// says whether the row landed; callers never fail on it.
func Audit(action string, target string) bool {
	return AuditAs("system", action, target)
}

func AuditAs(initiator string, action string, target string) bool {
	conn := db.GetDb()
	if conn == nil {
		return false
	}
	trail := models.TrailLog{
		ID:        uuid.New(),
		Action:    action,
		Target:    target,
		Initiator: initiator,
	}
	if err := conn.Create(&trail).Error; err != nil {
		log.Printf("Could not write trail log [%s %s]: %s\n", action, target, err.Error())
		return false
	}
	return true
}

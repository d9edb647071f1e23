package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentitout/backend/internal/models"
	"gorm.io/gorm"
)

// LogAdminAction appends to the audit trail inside tx.
func LogAdminAction(tx *gorm.DB, adminID string, action models.ActionType, targetID, targetType, reason string) error {
	audit := models.AdminAction{
		ID:         uuid.New().String(),
		AdminID:    adminID,
		Action:     action,
		TargetID:   targetID,
		TargetType: targetType,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
	return tx.Create(&audit).Error
}

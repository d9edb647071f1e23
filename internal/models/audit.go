package models

import "time"

type ActionType string

const (
	ActionUpdateSetting ActionType = "UPDATE_SETTING"
	ActionRemoveListing ActionType = "REMOVE_LISTING"
	ActionChangeRole    ActionType = "CHANGE_ROLE"
)

// CLIActor marks actions taken from rentctl rather than the dashboard.
const CLIActor = "cli"

// AdminAction is one entry in the moderation audit trail.
type AdminAction struct {
	ID         string     `gorm:"primaryKey;type:text" json:"id"`
	AdminID    string     `gorm:"type:text;index" json:"adminId"`
	Action     ActionType `gorm:"type:text" json:"action"`
	TargetID   string     `gorm:"type:text" json:"targetId"`
	TargetType string     `gorm:"type:text" json:"targetType"` // "setting", "product", "user"
	Reason     string     `json:"reason"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
}

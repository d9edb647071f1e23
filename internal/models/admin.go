package models

import "time"

// SystemSettings stores global configuration toggles
type SystemSettings struct {
	Key       string    `gorm:"primaryKey;type:text" json:"key"`
	Value     string    `json:"value"`
	UpdatedBy string    `json:"updatedBy"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// System setting keys
const (
	SettingMaintenanceMode  = "maintenance_mode"
	SettingMaintenanceETA   = "maintenance_eta"
	SettingChatEnabled      = "chat_enabled"
	SettingRegistrationOpen = "registration_open"
	SettingListingsEnabled  = "listings_enabled"
)

// DashboardMetrics is a helper struct for dashboard API (not persisted)
type DashboardMetrics struct {
	TotalUsers         int64 `json:"totalUsers"`
	Buyers             int64 `json:"buyers"`
	Sellers            int64 `json:"sellers"`
	Admins             int64 `json:"admins"`
	TotalProducts      int64 `json:"totalProducts"`
	AvailableProducts  int64 `json:"availableProducts"`
	TotalMessages      int64 `json:"totalMessages"`
	ActiveListingChats int64 `json:"activeListingChats"`
	NewUsersToday      int64 `json:"newUsersToday"`
	MessagesToday      int64 `json:"messagesToday"`
}

// ActivityItem is one entry of the dashboard's recent activity feed.
type ActivityItem struct {
	Kind     string    `json:"kind"` // "user", "product", "message"
	Title    string    `json:"title"`
	At       time.Time `json:"at"`
	Relative string    `json:"relative"`
}

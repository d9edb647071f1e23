package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/middleware"
	"github.com/rentitout/backend/internal/models"
	apperrors "github.com/rentitout/backend/pkg/errors"
	"github.com/rentitout/backend/pkg/logger"
	"gorm.io/gorm"
)

const recentActivityLimit = 10

// Settings an admin may change from the dashboard.
var editableSettings = map[string]bool{
	models.SettingMaintenanceMode:  true,
	models.SettingMaintenanceETA:   true,
	models.SettingChatEnabled:      true,
	models.SettingRegistrationOpen: true,
	models.SettingListingsEnabled:  true,
}

func paging(c *gin.Context, def int) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = def
	}
	return page, limit
}

// CollectDashboardMetrics counts users, listings and chat activity.
func CollectDashboardMetrics(db *gorm.DB, now time.Time) models.DashboardMetrics {
	var m models.DashboardMetrics
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	db.Model(&models.User{}).Count(&m.TotalUsers)
	db.Model(&models.User{}).Where("role = ?", models.RoleBuyer).Count(&m.Buyers)
	db.Model(&models.User{}).Where("role = ?", models.RoleSeller).Count(&m.Sellers)
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&m.Admins)
	db.Model(&models.User{}).Where("created_at >= ?", today).Count(&m.NewUsersToday)

	db.Model(&models.Product{}).Count(&m.TotalProducts)
	db.Model(&models.Product{}).Where("available = ?", true).Count(&m.AvailableProducts)

	db.Model(&models.ChatMessage{}).Count(&m.TotalMessages)
	db.Model(&models.ChatMessage{}).Where("created_at >= ?", today).Count(&m.MessagesToday)
	db.Model(&models.ChatMessage{}).Distinct("product_id").Count(&m.ActiveListingChats)

	return m
}

// RecentActivity merges the newest sign-ups, listings and messages.
func RecentActivity(db *gorm.DB, now time.Time, limit int) []models.ActivityItem {
	var users []models.User
	db.Order("created_at desc").Limit(limit).Find(&users)
	var products []models.Product
	db.Order("created_at desc").Limit(limit).Find(&products)
	var msgs []models.ChatMessage
	db.Order("created_at desc, id desc").Limit(limit).Find(&msgs)

	items := make([]models.ActivityItem, 0, len(users)+len(products)+len(msgs))
	for _, u := range users {
		items = append(items, models.ActivityItem{Kind: "user", Title: u.Name + " joined as " + string(u.Role), At: u.CreatedAt})
	}
	for _, p := range products {
		items = append(items, models.ActivityItem{Kind: "product", Title: "New listing: " + p.Name, At: p.CreatedAt})
	}
	for _, msg := range msgs {
		items = append(items, models.ActivityItem{Kind: "message", Title: "Message on listing #" + strconv.FormatUint(uint64(msg.ProductID), 10), At: msg.CreatedAt})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].At.After(items[j].At) })
	if len(items) > limit {
		items = items[:limit]
	}
	for i := range items {
		items[i].Relative = humanize.RelTime(items[i].At, now, "ago", "from now")
	}
	return items
}

func AdminGetDashboard(c *gin.Context) {
	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"metrics":  CollectDashboardMetrics(database.DB, now),
		"activity": RecentActivity(database.DB, now, recentActivityLimit),
	})
}

// AdminListProducts lists every listing with its seller.
func AdminListProducts(c *gin.Context) {
	page, limit := paging(c, 50)

	products := []models.Product{}
	var total int64
	query := database.DB.Model(&models.Product{})
	query.Count(&total)
	if err := query.Preload("Seller").Order("created_at desc, id desc").Offset((page - 1) * limit).Limit(limit).Find(&products).Error; err != nil {
		_ = c.Error(apperrors.Internal("Failed to fetch products"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"pagination": gin.H{"page": page, "limit": limit, "total": total},
	})
}

// AdminListUsers supports ?search= over email and name, and ?role=.
func AdminListUsers(c *gin.Context) {
	page, limit := paging(c, 20)

	users := []models.User{}
	var total int64
	query := database.DB.Model(&models.User{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ? OR id = ?", pattern, pattern, search)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	query.Count(&total)
	if err := query.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		_ = c.Error(apperrors.Internal("Failed to fetch users"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func AdminGetSystemSettings(c *gin.Context) {
	var settings []models.SystemSettings
	database.DB.Find(&settings)

	settingsMap := make(map[string]string, len(settings))
	for _, s := range settings {
		settingsMap[s.Key] = s.Value
	}
	c.JSON(http.StatusOK, gin.H{"settings": settingsMap})
}

func AdminUpdateSystemSettings(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(err.Error()))
		return
	}
	if !editableSettings[req.Key] {
		_ = c.Error(apperrors.BadRequest("Invalid setting key"))
		return
	}

	setting := models.SystemSettings{
		Key:       req.Key,
		Value:     req.Value,
		UpdatedBy: middleware.CurrentUserID(c),
		UpdatedAt: time.Now(),
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&setting).Error; err != nil {
			return err
		}
		return database.LogAdminAction(tx, setting.UpdatedBy, models.ActionUpdateSetting, req.Key, "setting", req.Value)
	})
	if err != nil {
		_ = c.Error(apperrors.Internal("Failed to update setting"))
		return
	}

	logger.Info().Str("admin_id", setting.UpdatedBy).Str("key", req.Key).Str("value", req.Value).Msg("System setting changed")
	c.JSON(http.StatusOK, gin.H{"message": "Setting updated", "setting": setting})
}

// AdminListAuditLog returns the audit trail, newest first. ?action= filters.
func AdminListAuditLog(c *gin.Context) {
	page, limit := paging(c, 50)

	actions := []models.AdminAction{}
	var total int64
	query := database.DB.Model(&models.AdminAction{})
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}

	query.Count(&total)
	if err := query.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&actions).Error; err != nil {
		_ = c.Error(apperrors.Internal("Failed to fetch audit log"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"actions": actions,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// PublicGetSystemStatus exposes the toggles the frontend needs before login.
func PublicGetSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": gin.H{
		models.SettingMaintenanceMode:  database.GetSetting(models.SettingMaintenanceMode),
		models.SettingMaintenanceETA:   database.GetSetting(models.SettingMaintenanceETA),
		models.SettingChatEnabled:      database.IsFeatureEnabled(models.SettingChatEnabled, true),
		models.SettingRegistrationOpen: database.IsFeatureEnabled(models.SettingRegistrationOpen, true),
	}})
}

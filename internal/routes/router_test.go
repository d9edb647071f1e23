package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/config"
	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/handlers"
	"github.com/rentitout/backend/internal/messaging"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/internal/realtime"
	"github.com/rentitout/backend/internal/repository"
	"github.com/rentitout/backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{JWTSecret: "test-secret", FrontendURL: "http://localhost:5173"}

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	database.DB = db
	t.Cleanup(func() { sqlDB.Close() })

	hub := realtime.NewHub(0)
	handlers.InitMessaging(messaging.NewService(repository.NewChatMessages(db, hub), repository.NewProducts(db)), hub)
	return NewRouter()
}

func call(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func user(t *testing.T, id string, role models.Role) string {
	t.Helper()
	require.NoError(t, database.DB.Create(&models.User{ID: id, Name: id, Email: id + "@example.com", Role: role}).Error)
	token, err := utils.GenerateToken(id, string(role))
	require.NoError(t, err)
	return token
}

func TestRouter_ListingChatFlow(t *testing.T) {
	r := setup(t)
	u1 := user(t, "U1", models.RoleBuyer)
	u2 := user(t, "U2", models.RoleSeller)

	// Buyers cannot publish listings.
	w := call(r, http.MethodPost, "/api/products", u1, gin.H{"name": "Veil", "category": "bridal-accessories", "price": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(r, http.MethodPost, "/api/products", u2, gin.H{"name": "Lehenga", "category": "bridal-attire", "price": 40})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Product models.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	path := "/api/chat/threads/" + jsonNumber(created.Product.ID)

	w = call(r, http.MethodPost, path+"/messages", u1, gin.H{"content": "Is this available?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(r, http.MethodGet, "/api/chat/listings", u2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Lehenga"`)

	w = call(r, http.MethodGet, path, u2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"senderId":"U1"`)
	assert.Contains(t, w.Body.String(), `Is this available?`)

	// Chat switched off by an admin.
	require.NoError(t, database.DB.Create(&models.SystemSettings{Key: models.SettingChatEnabled, Value: "false"}).Error)
	w = call(r, http.MethodGet, "/api/chat/listings", u2, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r := setup(t)

	w := call(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)

	w = call(r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rentitout_http_requests_total")
}

func TestRouter_AdminRequiresRole(t *testing.T) {
	r := setup(t)
	buyer := user(t, "buyer", models.RoleBuyer)
	admin := user(t, "admin", models.RoleAdmin)

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/admin/dashboard", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/admin/dashboard", buyer, nil).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/admin/dashboard", admin, nil).Code)
}

func jsonNumber(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

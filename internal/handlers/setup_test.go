package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/config"
	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/messaging"
	"github.com/rentitout/backend/internal/middleware"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/internal/realtime"
	"github.com/rentitout/backend/internal/repository"
	"github.com/rentitout/backend/pkg/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB points the handlers at a fresh in-memory SQLite database and
// a messaging service backed by it.
func SetupTestDB(t *testing.T) *realtime.Hub {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{JWTSecret: "test-secret", R2BucketName: "rentitout-test", R2PublicURL: "https://cdn.example.com"}

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	database.DB = db
	t.Cleanup(func() { sqlDB.Close() })

	hub := realtime.NewHub(realtime.DefaultBuffer)
	svc := messaging.NewService(repository.NewChatMessages(db, hub), repository.NewProducts(db),
		messaging.WithCache(messaging.NewMemoryCache(config.AppConfig.ThreadCacheTTL())))
	InitMessaging(svc, hub)
	return hub
}

func createUser(t *testing.T, id string, role models.Role) string {
	t.Helper()
	require.NoError(t, database.DB.Create(&models.User{ID: id, Name: id, Email: id + "@example.com", Role: role}).Error)
	token, err := utils.GenerateToken(id, string(role))
	require.NoError(t, err)
	return token
}

func createListing(t *testing.T, id uint, owner string) models.Product {
	t.Helper()
	p := models.Product{ID: id, Name: "Listing", Category: models.CategoryBridalAttire, PricePerDay: 40, Available: true, SellerID: owner}
	require.NoError(t, database.DB.Create(&p).Error)
	return p
}

// testRouter mounts the handlers under test behind the real auth and error
// middleware.
func testRouter(register func(authed *gin.RouterGroup, public *gin.RouterGroup)) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware())
	public := r.Group("/api")
	authed := r.Group("/api")
	authed.Use(middleware.AuthMiddleware())
	register(authed, public)
	return r
}

func doJSON(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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

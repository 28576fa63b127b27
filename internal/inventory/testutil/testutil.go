package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitfantasy/partsdesk/internal/access"
	"github.com/bitfantasy/partsdesk/internal/config"
	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"github.com/bitfantasy/partsdesk/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "partsdesk-test-secret"

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// SetupTestDB opens an isolated sqlite database file for the test and migrates all tables.
// The pool is limited to one connection so concurrent transactions serialize.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "partsdesk.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(entity.All()...); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// TestConfig returns a config with the production defaults and the test JWT secret
func TestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:             JWTSecret,
			AccessTokenExpire:  time.Hour,
			RefreshTokenExpire: 24 * time.Hour,
			Issuer:             "partsdesk-test",
		},
		Inventory: config.InventoryConfig{
			DefaultThreshold:  entity.DefaultLowStockThreshold,
			PriceTolerance:    0.01,
			RecentSalesLimit:  5,
			ReactivateRetired: true,
		},
	}
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid access token for testing
func GenerateTestToken(userID, name string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"roles": roles,
		"iss":   "partsdesk-test",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// AdminToken returns a token for the default admin role
func AdminToken() string {
	return GenerateTestToken("test-admin", "Test Admin", []string{access.RoleAdmin})
}

// ClerkToken returns a token for the default user role
func ClerkToken() string {
	return GenerateTestToken("test-clerk", "Test Clerk", []string{access.RoleUser})
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedCategory creates an active category
func SeedCategory(t *testing.T, db *gorm.DB, name string) *entity.Category {
	t.Helper()
	c := &entity.Category{ID: uuid.New().String(), Name: entity.NormalizeName(name), State: entity.LifecycleActive}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}
	return c
}

// SeedModel creates an active model in the category
func SeedModel(t *testing.T, db *gorm.DB, category *entity.Category, name string) *entity.MobileModel {
	t.Helper()
	m := &entity.MobileModel{ID: uuid.New().String(), Name: entity.NormalizeName(name), CategoryID: category.ID, State: entity.LifecycleActive}
	if err := db.Omit("Category").Create(m).Error; err != nil {
		t.Fatalf("Failed to seed model: %v", err)
	}
	return m
}

// SeedPart creates an active part for the model
func SeedPart(t *testing.T, db *gorm.DB, model *entity.MobileModel, name, partType string, price float64, quantity int) *entity.Part {
	t.Helper()
	p := &entity.Part{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      partType,
		Price:     price,
		Quantity:  quantity,
		Threshold: entity.DefaultLowStockThreshold,
		State:     entity.LifecycleActive,
	}
	p.AssignModel(model)
	if err := db.Omit("Model", "Category").Create(p).Error; err != nil {
		t.Fatalf("Failed to seed part: %v", err)
	}
	return p
}

// ReloadPart reads the part row directly
func ReloadPart(t *testing.T, db *gorm.DB, id string) *entity.Part {
	t.Helper()
	var p entity.Part
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		t.Fatalf("Failed to reload part %s: %v", id, err)
	}
	return &p
}

// CountRows counts rows in a table
func CountRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/greenloop/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuthTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Invitation{}))

	handler := NewAuthHandler(db)
	router := gin.New()
	router.POST("/api/auth/signup", handler.Signup)
	router.POST("/api/auth/login", handler.Login)
	router.POST("/api/auth/refresh", handler.RefreshToken)

	return db, router
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSignupAndLogin(t *testing.T) {
	db, router := setupAuthTest(t)

	rec := postJSON(t, router, "/api/auth/signup", gin.H{
		"email":      "new@example.com",
		"password":   "Gr33nLoop!",
		"first_name": "New",
		"last_name":  "Joiner",
		"department": "Engineering",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "new@example.com").Error)
	assert.Equal(t, 1, user.Level)
	assert.NotEqual(t, "Gr33nLoop!", user.PasswordHash, "password must be stored hashed")

	rec = postJSON(t, router, "/api/auth/login", gin.H{
		"email":    "new@example.com",
		"password": "Gr33nLoop!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	rec = postJSON(t, router, "/api/auth/refresh", gin.H{
		"refresh_token": resp.Tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	_, router := setupAuthTest(t)

	rec := postJSON(t, router, "/api/auth/signup", gin.H{
		"email":      "weak@example.com",
		"password":   "alllowercase1",
		"first_name": "Weak",
		"last_name":  "Password",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	_, router := setupAuthTest(t)

	payload := gin.H{
		"email":      "dup@example.com",
		"password":   "Gr33nLoop!",
		"first_name": "First",
		"last_name":  "User",
	}
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/auth/signup", payload).Code)
	assert.Equal(t, http.StatusConflict, postJSON(t, router, "/api/auth/signup", payload).Code)
}

func TestLoginRejectsBadCredentialsAndInactive(t *testing.T) {
	db, router := setupAuthTest(t)

	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/auth/signup", gin.H{
		"email":      "user@example.com",
		"password":   "Gr33nLoop!",
		"first_name": "Some",
		"last_name":  "User",
	}).Code)

	rec := postJSON(t, router, "/api/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "WrongPass1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, db.Model(&models.User{}).
		Where("email = ?", "user@example.com").
		Update("is_active", false).Error)

	rec = postJSON(t, router, "/api/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "Gr33nLoop!",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefreshRejectsInvalidToken(t *testing.T) {
	_, router := setupAuthTest(t)

	rec := postJSON(t, router, "/api/auth/refresh", gin.H{
		"refresh_token": "not-a-token",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

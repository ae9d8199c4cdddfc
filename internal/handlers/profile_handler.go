package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"github.com/greenloop/backend/internal/services/email"
	"github.com/greenloop/backend/internal/services/progression"
	"github.com/greenloop/backend/internal/storage"
	"github.com/greenloop/backend/internal/utils"
	"gorm.io/gorm"
)

// ProfileHandler serves the authenticated user's own account endpoints
type ProfileHandler struct {
	db           *gorm.DB
	progression  *progression.ProgressionService
	store        *storage.LocalStore
	emailService *email.EmailService
	policy       utils.PasswordPolicy
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(db *gorm.DB, prog *progression.ProgressionService, store *storage.LocalStore, emailService *email.EmailService) *ProfileHandler {
	return &ProfileHandler{
		db:           db,
		progression:  prog,
		store:        store,
		emailService: emailService,
		policy:       utils.DefaultPasswordPolicy(),
	}
}

// GetProfile returns the user's account with level progression
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"progression": h.progression.ProgressFor(&user),
	})
}

// UpdateProfileRequest holds the editable profile fields
type UpdateProfileRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Department *string `json:"department"`
	JobTitle   *string `json:"job_title"`
}

// UpdateProfile applies partial updates to the editable fields
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Department != nil {
		updates["department"] = *req.Department
	}
	if req.JobTitle != nil {
		updates["job_title"] = *req.JobTitle
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// UpdatePasswordRequest changes the account password
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// UpdatePassword verifies the current password and sets a new one
func (h *ProfileHandler) UpdatePassword(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if !utils.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	if err := h.policy.ValidatePassword(req.NewPassword, user.Email); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	if err := h.db.Model(&user).Update("password_hash", hashedPassword).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	if err := h.emailService.SendPasswordChangedEmail(user.Email, user.FirstName); err != nil {
		log.Printf("password changed email failed for %s: %v", user.Email, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// UploadAvatar replaces the user's avatar, deleting the previous file
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Avatar file is required"})
		return
	}

	if err := h.store.ValidateImage(file); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer src.Close()

	filename := utils.GenerateUploadFilename(userID, file.Filename)
	storagePath, err := h.store.Upload(storage.BucketAvatars, filename, src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store avatar"})
		return
	}

	newURL := h.store.PublicURL(storagePath)
	oldURL := user.AvatarURL

	if err := h.db.Model(&user).Update("avatar_url", newURL).Error; err != nil {
		log.Printf("avatar update failed after upload, orphaned file %s: %v", storagePath, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update avatar"})
		return
	}

	// Best effort removal of the replaced file
	if oldURL != "" {
		if oldPath, ok := h.store.PathFromURL(oldURL); ok {
			if err := h.store.Delete(oldPath); err != nil {
				log.Printf("failed to delete previous avatar %s: %v", oldPath, err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Avatar updated", "avatar_url": newURL})
}

// ExportData returns the user's full data as a JSON download
func (h *ProfileHandler) ExportData(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var logs []models.UserAction
	if err := h.db.Where("user_id = ?", userID).Order("completed_at DESC").
		Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect action logs"})
		return
	}

	var participations []models.ChallengeParticipant
	if err := h.db.Where("user_id = ?", userID).Find(&participations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect challenge data"})
		return
	}

	var claims []models.UserLevelReward
	if err := h.db.Where("user_id = ?", userID).Find(&claims).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect reward claims"})
		return
	}

	var notifications []models.Notification
	if err := h.db.Where("user_id = ?", userID).Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect notifications"})
		return
	}

	filename := fmt.Sprintf("greenloop-export-%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, gin.H{
		"exported_at":   time.Now(),
		"user":          user,
		"action_logs":   logs,
		"challenges":    participations,
		"reward_claims": claims,
		"notifications": notifications,
	})
}

// DeactivateAccount soft-disables the account. History is retained so
// team and company aggregates stay consistent.
func (h *ProfileHandler) DeactivateAccount(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	result := h.db.Model(&models.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Update("is_active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate account"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Account is already deactivated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deactivated"})
}

// GetProgression returns the user's level standing
func (h *ProfileHandler) GetProgression(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"progression": h.progression.ProgressFor(&user)})
}

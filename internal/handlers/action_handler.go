package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"github.com/greenloop/backend/internal/services/approval"
	"github.com/greenloop/backend/internal/storage"
	"github.com/greenloop/backend/internal/utils"
	"gorm.io/gorm"
)

// ActionHandler serves the action catalogue, user proposals and
// completion logging
type ActionHandler struct {
	db       *gorm.DB
	approval *approval.ApprovalService
	store    *storage.LocalStore
}

// NewActionHandler creates a new action handler
func NewActionHandler(db *gorm.DB, approvalService *approval.ApprovalService, store *storage.LocalStore) *ActionHandler {
	return &ActionHandler{
		db:       db,
		approval: approvalService,
		store:    store,
	}
}

// ListActions returns the active action catalogue, optionally filtered
// by category
func (h *ActionHandler) ListActions(c *gin.Context) {
	query := h.db.Where("is_active = ?", true)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var actions []models.SustainabilityAction
	if err := query.Order("title ASC").Find(&actions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch actions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

// GetAction returns a single catalogue entry
func (h *ActionHandler) GetAction(c *gin.Context) {
	actionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action ID"})
		return
	}

	var action models.SustainabilityAction
	if err := h.db.First(&action, "id = ?", actionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Action not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": action, "status": action.Status()})
}

// ProposeActionRequest is a user-submitted catalogue proposal. Point and
// CO2 values are assigned by the reviewing admin, never by the submitter.
type ProposeActionRequest struct {
	Title                string                `json:"title" binding:"required"`
	Description          string                `json:"description" binding:"required"`
	Category             models.ActionCategory `json:"category" binding:"required"`
	VerificationRequired bool                  `json:"verification_required"`
}

// ProposeAction creates an inactive, user-submitted action pending review
func (h *ActionHandler) ProposeAction(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req ProposeActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !validCategory(req.Category) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unknown action category"})
		return
	}

	action := models.SustainabilityAction{
		Title:                req.Title,
		Slug:                 slugFor(req.Title),
		Description:          req.Description,
		Category:             req.Category,
		IsActive:             false,
		IsUserCreated:        true,
		VerificationRequired: req.VerificationRequired,
		SubmittedByID:        &userID,
	}

	if err := h.db.Create(&action).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit proposal"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Proposal submitted for review",
		"action":  action,
	})
}

// LogCompletion records a completion with mandatory photo evidence. The
// photo is validated before anything is written; if the log insert fails
// after the upload the orphaned file path is logged for reconciliation.
func (h *ActionHandler) LogCompletion(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	actionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action ID"})
		return
	}

	photo, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo evidence is required"})
		return
	}

	if err := h.store.ValidateImage(photo); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	notes := c.PostForm("notes")

	// Check the parent action before writing any bytes so a rejected
	// upload leaves nothing behind
	var action models.SustainabilityAction
	if err := h.db.First(&action, "id = ? AND is_active = ?", actionID, true).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Action not found"})
		return
	}
	if action.VerificationRequired && notes == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Notes are required for this action"})
		return
	}

	src, err := photo.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer src.Close()

	filename := utils.GenerateUploadFilename(userID, photo.Filename)
	storagePath, err := h.store.Upload(storage.BucketActionPhotos, filename, src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store photo"})
		return
	}

	userAction, err := h.approval.LogCompletion(approval.LogCompletionInput{
		UserID:   userID,
		ActionID: actionID,
		Notes:    notes,
		PhotoURL: h.store.PublicURL(storagePath),
	})
	if err != nil {
		// The photo is already on disk; log the path so it can be
		// cleaned up manually
		log.Printf("completion log failed after upload, orphaned file %s: %v", storagePath, err)
		switch {
		case errors.Is(err, approval.ErrNotesRequired):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, approval.ErrPhotoRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log completion"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Completion logged, pending review",
		"log":     userAction,
	})
}

// MyLogs returns the authenticated user's completion history
func (h *ActionHandler) MyLogs(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var logs []models.UserAction
	if err := h.db.Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(100).
		Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func validCategory(category models.ActionCategory) bool {
	switch category {
	case models.ActionCategoryEnergy, models.ActionCategoryTransport,
		models.ActionCategoryWaste, models.ActionCategoryWater,
		models.ActionCategoryFood, models.ActionCategoryOther:
		return true
	}
	return false
}

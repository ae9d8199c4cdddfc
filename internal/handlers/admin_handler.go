package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"github.com/greenloop/backend/internal/services/approval"
	"github.com/greenloop/backend/internal/services/email"
	"github.com/greenloop/backend/internal/utils"
	"gorm.io/gorm"
)

// invitationTTL is how long an emailed invitation link stays valid
const invitationTTL = 7 * 24 * time.Hour

// AdminHandler serves the review workflow, invitations and the audit trail
type AdminHandler struct {
	db           *gorm.DB
	approval     *approval.ApprovalService
	emailService *email.EmailService
	activity     *utils.ActivityLogger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, approvalService *approval.ApprovalService, emailService *email.EmailService) *AdminHandler {
	return &AdminHandler{
		db:           db,
		approval:     approvalService,
		emailService: emailService,
		activity:     utils.NewActivityLogger(db),
	}
}

// PendingProposals lists user-submitted actions awaiting review
func (h *AdminHandler) PendingProposals(c *gin.Context) {
	proposals, err := h.approval.PendingProposals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending proposals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// PendingLogs lists completion logs awaiting review
func (h *AdminHandler) PendingLogs(c *gin.Context) {
	logs, err := h.approval.PendingLogs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// ApproveProposalRequest carries the values the admin assigns at approval
type ApproveProposalRequest struct {
	PointsValue int     `json:"points_value" binding:"required,min=1"`
	CO2Impact   float64 `json:"co2_impact" binding:"min=0"`
}

// ApproveProposal activates a proposed action and credits the submitter
func (h *AdminHandler) ApproveProposal(c *gin.Context) {
	adminID := c.MustGet("user_id").(uuid.UUID)

	actionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action ID"})
		return
	}

	var req ApproveProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := h.approval.ApproveProposal(actionID, adminID, req.PointsValue, req.CO2Impact)
	if err != nil {
		respondApprovalError(c, err, "Action")
		return
	}

	h.logActivity(c, adminID, utils.ActivityActionApprove, utils.ResourceTypeAction, action.ID, map[string]interface{}{
		"points_value": req.PointsValue,
		"co2_impact":   req.CO2Impact,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Proposal approved", "action": action})
}

// RejectRequest carries the mandatory rejection reason
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectProposal rejects a proposed action with a reason
func (h *AdminHandler) RejectProposal(c *gin.Context) {
	adminID := c.MustGet("user_id").(uuid.UUID)

	actionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action ID"})
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := h.approval.RejectProposal(actionID, adminID, req.Reason)
	if err != nil {
		respondApprovalError(c, err, "Action")
		return
	}

	h.logActivity(c, adminID, utils.ActivityActionReject, utils.ResourceTypeAction, action.ID, map[string]interface{}{
		"reason": req.Reason,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Proposal rejected", "action": action})
}

// ApproveLog approves a completion log and credits the user
func (h *AdminHandler) ApproveLog(c *gin.Context) {
	adminID := c.MustGet("user_id").(uuid.UUID)

	logID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log ID"})
		return
	}

	userAction, err := h.approval.ApproveLog(logID, adminID)
	if err != nil {
		respondApprovalError(c, err, "Completion log")
		return
	}

	h.logActivity(c, adminID, utils.ActivityActionApprove, utils.ResourceTypeActionLog, userAction.ID, map[string]interface{}{
		"points_earned": userAction.PointsEarned,
		"co2_saved":     userAction.CO2Saved,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Completion approved", "log": userAction})
}

// RejectLog rejects a completion log without touching any totals
func (h *AdminHandler) RejectLog(c *gin.Context) {
	adminID := c.MustGet("user_id").(uuid.UUID)

	logID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log ID"})
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userAction, err := h.approval.RejectLog(logID, adminID, req.Reason)
	if err != nil {
		respondApprovalError(c, err, "Completion log")
		return
	}

	h.logActivity(c, adminID, utils.ActivityActionReject, utils.ResourceTypeActionLog, userAction.ID, map[string]interface{}{
		"reason": req.Reason,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Completion rejected", "log": userAction})
}

// CreateActionRequest is an admin-authored catalogue entry, active
// immediately
type CreateActionRequest struct {
	Title                string                `json:"title" binding:"required"`
	Description          string                `json:"description" binding:"required"`
	Category             models.ActionCategory `json:"category" binding:"required"`
	PointsValue          int                   `json:"points_value" binding:"required,min=1"`
	CO2Impact            float64               `json:"co2_impact" binding:"min=0"`
	VerificationRequired bool                  `json:"verification_required"`
}

// CreateAction adds an admin-authored action to the catalogue
func (h *AdminHandler) CreateAction(c *gin.Context) {
	adminID := c.MustGet("user_id").(uuid.UUID)

	var req CreateActionRequest
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
		PointsValue:          req.PointsValue,
		CO2Impact:            req.CO2Impact,
		IsActive:             true,
		VerificationRequired: req.VerificationRequired,
	}

	if err := h.db.Create(&action).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create action"})
		return
	}

	h.logActivity(c, adminID, utils.ActivityActionCreate, utils.ResourceTypeAction, action.ID, map[string]interface{}{
		"title": req.Title,
	})

	c.JSON(http.StatusCreated, gin.H{"message": "Action created", "action": action})
}

// InvitationRequest pre-provisions an account and emails a setup link
type InvitationRequest struct {
	Email      string `json:"email" binding:"required,email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	IsAdmin    bool   `json:"is_admin"`
}

// CreateInvitation creates an invitation and emails the activation link
func (h *AdminHandler) CreateInvitation(c *gin.Context) {
	adminID := c.MustGet("user_id").(uuid.UUID)

	var req InvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.User
	if result := h.db.Where("email = ? AND is_active = ?", req.Email, true).First(&existing); result.RowsAffected > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "An active account already exists for this email"})
		return
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invitation token"})
		return
	}

	invitation := models.Invitation{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Department:  req.Department,
		IsAdmin:     req.IsAdmin,
		Token:       token,
		InvitedByID: adminID,
		ExpiresAt:   time.Now().Add(invitationTTL),
	}

	if err := h.db.Create(&invitation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	if err := h.emailService.SendInvitationEmail(req.Email, req.FirstName, token); err != nil {
		// Invitation row exists; the link can be re-sent manually
		c.JSON(http.StatusCreated, gin.H{
			"message":    "Invitation created but the email could not be sent",
			"invitation": invitation,
		})
		return
	}

	h.logActivity(c, adminID, utils.ActivityActionInvite, utils.ResourceTypeInvitation, invitation.ID, map[string]interface{}{
		"email": req.Email,
	})

	c.JSON(http.StatusCreated, gin.H{"message": "Invitation sent", "invitation": invitation})
}

// ListActivity returns the admin audit trail, newest first
func (h *AdminHandler) ListActivity(c *gin.Context) {
	limit, offset := paginate(c, 50)

	resourceType := c.Query("resource_type")

	var adminFilter *uuid.UUID
	if raw := c.Query("admin_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid admin ID"})
			return
		}
		adminFilter = &id
	}

	entries, total, err := h.activity.Query(adminFilter, resourceType, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": entries, "total": total})
}

// logActivity records an admin mutation; audit failures never fail the
// request
func (h *AdminHandler) logActivity(c *gin.Context, adminID uuid.UUID, action, resourceType string, resourceID uuid.UUID, details map[string]interface{}) {
	_ = h.activity.Log(adminID, action, resourceType, &resourceID, c.ClientIP(), details)
}

// respondApprovalError maps review workflow errors onto HTTP statuses
func respondApprovalError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case errors.Is(err, approval.ErrAlreadyReviewed):
		c.JSON(http.StatusConflict, gin.H{"error": what + " has already been reviewed"})
	case errors.Is(err, approval.ErrEmptyReason):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "A rejection reason is required"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Review operation failed"})
	}
}

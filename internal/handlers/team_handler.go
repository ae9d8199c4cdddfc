package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"gorm.io/gorm"
)

// TeamHandler serves team membership and aggregate endpoints
type TeamHandler struct {
	db *gorm.DB
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(db *gorm.DB) *TeamHandler {
	return &TeamHandler{db: db}
}

// ListTeams returns all teams ordered by total points
func (h *TeamHandler) ListTeams(c *gin.Context) {
	var teams []models.Team
	if err := h.db.Order("total_points DESC").Find(&teams).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch teams"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// GetTeam returns a team with its member roster
func (h *TeamHandler) GetTeam(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team ID"})
		return
	}

	var team models.Team
	if err := h.db.First(&team, "id = ?", teamID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		return
	}

	var members []models.TeamMember
	if err := h.db.Preload("User").Where("team_id = ?", teamID).
		Order("joined_at ASC").Find(&members).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	roster := make([]gin.H, 0, len(members))
	for i := range members {
		roster = append(roster, gin.H{
			"user_id":   members[i].UserID,
			"name":      members[i].User.FullName(),
			"role":      members[i].Role,
			"points":    members[i].User.Points,
			"joined_at": members[i].JoinedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"team": team, "members": roster})
}

// CreateTeamRequest is the request body for team creation
type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Department  string `json:"department"`
}

// CreateTeam creates a team with the creator as its leader
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if user.TeamID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Leave your current team before creating one"})
		return
	}

	var existing models.Team
	if result := h.db.Where("name = ?", req.Name).First(&existing); result.RowsAffected > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A team with this name already exists"})
		return
	}

	team := models.Team{
		Name:        req.Name,
		Slug:        slugFor(req.Name),
		Description: req.Description,
		Department:  req.Department,
	}

	tx := h.db.Begin()

	if err := tx.Create(&team).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create team"})
		return
	}

	member := models.TeamMember{
		TeamID:   team.ID,
		UserID:   userID,
		Role:     models.TeamRoleLeader,
		JoinedAt: time.Now(),
	}
	if err := tx.Create(&member).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add team leader"})
		return
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("team_id", team.ID).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link user to team"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create team"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Team created", "team": team})
}

// JoinTeam adds the authenticated user to a team
func (h *TeamHandler) JoinTeam(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team ID"})
		return
	}

	var team models.Team
	if err := h.db.First(&team, "id = ?", teamID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if user.TeamID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Already a member of a team"})
		return
	}

	tx := h.db.Begin()

	member := models.TeamMember{
		TeamID:   teamID,
		UserID:   userID,
		Role:     models.TeamRoleMember,
		JoinedAt: time.Now(),
	}
	if err := tx.Create(&member).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to join team"})
		return
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("team_id", teamID).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link user to team"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join team"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Joined team", "team": team})
}

// LeaveTeam removes the authenticated user from their team
func (h *TeamHandler) LeaveTeam(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if user.TeamID == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Not a member of any team"})
		return
	}

	tx := h.db.Begin()

	if err := tx.Where("team_id = ? AND user_id = ?", *user.TeamID, userID).
		Delete(&models.TeamMember{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave team"})
		return
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("team_id", nil).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlink user from team"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave team"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left team"})
}

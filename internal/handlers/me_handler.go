package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/table-booking/internal/httperr"
	"github.com/BruksfildServices01/table-booking/internal/middleware"
	"github.com/BruksfildServices01/table-booking/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		httperr.Unauthorized(c, "user_not_in_context", "Authentication required.")
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.FromError(c, httperr.ErrBusiness("user_not_found"))
			return
		}
		httperr.Internal(c, "internal_error", "Could not load the user.")
		return
	}

	var restaurants int64
	h.db.WithContext(c.Request.Context()).
		Model(&models.Restaurant{}).
		Where("owner_id = ?", userID).
		Count(&restaurants)

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"restaurants": restaurants,
	})
}

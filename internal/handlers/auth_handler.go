package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/table-booking/internal/config"
	"github.com/BruksfildServices01/table-booking/internal/httperr"
	"github.com/BruksfildServices01/table-booking/internal/models"
	"github.com/BruksfildServices01/table-booking/internal/queue"
	"github.com/BruksfildServices01/table-booking/internal/validators"
)

type AuthHandler struct {
	db        *gorm.DB
	config    *config.Config
	publisher queue.Publisher
	log       zerolog.Logger
}

func NewAuthHandler(
	db *gorm.DB,
	cfg *config.Config,
	publisher queue.Publisher,
	log zerolog.Logger,
) *AuthHandler {
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}
	return &AuthHandler{db: db, config: cfg, publisher: publisher, log: log}
}

// --------- Requests ---------

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// --------- Handlers ---------

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Name, email and a password of at least 6 characters are required.")
		return
	}

	email := validators.NormalizeEmail(req.Email)
	if !validators.IsEmailSyntaxValid(email) {
		httperr.BadRequest(c, "invalid_email", "Email address is not valid.")
		return
	}
	if h.config.CheckEmailDomain && !validators.IsEmailDomainValid(email) {
		httperr.BadRequest(c, "invalid_email_domain", "The email domain does not accept mail.")
		return
	}

	var count int64
	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		httperr.Internal(c, "internal_error", "Could not create the account.")
		return
	}
	if count > 0 {
		httperr.FromError(c, httperr.ErrBusiness("email_already_registered"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Could not create the account.")
		return
	}

	user := models.User{
		Name:              strings.TrimSpace(req.Name),
		Email:             email,
		PasswordHash:      string(hashed),
		VerificationToken: uuid.NewString(),
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		httperr.Internal(c, "failed_to_create_user", "Could not create the account.")
		return
	}

	h.requestVerification(c.Request.Context(), &user)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. Please check your email to verify it.",
		"user":    user,
	})
}

func (h *AuthHandler) Verify(c *gin.Context) {
	token := c.Param("token")
	if _, err := uuid.Parse(token); err != nil {
		httperr.FromError(c, httperr.ErrBusiness("invalid_verification_token"))
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("verification_token = ?", token).
		Updates(map[string]any{
			"verified":           true,
			"verification_token": "",
		})
	if res.Error != nil {
		httperr.Internal(c, "internal_error", "Could not verify the account.")
		return
	}
	if res.RowsAffected == 0 {
		httperr.FromError(c, httperr.ErrBusiness("invalid_verification_token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified. You can now log in."})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Email and password are required.")
		return
	}

	email := validators.NormalizeEmail(req.Email)

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Where("email = ?", email).
		First(&user).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.FromError(c, httperr.ErrBusiness("invalid_credentials"))
			return
		}
		httperr.Internal(c, "internal_error", "Could not log in.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.FromError(c, httperr.ErrBusiness("invalid_credentials"))
		return
	}

	if !user.Verified {
		httperr.FromError(c, httperr.ErrBusiness("email_not_verified"))
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Could not log in.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": token,
		"user":        user,
	})
}

// --------- Notifications ---------

func (h *AuthHandler) requestVerification(ctx context.Context, user *models.User) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := h.publisher.Publish(pubCtx, queue.Event{
		Type:       queue.TypeVerificationRequested,
		OccurredAt: time.Now().UTC(),
		User: &queue.UserEvent{
			UserID:    user.ID,
			Name:      user.Name,
			Email:     user.Email,
			VerifyURL: h.config.PublicBaseURL + "/verify/" + user.VerificationToken,
		},
	})
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", user.ID).Msg("publish verification failed")
	}
}

// --------- JWT ---------

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.config.JWTSecret))
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"evcharge-backend/internal/domains/user"
	"evcharge-backend/internal/shared/middleware"
	"evcharge-backend/internal/shared/response"
	"evcharge-backend/pkg/logger"
)

// Error codes trả về client
const (
	ErrCodeInvalidInput       = "USR001"
	ErrCodeInvalidCredentials = "USR002"
	ErrCodeEmailExists        = "USR003"
	ErrCodeUserNotFound       = "USR004"
	ErrCodeTooManyAttempts    = "USR005"
)

// UserHandler xử lý HTTP requests cho user domain
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Register xử lý POST /api/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := h.bindJSON(c, &req); err != nil {
		return
	}

	userDTO, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/users/me")
	response.Success(c, http.StatusCreated, "User registered successfully", userDTO)
}

// Login xử lý POST /api/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := h.bindJSON(c, &req); err != nil {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Login successful", res)
}

// GetProfile xử lý GET /api/users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Profile retrieved successfully", profile)
}

// handleError map domain errors thành HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	var ve *user.ValidationError

	switch {
	case errors.As(err, &ve):
		response.ErrorWithDetails(c, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid input", ve.Err)

	case errors.Is(err, user.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, err.Error())

	case errors.Is(err, user.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, ErrCodeUserNotFound, err.Error())

	case errors.Is(err, user.ErrEmailAlreadyExists):
		response.Error(c, http.StatusConflict, ErrCodeEmailExists, err.Error())

	case errors.Is(err, user.ErrTooManyAttempts):
		response.Error(c, http.StatusTooManyRequests, ErrCodeTooManyAttempts, err.Error())

	default:
		logger.Error("User request failed", err)
		response.InternalServerError(c, "Internal server error")
	}
}

func (h *UserHandler) bindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return err
	}
	return nil
}

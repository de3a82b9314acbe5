package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"evcharge-backend/internal/domains/user"
	"evcharge-backend/pkg/cache"
	"evcharge-backend/pkg/logger"
)

const (
	bcryptCost = 12

	failedLoginPrefix = "auth:failed:"
	maxFailedLogins   = 5
	failedLoginWindow = 15 * time.Minute
)

// TokenIssuer là phần của jwt.Manager mà service cần
type TokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, time.Time, error)
}

// userService implement user.Service interface
type userService struct {
	repo   user.Repository
	tokens TokenIssuer
	cache  cache.Cache
	cost   int
	now    func() time.Time
}

func NewUserService(repo user.Repository, tokens TokenIssuer, cache cache.Cache) user.Service {
	return &userService{
		repo:   repo,
		tokens: tokens,
		cache:  cache,
		cost:   bcryptCost,
		now:    time.Now,
	}
}

// ========================================
// AUTHENTICATION
// ========================================

// Register tạo user mới với role customer
func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	req.Email = user.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, &user.ValidationError{Err: err}
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, user.ErrEmailAlreadyExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	newUser := &user.User{
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		FullName:     req.FullName,
		Role:         user.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// race giữa ExistsByEmail và INSERT vẫn trả ErrEmailAlreadyExists nhờ UNIQUE(email)
	id, err := s.repo.Create(ctx, newUser)
	if err != nil {
		return nil, err
	}
	newUser.ID = id

	logger.Info("User registered", map[string]interface{}{
		"user_id": id.String(),
	})

	dto := newUser.ToDTO()
	return &dto, nil
}

// Login xác thực user và trả về JWT access token.
//
// Edge Cases:
//   - Email không tồn tại và sai password trả cùng ErrInvalidCredentials
//   - Quá maxFailedLogins lần sai trong failedLoginWindow: ErrTooManyAttempts
//   - Redis lỗi: bỏ qua throttle, login vẫn chạy
func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	req.Email = user.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, &user.ValidationError{Err: err}
	}

	failedKey := failedLoginPrefix + req.Email
	var failed int64
	if found, err := s.cache.Get(ctx, failedKey, &failed); err == nil && found && failed >= maxFailedLogins {
		return nil, user.ErrTooManyAttempts
	}

	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.recordFailedLogin(ctx, failedKey)
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailedLogin(ctx, failedKey)
		return nil, user.ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(u.ID.String(), u.Email, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	_ = s.cache.Delete(ctx, failedKey)

	return &user.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        u.ToDTO(),
	}, nil
}

func (s *userService) recordFailedLogin(ctx context.Context, key string) {
	count, err := s.cache.Increment(ctx, key, failedLoginWindow)
	if err != nil {
		logger.Warn("Failed to record failed login", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if count == maxFailedLogins {
		logger.Warn("Login throttled after repeated failures", map[string]interface{}{
			"key":      key,
			"attempts": count,
		})
	}
}

// ========================================
// PROFILE
// ========================================

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*user.UserDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

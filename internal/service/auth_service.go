package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/carboni123/nanobanana/internal/config"
	"github.com/carboni123/nanobanana/internal/domain/user"
	"github.com/carboni123/nanobanana/internal/handler/dto"
	"github.com/carboni123/nanobanana/internal/ierr"
)

const tokenTypeAccess = "access"

type AccessClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type AuthService struct {
	repo   user.Repository
	cfg    *config.JWTConfig
	logger *zap.Logger
}

func NewAuthService(repo user.Repository, cfg *config.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("AuthService"),
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*dto.UserResponse, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("%w: password hashing failed: %v", ierr.ErrInternalServer, err)
	}

	created, err := s.repo.Create(ctx, &user.User{
		Email:        email,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		if errors.Is(err, ierr.ErrEmailTaken) {
			return nil, fmt.Errorf("%w: %s", ierr.ErrConflict, ierr.ErrEmailTaken)
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("repository error creating user: %w", err)
	}

	s.logger.Info("User registered", zap.String("id", created.ID.String()))
	return &dto.UserResponse{
		ID:        created.ID,
		Email:     created.Email,
		CreatedAt: created.CreatedAt,
	}, nil
}

// Login verifies credentials and mints an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ierr.ErrUserNotFound) {
			return nil, ierr.ErrInvalidCredentials
		}
		s.logger.Error("Failed to look up user for login", zap.Error(err))
		return nil, fmt.Errorf("repository error during login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ierr.ErrInvalidCredentials
	}

	token, err := s.createAccessToken(u.ID)
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return nil, fmt.Errorf("%w: token signing failed: %v", ierr.ErrInternalServer, err)
	}

	s.logger.Info("User logged in", zap.String("id", u.ID.String()))
	return &dto.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ierr.ErrUserNotFound) {
			return nil, ierr.ErrNotFound
		}
		return nil, fmt.Errorf("repository error fetching user: %w", err)
	}
	return &dto.UserResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ierr.ErrUserNotFound) {
			return ierr.ErrNotFound
		}
		return fmt.Errorf("repository error fetching user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)) != nil {
		return ierr.ErrInvalidCredentials
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: password hashing failed: %v", ierr.ErrInternalServer, err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(newHash)); err != nil {
		s.logger.Error("Failed to update password", zap.String("id", userID.String()), zap.Error(err))
		return fmt.Errorf("repository error updating password: %w", err)
	}

	s.logger.Info("User password changed", zap.String("id", userID.String()))
	return nil
}

// ValidateToken parses and verifies an access token and returns the user id
// it was issued for.
func (s *AuthService) ValidateToken(_ context.Context, rawToken string) (uuid.UUID, error) {
	var claims AccessClaims
	token, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: %v", ierr.ErrInvalidToken, err)
	}

	if claims.TokenType != tokenTypeAccess {
		return uuid.Nil, fmt.Errorf("%w: not an access token", ierr.ErrInvalidToken)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed subject", ierr.ErrInvalidToken)
	}

	return userID, nil
}

func (s *AuthService) createAccessToken(userID uuid.UUID) (string, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}

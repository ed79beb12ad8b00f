package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tutorlink/tutorlink-backend/internal/config"
	"github.com/tutorlink/tutorlink-backend/internal/model"
	"github.com/tutorlink/tutorlink-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserStore reads user accounts. Implemented by repository.UserRepository.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// Claims extends JWT standard claims with the caller's identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64      `json:"user_id"`
	Role   model.Role `json:"role"`
}

// Actor converts the claims into the explicit actor passed to services.
func (c *Claims) Actor() model.Actor {
	return model.Actor{UserID: c.UserID, Role: c.Role}
}

// AuthService handles password checks and JWT issuance.
type AuthService struct {
	cfg   *config.Config
	users UserStore
	dir   Directory
	log   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, users UserStore, dir Directory, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:   cfg,
		users: users,
		dir:   dir,
		log:   log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies email and password and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	return &model.LoginResponse{Token: token, User: *user}, nil
}

// GenerateToken signs an HS256 JWT carrying the user's ID and role.
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID: user.ID,
		Role:   user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if !claims.Role.Valid() || claims.UserID <= 0 {
		return nil, errors.New("token is missing identity")
	}

	return claims, nil
}

// Profile returns the actor's account with the profile matching their role.
func (s *AuthService) Profile(ctx context.Context, actor model.Actor) (*model.Profile, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}

	profile := &model.Profile{User: *user}
	switch user.Role {
	case model.RoleStudent:
		st, err := s.dir.StudentByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, ErrStudentNotFound) {
			return nil, err
		}
		profile.Student = st
	case model.RoleTeacher:
		t, err := s.dir.TeacherByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, ErrTeacherNotFound) {
			return nil, err
		}
		profile.Teacher = t
	}
	return profile, nil
}

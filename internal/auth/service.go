package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"moodplay/internal/config"
	"moodplay/internal/database"
	"moodplay/pkg/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when an email/password pair does not
	// match a stored account. Login deliberately does not distinguish
	// "unknown email" from "wrong password".
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for missing, malformed, expired or
	// tampered tokens.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrWeakPassword is returned when a password fails the minimum length
	// requirement.
	ErrWeakPassword = errors.New("password too short")
)

// TokenClaims are the JWT claims embedded in every issued access token.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service provides account management and token verification on top of the
// user store.
type Service struct {
	db     *database.Database
	config *config.AuthConfig
	logger *logrus.Logger
}

// NewService creates an auth service backed by the given database.
func NewService(db *database.Database, cfg *config.AuthConfig, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

// Signup registers a new account and returns the public user together with a
// signed token. Returns database.ErrDuplicateEmail when the email is taken.
func (s *Service) Signup(email, password, name string) (*models.User, string, error) {
	email = normalizeEmail(email)
	if err := s.checkPassword(password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	record, err := s.db.CreateUser(email, string(hash), name)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(record.ID, record.Email)
	if err != nil {
		return nil, "", err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": record.ID,
		"email":   record.Email,
	}).Info("New account registered")

	return s.publicUser(record), token, nil
}

// Login verifies credentials and returns the public user with a fresh token.
func (s *Service) Login(email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)

	record, err := s.db.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(record.ID, record.Email)
	if err != nil {
		return nil, "", err
	}

	s.logger.WithField("user_id", record.ID).Info("User logged in")
	return s.publicUser(record), token, nil
}

// VerifyToken parses and validates a bearer token, returning its claims.
func (s *Service) VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetUser returns the public user for a verified user ID.
func (s *Service) GetUser(userID string) (*models.User, error) {
	record, err := s.db.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	return s.publicUser(record), nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(userID, currentPassword, newPassword string) error {
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}

	record, err := s.db.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.UpdatePassword(userID, string(hash)); err != nil {
		return err
	}

	s.logger.WithField("user_id", userID).Info("Password changed")
	return nil
}

// DeleteAccount verifies the password and removes the account with all of
// its liked songs and playlists.
func (s *Service) DeleteAccount(userID, password string) error {
	record, err := s.db.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return s.db.DeleteUser(userID)
}

// issueToken signs a new HS256 token for the user.
func (s *Service) issueToken(userID, email string) (string, error) {
	duration, err := time.ParseDuration(s.config.TokenDuration)
	if err != nil {
		duration = 168 * time.Hour
	}

	now := time.Now()
	claims := TokenClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) checkPassword(password string) error {
	if len(password) < s.config.MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, s.config.MinPasswordLength)
	}
	return nil
}

// publicUser converts a stored record into the client-facing shape. The
// playlist and liked-song collections are loaded separately by their
// handlers; here they are returned empty rather than nil so JSON encodes
// them as arrays.
func (s *Service) publicUser(record *database.UserRecord) *models.User {
	return &models.User{
		ID:         record.ID,
		Email:      record.Email,
		Name:       record.Name,
		Playlists:  []models.Playlist{},
		LikedSongs: []models.Track{},
		CreatedAt:  record.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

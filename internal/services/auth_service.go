package services

import (
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pokefolio/pokefolio/internal/apperr"
	"github.com/pokefolio/pokefolio/internal/currency"
	"github.com/pokefolio/pokefolio/internal/models"
)

const (
	sessionTTL        = 7 * 24 * time.Hour
	resetTokenTTL     = time.Hour
	minPasswordLength = 8
)

// ErrBadCredentials covers both unknown email and wrong password so the
// login response never reveals which one failed.
var ErrBadCredentials = errors.New("invalid email or password")

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// AuthService owns accounts, sessions, and password reset tokens.
// Sessions are opaque server-side tokens carried in an httpOnly cookie.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Signup creates an account and an initial session.
func (s *AuthService) Signup(req models.SignupRequest) (*models.User, *models.Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, nil, apperr.Validationf("invalid email address")
	}
	if !usernameRe.MatchString(req.Username) {
		return nil, nil, apperr.Validationf("username must be 3-20 characters (letters, digits, underscore)")
	}
	if len(req.Password) < minPasswordLength {
		return nil, nil, apperr.Validationf("password must be at least %d characters", minPasswordLength)
	}
	cur := req.Currency
	if cur == "" {
		cur = currency.USD
	}
	if !cur.Valid() {
		return nil, nil, apperr.Validationf("currency must be USD or PHP")
	}

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, nil, apperr.Conflictf("email already registered")
	}
	s.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return nil, nil, apperr.Conflictf("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Currency:     cur,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, nil, err
	}

	session, err := s.createSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return &user, session, nil
}

// Login verifies credentials and issues a fresh session.
func (s *AuthService) Login(email, password string) (*models.User, *models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrBadCredentials
		}
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrBadCredentials
	}

	session, err := s.createSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return &user, session, nil
}

// Logout revokes the session token.
func (s *AuthService) Logout(token string) error {
	return s.db.Delete(&models.Session{}, "token = ?", token).Error
}

// UserFromSession resolves a session token to its user. Expired sessions
// are deleted on sight.
func (s *AuthService) UserFromSession(token string) (*models.User, error) {
	var session models.Session
	if err := s.db.First(&session, "token = ?", token).Error; err != nil {
		return nil, apperr.ErrAuth
	}
	if time.Now().After(session.ExpiresAt) {
		s.db.Delete(&session)
		return nil, apperr.ErrAuth
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", session.UserID).Error; err != nil {
		return nil, apperr.ErrAuth
	}
	return &user, nil
}

// RequestPasswordReset creates a reset token when the account exists. It
// never reports whether it did: callers always show the same generic
// success message, so the endpoint cannot be used to enumerate emails.
func (s *AuthService) RequestPasswordReset(email string) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return
	}

	token := models.PasswordResetToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(resetTokenTTL),
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&token).Error; err != nil {
		log.Printf("Failed to create password reset token for %s: %v", user.ID, err)
		return
	}

	// Delivery is handled out of band; the token never goes in a response.
	log.Printf("Password reset token issued for user %s", user.ID)
}

// ResetPassword consumes a valid token and rehashes the password. All
// existing sessions for the user are revoked.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperr.Validationf("password must be at least %d characters", minPasswordLength)
	}

	var reset models.PasswordResetToken
	if err := s.db.First(&reset, "token = ?", token).Error; err != nil {
		return apperr.Validationf("invalid or expired reset token")
	}
	if reset.Used || time.Now().After(reset.ExpiresAt) {
		return apperr.Validationf("invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).
			Updates(map[string]any{"password_hash": string(hash), "updated_at": time.Now()}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.PasswordResetToken{}).Where("token = ?", reset.Token).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Session{}, "user_id = ?", reset.UserID).Error
	})
}

// UpdatePreferences mutates the user's display currency and payment info.
func (s *AuthService) UpdatePreferences(userID string, req models.UpdatePreferencesRequest) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, apperr.NotFoundf("user not found")
	}

	if req.Currency != nil {
		if !req.Currency.Valid() {
			return nil, apperr.Validationf("currency must be USD or PHP")
		}
		user.Currency = *req.Currency
	}
	if req.PaymentInfo != nil {
		user.PaymentInfo = *req.PaymentInfo
	}
	user.UpdatedAt = time.Now()

	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a user by ID.
func (s *AuthService) GetUser(userID string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) createSession(userID string) (*models.Session, error) {
	session := models.Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(sessionTTL),
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

package user

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/badoux/checkmail"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxEmailLength    = 254
	minPasswordLength = 6
	maxNameLength     = 50
	bcryptCost        = 12
)

var (
	ErrInvalidEmail       = errors.New("email address is not valid")
	ErrMissingFields      = errors.New("name, email and password are required")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrNameTooLong        = fmt.Errorf("name must be at most %d characters", maxNameLength)
	ErrEmailAlreadyExists = errors.New("user already exists with this email")
	ErrInvalidOldPassword = errors.New("invalid old password")
	ErrInternalError      = errors.New("internal server error")
)

type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Balance          float64   `json:"balance"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	HashToken        string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Service interface {
	Register(name, email, password string) (*User, error)
	GetUserByID(userID string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	ChangePasswordWithOldPassword(userID, oldPassword, newPassword string) error
}

type service struct {
	repo Repository
}

func NewUserService(repo Repository) Service {
	return &service{repo: repo}
}

func hashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashedPasswordBytes), err
}

func DoPasswordsMatch(hashedPassword, currPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(currPassword))
	return err == nil
}

// generateHashToken produces the per-user secret refresh tokens are bound
// to; rotating it invalidates every outstanding refresh token.
func generateHashToken() (string, error) {
	token := make([]byte, 32)
	_, err := rand.Read(token)
	if err != nil {
		return "", fmt.Errorf("could not generate hash token: %v", err)
	}
	return hex.EncodeToString(token), nil
}

func validateEmailAddress(email string) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return ErrInvalidEmail
	}
	if len(email) > maxEmailLength {
		return ErrInvalidEmail
	}
	return nil
}

func (s *service) Register(name, email, password string) (*User, error) {
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if len(name) > maxNameLength {
		return nil, ErrNameTooLong
	}
	if err := validateEmailAddress(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	_, err := s.repo.getUserByEmail(email)
	if err == nil {
		return nil, ErrEmailAlreadyExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, ErrInternalError
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, ErrInternalError
	}

	hashToken, err := generateHashToken()
	if err != nil {
		return nil, ErrInternalError
	}

	newUser := &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		HashToken:    hashToken,
	}
	if err := s.repo.createUser(newUser); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, ErrInternalError
	}
	return newUser, nil
}

func (s *service) GetUserByID(userID string) (*User, error) {
	return s.repo.getUserByID(userID)
}

func (s *service) GetUserByEmail(email string) (*User, error) {
	return s.repo.getUserByEmail(email)
}

func (s *service) ChangePasswordWithOldPassword(userID, oldPassword, newPassword string) error {
	existingUser, err := s.repo.getUserByID(userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}

	if !DoPasswordsMatch(existingUser.PasswordHash, oldPassword) {
		return ErrInvalidOldPassword
	}
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	newPasswordHash, err := hashPassword(newPassword)
	if err != nil {
		return ErrInternalError
	}
	newHashToken, err := generateHashToken()
	if err != nil {
		return ErrInternalError
	}

	if err := s.repo.updateUserPasswordAndHashToken(userID, newPasswordHash, newHashToken); err != nil {
		return ErrInternalError
	}
	return nil
}

package auth

import (
	"errors"
	"net/http"

	"github.com/fintrackapp/fintrack/internal/user"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInternalError         = errors.New("internal server error")
	ErrUser2FANotEnabled     = errors.New("two factor auth is not enabled")
	ErrUser2FAAlreadyEnabled = errors.New("two factor auth already enabled")
	ErrInvalid2FACode        = errors.New("2fa code is invalid")
)

type TwoFactorAuthenticator interface {
	GenerateSecret(accountName string) (string, string, error)
	VerifyCode(secret, code string) bool
}

type Service interface {
	Register(name, email, password string) (*user.User, string, string, error)
	Login(email, password string) (*user.User, string, string, error)
	VerifyTwoFactor(sessionToken, code string) (*user.User, string, string, error)
	RegisterTwoFactor(userID string) (string, error)
	ConfirmTwoFactor(userID, code string) error
	DisableTwoFactor(userID, code string) error
	RefreshAccessToken(userID string) (string, string, error)
	JWTAccessTokenMiddleware() func(http.Handler) http.Handler
	JWTRefreshTokenMiddleware() func(http.Handler) http.Handler
}

type service struct {
	repo           UserRepository
	userService    user.Service
	sessionManager SessionManagerInterface
	jwtManager     JWTManagerInterface
	authenticator  TwoFactorAuthenticator
}

func NewAuthService(repo UserRepository, userService user.Service, sessionManager SessionManagerInterface, jwtManager JWTManagerInterface, authenticator TwoFactorAuthenticator) Service {
	return &service{
		repo:           repo,
		userService:    userService,
		sessionManager: sessionManager,
		jwtManager:     jwtManager,
		authenticator:  authenticator,
	}
}

// Register creates the account and signs the user in right away.
func (s *service) Register(name, email, password string) (*user.User, string, string, error) {
	newUser, err := s.userService.Register(name, email, password)
	if err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := s.issueTokens(newUser)
	if err != nil {
		return nil, "", "", ErrInternalError
	}
	return newUser, accessToken, refreshToken, nil
}

// Login checks credentials and issues an access and refresh token pair.
// When the account has a second factor enabled it returns a short-lived
// session token instead; VerifyTwoFactor completes the login.
func (s *service) Login(email, password string) (*user.User, string, string, error) {
	existingUser, err := s.userService.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", ErrInternalError
	}

	if !user.DoPasswordsMatch(existingUser.PasswordHash, password) {
		return nil, "", "", ErrInvalidCredentials
	}

	if existingUser.TwoFactorEnabled {
		sessionToken, err := s.sessionManager.GenerateSessionToken(existingUser.ID, defaultSessionTokenDuration)
		if err != nil {
			return nil, "", "", ErrInternalError
		}
		return existingUser, sessionToken, "", nil
	}

	accessToken, refreshToken, err := s.issueTokens(existingUser)
	if err != nil {
		return nil, "", "", ErrInternalError
	}
	return existingUser, accessToken, refreshToken, nil
}

func (s *service) VerifyTwoFactor(sessionToken, code string) (*user.User, string, string, error) {
	userID, err := s.sessionManager.VerifySessionToken(sessionToken)
	if err != nil {
		return nil, "", "", err
	}

	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, "", "", ErrUserNotFound
		}
		return nil, "", "", ErrInternalError
	}
	if !existingUser.TwoFactorEnabled {
		return nil, "", "", ErrUser2FANotEnabled
	}

	secret, err := s.repo.GetTwoFactorSecret(userID)
	if err != nil {
		return nil, "", "", err
	}
	if !s.authenticator.VerifyCode(secret, code) {
		return nil, "", "", ErrInvalid2FACode
	}

	s.sessionManager.DeleteSessionToken(sessionToken)

	accessToken, refreshToken, err := s.issueTokens(existingUser)
	if err != nil {
		return nil, "", "", ErrInternalError
	}
	return existingUser, accessToken, refreshToken, nil
}

// RegisterTwoFactor generates and stores a TOTP secret and returns the
// otpauth URI. The factor stays off until ConfirmTwoFactor sees a valid
// code.
func (s *service) RegisterTwoFactor(userID string) (string, error) {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", ErrInternalError
	}

	if existingUser.TwoFactorEnabled {
		return "", ErrUser2FAAlreadyEnabled
	}

	otpURI, secret, err := s.authenticator.GenerateSecret(existingUser.Email)
	if err != nil {
		return "", ErrInternalError
	}
	if err := s.repo.SaveTwoFactorSecret(userID, secret); err != nil {
		return "", ErrInternalError
	}
	return otpURI, nil
}

func (s *service) ConfirmTwoFactor(userID, code string) error {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}
	if existingUser.TwoFactorEnabled {
		return ErrUser2FAAlreadyEnabled
	}

	secret, err := s.repo.GetTwoFactorSecret(userID)
	if err != nil {
		return err
	}
	if !s.authenticator.VerifyCode(secret, code) {
		return ErrInvalid2FACode
	}

	if err := s.repo.EnableTwoFactor(userID); err != nil {
		return ErrInternalError
	}
	return nil
}

func (s *service) DisableTwoFactor(userID, code string) error {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		return ErrUserNotFound
	}
	if !existingUser.TwoFactorEnabled {
		return ErrUser2FANotEnabled
	}

	secret, err := s.repo.GetTwoFactorSecret(userID)
	if err != nil {
		return ErrInternalError
	}
	if !s.authenticator.VerifyCode(secret, code) {
		return ErrInvalid2FACode
	}

	if err := s.repo.DisableTwoFactor(userID); err != nil {
		return ErrInternalError
	}
	return nil
}

// RefreshAccessToken rotates the token pair; the refresh token itself is
// already validated by the refresh middleware.
func (s *service) RefreshAccessToken(userID string) (string, string, error) {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", "", ErrUserNotFound
		}
		return "", "", ErrInternalError
	}
	return s.issueTokens(existingUser)
}

func (s *service) issueTokens(u *user.User) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateAccessJWT(u.ID, defaultJWTDuration)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshJWT(u.ID, u.HashToken, defaultJWTRefreshDuration)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

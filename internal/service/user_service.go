package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskhub/internal/auth"
	apperrors "taskhub/internal/errors"
	"taskhub/internal/mail"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

const bcryptCost = 10

const minPasswordLength = 6

var (
	// ErrPasswordMismatch is returned when password and repeat password differ.
	ErrPasswordMismatch = apperrors.Validation("passwords must match")
	// ErrPasswordTooShort is returned when a password is shorter than the minimum.
	ErrPasswordTooShort = apperrors.Validation("password must be at least 6 characters")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = apperrors.Conflict("email already registered")
	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password so callers cannot probe which accounts exist.
	ErrInvalidCredentials = apperrors.NotFound("invalid email or password")
	// ErrUserNotFound is returned when a user lookup by id or email fails in
	// an authenticated or recovery context.
	ErrUserNotFound = apperrors.NotFound("user not found")
	// ErrMailUnavailable is returned when the mail transport probe fails.
	ErrMailUnavailable = apperrors.Internal("mail service unavailable")
	// ErrMailDeliveryFailed is returned when sending the recovery email fails.
	ErrMailDeliveryFailed = apperrors.Internal("failed to send recovery email")
	// ErrCurrentPasswordRequired is returned when the current password field is empty.
	ErrCurrentPasswordRequired = apperrors.Validation("current password is required")
	// ErrNewPasswordRequired is returned when the new password field is empty.
	ErrNewPasswordRequired = apperrors.Validation("new password is required")
	// ErrRepeatPasswordRequired is returned when the repeat password field is empty.
	ErrRepeatPasswordRequired = apperrors.Validation("repeat password is required")
	// ErrCurrentPasswordIncorrect is returned when the supplied current
	// password does not match the stored hash.
	ErrCurrentPasswordIncorrect = apperrors.Validation("current password is incorrect")
	// ErrPasswordUnchanged is returned when the new password equals the current one.
	ErrPasswordUnchanged = apperrors.Validation("new password must be different from the current password")
)

// UserService handles the credential lifecycle: registration, login,
// password recovery and password change. Plaintext passwords are never
// persisted or returned.
type UserService interface {
	Register(ctx context.Context, email, password, repeatPassword string) (*model.User, error)
	Login(ctx context.Context, email, password string) (token string, err error)
	RecoverPassword(ctx context.Context, email string) (message string, err error)
	ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword, repeatNewPassword string) (message string, err error)
}

type userService struct {
	repo       repository.UserRepository
	jwtService *auth.JWTService
	mailer     mail.Mailer
}

// NewUserService creates a new user service.
func NewUserService(repo repository.UserRepository, jwtService *auth.JWTService, mailer mail.Mailer) UserService {
	return &userService{
		repo:       repo,
		jwtService: jwtService,
		mailer:     mailer,
	}
}

// Register creates a new user with a hashed password. The password checks run
// before the uniqueness lookup so invalid input never hits the store.
func (s *userService) Register(ctx context.Context, email, password, repeatPassword string) (*model.User, error) {
	if password != repeatPassword {
		return nil, ErrPasswordMismatch
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and issues a signed session token. Unknown email
// and wrong password return the identical error.
func (s *userService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// RecoverPassword replaces the user's password with a generated one and mails
// it to them. The transport is probed before the credential is touched, so a
// dead mail server never strands a user with a password they cannot receive.
func (s *userService) RecoverPassword(ctx context.Context, email string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if err := s.mailer.Verify(); err != nil {
		return "", ErrMailUnavailable
	}

	newPassword, err := generatePassword(recoveryPasswordLength)
	if err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, user.ID, string(hashed)); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: "Password recovery",
		Body:    fmt.Sprintf("Your new password is: %s", newPassword),
	}
	if err := s.mailer.Send(msg); err != nil {
		return "", ErrMailDeliveryFailed
	}

	return "a new password has been sent to your email", nil
}

// ChangePassword verifies the current password and replaces it with a new
// one. Mismatches here are validation errors, not auth failures: the caller
// already holds a valid session.
func (s *userService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword, repeatNewPassword string) (string, error) {
	if currentPassword == "" {
		return "", ErrCurrentPasswordRequired
	}
	if newPassword == "" {
		return "", ErrNewPasswordRequired
	}
	if repeatNewPassword == "" {
		return "", ErrRepeatPasswordRequired
	}
	if newPassword != repeatNewPassword {
		return "", ErrPasswordMismatch
	}
	if len(newPassword) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return "", ErrCurrentPasswordIncorrect
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(newPassword)); err == nil {
		return "", ErrPasswordUnchanged
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, user.ID, string(hashed)); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}

	return "password changed successfully", nil
}

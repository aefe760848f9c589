package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"miniblog/internal/logger"
	"miniblog/internal/metrics"
	"miniblog/internal/models"
	"miniblog/internal/repositories"
	"miniblog/pkg/apperrors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	FirstName string `json:"first_name" form:"first_name" validate:"required,max=20"`
	LastName  string `json:"last_name" form:"last_name" validate:"required,max=20"`
	Username  string `json:"username" form:"username" validate:"required,min=2,max=20"`
	Gender    string `json:"gender" form:"gender" validate:"required,max=10"`
	Email     string `json:"email" form:"email" validate:"required,email,max=100"`
	Password  string `json:"password" form:"password" validate:"required,min=6,max=72"`
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	FirstName string `json:"first_name" form:"first_name" validate:"required,max=20"`
	LastName  string `json:"last_name" form:"last_name" validate:"required,max=20"`
	Username  string `json:"username" form:"username" validate:"required,min=2,max=20"`
	Email     string `json:"email" form:"email" validate:"required,email,max=100"`
}

// AuthService is the credential store: registration, login checks and profile updates.
type AuthService struct {
	userRepo   repositories.UserRepository
	bcryptCost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new AuthService. The bcrypt cost is fixed for the
// lifetime of the service.
func NewAuthService(userRepo repositories.UserRepository, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
	}
}

// RegisterUser creates an account after checking username and email are free.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := s.ensureAvailable(ctx, 0, in.Username, in.Email); err != nil {
		return nil, err
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Username:  in.Username,
		Gender:    in.Gender,
		Email:     in.Email,
		ImageFile: models.DefaultImageFile,
		Password:  hashed,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate returns the user owning email when plaintext matches the stored
// hash. Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, plaintext string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		// Burn the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(plaintext))
		metrics.Logins.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plaintext)); err != nil {
		metrics.Logins.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	metrics.Logins.WithLabelValues("success").Inc()
	return user, nil
}

// UpdateProfile changes names, username and email, and the avatar when
// imageFile is non-empty.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput, imageFile string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, userID, in.Username, in.Email); err != nil {
		return nil, err
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Username = in.Username
	user.Email = in.Email
	if imageFile != "" {
		user.ImageFile = imageFile
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// SetPassword stores a fresh hash of plaintext for the user.
func (s *AuthService) SetPassword(ctx context.Context, userID uint, plaintext string) error {
	hashed, err := s.hash(plaintext)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, userID, hashed)
}

func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

// ensureAvailable fails with ErrConflict when username or email belongs to a
// user other than selfID. selfID zero means a new account.
func (s *AuthService) ensureAvailable(ctx context.Context, selfID uint, username, email string) error {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	switch {
	case err == nil && existing != nil && existing.ID != selfID:
		return apperrors.Conflict("username", fmt.Sprintf("username '%s' already taken", username))
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		return err
	}

	existing, err = s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil && existing.ID != selfID:
		return apperrors.Conflict("email", fmt.Sprintf("email '%s' already registered", email))
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		return err
	}
	return nil
}

func (s *AuthService) hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.Validation("password", "password is too long")
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
	})
	return s.dummyHash
}

package services_test

import (
	"context"
	"fmt"
	"testing"

	"miniblog/internal/models"
	"miniblog/internal/services"
	"miniblog/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func registerInput() services.RegisterInput {
	return services.RegisterInput{
		FirstName: "Test",
		LastName:  "User",
		Username:  "testuser",
		Gender:    "female",
		Email:     "test@example.com",
		Password:  "password123",
	}
}

func notFound(what string) error {
	return fmt.Errorf("user %s: %w", what, apperrors.ErrNotFound)
}

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, bcrypt.MinCost)
	in := registerInput()

	// Test successful registration
	mockRepo.On("GetByUsername", ctx, in.Username).Return(nil, notFound(in.Username)).Once()
	mockRepo.On("GetByEmail", ctx, in.Email).Return(nil, notFound(in.Email)).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := authService.RegisterUser(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultImageFile, user.ImageFile)
	assert.NotEqual(t, in.Password, user.Password, "plaintext must never be stored")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)))
	mockRepo.AssertExpectations(t)

	// Test username already taken
	mockRepo.On("GetByUsername", ctx, in.Username).Return(&models.User{ID: 1}, nil).Once()
	_, err = authService.RegisterUser(ctx, in)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Contains(t, err.Error(), "username 'testuser' already taken")
	mockRepo.AssertExpectations(t)

	// Test email already registered
	mockRepo.On("GetByUsername", ctx, in.Username).Return(nil, notFound(in.Username)).Once()
	mockRepo.On("GetByEmail", ctx, in.Email).Return(&models.User{ID: 1}, nil).Once()
	_, err = authService.RegisterUser(ctx, in)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "email 'test@example.com' already registered")
	mockRepo.AssertExpectations(t)

	// Test race lost at the unique index
	mockRepo.On("GetByUsername", ctx, in.Username).Return(nil, notFound(in.Username)).Once()
	mockRepo.On("GetByEmail", ctx, in.Email).Return(nil, notFound(in.Email)).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(fmt.Errorf("insert: %w", apperrors.ErrConflict)).Once()
	_, err = authService.RegisterUser(ctx, in)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, bcrypt.MinCost)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		ID:       42,
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
	}

	// Test successful login
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	got, err := authService.Authenticate(ctx, user.Email, "password123")
	require.NoError(t, err)
	assert.Equal(t, uint(42), got.ID)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	_, wrongPwErr := authService.Authenticate(ctx, user.Email, "wrongpassword")
	assert.ErrorIs(t, wrongPwErr, apperrors.ErrInvalidCredentials)

	// Test invalid credentials (user not found)
	mockRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, notFound("nobody")).Once()
	_, noUserErr := authService.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, noUserErr, apperrors.ErrInvalidCredentials)

	// Both failures must look identical to the caller
	assert.Equal(t, wrongPwErr.Error(), noUserErr.Error())
	mockRepo.AssertExpectations(t)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, bcrypt.MinCost)

	me := &models.User{ID: 1, Username: "me", Email: "me@example.com", ImageFile: models.DefaultImageFile}
	in := services.ProfileInput{FirstName: "New", LastName: "Name", Username: "me", Email: "me@example.com"}

	// Keeping my own username and email is not a conflict
	mockRepo.On("GetByID", ctx, uint(1)).Return(me, nil).Once()
	mockRepo.On("GetByUsername", ctx, "me").Return(me, nil).Once()
	mockRepo.On("GetByEmail", ctx, "me@example.com").Return(me, nil).Once()
	mockRepo.On("UpdateProfile", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	updated, err := authService.UpdateProfile(ctx, 1, in, "avatar.png")
	require.NoError(t, err)
	assert.Equal(t, "New", updated.FirstName)
	assert.Equal(t, "avatar.png", updated.ImageFile)
	mockRepo.AssertExpectations(t)

	// Taking someone else's username is
	in.Username = "other"
	mockRepo.On("GetByID", ctx, uint(1)).Return(&models.User{ID: 1, Username: "me"}, nil).Once()
	mockRepo.On("GetByUsername", ctx, "other").Return(&models.User{ID: 2, Username: "other"}, nil).Once()
	_, err = authService.UpdateProfile(ctx, 1, in, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_SetPassword(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, bcrypt.MinCost)

	var stored string
	mockRepo.On("UpdatePassword", ctx, uint(3), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { stored = args.String(2) }).
		Return(nil).Once()

	require.NoError(t, authService.SetPassword(ctx, 3, "newpassword"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("newpassword")))
	mockRepo.AssertExpectations(t)
}

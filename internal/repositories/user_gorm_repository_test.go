package repositories_test

import (
	"context"
	"testing"

	"miniblog/internal/repositories"
	"miniblog/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGORMUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMUserRepository(newTestDB(t))

	u := newUser("alice")
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGORMUserRepository_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMUserRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, newUser("alice")))

	sameEmail := newUser("alice2")
	sameEmail.Email = "alice@example.com"
	err := repo.Create(ctx, sameEmail)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	sameName := newUser("alice")
	sameName.Email = "other@example.com"
	assert.ErrorIs(t, repo.Create(ctx, sameName), apperrors.ErrConflict)
}

func TestGORMUserRepository_UpdateProfileAndPassword(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMUserRepository(newTestDB(t))

	alice := newUser("alice")
	bob := newUser("bob")
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, bob))

	alice.FirstName = "Alicia"
	alice.ImageFile = "abc.png"
	require.NoError(t, repo.UpdateProfile(ctx, alice))

	got, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.FirstName)
	assert.Equal(t, "abc.png", got.ImageFile)
	assert.Equal(t, "$2a$04$hash", got.Password)

	alice.Email = bob.Email
	assert.ErrorIs(t, repo.UpdateProfile(ctx, alice), apperrors.ErrConflict)

	require.NoError(t, repo.UpdatePassword(ctx, alice.ID, "$2a$04$other"))
	got, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$other", got.Password)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, 9999, "x"), apperrors.ErrNotFound)
}

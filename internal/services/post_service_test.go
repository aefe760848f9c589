package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"miniblog/internal/models"
	"miniblog/internal/repositories"
	"miniblog/internal/services"
	"miniblog/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPostRepository)
	now := time.Date(2024, 6, 1, 8, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	svc := services.NewPostService(repo, new(MockUserRepository), 5).WithClock(func() time.Time { return now })
	author := &models.User{ID: 3, Username: "writer"}

	repo.On("Create", ctx, mock.AnythingOfType("*models.Post")).Return(nil).Once()

	post, err := svc.CreatePost(ctx, author, services.PostInput{Title: "T", Content: "B"})
	require.NoError(t, err)
	assert.Equal(t, uint(3), post.UserID)
	assert.Equal(t, time.UTC, post.DatePosted.Location())
	assert.True(t, now.Equal(post.DatePosted))
	assert.Same(t, author, post.Author)
	repo.AssertExpectations(t)

	_, err = svc.CreatePost(ctx, nil, services.PostInput{Title: "T"})
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)

	_, err = svc.CreatePost(ctx, author, services.PostInput{Title: "  "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreatePost(ctx, author, services.PostInput{Title: strings.Repeat("x", 101)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestPostService_UpdatePost_Authorization(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPostRepository)
	svc := services.NewPostService(repo, new(MockUserRepository), 5)

	owner := &models.User{ID: 1}
	intruder := &models.User{ID: 2}
	stored := &models.Post{ID: 9, Title: "T", Content: "B", UserID: 1}

	// Intruder is refused before any write
	repo.On("GetByID", ctx, uint(9)).Return(&models.Post{ID: 9, Title: "T", Content: "B", UserID: 1}, nil).Once()
	_, err := svc.UpdatePost(ctx, intruder, 9, services.PostInput{Title: "hacked"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)

	// Owner succeeds
	repo.On("GetByID", ctx, uint(9)).Return(stored, nil).Once()
	repo.On("Update", ctx, stored).Return(nil).Once()
	updated, err := svc.UpdatePost(ctx, owner, 9, services.PostInput{Title: "T2", Content: "B2"})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, uint(1), updated.UserID)
	repo.AssertExpectations(t)

	// Anonymous is refused without touching the repository
	_, err = svc.UpdatePost(ctx, nil, 9, services.PostInput{Title: "x"})
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)

	// Missing post
	repo.On("GetByID", ctx, uint(404)).Return(nil, fmt.Errorf("post 404: %w", apperrors.ErrNotFound)).Once()
	_, err = svc.UpdatePost(ctx, owner, 404, services.PostInput{Title: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostService_DeletePost_Authorization(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPostRepository)
	svc := services.NewPostService(repo, new(MockUserRepository), 5)

	repo.On("GetByID", ctx, uint(9)).Return(&models.Post{ID: 9, UserID: 1}, nil)

	err := svc.DeletePost(ctx, &models.User{ID: 2}, 9)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	repo.On("Delete", ctx, uint(9)).Return(nil).Once()
	assert.NoError(t, svc.DeletePost(ctx, &models.User{ID: 1}, 9))
	repo.AssertExpectations(t)
}

func TestPostService_ListPosts(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPostRepository)
	svc := services.NewPostService(repo, new(MockUserRepository), 5)

	repo.On("List", ctx, repositories.ListOptions{Offset: 0, Limit: 5}).Return(make([]models.Post, 5), int64(12), nil).Once()
	page, err := svc.ListPosts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 3, page.Pages)

	repo.On("List", ctx, repositories.ListOptions{Offset: 10, Limit: 5}).Return(make([]models.Post, 2), int64(12), nil).Once()
	page, err = svc.ListPosts(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasNext)

	repo.On("List", ctx, repositories.ListOptions{Offset: 15, Limit: 5}).Return([]models.Post{}, int64(12), nil).Once()
	_, err = svc.ListPosts(ctx, 4)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.ListPosts(ctx, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	repo.On("List", ctx, repositories.ListOptions{Offset: 0, Limit: 5}).Return([]models.Post{}, int64(0), nil).Once()
	page, err = svc.ListPosts(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	repo.AssertExpectations(t)
}

func TestPostService_ListPostsByUsername(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPostRepository)
	users := new(MockUserRepository)
	svc := services.NewPostService(repo, users, 5)

	users.On("GetByUsername", ctx, "writer").Return(&models.User{ID: 4, Username: "writer"}, nil).Once()
	repo.On("List", ctx, repositories.ListOptions{AuthorID: 4, Offset: 0, Limit: 5}).Return([]models.Post{{ID: 1, UserID: 4}}, int64(1), nil).Once()

	page, author, err := svc.ListPostsByUsername(ctx, "writer", 1)
	require.NoError(t, err)
	assert.Equal(t, "writer", author.Username)
	assert.Len(t, page.Items, 1)

	users.On("GetByUsername", ctx, "ghost").Return(nil, notFound("ghost")).Once()
	_, _, err = svc.ListPostsByUsername(ctx, "ghost", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

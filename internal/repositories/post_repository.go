package repositories

import (
	"context"

	"miniblog/internal/models"
)

// ListOptions selects a window of posts. AuthorID zero means every author.
type ListOptions struct {
	AuthorID uint
	Offset   int
	Limit    int
}

// PostRepository defines the interface for post data access.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// List returns posts newest first (date_posted, then id, descending) and the unpaged total.
	List(ctx context.Context, opts ListOptions) ([]models.Post, int64, error)
	// Update writes title and content only.
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

package repositories

import (
	"context"
	"errors"
	"fmt"

	"miniblog/internal/models"
	"miniblog/pkg/apperrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMPostRepository is a GORM implementation of PostRepository.
type GORMPostRepository struct {
	db *gorm.DB
}

// NewGORMPostRepository creates a new instance of GORMPostRepository.
func NewGORMPostRepository(db *gorm.DB) *GORMPostRepository {
	return &GORMPostRepository{
		db: db,
	}
}

// Create inserts the post without touching its Author association.
func (r *GORMPostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID retrieves a single post with its author.
func (r *GORMPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("post %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return &post, nil
}

// List returns one window of posts ordered newest first. Equal timestamps
// fall back to id descending so pages stay stable across calls.
func (r *GORMPostRepository) List(ctx context.Context, opts ListOptions) ([]models.Post, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Post{})
		if opts.AuthorID != 0 {
			q = q.Where("user_id = ?", opts.AuthorID)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	var posts []models.Post
	err := scoped().Preload("Author").
		Order("date_posted DESC").
		Order("id DESC").
		Offset(opts.Offset).
		Limit(opts.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, total, nil
}

// Update changes title and content. Author and date_posted are never written.
func (r *GORMPostRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"title":   post.Title,
		"content": post.Content,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post %d: %w", post.ID, apperrors.ErrNotFound)
	}
	return nil
}

// Delete deletes a post by its ID from the database.
func (r *GORMPostRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

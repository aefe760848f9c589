package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"miniblog/internal/models"
	"miniblog/internal/repositories"
	"miniblog/pkg/apperrors"
)

// DefaultPageSize is the number of posts per listing page.
const DefaultPageSize = 5

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title   string `json:"title" form:"title" validate:"required,max=100"`
	Content string `json:"content" form:"content"`
}

// PostService handles business logic related to posts.
type PostService struct {
	repo     repositories.PostRepository
	users    repositories.UserRepository
	pageSize int
	now      func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(repo repositories.PostRepository, users repositories.UserRepository, pageSize int) *PostService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PostService{
		repo:     repo,
		users:    users,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for date_posted.
func (s *PostService) WithClock(now func() time.Time) *PostService {
	s.now = now
	return s
}

// CreatePost stores a new post authored by actor.
func (s *PostService) CreatePost(ctx context.Context, actor *models.User, in PostInput) (*models.Post, error) {
	if actor == nil {
		return nil, apperrors.ErrAuthenticationRequired
	}
	if err := validatePost(in); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:      in.Title,
		Content:    in.Content,
		DatePosted: s.now().UTC(),
		UserID:     actor.ID,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = actor
	return post, nil
}

// GetPost retrieves a single post by its ID.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPosts returns page (1-based) of all posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, page int) (*models.Page, error) {
	return s.list(ctx, 0, page)
}

// ListPostsByUsername returns page of the posts written by username.
func (s *PostService) ListPostsByUsername(ctx context.Context, username string, page int) (*models.Page, *models.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.list(ctx, author.ID, page)
	if err != nil {
		return nil, nil, err
	}
	return p, author, nil
}

// list fails with ErrNotFound for page < 1 and for a page past the end,
// except that page 1 of an empty listing is an empty page.
func (s *PostService) list(ctx context.Context, authorID uint, page int) (*models.Page, error) {
	if page < 1 {
		return nil, fmt.Errorf("page %d: %w", page, apperrors.ErrNotFound)
	}

	posts, total, err := s.repo.List(ctx, repositories.ListOptions{
		AuthorID: authorID,
		Offset:   (page - 1) * s.pageSize,
		Limit:    s.pageSize,
	})
	if err != nil {
		return nil, err
	}
	if page > 1 && len(posts) == 0 {
		return nil, fmt.Errorf("page %d: %w", page, apperrors.ErrNotFound)
	}
	return models.NewPage(posts, page, s.pageSize, total), nil
}

// UpdatePost changes title and content after checking actor owns the post.
func (s *PostService) UpdatePost(ctx context.Context, actor *models.User, id uint, in PostInput) (*models.Post, error) {
	post, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validatePost(in); err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes the post after checking actor owns it.
func (s *PostService) DeletePost(ctx context.Context, actor *models.User, id uint) error {
	if _, err := s.editable(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// EditablePost returns the post when actor may modify it.
func (s *PostService) EditablePost(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	return s.editable(ctx, actor, id)
}

func (s *PostService) editable(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	if actor == nil {
		return nil, apperrors.ErrAuthenticationRequired
	}
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(post, actor); err != nil {
		return nil, err
	}
	return post, nil
}

func validatePost(in PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperrors.Validation("title", "title is required")
	}
	if utf8.RuneCountInString(in.Title) > models.TitleMaxLength {
		return apperrors.Validation("title", fmt.Sprintf("title must be at most %d characters", models.TitleMaxLength))
	}
	return nil
}

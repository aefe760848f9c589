package services

import (
	"miniblog/internal/models"
	"miniblog/pkg/apperrors"
)

// CanModify reports whether actor is the author of post.
func CanModify(post *models.Post, actor *models.User) bool {
	return post != nil && actor != nil && post.UserID == actor.ID
}

// RequireOwner must pass before a post is updated or deleted.
func RequireOwner(post *models.Post, actor *models.User) error {
	if actor == nil {
		return apperrors.ErrAuthenticationRequired
	}
	if !CanModify(post, actor) {
		return apperrors.ErrForbidden
	}
	return nil
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"miniblog/internal/models"
	"miniblog/internal/storage"
	"miniblog/pkg/apperrors"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// AvatarSize bounds both dimensions of a stored avatar.
const AvatarSize = 125

// MaxUploadDimension bounds both dimensions of an uploaded picture. The
// header is checked before any pixel buffer is allocated.
const MaxUploadDimension = 4096

// AvatarService turns uploaded pictures into bounded thumbnails.
type AvatarService struct {
	store   storage.Store
	newName func() string
}

// NewAvatarService creates a new AvatarService writing to store.
func NewAvatarService(store storage.Store) *AvatarService {
	return &AvatarService{
		store:   store,
		newName: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// Save thumbnails the image read from r to fit AvatarSize×AvatarSize and
// stores it under a random name that keeps the extension of originalName.
// The client-supplied name is otherwise ignored.
func (s *AvatarService) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	ext := filepath.Ext(originalName)
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return "", apperrors.Validation("picture", fmt.Sprintf("unsupported image type %q", ext))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", apperrors.Validation("picture", "could not read image")
	}
	if header.Width > MaxUploadDimension || header.Height > MaxUploadDimension {
		return "", apperrors.Validation("picture", fmt.Sprintf("image must be at most %dx%d pixels", MaxUploadDimension, MaxUploadDimension))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", apperrors.Validation("picture", "could not read image")
	}

	thumb := imaging.Fit(img, AvatarSize, AvatarSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		return "", fmt.Errorf("failed to encode avatar: %w", err)
	}

	name := s.newName() + ext
	if err := s.store.Save(ctx, name, buf.Bytes(), mime.TypeByExtension(strings.ToLower(ext))); err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
	return name, nil
}

// Delete removes a stored avatar. The shared default picture is never removed.
func (s *AvatarService) Delete(ctx context.Context, name string) error {
	if name == "" || name == models.DefaultImageFile {
		return nil
	}
	return s.store.Delete(ctx, name)
}

// URL returns where a stored avatar is served from.
func (s *AvatarService) URL(name string) string {
	return s.store.URL(name)
}

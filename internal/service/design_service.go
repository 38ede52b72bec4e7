package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"luxbag/internal/auth"
	"luxbag/internal/design"
	"luxbag/internal/model"
	"luxbag/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// imageExtensions maps accepted content types to file extensions.
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

type designService struct {
	designs  repository.DesignRepository
	store    design.Store
	maxBytes int64
	clock    Clock
	logger   zerolog.Logger
}

// NewDesignService creates a new design service. Uploads larger than
// maxBytes are rejected.
func NewDesignService(designs repository.DesignRepository, store design.Store, maxBytes int64, logger zerolog.Logger) DesignService {
	return &designService{
		designs:  designs,
		store:    store,
		maxBytes: maxBytes,
		clock:    SystemClock,
		logger:   logger.With().Str("service", "design").Logger(),
	}
}

func (s *designService) Upload(ctx context.Context, p auth.Principal, upload Upload) (*model.Design, error) {
	if p.UserID == 0 {
		return nil, model.ErrForbidden
	}

	contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, model.ValidationError("file", "must be a PNG, JPEG or WebP image")
	}
	if upload.Size <= 0 {
		return nil, model.ValidationError("file", "is empty")
	}
	if upload.Size > s.maxBytes {
		return nil, model.ValidationError("file", fmt.Sprintf("must be at most %d bytes", s.maxBytes))
	}

	d := &model.Design{
		ID:        uuid.New(),
		OwnerID:   p.UserID,
		Note:      strings.TrimSpace(upload.Note),
		Status:    model.DesignCollection,
		CreatedAt: s.clock.Now(),
	}
	d.ObjectKey = fmt.Sprintf("%d/%s%s", p.UserID, d.ID, ext)

	url, err := s.store.Put(ctx, design.Object{
		Key:         d.ObjectKey,
		ContentType: contentType,
		Size:        upload.Size,
		Body:        upload.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store design: %w", err)
	}
	d.URL = url

	if err := s.designs.Create(ctx, d); err != nil {
		if delErr := s.store.Delete(ctx, d.ObjectKey); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", d.ObjectKey).Msg("failed to remove orphaned design object")
		}
		return nil, fmt.Errorf("failed to save design: %w", err)
	}

	s.logger.Info().
		Str("design_id", d.ID.String()).
		Int64("owner_id", d.OwnerID).
		Int64("bytes", upload.Size).
		Msg("design uploaded")

	return d, nil
}

func (s *designService) List(ctx context.Context, p auth.Principal) ([]model.Design, error) {
	if p.UserID == 0 {
		return nil, model.ErrForbidden
	}

	designs, err := s.designs.ListByOwner(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list designs: %w", err)
	}
	return designs, nil
}

func (s *designService) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	d, err := s.visible(ctx, p, id)
	if err != nil {
		return err
	}

	if err := s.designs.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, d.ObjectKey); err != nil {
		s.logger.Warn().Err(err).Str("key", d.ObjectKey).Msg("failed to delete design object")
	}

	s.logger.Info().Str("design_id", id.String()).Int64("user_id", p.UserID).Msg("design deleted")
	return nil
}

func (s *designService) Open(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Design, io.ReadCloser, error) {
	d, err := s.visible(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.store.Open(ctx, d.ObjectKey)
	if err != nil {
		if errors.Is(err, design.ErrObjectNotFound) {
			return nil, nil, model.ErrDesignNotFound
		}
		return nil, nil, fmt.Errorf("failed to open design: %w", err)
	}
	return d, body, nil
}

// visible loads a design owned by the caller. Staff may see any design.
func (s *designService) visible(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Design, error) {
	if p.UserID == 0 {
		return nil, model.ErrForbidden
	}

	d, err := s.designs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get design: %w", err)
	}
	if d == nil || (d.OwnerID != p.UserID && !p.IsStaff()) {
		return nil, model.ErrDesignNotFound
	}
	return d, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"artdocent-backend/internal/config"
	"artdocent-backend/internal/model"
	"artdocent-backend/internal/storage"
	"artdocent-backend/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrMissingField    = errors.New("title and artist are required")
)

const searchResultLimit = 100

// ArtworkUpload is a new artwork submitted from the admin upload page.
type ArtworkUpload struct {
	Title    string
	Artist   string
	Year     string
	Location string
	Category string
	YouTube  string
	Image    []byte
}

type GalleryService struct {
	store   storage.ArtworkStore
	objects storage.ObjectStore
	images  ImageProcessor
	cfg     config.GalleryConfig
	now     func() time.Time
}

func NewGalleryService(store storage.ArtworkStore, objects storage.ObjectStore, cfg config.GalleryConfig) *GalleryService {
	return &GalleryService{
		store:   store,
		objects: objects,
		images: ImageProcessor{
			MaxWidth:  cfg.ImageMaxWidth,
			MaxHeight: cfg.ImageMaxHeight,
			Quality:   cfg.JPEGQuality,
			MaxPixels: cfg.ImageMaxPixels,
		},
		cfg: cfg,
		now: time.Now,
	}
}

// ListArtworks returns one feed page. A non-positive limit uses the default
// page size and oversized limits are clamped.
func (s *GalleryService) ListArtworks(ctx context.Context, category string, offset, limit int) (*model.ArtworkPage, error) {
	if category != "" && !model.ValidCategory(category) {
		return nil, ErrInvalidCategory
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = s.cfg.PageSize
	}
	if s.cfg.MaxPageSize > 0 && limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	items, total, err := s.store.ListArtworks(ctx, storage.ArtworkQuery{
		Category: category,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artworks: %w", err)
	}

	next := offset + len(items)
	return &model.ArtworkPage{
		Items:      items,
		Total:      total,
		NextOffset: next,
		End:        next >= total,
	}, nil
}

func (s *GalleryService) SearchArtworks(ctx context.Context, term string) ([]model.Artwork, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []model.Artwork{}, nil
	}
	items, err := s.store.SearchArtworks(ctx, term, searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search artworks: %w", err)
	}
	return items, nil
}

// RelatedArtworks lists other works by the same artist, skipping any with
// the same title.
func (s *GalleryService) RelatedArtworks(ctx context.Context, id string) ([]model.Artwork, error) {
	artwork, err := s.store.GetArtwork(ctx, id)
	if err != nil {
		return nil, err
	}
	sameArtist, err := s.store.ListByArtist(ctx, artwork.Artist)
	if err != nil {
		return nil, fmt.Errorf("failed to list related artworks: %w", err)
	}

	related := make([]model.Artwork, 0, len(sameArtist))
	for _, a := range sameArtist {
		if a.Title != artwork.Title {
			related = append(related, a)
		}
	}
	return related, nil
}

func (s *GalleryService) GetArtwork(ctx context.Context, id string) (*model.Artwork, error) {
	return s.store.GetArtwork(ctx, id)
}

// RecordView counts a detail page visit and returns the updated artwork.
func (s *GalleryService) RecordView(ctx context.Context, id string) (*model.Artwork, error) {
	if err := s.store.IncrementCounter(ctx, id, storage.CounterRead); err != nil {
		return nil, err
	}
	return s.store.GetArtwork(ctx, id)
}

func (s *GalleryService) Like(ctx context.Context, id string) (*model.Artwork, error) {
	if err := s.store.IncrementCounter(ctx, id, storage.CounterLikes); err != nil {
		return nil, err
	}
	return s.store.GetArtwork(ctx, id)
}

func (s *GalleryService) CreateArtwork(ctx context.Context, upload ArtworkUpload) (*model.Artwork, error) {
	upload.Title = strings.TrimSpace(upload.Title)
	upload.Artist = strings.TrimSpace(upload.Artist)
	if upload.Title == "" || upload.Artist == "" {
		return nil, ErrMissingField
	}
	if upload.Category == "" {
		upload.Category = model.CategoryMain
	}
	if !model.ValidCategory(upload.Category) {
		return nil, ErrInvalidCategory
	}

	processed, err := s.images.Process(upload.Image)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	key := "artworks/" + id + ".jpg"
	if err := s.objects.Put(ctx, key, processed); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	now := s.now().UTC()
	artwork := &model.Artwork{
		ID:        id,
		Title:     upload.Title,
		Artist:    upload.Artist,
		Year:      strings.TrimSpace(upload.Year),
		Location:  strings.TrimSpace(upload.Location),
		Category:  upload.Category,
		ImageURL:  s.objects.URL(key),
		ImageKey:  key,
		YouTube:   strings.TrimSpace(upload.YouTube),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateArtwork(ctx, artwork); err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			logger.Warnf("failed to remove orphaned image %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("failed to create artwork: %w", err)
	}

	logger.Infof("Artwork created: %s (%s / %s)", id, artwork.Artist, artwork.Title)
	return artwork, nil
}

func (s *GalleryService) UpdateArtwork(ctx context.Context, id string, req model.UpdateArtworkRequest) (*model.Artwork, error) {
	artwork, err := s.store.GetArtwork(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		artwork.Title = strings.TrimSpace(*req.Title)
	}
	if req.Artist != nil {
		artwork.Artist = strings.TrimSpace(*req.Artist)
	}
	if artwork.Title == "" || artwork.Artist == "" {
		return nil, ErrMissingField
	}
	if req.Year != nil {
		artwork.Year = strings.TrimSpace(*req.Year)
	}
	if req.Location != nil {
		artwork.Location = strings.TrimSpace(*req.Location)
	}
	if req.Category != nil {
		if !model.ValidCategory(*req.Category) {
			return nil, ErrInvalidCategory
		}
		artwork.Category = *req.Category
	}
	if req.YouTube != nil {
		artwork.YouTube = strings.TrimSpace(*req.YouTube)
	}
	artwork.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateArtwork(ctx, artwork); err != nil {
		return nil, err
	}
	return artwork, nil
}

// DeleteArtwork removes the document and then its image. A missing image is
// logged, not returned.
func (s *GalleryService) DeleteArtwork(ctx context.Context, id string) error {
	artwork, err := s.store.GetArtwork(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteArtwork(ctx, id); err != nil {
		return err
	}
	if artwork.ImageKey != "" {
		if err := s.objects.Delete(ctx, artwork.ImageKey); err != nil {
			logger.Warnf("failed to delete image %s: %v", artwork.ImageKey, err)
		}
	}
	logger.Infof("Artwork deleted: %s", id)
	return nil
}

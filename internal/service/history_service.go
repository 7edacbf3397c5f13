package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"artdocent-backend/internal/model"
	"artdocent-backend/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const enrichConcurrency = 4

type HistoryService struct {
	records  storage.ChatHistoryStore
	artworks storage.ArtworkStore
	pageSize int
	now      func() time.Time
}

func NewHistoryService(records storage.ChatHistoryStore, artworks storage.ArtworkStore, pageSize int) *HistoryService {
	if pageSize <= 0 {
		pageSize = 5
	}
	return &HistoryService{
		records:  records,
		artworks: artworks,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// SaveRecord persists a finished docent turn. The server assigns id and
// timestamp; examples beyond three are dropped.
func (s *HistoryService) SaveRecord(ctx context.Context, req model.SaveChatRecordRequest) (*model.ChatRecord, error) {
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		return nil, storage.ErrInvalidData
	}

	examples := make([]string, 0, model.MaxQuestionExamples)
	for _, e := range req.Examples {
		if len(examples) == model.MaxQuestionExamples {
			break
		}
		examples = append(examples, e)
	}

	record := &model.ChatRecord{
		ID:        uuid.New().String(),
		Timestamp: s.now().UTC(),
		ImageURL:  req.ImageURL,
		Title:     req.Title,
		Artist:    req.Artist,
		Question:  req.Question,
		Answer:    req.Answer,
		Examples:  examples,
		ImageID:   req.ImageID,
	}
	if err := s.records.AddRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save chat record: %w", err)
	}
	return record, nil
}

// ListHistory returns one page newest first. Records tied to an artwork show
// that artwork's current title, artist and image.
func (s *HistoryService) ListHistory(ctx context.Context, cursor string, limit int) (*model.HistoryPage, error) {
	if limit <= 0 {
		limit = s.pageSize
	}

	records, err := s.records.ListRecords(ctx, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	page := &model.HistoryPage{End: len(records) <= limit}
	if !page.End {
		records = records[:limit]
	}
	if err := s.enrich(ctx, records); err != nil {
		return nil, err
	}
	page.Items = records
	if !page.End && len(records) > 0 {
		page.NextCursor = records[len(records)-1].ID
	}
	return page, nil
}

func (s *HistoryService) enrich(ctx context.Context, records []model.ChatRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)

	for i := range records {
		if records[i].ImageID == "" {
			continue
		}
		record := &records[i]
		g.Go(func() error {
			artwork, err := s.artworks.GetArtwork(gctx, record.ImageID)
			if errors.Is(err, storage.ErrArtworkNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to load artwork %s: %w", record.ImageID, err)
			}
			record.Title = artwork.Title
			record.Artist = artwork.Artist
			record.ImageURL = artwork.ImageURL
			return nil
		})
	}
	return g.Wait()
}

func (s *HistoryService) DeleteRecord(ctx context.Context, id string) error {
	return s.records.DeleteRecord(ctx, id)
}

package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"artdocent-backend/internal/model"
)

type MemoryStorage struct {
	artworks map[string]*model.Artwork
	records  map[string]*model.ChatRecord
	admins   map[string]*model.Admin
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		artworks: make(map[string]*model.Artwork),
		records:  make(map[string]*model.ChatRecord),
		admins:   make(map[string]*model.Admin),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) CreateArtwork(ctx context.Context, artwork *model.Artwork) error {
	if artwork == nil || artwork.ID == "" {
		return ErrInvalidData
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *artwork
	m.artworks[artwork.ID] = &cp
	return nil
}

func (m *MemoryStorage) GetArtwork(ctx context.Context, id string) (*model.Artwork, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	artwork, exists := m.artworks[id]
	if !exists {
		return nil, ErrArtworkNotFound
	}
	cp := *artwork
	return &cp, nil
}

func (m *MemoryStorage) UpdateArtwork(ctx context.Context, artwork *model.Artwork) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.artworks[artwork.ID]; !exists {
		return ErrArtworkNotFound
	}
	cp := *artwork
	m.artworks[artwork.ID] = &cp
	return nil
}

func (m *MemoryStorage) DeleteArtwork(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.artworks[id]; !exists {
		return ErrArtworkNotFound
	}
	delete(m.artworks, id)
	return nil
}

func (m *MemoryStorage) ListArtworks(ctx context.Context, q ArtworkQuery) ([]model.Artwork, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.sortedArtworks(func(a *model.Artwork) bool {
		return q.Category == "" || a.Category == q.Category
	})
	total := len(matched)
	if q.Offset >= total {
		return []model.Artwork{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < total {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], total, nil
}

func (m *MemoryStorage) SearchArtworks(ctx context.Context, term string, limit int) ([]model.Artwork, error) {
	term = strings.ToLower(term)
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.sortedArtworks(func(a *model.Artwork) bool {
		return strings.Contains(strings.ToLower(a.Title), term) ||
			strings.Contains(strings.ToLower(a.Artist), term)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemoryStorage) ListByArtist(ctx context.Context, artist string) ([]model.Artwork, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sortedArtworks(func(a *model.Artwork) bool {
		return a.Artist == artist
	}), nil
}

func (m *MemoryStorage) IncrementCounter(ctx context.Context, id string, counter Counter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	artwork, exists := m.artworks[id]
	if !exists {
		return ErrArtworkNotFound
	}
	switch counter {
	case CounterRead:
		artwork.Read++
	case CounterLikes:
		artwork.Likes++
	default:
		return ErrInvalidData
	}
	return nil
}

// sortedArtworks copies matching artworks, newest first. Caller holds the lock.
func (m *MemoryStorage) sortedArtworks(match func(*model.Artwork) bool) []model.Artwork {
	result := make([]model.Artwork, 0)
	for _, a := range m.artworks {
		if match(a) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (m *MemoryStorage) AddRecord(ctx context.Context, record *model.ChatRecord) error {
	if record == nil || record.ID == "" {
		return ErrInvalidData
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *record
	cp.Examples = append([]string(nil), record.Examples...)
	m.records[record.ID] = &cp
	return nil
}

func (m *MemoryStorage) ListRecords(ctx context.Context, cursor string, limit int) ([]model.ChatRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]model.ChatRecord, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, *r)
	}
	sort.Slice(records, func(i, j int) bool {
		return recordNewer(&records[i], &records[j])
	})

	start := 0
	if cursor != "" {
		last, exists := m.records[cursor]
		if !exists {
			return nil, ErrRecordNotFound
		}
		for start < len(records) && !recordNewer(last, &records[start]) {
			start++
		}
	}
	records = records[start:]
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (m *MemoryStorage) DeleteRecord(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[id]; !exists {
		return ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}

// recordNewer orders history by timestamp, then id, both descending.
func recordNewer(a, b *model.ChatRecord) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.ID > b.ID
}

func (m *MemoryStorage) UpsertAdmin(ctx context.Context, admin *model.Admin) error {
	if admin == nil || admin.ID == "" || admin.Email == "" {
		return ErrInvalidData
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.admins {
		if strings.EqualFold(existing.Email, admin.Email) && id != admin.ID {
			delete(m.admins, id)
		}
	}
	cp := *admin
	m.admins[admin.ID] = &cp
	return nil
}

func (m *MemoryStorage) GetAdmin(ctx context.Context, id string) (*model.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	admin, exists := m.admins[id]
	if !exists {
		return nil, ErrAdminNotFound
	}
	cp := *admin
	return &cp, nil
}

func (m *MemoryStorage) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, admin := range m.admins {
		if strings.EqualFold(admin.Email, email) {
			cp := *admin
			return &cp, nil
		}
	}
	return nil, ErrAdminNotFound
}

package storage

import (
	"context"
	"io"

	"artdocent-backend/internal/model"
)

// Counter names a per-artwork tally.
type Counter string

const (
	CounterRead  Counter = "read"
	CounterLikes Counter = "likes"
)

type ArtworkQuery struct {
	// Category filters by exact category when non-empty.
	Category string
	Offset   int
	Limit    int
}

type ArtworkStore interface {
	CreateArtwork(ctx context.Context, artwork *model.Artwork) error
	GetArtwork(ctx context.Context, id string) (*model.Artwork, error)
	UpdateArtwork(ctx context.Context, artwork *model.Artwork) error
	DeleteArtwork(ctx context.Context, id string) error
	// ListArtworks returns one page newest first and the total matching count.
	ListArtworks(ctx context.Context, q ArtworkQuery) ([]model.Artwork, int, error)
	// SearchArtworks matches title or artist case-insensitively.
	SearchArtworks(ctx context.Context, term string, limit int) ([]model.Artwork, error)
	ListByArtist(ctx context.Context, artist string) ([]model.Artwork, error)
	IncrementCounter(ctx context.Context, id string, counter Counter) error
}

type ChatHistoryStore interface {
	AddRecord(ctx context.Context, record *model.ChatRecord) error
	// ListRecords returns up to limit records newest first, strictly after
	// the record named by cursor. An empty cursor starts at the newest.
	ListRecords(ctx context.Context, cursor string, limit int) ([]model.ChatRecord, error)
	DeleteRecord(ctx context.Context, id string) error
}

type AdminStore interface {
	UpsertAdmin(ctx context.Context, admin *model.Admin) error
	GetAdmin(ctx context.Context, id string) (*model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
}

// Store is the document store behind the gallery, history and admin pages.
type Store interface {
	ArtworkStore
	ChatHistoryStore
	AdminStore

	Init() error
	Close() error
}

// ObjectStore keeps uploaded artwork images.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// URL is the public address a client fetches the object from.
	URL(key string) string
}

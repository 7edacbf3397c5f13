package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"artdocent-backend/internal/model"
	"artdocent-backend/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type artworkRow struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Title     string    `gorm:"column:title;index"`
	Artist    string    `gorm:"column:artist;index"`
	Year      string    `gorm:"column:year"`
	Location  string    `gorm:"column:location"`
	Category  string    `gorm:"column:category;index"`
	ImageURL  string    `gorm:"column:image_url"`
	ImageKey  string    `gorm:"column:image_key"`
	YouTube   string    `gorm:"column:youtube"`
	Read      int       `gorm:"column:read_count"`
	Likes     int       `gorm:"column:like_count"`
	Priority  int       `gorm:"column:priority"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (artworkRow) TableName() string { return "artworks" }

type chatRecordRow struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Timestamp time.Time `gorm:"column:timestamp;index"`
	ImageURL  string    `gorm:"column:image_url"`
	Title     string    `gorm:"column:title"`
	Artist    string    `gorm:"column:artist"`
	Question  string    `gorm:"column:question"`
	Answer    string    `gorm:"column:answer"`
	Examples  []string  `gorm:"column:examples;serializer:json"`
	ImageID   string    `gorm:"column:image_id"`
}

func (chatRecordRow) TableName() string { return "chat_history" }

type adminRow struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (adminRow) TableName() string { return "admins" }

// SqliteStorage keeps gallery documents in a single SQLite file.
type SqliteStorage struct {
	path string
	db   *gorm.DB
}

func NewSqliteStorage(path string) *SqliteStorage {
	return &SqliteStorage{path: strings.TrimSpace(path)}
}

func (s *SqliteStorage) Init() error {
	if s.path == "" {
		return fmt.Errorf("%w: database path cannot be empty", ErrStorageInit)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", s.path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	if err := db.AutoMigrate(&artworkRow{}, &chatRecordRow{}, &adminRow{}); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	s.db = db
	logger.Infof("SQLite storage initialized at %s", s.path)
	return nil
}

func (s *SqliteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SqliteStorage) CreateArtwork(ctx context.Context, artwork *model.Artwork) error {
	if artwork == nil || artwork.ID == "" {
		return ErrInvalidData
	}
	row := toArtworkRow(artwork)
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *SqliteStorage) GetArtwork(ctx context.Context, id string) (*model.Artwork, error) {
	var row artworkRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArtworkNotFound
	}
	if err != nil {
		return nil, err
	}
	artwork := row.toModel()
	return &artwork, nil
}

func (s *SqliteStorage) UpdateArtwork(ctx context.Context, artwork *model.Artwork) error {
	row := toArtworkRow(artwork)
	res := s.db.WithContext(ctx).Model(&artworkRow{}).Where("id = ?", artwork.ID).Select("*").Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArtworkNotFound
	}
	return nil
}

func (s *SqliteStorage) DeleteArtwork(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&artworkRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArtworkNotFound
	}
	return nil
}

func (s *SqliteStorage) ListArtworks(ctx context.Context, q ArtworkQuery) ([]model.Artwork, int, error) {
	query := s.db.WithContext(ctx).Model(&artworkRow{})
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []artworkRow
	page := query.Order("created_at DESC, id DESC").Offset(q.Offset)
	if q.Limit > 0 {
		page = page.Limit(q.Limit)
	}
	if err := page.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return artworksFromRows(rows), int(total), nil
}

func (s *SqliteStorage) SearchArtworks(ctx context.Context, term string, limit int) ([]model.Artwork, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	query := s.db.WithContext(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(artist) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []artworkRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return artworksFromRows(rows), nil
}

func (s *SqliteStorage) ListByArtist(ctx context.Context, artist string) ([]model.Artwork, error) {
	var rows []artworkRow
	err := s.db.WithContext(ctx).
		Where("artist = ?", artist).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return artworksFromRows(rows), nil
}

func (s *SqliteStorage) IncrementCounter(ctx context.Context, id string, counter Counter) error {
	var column string
	switch counter {
	case CounterRead:
		column = "read_count"
	case CounterLikes:
		column = "like_count"
	default:
		return ErrInvalidData
	}

	res := s.db.WithContext(ctx).Model(&artworkRow{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArtworkNotFound
	}
	return nil
}

func (s *SqliteStorage) AddRecord(ctx context.Context, record *model.ChatRecord) error {
	if record == nil || record.ID == "" {
		return ErrInvalidData
	}
	row := chatRecordRow(*record)
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *SqliteStorage) ListRecords(ctx context.Context, cursor string, limit int) ([]model.ChatRecord, error) {
	query := s.db.WithContext(ctx).Model(&chatRecordRow{})
	if cursor != "" {
		var last chatRecordRow
		err := s.db.WithContext(ctx).Where("id = ?", cursor).First(&last).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		if err != nil {
			return nil, err
		}
		query = query.Where("timestamp < ? OR (timestamp = ? AND id < ?)", last.Timestamp, last.Timestamp, last.ID)
	}
	query = query.Order("timestamp DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []chatRecordRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]model.ChatRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.ChatRecord(row))
	}
	return records, nil
}

func (s *SqliteStorage) DeleteRecord(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&chatRecordRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *SqliteStorage) UpsertAdmin(ctx context.Context, admin *model.Admin) error {
	if admin == nil || admin.ID == "" || admin.Email == "" {
		return ErrInvalidData
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("LOWER(email) = ? AND id <> ?", strings.ToLower(admin.Email), admin.ID).
			Delete(&adminRow{}).Error; err != nil {
			return err
		}
		row := adminRow{
			ID:           admin.ID,
			Email:        admin.Email,
			PasswordHash: admin.PasswordHash,
			CreatedAt:    admin.CreatedAt,
		}
		return tx.Save(&row).Error
	})
}

func (s *SqliteStorage) GetAdmin(ctx context.Context, id string) (*model.Admin, error) {
	var row adminRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	return adminFromRow(row, err)
}

func (s *SqliteStorage) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var row adminRow
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&row).Error
	return adminFromRow(row, err)
}

func adminFromRow(row adminRow, err error) (*model.Admin, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &model.Admin{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func toArtworkRow(a *model.Artwork) artworkRow {
	return artworkRow{
		ID:        a.ID,
		Title:     a.Title,
		Artist:    a.Artist,
		Year:      a.Year,
		Location:  a.Location,
		Category:  a.Category,
		ImageURL:  a.ImageURL,
		ImageKey:  a.ImageKey,
		YouTube:   a.YouTube,
		Read:      a.Read,
		Likes:     a.Likes,
		Priority:  a.Priority,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (r artworkRow) toModel() model.Artwork {
	return model.Artwork{
		ID:        r.ID,
		Title:     r.Title,
		Artist:    r.Artist,
		Year:      r.Year,
		Location:  r.Location,
		Category:  r.Category,
		ImageURL:  r.ImageURL,
		ImageKey:  r.ImageKey,
		YouTube:   r.YouTube,
		Read:      r.Read,
		Likes:     r.Likes,
		Priority:  r.Priority,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func artworksFromRows(rows []artworkRow) []model.Artwork {
	result := make([]model.Artwork, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toModel())
	}
	return result
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

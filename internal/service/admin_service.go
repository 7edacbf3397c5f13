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

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotAdmin           = errors.New("not an administrator")
	ErrAuthDisabled       = errors.New("admin login is not configured")
)

const adminRole = "admin"

type AdminClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type AdminService struct {
	store  storage.AdminStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAdminService(store storage.AdminStore, cfg config.AuthConfig) *AdminService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AdminService{
		store:  store,
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// SeedAdmins creates or refreshes the configured accounts, keeping the id of
// an account that already exists.
func (s *AdminService) SeedAdmins(ctx context.Context, seeds []config.AdminSeed) error {
	for _, seed := range seeds {
		email := strings.TrimSpace(seed.Email)
		if email == "" || seed.PasswordHash == "" {
			return fmt.Errorf("admin seed needs email and password_hash")
		}
		if _, err := bcrypt.Cost([]byte(seed.PasswordHash)); err != nil {
			return fmt.Errorf("admin %s: password_hash is not a bcrypt hash: %w", email, err)
		}

		admin := &model.Admin{
			ID:           uuid.New().String(),
			Email:        email,
			PasswordHash: seed.PasswordHash,
			CreatedAt:    s.now().UTC(),
		}
		existing, err := s.store.GetAdminByEmail(ctx, email)
		switch {
		case err == nil:
			admin.ID = existing.ID
			admin.CreatedAt = existing.CreatedAt
		case !errors.Is(err, storage.ErrAdminNotFound):
			return err
		}
		if err := s.store.UpsertAdmin(ctx, admin); err != nil {
			return fmt.Errorf("failed to seed admin %s: %w", email, err)
		}
	}
	if len(seeds) > 0 {
		logger.Infof("Seeded %d admin account(s)", len(seeds))
	}
	return nil
}

func (s *AdminService) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	if len(s.secret) == 0 {
		return nil, ErrAuthDisabled
	}

	admin, err := s.store.GetAdminByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrAdminNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &AdminClaims{
		Email: admin.Email,
		Role:  adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	logger.Infof("Admin logged in: %s", admin.Email)
	return &model.LoginResponse{Token: token, ExpiresAt: expiresAt.Unix()}, nil
}

// Authorize checks the bearer token and that its subject is still an admin.
func (s *AdminService) Authorize(ctx context.Context, tokenString string) (*model.Admin, error) {
	if len(s.secret) == 0 {
		return nil, ErrInvalidToken
	}

	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != adminRole || claims.Subject == "" {
		return nil, ErrNotAdmin
	}

	admin, err := s.store.GetAdmin(ctx, claims.Subject)
	if errors.Is(err, storage.ErrAdminNotFound) {
		return nil, ErrNotAdmin
	}
	if err != nil {
		return nil, err
	}
	return admin, nil
}

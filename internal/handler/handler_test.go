package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"artdocent-backend/internal/config"
	"artdocent-backend/internal/middleware"
	"artdocent-backend/internal/model"
	"artdocent-backend/internal/service"
	"artdocent-backend/internal/storage"
	"artdocent-backend/internal/tools"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDocent struct {
	mu    sync.Mutex
	calls int
	reply model.DocentReply
	err   error
	last  *model.DocentRequest
}

func (f *fakeDocent) GetDocentReply(ctx context.Context, req *model.DocentRequest) (model.DocentReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if strings.TrimSpace(req.Question) == "" {
		return model.DocentReply{}, service.ErrEmptyQuestion
	}
	return f.reply, f.err
}

type testServer struct {
	router *gin.Engine
	docent *fakeDocent
	store  *storage.MemoryStorage
}

type serverOptions struct {
	accessKey string
	limiter   middleware.Limiter
	mcp       bool
}

func newTestServer(t *testing.T, accessKey string) *testServer {
	return newTestServerWith(t, serverOptions{accessKey: accessKey})
}

func newTestServerWith(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	cfg := &config.Config{
		Model: config.ModelConfig{Provider: "openai"},
		CORS:  config.CORSConfig{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET", "POST"}},
		Gallery: config.GalleryConfig{
			PageSize: 9, MaxPageSize: 50, HistoryPageSize: 5,
			ImageMaxWidth: 1000, ImageMaxHeight: 1000, JPEGQuality: 80, MaxUploadBytes: 1 << 20,
		},
		Auth: config.AuthConfig{JWTSecret: "handler-secret", TokenTTL: time.Hour},
		MCP:  config.MCPConfig{Enabled: opts.mcp, Path: "/mcp"},
	}

	store := storage.NewMemoryStorage()
	objects := storage.NewDiskObjectStore(t.TempDir(), "/media")
	require.NoError(t, objects.Init())

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	admins := service.NewAdminService(store, cfg.Auth)
	require.NoError(t, admins.SeedAdmins(context.Background(), []config.AdminSeed{{Email: "admin@museum.org", PasswordHash: string(hash)}}))

	docent := &fakeDocent{reply: model.DocentReply{Answer: "설명", QuestionExamples: []string{"q1"}}}
	gallery := service.NewGalleryService(store, objects, cfg.Gallery)

	deps := RouterDeps{
		Docent:    NewDocentHandler(docent),
		Artworks:  NewArtworkHandler(gallery, cfg.Gallery.MaxUploadBytes),
		History:   NewHistoryHandler(service.NewHistoryService(store, store, 5)),
		Admin:     NewAdminHandler(admins),
		Media:     NewMediaHandler(objects),
		AdminAuth: middleware.AdminAuth(admins),
	}
	if opts.accessKey != "" {
		deps.AccessKey = middleware.AccessKey(opts.accessKey)
	}
	if opts.limiter != nil {
		deps.RateLimit = middleware.RateLimit(opts.limiter)
	}
	if opts.mcp {
		mcpServer, err := tools.NewMCPServer(context.Background(), gallery, docent)
		require.NoError(t, err)
		deps.MCP = tools.NewMCPHandler(mcpServer, cfg.MCP.Path)
	}

	router := NewRouter(cfg, deps)
	return &testServer{router: router, docent: docent, store: store}
}

func (s *testServer) do(method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestDocentProxyContract(t *testing.T) {
	s := newTestServer(t, "")

	body := []byte(`{"question":"누가 그렸나요?","artistName":"Caravaggio","artworkTitle":"Bacchus","messages":[{"question":"hi"},{"answer":"hello"}]}`)
	w := s.do(http.MethodPost, "/api/chatGPT", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	reply := decode[model.DocentReply](t, w)
	assert.Equal(t, "설명", reply.Answer)
	assert.Equal(t, []string{"q1"}, reply.QuestionExamples)
	assert.Len(t, s.docent.last.Messages, 2)

	w = s.do(http.MethodPost, "/api/docent", body, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDocentProxyRejectsGetWithoutUpstreamCall(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodGet, "/api/chatGPT", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, msgMethodNotAllowed, decode[model.ErrorMessage](t, w).Message)
	assert.Zero(t, s.docent.calls)
}

func TestDocentProxyUpstreamFailure(t *testing.T) {
	s := newTestServer(t, "")
	s.docent.err = errors.New("upstream timeout")

	w := s.do(http.MethodPost, "/api/chatGPT", []byte(`{"question":"q"}`), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, msgUpstreamFailed, decode[model.ErrorMessage](t, w).Message)
	assert.Equal(t, 1, s.docent.calls)
}

func TestDocentProxyBadRequests(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodPost, "/api/chatGPT", []byte(`{not json`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, s.docent.calls)

	w = s.do(http.MethodPost, "/api/chatGPT", []byte(`{"question":""}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocentProxyAccessKey(t *testing.T) {
	s := newTestServer(t, "museum-key")

	w := s.do(http.MethodPost, "/api/chatGPT", []byte(`{"question":"q"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/chatGPT", []byte(`{"question":"q"}`), map[string]string{middleware.AccessKeyHeader: "museum-key"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDocentProxyChecksMethodBeforeRateLimit(t *testing.T) {
	s := newTestServerWith(t, serverOptions{limiter: middleware.NewMemoryLimiter(0, 1)})

	for i := 0; i < 3; i++ {
		w := s.do(http.MethodGet, "/api/chatGPT", nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	}

	w := s.do(http.MethodPost, "/api/chatGPT", []byte(`{"question":"q"}`), nil)
	assert.Equal(t, http.StatusOK, w.Code, "GETs must not spend the budget")
	w = s.do(http.MethodPost, "/api/chatGPT", []byte(`{"question":"q"}`), nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = s.do(http.MethodGet, "/api/chatGPT", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, 1, s.docent.calls)
}

const (
	mcpInitialize = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"gallery-test","version":"1.0.0"}}}`
	mcpAskDocent  = `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"ask_docent","arguments":{"question":"q","artist_name":"Caravaggio","artwork_title":"Bacchus"}}}`
)

func TestMCPAskDocentRequiresAccessKey(t *testing.T) {
	s := newTestServerWith(t, serverOptions{accessKey: "museum-key", mcp: true})

	w := s.do(http.MethodPost, "/mcp", []byte(mcpInitialize), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodPost, "/mcp", []byte(mcpAskDocent), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, s.docent.calls)

	key := map[string]string{middleware.AccessKeyHeader: "museum-key"}
	w = s.do(http.MethodPost, "/mcp", []byte(mcpInitialize), key)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := w.Header().Get("Mcp-Session-Id")
	require.NotEmpty(t, session)

	key["Mcp-Session-Id"] = session
	w = s.do(http.MethodPost, "/mcp", []byte(mcpAskDocent), key)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "설명")
	assert.Equal(t, 1, s.docent.calls)
}

func TestMCPRateLimited(t *testing.T) {
	s := newTestServerWith(t, serverOptions{limiter: middleware.NewMemoryLimiter(0, 1), mcp: true})

	w := s.do(http.MethodPost, "/mcp", []byte(mcpInitialize), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodPost, "/mcp", []byte(mcpAskDocent), map[string]string{"Mcp-Session-Id": w.Header().Get("Mcp-Session-Id")})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Zero(t, s.docent.calls)
}

func loginToken(t *testing.T, s *testServer) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/admin/login", []byte(`{"email":"admin@museum.org","password":"pw"}`), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[model.LoginResponse](t, w).Token
}

func TestAdminLoginFlow(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodPost, "/api/admin/login", []byte(`{"email":"admin@museum.org","password":"nope"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := loginToken(t, s)
	w = s.do(http.MethodGet, "/api/admin/me", nil, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@museum.org", decode[model.Admin](t, w).Email)

	w = s.do(http.MethodGet, "/api/admin/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func multipartUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("image", "art.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, image.NewRGBA(image.Rect(0, 0, 40, 20))))
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestArtworkLifecycle(t *testing.T) {
	s := newTestServer(t, "")
	token := loginToken(t, s)
	auth := "Bearer " + token

	body, contentType := multipartUpload(t, map[string]string{
		"title": "Bacchus", "artist": "Caravaggio", "category": "caravaggio",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/artworks", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", auth)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Artwork](t, w)

	w = s.do(http.MethodGet, created.ImageURL, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = s.do(http.MethodGet, "/api/artworks?category=caravaggio", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[model.ArtworkPage](t, w)
	require.Len(t, page.Items, 1)
	assert.True(t, page.End)

	w = s.do(http.MethodGet, "/api/artworks/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[model.Artwork](t, w).Read)

	w = s.do(http.MethodPost, "/api/artworks/"+created.ID+"/like", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/artworks/search?q=bacc", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]model.Artwork](t, w)["items"], 1)

	w = s.do(http.MethodPut, "/api/admin/artworks/"+created.ID, []byte(`{"year":"1596"}`), map[string]string{"Authorization": auth})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1596", decode[model.Artwork](t, w).Year)

	w = s.do(http.MethodPut, "/api/admin/artworks/"+created.ID, []byte(`{"category":"monet"}`), map[string]string{"Authorization": auth})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/admin/artworks/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodDelete, "/api/admin/artworks/"+created.ID, nil, map[string]string{"Authorization": auth})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/artworks/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodGet, created.ImageURL, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodPost, "/api/history", []byte(`{"question":"q","answer":"a","examples":["1","2","3","4"]}`), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode[model.ChatRecord](t, w)
	assert.Len(t, saved.Examples, 3)

	w = s.do(http.MethodPost, "/api/history", []byte(`{"question":"q"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/history", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[model.HistoryPage](t, w)
	require.Len(t, page.Items, 1)
	assert.True(t, page.End)

	w = s.do(http.MethodGet, "/api/history?cursor=unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	token := loginToken(t, s)
	w = s.do(http.MethodDelete, "/api/admin/history/"+saved.ID, nil, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	w := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, w)["status"])
}

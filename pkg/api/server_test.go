package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharescan/sharescan/pkg/catalog"
	"github.com/sharescan/sharescan/pkg/config"
	"github.com/sharescan/sharescan/pkg/extract"
	"github.com/sharescan/sharescan/pkg/scanner"
	"github.com/sharescan/sharescan/pkg/smb"
	"github.com/sharescan/sharescan/pkg/sources"
	"github.com/sharescan/sharescan/pkg/vault"
)

func newTestRouter(t *testing.T, authToken string) (http.Handler, *catalog.Store) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.AuthToken = authToken
	cfg.DatabasePath = filepath.Join(dir, "catalog.db")
	cfg.CachePath = filepath.Join(dir, "cache")

	store, err := catalog.Open(cfg.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	client := smb.NewClient()
	manager := sources.NewManager(dir, vault.New(dir), client, store)

	temps, err := smb.NewTempStore(cfg.CachePath)
	require.NoError(t, err)
	svc := scanner.New(store, client, temps, extract.NewProber(), manager, cfg.Scan)

	return NewRouter(Deps{
		Config:  cfg,
		Store:   store,
		Client:  client,
		Scanner: svc,
		Manager: manager,
	}), store
}

func seedFiles(t *testing.T, store *catalog.Store) {
	t.Helper()
	parent := "/Media"
	mime := "video/x-matroska"
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.UpsertBatch([]catalog.Record{
		{Path: "/Media", Name: "Media", IsDirectory: true, IndexedAt: now},
		{Path: "/Media/movie.mkv", Name: "movie.mkv", ParentPath: &parent,
			Size: 1024, MimeType: &mime, ModifiedAt: &now, IndexedAt: now},
	}, []catalog.TagPair{{Path: "/Media/movie.mkv", Tag: "video"}}))
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthUnauthenticated(t *testing.T) {
	h, _ := newTestRouter(t, "real-token")

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	h, _ := newTestRouter(t, "real-token")

	rec := doJSON(t, h, http.MethodGet, "/api/files", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
}

func TestAuthBearerHeader(t *testing.T) {
	h, _ := newTestRouter(t, "real-token")

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer real-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthQueryToken(t *testing.T) {
	h, _ := newTestRouter(t, "real-token")

	rec := doJSON(t, h, http.MethodGet, "/api/files?token=real-token", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthDisabledWithPlaceholderToken(t *testing.T) {
	h, _ := newTestRouter(t, config.DefaultAuthToken)

	rec := doJSON(t, h, http.MethodGet, "/api/files", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListFiles(t *testing.T) {
	h, store := newTestRouter(t, config.DefaultAuthToken)
	seedFiles(t, store)

	rec := doJSON(t, h, http.MethodGet, "/api/files?parent_path=/Media", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []catalog.FileItem `json:"items"`
		Total int64              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Total)
	assert.Equal(t, "movie.mkv", resp.Items[0].Name)
	assert.Contains(t, resp.Items[0].Tags, "video")
}

func TestGetFileNotFound(t *testing.T) {
	h, _ := newTestRouter(t, config.DefaultAuthToken)

	rec := doJSON(t, h, http.MethodGet, "/api/files/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetFileBadID(t *testing.T) {
	h, _ := newTestRouter(t, config.DefaultAuthToken)

	rec := doJSON(t, h, http.MethodGet, "/api/files/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	h, store := newTestRouter(t, config.DefaultAuthToken)
	seedFiles(t, store)

	rec := doJSON(t, h, http.MethodPost, "/api/search", map[string]any{"query": "movie"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
}

func TestSearchEmptyQuery(t *testing.T) {
	h, _ := newTestRouter(t, config.DefaultAuthToken)

	rec := doJSON(t, h, http.MethodPost, "/api/search", map[string]any{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard(t *testing.T) {
	h, store := newTestRouter(t, config.DefaultAuthToken)
	seedFiles(t, store)

	rec := doJSON(t, h, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data catalog.DashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, int64(1), data.TotalFiles)
}

func TestScanStartWithoutSources(t *testing.T) {
	h, _ := newTestRouter(t, config.DefaultAuthToken)

	rec := doJSON(t, h, http.MethodPost, "/api/scan/start", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanStatusIdle(t *testing.T) {
	h, _ := newTestRouter(t, config.DefaultAuthToken)

	rec := doJSON(t, h, http.MethodGet, "/api/scan/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state scanner.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.Running)
}

func TestSourcesEmptyList(t *testing.T) {
	h, _ := newTestRouter(t, config.DefaultAuthToken)

	rec := doJSON(t, h, http.MethodGet, "/api/sources", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sources":[]}`, rec.Body.String())
}

func TestAddSourceValidation(t *testing.T) {
	h, _ := newTestRouter(t, config.DefaultAuthToken)

	rec := doJSON(t, h, http.MethodPost, "/api/sources", map[string]any{"host": "nas.test"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveSourceUnknown(t *testing.T) {
	h, _ := newTestRouter(t, config.DefaultAuthToken)

	rec := doJSON(t, h, http.MethodDelete, "/api/sources?id=ghost/share", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddUserTagAndRemove(t *testing.T) {
	h, store := newTestRouter(t, config.DefaultAuthToken)
	seedFiles(t, store)

	item, err := store.GetByPath("/Media/movie.mkv")
	require.NoError(t, err)

	target := "/api/files/" + itoa(item.ID) + "/tags"
	rec := doJSON(t, h, http.MethodPost, target, map[string]any{"tag": "favorite"})
	require.Equal(t, http.StatusCreated, rec.Code)

	got, err := store.GetByID(item.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Tags, "favorite")

	rec = doJSON(t, h, http.MethodDelete, target+"/favorite", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	got, err = store.GetByID(item.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.Tags, "favorite")
}

func TestStreamDirectoryRejected(t *testing.T) {
	h, store := newTestRouter(t, config.DefaultAuthToken)
	seedFiles(t, store)

	dir, err := store.GetByPath("/Media")
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodGet, "/api/stream/"+itoa(dir.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

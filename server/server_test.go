package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/settings"
	"github.com/UBH-Fall-2024/FileSeekr/storage/badger"
)

type fakeSearcher struct {
	results  []*core.SearchResult
	gotQuery string
	gotLimit int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	if err := core.ValidateQuery(query); err != nil {
		return nil, err
	}
	f.gotQuery = query
	f.gotLimit = maxHits
	return f.results, nil
}

type fakeOpener struct {
	err    error
	opened []string
}

func (f *fakeOpener) Open(ctx context.Context, path string) error {
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, path)
	return nil
}

type testServer struct {
	*Server
	searcher *fakeSearcher
	opener   *fakeOpener
	store    *settings.Store
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	backend, err := badger.OpenBackend("", true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	store, err := settings.NewStore(context.Background(), badger.NewSettingsRepository(backend))
	require.NoError(t, err)

	searcher := &fakeSearcher{}
	opener := &fakeOpener{}
	srv, err := NewServer(searcher, opener, store, WithMaxHits(7))
	require.NoError(t, err)
	return &testServer{Server: srv, searcher: searcher, opener: opener, store: store}
}

func (ts *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	_, err := NewServer(nil, &fakeOpener{}, nil)
	assert.ErrorIs(t, err, ErrSearcherRequired)

	_, err = NewServer(&fakeSearcher{}, nil, nil)
	assert.ErrorIs(t, err, ErrOpenerRequired)

	_, err = NewServer(&fakeSearcher{}, &fakeOpener{}, nil)
	assert.ErrorIs(t, err, ErrSettingsRequired)
}

func TestHealthRoutes(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{"/", "/api/test"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		resp := decode[MessageResponse](t, rec)
		assert.NotEmpty(t, resp.Message, path)
	}
}

func TestHandleSearch(t *testing.T) {
	t.Run("returns ranked results", func(t *testing.T) {
		ts := setupTestServer(t)
		ts.searcher.results = []*core.SearchResult{
			{Similarity: 0.9, Filename: "report.txt", FileType: core.FileTypeDocument, SizeBytes: 20, Thumbnail: "icon:document", Path: "/docs/report.txt"},
			{Similarity: 0.4, Filename: "notes.txt", FileType: core.FileTypeDocument, SizeBytes: 24, Path: "/docs/notes.txt"},
		}

		rec := ts.do(t, http.MethodGet, "/search?q=revenue", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[SearchResponse](t, rec)
		require.Equal(t, 2, resp.Len)
		assert.Equal(t, "report.txt", resp.Results[0].Filename)
		assert.Equal(t, "document", resp.Results[0].FileType)
		require.NotNil(t, resp.Results[0].Thumbnail)
		assert.Equal(t, "icon:document", *resp.Results[0].Thumbnail)
		assert.Nil(t, resp.Results[1].Thumbnail)
		assert.Equal(t, "revenue", ts.searcher.gotQuery)
		assert.Equal(t, 7, ts.searcher.gotLimit)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		ts := setupTestServer(t)
		rec := ts.do(t, http.MethodGet, "/search?q=nothing", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"results":[],"len":0}`, rec.Body.String())
	})

	t.Run("missing or blank query is rejected", func(t *testing.T) {
		ts := setupTestServer(t)
		for _, target := range []string{"/search", "/search?q=", "/search?q=%20%20"} {
			rec := ts.do(t, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, target)
			resp := decode[QueryError](t, rec)
			assert.NotEmpty(t, resp.Error)
		}
	})

	t.Run("limit is honored and bounded", func(t *testing.T) {
		ts := setupTestServer(t)
		rec := ts.do(t, http.MethodGet, "/search?q=x&limit=3", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, ts.searcher.gotLimit)

		rec = ts.do(t, http.MethodGet, "/search?q=x&limit=0", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec = ts.do(t, http.MethodGet, "/search?q=x&limit=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleOpen(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"success", nil, http.StatusOK},
		{"not found", fmt.Errorf("%w: /gone", core.ErrNotFound), http.StatusNotFound},
		{"denied", fmt.Errorf("%w: /secret", core.ErrDenied), http.StatusForbidden},
		{"launcher failure", errors.New("xdg-open exited 3"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)
			ts.opener.err = tt.err

			rec := ts.do(t, http.MethodPost, "/api/open", OpenRequest{Path: "/docs/report.txt"})
			assert.Equal(t, tt.status, rec.Code)

			resp := decode[SuccessResponse](t, rec)
			assert.Equal(t, tt.err == nil, resp.Success)
			if tt.err == nil {
				assert.Equal(t, []string{"/docs/report.txt"}, ts.opener.opened)
			} else {
				assert.NotEmpty(t, resp.Error)
			}
		})
	}

	t.Run("empty path", func(t *testing.T) {
		ts := setupTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/open", OpenRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, ts.opener.opened)
	})
}

func TestHandleSaveSettings(t *testing.T) {
	t.Run("saves paths and toggles", func(t *testing.T) {
		ts := setupTestServer(t)
		ocr := true
		rec := ts.do(t, http.MethodPost, "/api/settings/paths", SettingsRequest{
			Paths:         []string{"/docs", "~/Pictures"},
			FileTypes:     &FileTypes{Documents: true, Images: true},
			CloudServices: map[string]bool{"dropbox": true, "oneDrive": false},
			OCREnabled:    &ocr,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[SuccessResponse](t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, uint64(1), resp.Version)

		current := ts.store.Current()
		assert.Equal(t, []string{"/docs", "~/Pictures"}, current.Paths)
		assert.Equal(t, []core.FileType{core.FileTypeDocument, core.FileTypeImage}, current.FileTypes)
		assert.Equal(t, []core.CloudService{core.CloudDropbox}, current.CloudServices)
		assert.True(t, current.OCREnabled)
	})

	t.Run("omitted optional fields keep current values", func(t *testing.T) {
		ts := setupTestServer(t)
		ocr := true
		rec := ts.do(t, http.MethodPost, "/api/settings/paths", SettingsRequest{Paths: []string{"/a"}, OCREnabled: &ocr})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(t, http.MethodPost, "/api/settings/paths", SettingsRequest{Paths: []string{"/b"}})
		require.Equal(t, http.StatusOK, rec.Code)

		current := ts.store.Current()
		assert.Equal(t, []string{"/b"}, current.Paths)
		assert.True(t, current.OCREnabled)
		assert.Len(t, current.FileTypes, len(core.SelectableFileTypes))
	})

	t.Run("validation failure changes nothing", func(t *testing.T) {
		ts := setupTestServer(t)
		before := ts.store.Current()

		for _, req := range []SettingsRequest{
			{Paths: []string{"relative/path"}},
			{Paths: []string{"/docs", "/docs/"}},
			{Paths: []string{""}},
			{Paths: []string{"/docs"}, CloudServices: map[string]bool{"icloud": true}},
		} {
			rec := ts.do(t, http.MethodPost, "/api/settings/paths", req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[SuccessResponse](t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		}

		assert.Equal(t, before, ts.store.Current())
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := setupTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/settings/paths", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleGetSettings(t *testing.T) {
	ts := setupTestServer(t)
	_, err := ts.store.Save(context.Background(), &core.Settings{
		Paths:         []string{"/docs"},
		FileTypes:     []core.FileType{core.FileTypeAudio},
		CloudServices: []core.CloudService{core.CloudGoogleDrive},
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SettingsResponse](t, rec)
	assert.Equal(t, []string{"/docs"}, resp.Paths)
	assert.Equal(t, FileTypes{Audio: true}, resp.FileTypes)
	assert.Equal(t, map[string]bool{"dropbox": false, "googleDrive": true, "oneDrive": false}, resp.CloudServices)
	assert.Equal(t, uint64(1), resp.Version)
}

func TestCORSAndErrors(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/search?q=x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = ts.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, "Not Found", resp.Error)
}

func TestMetricsRoute(t *testing.T) {
	ts := setupTestServer(t)
	ts.do(t, http.MethodGet, "/api/test", nil)

	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fileseekr_http_requests_total")
}

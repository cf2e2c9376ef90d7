package server

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/UBH-Fall-2024/FileSeekr/core"
)

const maxLimit = 100

// MessageResponse is the body for GET / and GET /api/test.
type MessageResponse struct {
	Message string `json:"message"`
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Similarity float32 `json:"similarity"`
	Filename   string  `json:"filename"`
	FileType   string  `json:"filetype"`
	Size       int64   `json:"size"`
	Thumbnail  *string `json:"thumbnail"`
	Path       string  `json:"path"`
}

// SearchResponse is the body for GET /search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Len     int            `json:"len"`
}

// QueryError is the body for a rejected search.
type QueryError struct {
	Error string `json:"error"`
}

// OpenRequest is the body for POST /api/open.
type OpenRequest struct {
	Path string `json:"path"`
}

// SuccessResponse reports the outcome of a mutating call.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Version uint64 `json:"version,omitempty"`
}

// FileTypes is the per-category toggle set used by the settings UI.
type FileTypes struct {
	Documents bool `json:"documents"`
	Images    bool `json:"images"`
	Videos    bool `json:"videos"`
	Audio     bool `json:"audio"`
}

// SettingsRequest is the body for POST /api/settings/paths. Omitted optional
// fields keep their current values.
type SettingsRequest struct {
	Paths         []string        `json:"paths"`
	FileTypes     *FileTypes      `json:"fileTypes"`
	CloudServices map[string]bool `json:"cloudServices,omitempty"`
	OCREnabled    *bool           `json:"ocrEnabled,omitempty"`
}

// SettingsResponse is the body for GET /api/settings.
type SettingsResponse struct {
	Paths         []string        `json:"paths"`
	FileTypes     FileTypes       `json:"fileTypes"`
	CloudServices map[string]bool `json:"cloudServices"`
	OCREnabled    bool            `json:"ocrEnabled"`
	Version       uint64          `json:"version"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: "FileSeekr backend is running"})
}

func (s *Server) handleTest(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: "Hello from FileSeekr!"})
}

func (s *Server) handleSearch(c echo.Context) error {
	query := c.QueryParam("q")
	if strings.TrimSpace(query) == "" {
		return c.JSON(http.StatusBadRequest, QueryError{Error: "Query parameter 'q' is required."})
	}

	limit := s.maxHits
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			return c.JSON(http.StatusBadRequest, QueryError{Error: "Query parameter 'limit' must be between 1 and 100."})
		}
		limit = n
	}

	results, err := s.searcher.Search(c.Request().Context(), query, limit)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			return c.JSON(http.StatusBadRequest, QueryError{Error: err.Error()})
		}
		return err
	}

	resp := SearchResponse{Results: make([]SearchResult, 0, len(results))}
	for _, r := range results {
		item := SearchResult{
			Similarity: r.Similarity,
			Filename:   r.Filename,
			FileType:   r.FileType.String(),
			Size:       r.SizeBytes,
			Path:       r.Path,
		}
		if r.Thumbnail != "" {
			thumb := r.Thumbnail
			item.Thumbnail = &thumb
		}
		resp.Results = append(resp.Results, item)
	}
	resp.Len = len(resp.Results)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleOpen(c echo.Context) error {
	var req OpenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, SuccessResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Path) == "" {
		return c.JSON(http.StatusBadRequest, SuccessResponse{Error: "path is required"})
	}

	err := s.opener.Open(c.Request().Context(), req.Path)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, SuccessResponse{Success: true})
	case errors.Is(err, core.ErrNotFound):
		return c.JSON(http.StatusNotFound, SuccessResponse{Error: err.Error()})
	case errors.Is(err, core.ErrDenied):
		return c.JSON(http.StatusForbidden, SuccessResponse{Error: err.Error()})
	default:
		s.logger.Error("open failed", "path", req.Path, "err", err)
		return c.JSON(http.StatusInternalServerError, SuccessResponse{Error: err.Error()})
	}
}

func (s *Server) handleGetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, settingsResponse(s.settings.Current()))
}

func (s *Server) handleSaveSettings(c echo.Context) error {
	var req SettingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, SuccessResponse{Error: "invalid request body"})
	}

	next, err := applyRequest(s.settings.Current(), &req)
	if err == nil {
		next, err = s.settings.Save(c.Request().Context(), next)
	}
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, SuccessResponse{Success: true, Version: next.Version})
	case errors.Is(err, core.ErrValidation):
		return c.JSON(http.StatusBadRequest, SuccessResponse{Error: err.Error()})
	default:
		s.logger.Error("failed to save settings", "err", err)
		return c.JSON(http.StatusInternalServerError, SuccessResponse{Error: err.Error()})
	}
}

// applyRequest builds the next settings from the current ones and the request.
func applyRequest(current *core.Settings, req *SettingsRequest) (*core.Settings, error) {
	next := current.Clone()
	next.Paths = req.Paths
	if next.Paths == nil {
		next.Paths = []string{}
	}

	if req.FileTypes != nil {
		next.FileTypes = []core.FileType{}
		for _, t := range core.SelectableFileTypes {
			if req.FileTypes.enabled(t) {
				next.FileTypes = append(next.FileTypes, t)
			}
		}
	}

	if req.CloudServices != nil {
		next.CloudServices = nil
		for name, on := range req.CloudServices {
			if !on {
				continue
			}
			if !slices.Contains(core.KnownCloudServices, core.CloudService(name)) {
				return nil, fmt.Errorf("%w: %w: %q", core.ErrValidation, core.ErrUnknownCloudService, name)
			}
		}
		for _, service := range core.KnownCloudServices {
			if req.CloudServices[string(service)] {
				next.CloudServices = append(next.CloudServices, service)
			}
		}
	}

	if req.OCREnabled != nil {
		next.OCREnabled = *req.OCREnabled
	}
	return next, nil
}

func (f *FileTypes) enabled(t core.FileType) bool {
	switch t {
	case core.FileTypeDocument:
		return f.Documents
	case core.FileTypeImage:
		return f.Images
	case core.FileTypeVideo:
		return f.Videos
	case core.FileTypeAudio:
		return f.Audio
	}
	return false
}

func settingsResponse(s *core.Settings) SettingsResponse {
	resp := SettingsResponse{
		Paths: s.Paths,
		FileTypes: FileTypes{
			Documents: s.FileTypeEnabled(core.FileTypeDocument),
			Images:    s.FileTypeEnabled(core.FileTypeImage),
			Videos:    s.FileTypeEnabled(core.FileTypeVideo),
			Audio:     s.FileTypeEnabled(core.FileTypeAudio),
		},
		CloudServices: make(map[string]bool, len(core.KnownCloudServices)),
		OCREnabled:    s.OCREnabled,
		Version:       s.Version,
	}
	if resp.Paths == nil {
		resp.Paths = []string{}
	}
	for _, service := range core.KnownCloudServices {
		resp.CloudServices[string(service)] = slices.Contains(s.CloudServices, service)
	}
	return resp
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/po-you/poyou/internal/models"
	"github.com/po-you/poyou/internal/search"
	"github.com/po-you/poyou/internal/store"
)

// maxUploadBytes bounds a multipart poster upload.
const maxUploadBytes = 32 << 20

func (s *Server) handleSearchPosters(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseSearchQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("keyword", q.Keyword), zap.Int("limit", q.Limit))
	response, err := s.engine.Search(r.Context(), q)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// parseSearchQuery maps URL query parameters onto a search query. category
// and status accept comma-separated lists; limits come from the search config.
func (s *Server) parseSearchQuery(r *http.Request) (*models.SearchQuery, error) {
	v := r.URL.Query()
	q := &models.SearchQuery{
		Keyword:       v.Get("keyword"),
		Tag:           v.Get("tag"),
		Categories:    splitParam(v.Get("category")),
		ReferenceDate: v.Get("date"),
		Order:         models.Order(v.Get("order")),
	}
	for _, raw := range splitParam(v.Get("status")) {
		q.Statuses = append(q.Statuses, models.Status(raw))
	}
	var err error
	if q.Limit, err = intParam(v.Get("limit")); err != nil {
		return nil, err
	}
	if q.Offset, err = intParam(v.Get("offset")); err != nil {
		return nil, err
	}
	if err := q.Validate(s.config.Search.DefaultLimit, s.config.Search.MaxLimit); err != nil {
		return nil, err
	}
	return q, nil
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid numeric parameter")
	}
	return n, nil
}

func (s *Server) handleCreatePoster(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	var input models.PosterInput
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid metadata")
			return
		}
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	if !input.Category.Valid() {
		input.Category = s.classifier.PredictCategory(&input)
	}

	s.logger.Debug("create poster request", zap.String("title", input.Title), zap.String("category", string(input.Category)))
	poster, err := s.store.Create(r.Context(), &input, image, filepath.Ext(header.Filename))
	if err != nil {
		s.respondStoreError(w, "create poster failed", err)
		return
	}
	s.engine.Invalidate()
	s.respondJSON(w, http.StatusCreated, poster)
}

func (s *Server) handleGetPoster(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	poster, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, "get poster failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, poster)
}

func (s *Server) handleDeletePoster(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete poster request", zap.String("id", id))
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.respondStoreError(w, "delete poster failed", err)
		return
	}
	s.engine.Invalidate()
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// imageContentTypes maps accepted asset extensions to media types.
var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	poster, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, "get poster failed", err)
		return
	}
	image, err := store.ReadImage(poster)
	if err != nil {
		s.respondStoreError(w, "read image failed", err)
		return
	}
	contentType := imageContentTypes[strings.ToLower(filepath.Ext(poster.ImagePath))]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filepath.Base(poster.ImagePath)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image)
}

func (s *Server) handleSimilarPosters(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := s.config.Search.SimilarLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := intParam(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if n > 0 {
			limit = n
		}
	}
	results, err := s.engine.Similar(r.Context(), id, limit)
	if err != nil {
		s.respondStoreError(w, "similar posters failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var input models.PosterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	category := s.classifier.PredictCategory(&input)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"category":        category,
		"model_available": s.classifier.Available(),
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var profile models.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q := search.ProfileQuery(&profile)
	if len(q.Categories) == 0 {
		// No stated preference; infer one from the profile text.
		predicted := s.classifier.PredictCategory(search.ProfileInput(&profile))
		q.Categories = []string{string(predicted)}
	}
	s.logger.Debug("recommend request", zap.Strings("interests", profile.Interests), zap.Strings("categories", q.Categories))
	response, err := s.engine.Search(r.Context(), q)
	if err != nil {
		s.logger.Error("recommend failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count posters failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"posters":         count,
		"index_version":   s.engine.Version(),
		"index_size":      s.engine.Size(),
		"model_available": s.classifier.Available(),
		"storage_backend": s.config.Storage.Backend,
	}
	diskBytes, err := store.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.AssetDir,
		s.config.Storage.DataDir,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondStoreError maps store errors onto HTTP statuses: validation
// failures to 400, missing records to 404, anything else to 500.
func (s *Server) respondStoreError(w http.ResponseWriter, msg string, err error) {
	switch {
	case store.IsValidation(err):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "poster not found")
	default:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

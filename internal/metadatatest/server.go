// Package metadatatest is a reference in-memory implementation of the
// metadata store HTTP contract , used solely to exercise and
// integration-test pkg/dbgateway's Client. It is scaffolding for tests, not
// a production metadata store: it owns no schema or DDL of its own, and is
// not imported by the sync daemon.
package metadatatest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marmos91/dittosync/pkg/dbgateway"
)

// Server is an in-memory, mutex-guarded implementation of the files and
// file_contents tables plus the upload queue RPCs.
type Server struct {
	apiKey string

	mu       sync.Mutex
	files    map[string]*dbgateway.FileRecord
	contents map[string]*dbgateway.ContentRecord

	staleUploadThreshold time.Duration
	uploadingSince       map[string]time.Time
}

// New creates a Server that requires apiKey in the X-API-Key header.
func New(apiKey string) *Server {
	return &Server{
		apiKey:               apiKey,
		files:                make(map[string]*dbgateway.FileRecord),
		contents:             make(map[string]*dbgateway.ContentRecord),
		uploadingSince:       make(map[string]time.Time),
		staleUploadThreshold: 15 * time.Minute,
	}
}

// Router builds the chi mux implementing the metadata HTTP contract.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.authMiddleware)

	r.Get("/v1/files", s.handleFetchPathMap)
	r.Put("/v1/files/*", s.handleUpsertFile)
	r.Patch("/v1/files:mark-deleted", s.handleMarkDeleted)
	r.Patch("/v1/files/*", s.handleTouch)
	r.Put("/v1/contents/{hash}", s.handleUpsertContent)
	r.Post("/v1/contents:dequeue", s.handleDequeue)
	r.Post("/v1/contents/{hash}:complete", s.handleComplete)
	r.Post("/v1/contents/{hash}:fail", s.handleFail)
	r.Post("/v1/contents/{hash}:skip", s.handleSkip)
	r.Post("/v1/contents:reset-stuck", s.handleResetStuck)

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("X-API-Key") != s.apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleFetchPathMap serves a stably-ordered, paginated view over the
// files table: GET /v1/files?limit=N&cursor=offset.
func (s *Server) handleFetchPathMap(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.files))
	for p, rec := range s.files {
		if rec.DeletedAt == nil {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	limit := 500
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	offset := 0
	if c := r.URL.Query().Get("cursor"); c != "" {
		if n, err := strconv.Atoi(c); err == nil {
			offset = n
		}
	}

	end := offset + limit
	if end > len(paths) {
		end = len(paths)
	}

	resp := struct {
		Files      []dbgateway.FileRecord `json:"files"`
		NextCursor string                 `json:"next_cursor"`
	}{}

	for _, p := range paths[minInt(offset, len(paths)):end] {
		resp.Files = append(resp.Files, *s.files[p])
	}
	if end < len(paths) {
		resp.NextCursor = strconv.Itoa(end)
	}

	writeJSON(w, http.StatusOK, resp)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// handleUpsertFile serves PUT /v1/files/{full_path}: merges on full_path,
// clearing deleted_at (resurrection).
func (s *Server) handleUpsertFile(w http.ResponseWriter, r *http.Request) {
	var rec dbgateway.FileRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	fullPath := strings.TrimPrefix(r.URL.Path, "/v1/files")
	rec.FullPath = fullPath
	rec.DeletedAt = nil
	rec.DBUpdatedAt = time.Now()

	s.mu.Lock()
	s.files[fullPath] = &rec
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, rec)
}

// handleTouch serves PATCH /v1/files/{full_path}/touch.
func (s *Server) handleTouch(w http.ResponseWriter, r *http.Request) {
	fullPath := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/files"), "/touch")

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[fullPath]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rec.LastSeenAt = time.Now()
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleMarkDeleted(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PathPrefix string    `json:"path_prefix"`
		Before     time.Time `json:"before"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	now := time.Now()
	for _, rec := range s.files {
		if rec.DeletedAt != nil {
			continue
		}
		if !strings.HasPrefix(rec.FullPath, req.PathPrefix) {
			continue
		}
		if rec.LastSeenAt.Before(req.Before) {
			t := now
			rec.DeletedAt = &t
			count++
		}
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// handleUpsertContent serves PUT /v1/contents/{hash}: merges on
// content_hash, inserting pending if absent, never regressing status.
func (s *Server) handleUpsertContent(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	var req struct {
		SizeBytes uint64 `json:"size_bytes"`
		MimeType  string `json:"mime_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.contents[hash]
	if !ok {
		rec = &dbgateway.ContentRecord{
			ContentHash:  hash,
			UploadStatus: dbgateway.StatusPending,
			CreatedAt:    time.Now(),
		}
		s.contents[hash] = rec
	}
	rec.SizeBytes = req.SizeBytes
	rec.MimeType = req.MimeType
	rec.UpdatedAt = time.Now()

	writeJSON(w, http.StatusOK, rec)
}

// handleDequeue serves POST /v1/contents:dequeue: the sole synchronization
// point between Uploader replicas, atomic under the server mutex.
func (s *Server) handleDequeue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BatchSize    int      `json:"batch_size"`
		PathPrefixes []string `json:"path_prefixes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reachable := s.reachableContentLocked(req.PathPrefixes)

	var refs []dbgateway.ContentRef
	for hash, rec := range s.contents {
		if len(refs) >= req.BatchSize {
			break
		}
		if rec.UploadStatus != dbgateway.StatusPending {
			continue
		}
		path, ok := reachable[hash]
		if !ok {
			continue
		}
		rec.UploadStatus = dbgateway.StatusUploading
		s.uploadingSince[hash] = time.Now()
		refs = append(refs, dbgateway.ContentRef{
			ContentHash: hash,
			FullPath:    path,
			SizeBytes:   rec.SizeBytes,
			MimeType:    rec.MimeType,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": refs})
}

// reachableContentLocked builds a content_hash → one-live-path index for
// files under any of prefixes. Caller must hold s.mu.
func (s *Server) reachableContentLocked(prefixes []string) map[string]string {
	out := make(map[string]string)
	for path, rec := range s.files {
		if rec.DeletedAt != nil || rec.ContentHash == "" {
			continue
		}
		if len(prefixes) > 0 && !hasAnyPrefix(path, prefixes) {
			continue
		}
		if _, exists := out[rec.ContentHash]; !exists {
			out[rec.ContentHash] = path
		}
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	var req struct {
		StoragePath string `json:"storage_path"`
		MimeType    string `json:"mime_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.contents[hash]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rec.UploadStatus = dbgateway.StatusUploaded
	rec.StoragePath = req.StoragePath
	rec.MimeType = req.MimeType
	rec.UpdatedAt = time.Now()
	delete(s.uploadingSince, hash)

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleFail(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	var req struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.contents[hash]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rec.UploadStatus = dbgateway.StatusPending
	rec.LastError = req.Error
	rec.RetryCount++
	rec.UpdatedAt = time.Now()
	delete(s.uploadingSince, hash)

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.contents[hash]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rec.UploadStatus = dbgateway.StatusSkipped
	rec.LastError = req.Reason
	rec.UpdatedAt = time.Now()
	delete(s.uploadingSince, hash)

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleResetStuck(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	now := time.Now()
	for hash, since := range s.uploadingSince {
		if now.Sub(since) < s.staleUploadThreshold {
			continue
		}
		if rec, ok := s.contents[hash]; ok {
			rec.UploadStatus = dbgateway.StatusPending
			rec.UpdatedAt = now
		}
		delete(s.uploadingSince, hash)
		count++
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

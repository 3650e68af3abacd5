package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sundazed/mymusic/internal/formatter"
	"github.com/sundazed/mymusic/internal/jobs"
	"github.com/sundazed/mymusic/internal/match"
	"github.com/sundazed/mymusic/internal/models"
	"github.com/sundazed/mymusic/internal/services"
	"github.com/sundazed/mymusic/internal/shared"
)

// PlaylistStore is the persistence surface the API needs for playlists.
type PlaylistStore interface {
	Create(playlist *models.Playlist) error
	Get(id string) (*models.Playlist, error)
	Delete(id string) error
	List() ([]models.PlaylistSummary, error)
}

// HistoryStore is the persistence surface the API needs for download history.
type HistoryStore interface {
	Recent(limit int) ([]models.HistoryEntry, error)
	TopArtists(limit int) ([]models.ArtistCount, error)
}

// LyricsLookup fetches lyrics for a track signature.
type LyricsLookup interface {
	Lookup(ctx context.Context, title, artist, album string, durationSeconds float64) (*services.Lyrics, error)
}

// API serves the JSON endpoints for conversions, lookups and downloads.
type API struct {
	logger      *log.Logger
	matcher     *match.Matcher
	options     match.Options
	registry    *jobs.Registry
	playlists   PlaylistStore
	history     HistoryStore
	lyrics      LyricsLookup
	downloadDir string
}

// APIOpts configures the API handler. Logger and Matcher are required; nil
// stores disable their endpoints with 503 responses.
type APIOpts struct {
	Logger      *log.Logger
	Matcher     *match.Matcher
	Options     match.Options
	Registry    *jobs.Registry
	Playlists   PlaylistStore
	History     HistoryStore
	Lyrics      LyricsLookup
	DownloadDir string
}

// NewAPI creates the API handler.
func NewAPI(opts APIOpts) *API {
	registry := opts.Registry
	if registry == nil {
		registry = jobs.NewRegistry()
	}
	return &API{
		logger:      opts.Logger,
		matcher:     opts.Matcher,
		options:     opts.Options,
		registry:    registry,
		playlists:   opts.Playlists,
		history:     opts.History,
		lyrics:      opts.Lyrics,
		downloadDir: opts.DownloadDir,
	}
}

// Routes returns the HTTP routes this handler serves.
func (a *API) Routes() []string {
	return []string{
		"/api/health",
		"/api/search",
		"/api/convert",
		"/api/jobs/{id}",
		"/api/playlists",
		"/api/playlists/{id}",
		"/api/history",
		"/api/lyrics",
		"/api/downloads",
		"/api/downloads/{file}",
	}
}

// ServeHTTP dispatches to the endpoint handlers.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/api/health" && r.Method == http.MethodGet:
		a.handleHealth(w, r)
	case path == "/api/search" && r.Method == http.MethodPost:
		a.handleSearch(w, r)
	case path == "/api/convert" && r.Method == http.MethodPost:
		a.handleConvert(w, r)
	case strings.HasPrefix(path, "/api/jobs/") && r.Method == http.MethodGet:
		a.handleJob(w, r)
	case path == "/api/playlists" && r.Method == http.MethodGet:
		a.handlePlaylists(w, r)
	case strings.HasPrefix(path, "/api/playlists/") && r.Method == http.MethodGet:
		a.handlePlaylist(w, r)
	case strings.HasPrefix(path, "/api/playlists/") && r.Method == http.MethodDelete:
		a.handlePlaylistDelete(w, r)
	case path == "/api/history" && r.Method == http.MethodGet:
		a.handleHistory(w, r)
	case path == "/api/lyrics" && r.Method == http.MethodGet:
		a.handleLyrics(w, r)
	case path == "/api/downloads" && r.Method == http.MethodGet:
		a.handleDownloads(w, r)
	case strings.HasPrefix(path, "/api/downloads/") && r.Method == http.MethodGet:
		a.handleDownloadFile(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.MaxResults <= 0 || req.MaxResults > 10 {
		req.MaxResults = 3
	}

	candidates, err := a.matcher.Search(r.Context(), req.Query, req.MaxResults)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

// handleConvert accepts a playlist CSV (multipart "file" field or raw body)
// and starts an asynchronous conversion job.
func (a *API) handleConvert(w http.ResponseWriter, r *http.Request) {
	playlistName := r.URL.Query().Get("playlist")

	body, name, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if playlistName == "" {
		playlistName = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if playlistName == "" {
		playlistName = "Converted Playlist"
	}

	rows, err := formatter.ParseSourceRows(strings.NewReader(body), playlistName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := a.options
	opts.PlaylistName = playlistName

	job := a.registry.Create()
	progress := make(chan match.ProgressUpdate, len(rows)+1)
	go job.Consume(progress)
	go a.runConversion(job, rows, opts, progress, playlistName)

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID()})
}

// runConversion drives a conversion to completion in the background. The
// request context is not used; jobs outlive their originating request.
func (a *API) runConversion(job *jobs.Job, rows []match.SourceRow, opts match.Options, progress chan match.ProgressUpdate, playlistName string) {
	defer close(progress)

	result, err := a.matcher.Convert(context.Background(), rows, opts, progress)
	if err != nil {
		job.Fail(err)
		return
	}

	if a.playlists != nil && result.SuccessCount > 0 {
		playlist := models.PlaylistFromResult(playlistName, result)
		if err := a.playlists.Create(playlist); err != nil && a.logger != nil {
			a.logger.Warn("failed to persist playlist", "name", playlistName, "err", err)
		}
	}

	job.Complete(result)
}

func (a *API) handleJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.registry.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (a *API) handlePlaylists(w http.ResponseWriter, _ *http.Request) {
	if a.playlists == nil {
		writeError(w, http.StatusServiceUnavailable, "playlist storage not configured")
		return
	}

	summaries, err := a.playlists.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": summaries})
}

func (a *API) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	if a.playlists == nil {
		writeError(w, http.StatusServiceUnavailable, "playlist storage not configured")
		return
	}

	playlist, err := a.playlists.Get(r.PathValue("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrPlaylistNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (a *API) handlePlaylistDelete(w http.ResponseWriter, r *http.Request) {
	if a.playlists == nil {
		writeError(w, http.StatusServiceUnavailable, "playlist storage not configured")
		return
	}

	if err := a.playlists.Delete(r.PathValue("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrPlaylistNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history storage not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := a.history.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (a *API) handleLyrics(w http.ResponseWriter, r *http.Request) {
	if a.lyrics == nil {
		writeError(w, http.StatusServiceUnavailable, "lyrics service not configured")
		return
	}

	query := r.URL.Query()
	title := query.Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	duration, _ := strconv.ParseFloat(query.Get("duration"), 64)

	lyrics, err := a.lyrics.Lookup(r.Context(), title, query.Get("artist"), query.Get("album"), duration)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, shared.ErrLyricsNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lyrics)
}

type downloadEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (a *API) handleDownloads(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(a.downloadDir)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusOK, map[string]any{"files": []downloadEntry{}})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	files := make([]downloadEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, downloadEntry{Name: entry.Name(), Size: info.Size()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (a *API) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	// filepath.Base strips any traversal components from the request.
	name := filepath.Base(r.PathValue("file"))
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	path := filepath.Join(a.downloadDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("file not found: %s", name))
		return
	}
	http.ServeFile(w, r, path)
}

// readUpload extracts the CSV payload from a multipart form or the raw body.
// Returns the content and the uploaded file name, when one was given.
func readUpload(r *http.Request) (string, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", "", fmt.Errorf("missing file field: %w", err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", "", fmt.Errorf("failed to read upload: %w", err)
		}
		return string(data), header.Filename, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) == 0 {
		return "", "", fmt.Errorf("empty request body")
	}
	return string(data), "", nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

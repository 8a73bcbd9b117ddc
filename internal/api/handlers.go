package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/tmtvocab/internal/progress"
	"github.com/example/tmtvocab/internal/quiz"
	"github.com/example/tmtvocab/internal/session"
	"github.com/example/tmtvocab/internal/vocabulary"
	"github.com/example/tmtvocab/pkg/models"
)

// SettingsStore persists small UI state. Implemented by
// database.SettingsRepository.
type SettingsStore interface {
	GetSelectedCategory() (models.Category, error)
	SetSelectedCategory(category models.Category) error
}

// SyncController is the part of the sync reconciler the API drives
type SyncController interface {
	AttachUser(userID string)
	UserID() string
	LastSyncTime() time.Time
	IsSyncing() bool
	SyncNow(ctx context.Context) error
}

// Handler contains all HTTP handlers
type Handler struct {
	catalog  *vocabulary.Catalog
	store    *progress.Store
	sessions *session.Repository
	settings SettingsStore
	syncer   SyncController // nil when no sync endpoint is configured

	// rand.Rand is not safe for concurrent use; handlers run on one
	// goroutine per request
	rngMu sync.Mutex
	rng   *rand.Rand

	now func() time.Time
}

// NewHandler creates a new handler. syncer may be nil when cloud sync
// is not configured.
func NewHandler(catalog *vocabulary.Catalog, store *progress.Store, sessions *session.Repository, settings SettingsStore, syncer SyncController) *Handler {
	return &Handler{
		catalog:  catalog,
		store:    store,
		sessions: sessions,
		settings: settings,
		syncer:   syncer,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// parseCategory reads a category filter, treating empty as "all"
func parseCategory(raw string) (models.Category, error) {
	category := models.Category(strings.ToLower(strings.TrimSpace(raw)))
	if category == "" || category == models.CategoryAll {
		return models.CategoryAll, nil
	}
	if !category.IsValid() {
		return "", errors.New("unknown category")
	}
	return category, nil
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"words":  h.catalog.Count(),
	})
}

// ListWords handles GET /api/v1/words
func (h *Handler) ListWords(w http.ResponseWriter, r *http.Request) {
	category, err := parseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	words := h.catalog.ByCategory(category)
	if words == nil {
		words = []models.Word{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"words": words,
		"total": len(words),
	})
}

// GenerateWords handles POST /api/v1/words/generate
func (h *Handler) GenerateWords(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := parseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	words, err := h.catalog.GenerateMore(r.Context(), category)
	if err != nil {
		writeError(w, http.StatusBadGateway, "word generation failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"words": words,
		"total": len(words),
	})
}

// GetProgress handles GET /api/v1/progress
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	records := h.store.Records()
	if records == nil {
		records = []models.Progress{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress": records,
		"total":    len(records),
	})
}

// GetDueWords handles GET /api/v1/progress/due
func (h *Handler) GetDueWords(w http.ResponseWriter, r *http.Request) {
	words := []models.Word{}
	for _, id := range h.store.DueForReview(h.now()) {
		if word, ok := h.catalog.Get(id); ok {
			words = append(words, word)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"words": words,
		"total": len(words),
	})
}

// GetBookmarks handles GET /api/v1/progress/bookmarks
func (h *Handler) GetBookmarks(w http.ResponseWriter, r *http.Request) {
	words := []models.Word{}
	for _, id := range h.store.Bookmarked() {
		if word, ok := h.catalog.Get(id); ok {
			words = append(words, word)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"words": words,
		"total": len(words),
	})
}

// RecordAnswer handles POST /api/v1/progress/{wordID}/answer
func (h *Handler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	wordID := chi.URLParam(r, "wordID")
	if _, ok := h.catalog.Get(wordID); !ok {
		writeError(w, http.StatusNotFound, "word not found")
		return
	}

	var req struct {
		Correct bool `json:"correct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, h.store.RecordAnswer(wordID, req.Correct))
}

// ToggleBookmark handles POST /api/v1/progress/{wordID}/bookmark
func (h *Handler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	wordID := chi.URLParam(r, "wordID")
	if _, ok := h.catalog.Get(wordID); !ok {
		writeError(w, http.StatusNotFound, "word not found")
		return
	}
	writeJSON(w, http.StatusOK, h.store.ToggleBookmark(wordID))
}

// GetStats handles GET /api/v1/progress/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalWordsLearned": h.store.TotalWordsLearned(),
		"learnedToday":      h.store.LearnedToday(now),
		"overallMastery":    h.store.OverallMastery(h.catalog.Count()),
		"streakDays":        h.store.StreakDays(now),
		"dueCount":          len(h.store.DueForReview(now)),
	})
}

// CreateSession handles POST /api/v1/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode     string `json:"mode"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode := models.StudyMode(req.Mode)
	if !mode.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown study mode")
		return
	}

	category, err := parseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	seq := session.NewSequencer(h.catalog, h.store)
	adv, err := seq.Start(r.Context(), mode, category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	// 立即完成的会话不需要保存
	if !adv.Done {
		h.sessions.Save(seq)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session": seq.Session(),
		"word":    adv.Word,
		"done":    adv.Done,
		"summary": adv.Summary,
	})
}

// AnswerSession handles POST /api/v1/sessions/{id}/answers
func (h *Handler) AnswerSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	seq, ok := h.sessions.Get(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req struct {
		Correct bool `json:"correct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	adv, err := seq.Answer(r.Context(), req.Correct)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotActive), errors.Is(err, session.ErrGenerationInFlight):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to record answer")
		}
		return
	}

	// 完成的会话不再保留
	if adv.Done {
		h.sessions.Delete(sessionID)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": seq.Session(),
		"word":    adv.Word,
		"done":    adv.Done,
		"summary": adv.Summary,
	})
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	seq, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": seq.Session(),
		"state":   seq.State(),
		"word":    seq.Current(),
	})
}

// GetQuizQuestion handles GET /api/v1/quiz/question
func (h *Handler) GetQuizQuestion(w http.ResponseWriter, r *http.Request) {
	category, err := parseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	pool := h.catalog.ByCategory(category)
	if len(pool) == 0 {
		writeError(w, http.StatusNotFound, "no words in category")
		return
	}

	h.rngMu.Lock()
	word := pool[h.rng.Intn(len(pool))]
	// 干扰项可以来自全部词库
	question, err := quiz.BuildQuestion(word, h.catalog.All(), h.rng)
	h.rngMu.Unlock()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, question)
}

// TriggerSync handles POST /api/v1/sync
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		writeError(w, http.StatusServiceUnavailable, "cloud sync is not configured")
		return
	}

	var req struct {
		UserID string `json:"userId"`
	}
	// 请求体可选, 也接受 X-User-ID 头
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.UserID == "" {
		req.UserID = r.Header.Get("X-User-ID")
	}
	if req.UserID != "" {
		h.syncer.AttachUser(req.UserID)
	}

	if h.syncer.UserID() == "" {
		writeError(w, http.StatusBadRequest, "no user attached")
		return
	}

	if err := h.syncer.SyncNow(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "sync failed")
		return
	}

	h.syncStatus(w)
}

// GetSyncStatus handles GET /api/v1/sync/status
func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		writeError(w, http.StatusServiceUnavailable, "cloud sync is not configured")
		return
	}
	h.syncStatus(w)
}

func (h *Handler) syncStatus(w http.ResponseWriter) {
	var lastSync interface{}
	if t := h.syncer.LastSyncTime(); !t.IsZero() {
		lastSync = t
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId":    h.syncer.UserID(),
		"isSyncing": h.syncer.IsSyncing(),
		"lastSync":  lastSync,
	})
}

// GetSelectedCategory handles GET /api/v1/settings/category
func (h *Handler) GetSelectedCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.settings.GetSelectedCategory()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"category": category})
}

// SetSelectedCategory handles PUT /api/v1/settings/category
func (h *Handler) SetSelectedCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := parseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	if err := h.settings.SetSelectedCategory(category); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"category": category})
}

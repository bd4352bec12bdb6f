// Package httpapi exposes the REST surface: memes, generation, chat history,
// the AI analyst, trends, searches and matches.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shabikihub/shabiki/internal/app/domain/meme"
	"github.com/shabikihub/shabiki/internal/app/metrics"
	"github.com/shabikihub/shabiki/internal/app/relay"
	"github.com/shabikihub/shabiki/internal/app/services/assistant"
	"github.com/shabikihub/shabiki/internal/app/services/matches"
	"github.com/shabikihub/shabiki/internal/app/services/memes"
	"github.com/shabikihub/shabiki/internal/app/services/trends"
	"github.com/shabikihub/shabiki/internal/app/storage"
	"github.com/shabikihub/shabiki/internal/middleware"
	"github.com/shabikihub/shabiki/pkg/logger"
)

const (
	memeListLimit    = 50
	chatHistoryLimit = 100
)

// Handler routes API requests to the underlying services.
type Handler struct {
	memes     *memes.Service
	assistant *assistant.Service
	trends    *trends.Service
	matches   *matches.Service
	chatStore storage.ChatStore
	hub       *relay.Hub
	limiter   *middleware.RateLimiter
	backend   string
	log       *logger.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	memeSvc *memes.Service,
	assistantSvc *assistant.Service,
	trendSvc *trends.Service,
	matchSvc *matches.Service,
	chatStore storage.ChatStore,
	hub *relay.Hub,
	limiter *middleware.RateLimiter,
	backend string,
	log *logger.Logger,
) *Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	if backend == "" {
		backend = "memory"
	}
	return &Handler{
		memes:     memeSvc,
		assistant: assistantSvc,
		trends:    trendSvc,
		matches:   matchSvc,
		chatStore: chatStore,
		hub:       hub,
		limiter:   limiter,
		backend:   backend,
		log:       log,
	}
}

// Routes builds the full router including middleware, websocket endpoint,
// health and metrics.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)
	r.Use(middleware.Logging(h.log))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/memes", h.listMemes).Methods(http.MethodGet)
	api.HandleFunc("/memes", h.createMeme).Methods(http.MethodPost)
	// Registered before the {id} route so "generate" is never read as an id.
	api.HandleFunc("/memes/generate/status", h.generationStatus).Methods(http.MethodGet)
	api.HandleFunc("/memes/generate", h.generateMeme).Methods(http.MethodPost)
	api.HandleFunc("/memes/{id}/like", h.likeMeme).Methods(http.MethodPost)

	api.HandleFunc("/chat/messages", h.listChatMessages).Methods(http.MethodGet)
	if h.limiter != nil {
		api.Handle("/ai/chat", h.limiter.Middleware(http.HandlerFunc(h.assistantChat))).Methods(http.MethodPost)
	} else {
		api.HandleFunc("/ai/chat", h.assistantChat).Methods(http.MethodPost)
	}

	api.HandleFunc("/trends", h.listTrends).Methods(http.MethodGet)
	api.HandleFunc("/trends/refresh", h.refreshTrends).Methods(http.MethodPost)
	api.HandleFunc("/searches", h.listSearches).Methods(http.MethodGet)
	api.HandleFunc("/matches/today", h.todayMatches).Methods(http.MethodGet)
	api.HandleFunc("/debug/storage", h.storageInfo).Methods(http.MethodGet)

	if h.hub != nil {
		r.HandleFunc("/ws/chat", h.hub.HandleWebSocket)
	}

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) storageInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"backend": h.backend})
}

func (h *Handler) listMemes(w http.ResponseWriter, r *http.Request) {
	items, err := h.memes.List(r.Context(), memeListLimit)
	if err != nil {
		h.log.WithError(err).Error("failed to list memes")
		writeError(w, http.StatusInternalServerError, "Failed to fetch memes")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) createMeme(w http.ResponseWriter, r *http.Request) {
	var input meme.NewMeme
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	created, err := h.memes.Create(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) likeMeme(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	updated, err := h.memes.Like(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Meme not found")
			return
		}
		h.log.WithError(err).Error("failed to like meme")
		writeError(w, http.StatusInternalServerError, "Failed to like meme")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) generationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.memes.Status(r.Context(), guestID(r))
	if err != nil {
		h.log.WithError(err).Error("failed to read generation status")
		writeError(w, http.StatusInternalServerError, "Failed to fetch generation status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) generateMeme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Topic string `json:"topic"`
	}
	if r.Body != nil {
		// An empty or malformed body falls through to the default topic.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	created, err := h.memes.Generate(r.Context(), guestID(r), body.Topic)
	if err != nil {
		limits := h.memes.Limits()
		switch {
		case errors.Is(err, storage.ErrGlobalLimitReached):
			writeError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Daily generation limit reached (%d).", limits.Global))
		case errors.Is(err, storage.ErrGuestLimitReached):
			writeError(w, http.StatusTooManyRequests,
				fmt.Sprintf("User daily limit reached (%d).", limits.PerGuest))
		default:
			h.log.WithError(err).Error("meme generation failed")
			writeError(w, http.StatusInternalServerError, "Failed to generate meme")
		}
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listChatMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chatStore.ListChatMessages(r.Context(), chatHistoryLimit)
	if err != nil {
		h.log.WithError(err).Error("failed to list chat messages")
		writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handler) assistantChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string           `json:"message"`
		History []assistant.Turn `json:"conversationHistory"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Message is required and must be a non-empty string")
		return
	}

	reply, err := h.assistant.Reply(r.Context(), body.Message, body.History)
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "Message is required and must be a non-empty string")
		case errors.Is(err, assistant.ErrMessageTooLong):
			writeError(w, http.StatusBadRequest, "Message must be less than 1000 characters")
		default:
			h.log.WithError(err).Error("assistant reply failed")
			writeError(w, http.StatusInternalServerError, "Failed to process chat message")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (h *Handler) listTrends(w http.ResponseWriter, r *http.Request) {
	topics, err := h.trends.Cached(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to fetch trends")
		writeError(w, http.StatusInternalServerError, "Failed to fetch trends")
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *Handler) refreshTrends(w http.ResponseWriter, r *http.Request) {
	topics, err := h.trends.Refresh(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to refresh trends")
		writeError(w, http.StatusInternalServerError, "Failed to refresh trends")
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *Handler) listSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := h.trends.Searches(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to fetch searches")
		writeError(w, http.StatusInternalServerError, "Failed to fetch searches")
		return
	}
	writeJSON(w, http.StatusOK, searches)
}

func (h *Handler) todayMatches(w http.ResponseWriter, r *http.Request) {
	fixtures, err := h.matches.Today(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to fetch matches")
		writeError(w, http.StatusInternalServerError, "Failed to fetch matches")
		return
	}
	writeJSON(w, http.StatusOK, fixtures)
}

// guestID reads the caller's self-declared identity header. Absent headers
// collapse into the shared anonymous identity.
func guestID(r *http.Request) string {
	return r.Header.Get("x-guest-id")
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/bsagevedant/akashvani-ai/internal/assistant"
	"github.com/bsagevedant/akashvani-ai/internal/audio"
	"github.com/bsagevedant/akashvani-ai/internal/audiostore"
	"github.com/bsagevedant/akashvani-ai/internal/config"
	"github.com/bsagevedant/akashvani-ai/internal/memory"
	"github.com/bsagevedant/akashvani-ai/internal/news"
	"github.com/bsagevedant/akashvani-ai/internal/observability"
	"github.com/bsagevedant/akashvani-ai/internal/speech"
)

const maxVoiceUploadBytes = 10 << 20

// Orchestrator is the conversation pipeline consumed by the HTTP layer.
type Orchestrator interface {
	HandleText(ctx context.Context, text, voice string) assistant.Reply
	HandleVoice(ctx context.Context, audio []byte, voice string) assistant.Reply
	HeadlinesOnly(ctx context.Context, category string) []news.Headline
	SessionInfo() assistant.SessionInfo
	ClearSession()
	SetVoicePreference(voice string) string
	CategoriesDescription() string
	RecentTurns(ctx context.Context, limit int) ([]memory.Record, error)
}

type Server struct {
	cfg          *config.Config
	orchestrator Orchestrator
	provider     assistant.NewsProvider
	blobs        *audiostore.Store
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
}

func New(cfg *config.Config, orchestrator Orchestrator, provider assistant.NewsProvider, blobs *audiostore.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		provider:     provider,
		blobs:        blobs,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Same-origin only unless explicitly opened up, so another
				// website cannot drive the assistant session from a browser.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/text", s.handleText)
	r.Post("/api/voice", s.handleVoice)
	r.Get("/api/audio/{id}", s.handleAudio)
	r.Get("/api/categories", s.handleCategories)
	r.Post("/api/news", s.handleNews)
	r.Get("/api/session", s.handleSession)
	r.Post("/api/session/clear", s.handleSessionClear)
	r.Get("/api/session/turns", s.handleSessionTurns)
	r.Get("/api/voices", s.handleVoices)
	r.Post("/api/voices", s.handleSetVoice)
	r.Get("/ws", s.handleWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ready",
		"pending_blobs": s.blobs.Len(),
	})
}

type textRequest struct {
	Text      string `json:"text"`
	VoiceType string `json:"voice_type"`
}

// conversationResponse is the reply shape shared by the text and voice
// endpoints. AudioURL points at the one-shot blob endpoint.
type conversationResponse struct {
	TextResponse   string          `json:"text_response"`
	AudioAvailable bool            `json:"audio_available"`
	AudioURL       string          `json:"audio_url,omitempty"`
	HeadlinesOnly  []news.Headline `json:"headlines_only,omitempty"`
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	reply := s.orchestrator.HandleText(r.Context(), req.Text, req.VoiceType)

	// The sidebar follows what the user asked for, not what came back.
	resp := s.buildResponse(r.Context(), reply, req.Text)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxVoiceUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart form upload")
		return
	}
	file, _, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "audio file is required")
		return
	}
	defer file.Close()

	audioBytes, err := io.ReadAll(io.LimitReader(file, maxVoiceUploadBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read audio upload")
		return
	}
	if len(audioBytes) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "audio upload is empty")
		return
	}

	voice := r.FormValue("voice_type")
	reply := s.orchestrator.HandleVoice(r.Context(), audioBytes, voice)

	// There is no trustworthy request text on this path, so the sidebar
	// follows the category the assistant ended up talking about.
	resp := s.buildResponse(r.Context(), reply, reply.Text)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) buildResponse(ctx context.Context, reply assistant.Reply, scanText string) conversationResponse {
	resp := conversationResponse{TextResponse: reply.Text}
	if len(reply.Audio) > 0 {
		id := s.blobs.Put(reply.Audio)
		s.metrics.PendingAudioBlobs.Set(float64(s.blobs.Len()))
		resp.AudioAvailable = true
		resp.AudioURL = "/api/audio/" + id
	}
	if category, ok := categoryIn(scanText); ok {
		resp.HeadlinesOnly = s.orchestrator.HeadlinesOnly(ctx, category)
	}
	return resp
}

// handleAudio serves a synthesized blob exactly once, wrapped as WAV.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pcm, ok := s.blobs.Take(id)
	if !ok {
		respondError(w, http.StatusNotFound, "audio_not_found", "audio not found or already served")
		return
	}
	s.metrics.PendingAudioBlobs.Set(float64(s.blobs.Len()))

	wav := audio.EncodeWAVPCM16LE(pcm, speech.SampleRate)
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"categories":  news.Categories,
		"description": s.orchestrator.CategoriesDescription(),
	})
}

type newsRequest struct {
	Category string `json:"category"`
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
}

// handleNews bypasses the classifier for clients that already know what they
// want: a query searches, a named category fetches, "general" returns the
// whole board.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	var req newsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	limit := req.Limit
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	switch {
	case strings.TrimSpace(req.Query) != "":
		query := strings.TrimSpace(req.Query)
		articles, err := s.provider.Search(r.Context(), query, limit)
		if err != nil {
			respondError(w, http.StatusBadGateway, "provider_error", "news search failed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"query":      query,
			"articles":   articles,
			"voice_text": news.FormatForVoice(articles, "search results for "+query),
		})
	case req.Category == "general":
		byCategory, err := s.provider.AllCategories(r.Context(), 3)
		if err != nil {
			respondError(w, http.StatusBadGateway, "provider_error", "news fetch failed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"category": "general",
			"articles": byCategory,
		})
	case news.IsCategory(req.Category):
		articles, err := s.provider.TopHeadlines(r.Context(), req.Category, s.cfg.NewsCountry, limit)
		if err != nil {
			respondError(w, http.StatusBadGateway, "provider_error", "news fetch failed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"category":   req.Category,
			"articles":   articles,
			"voice_text": news.FormatForVoice(articles, req.Category),
		})
	default:
		respondError(w, http.StatusBadRequest, "invalid_category", "unknown category")
	}
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.orchestrator.SessionInfo())
}

func (s *Server) handleSessionClear(w http.ResponseWriter, _ *http.Request) {
	s.orchestrator.ClearSession()
	respondJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}

func (s *Server) handleSessionTurns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 200")
			return
		}
		limit = n
	}
	turns, err := s.orchestrator.RecentTurns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "could not read turn log")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (s *Server) handleVoices(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"voices":  speech.AvailableVoices(),
		"default": speech.VoiceFemale,
	})
}

type setVoiceRequest struct {
	VoiceType string `json:"voice_type"`
}

func (s *Server) handleSetVoice(w http.ResponseWriter, r *http.Request) {
	var req setVoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	stored := s.orchestrator.SetVoicePreference(req.VoiceType)
	respondJSON(w, http.StatusOK, map[string]any{"voice_preference": stored})
}

// categoryIn returns the first fixed category mentioned in the text.
func categoryIn(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, category := range news.Categories {
		if strings.Contains(lower, category) {
			return category, true
		}
	}
	return "", false
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// Package server exposes the agent over HTTP for the web chat widget.
// The API is strict request/response JSON: one message in, one reply
// out, with the session token threading the conversation.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/agent"
	"github.com/wantokjobs/jean/internal/extract"
	"github.com/wantokjobs/jean/internal/storage"
)

const maxMessageLen = 4000

// IdentityResolver maps a request to a platform user id, 0 for guests.
// The platform fronts this service and forwards the authenticated user;
// the default resolver trusts its X-User-ID header.
type IdentityResolver func(r *http.Request) int64

func HeaderIdentity(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// Server handles the chat widget endpoints.
type Server struct {
	agent   *agent.Agent
	logger  *zap.Logger
	resolve IdentityResolver
}

func New(a *agent.Agent, logger *zap.Logger, resolve IdentityResolver) *Server {
	if resolve == nil {
		resolve = HeaderIdentity
	}
	return &Server{agent: a, logger: logger, resolve: resolve}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/", s.handleChat)
		r.Get("/history", s.handleHistory)
	})
	return r
}

type chatRequest struct {
	Message      string `json:"message"`
	SessionToken string `json:"session_token,omitempty"`
	Channel      string `json:"channel,omitempty"`

	// Optional inline document for the employer upload path.
	Attachment *attachment `json:"attachment,omitempty"`
}

type attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" && req.Attachment == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}
	if len(req.Message) > maxMessageLen {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is too long"})
		return
	}

	in := &agent.Inbound{
		Text:         req.Message,
		UserID:       s.resolve(r),
		SessionToken: req.SessionToken,
		Channel:      req.Channel,
	}
	if req.Attachment != nil {
		in.Attachment = &extract.Document{
			Filename: req.Attachment.Filename,
			Data:     []byte(req.Attachment.Content),
		}
	}

	reply, err := s.agent.Handle(r.Context(), in)
	if err != nil {
		s.logger.Error("chat handling failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "something went wrong"})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type historyResponse struct {
	SessionToken string            `json:"session_token"`
	Messages     []historyMessage  `json:"messages"`
}

type historyMessage struct {
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	QuickReplies []string  `json:"quick_replies,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("session_token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session_token is required"})
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	msgs, err := s.agent.History(r.Context(), token, limit)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown session"})
			return
		}
		s.logger.Error("history lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "something went wrong"})
		return
	}

	resp := historyResponse{SessionToken: token, Messages: make([]historyMessage, 0, len(msgs))}
	for _, m := range msgs {
		hm := historyMessage{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
		if m.Meta != nil {
			hm.QuickReplies = m.Meta.QuickReplies
		}
		resp.Messages = append(resp.Messages, hm)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

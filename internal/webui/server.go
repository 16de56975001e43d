// Package webui serves the HTTP API and the small browser client.
package webui

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"mentorbot/internal/chat"
	"mentorbot/internal/gateway"
	"mentorbot/internal/planner"
	"mentorbot/internal/session"
)

//go:embed static
var staticFiles embed.FS

// Server represents the Web UI backend server
type Server struct {
	gw     *gateway.Gateway
	addr   string
	logger *zap.Logger
}

func NewServer(gw *gateway.Gateway, addr string) *Server {
	if addr == "" {
		addr = ":8080"
	}
	return &Server{gw: gw, addr: addr, logger: gw.Logger.Named("webui")}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	origins := s.gw.Config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Delete("/sessions/{id}", s.handleDropSession)
		r.Post("/sessions/{id}/learner", s.handleSelectLearner)
		r.Post("/chat", s.handleChat)
		r.Get("/learners", s.handleLearners)
		r.Get("/lessons", s.handleLessons)
		r.Get("/schedule", s.handleSchedule)
		r.Get("/features", s.handleFeatures)
		r.Get("/status", s.handleStatus)
	})

	staticFS, _ := fs.Sub(staticFiles, "static")
	r.Handle("/*", http.FileServer(http.FS(staticFS)))
	return r
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web UI listening", zap.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("webui server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down web UI")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type createSessionRequest struct {
	LearnerID string `json:"learnerId"`
}

type sessionResponse struct {
	SessionID string           `json:"sessionId"`
	Learner   *planner.Learner `json:"learner,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var learner *planner.Learner
	if req.LearnerID != "" {
		l, err := s.gw.Store.Learner(r.Context(), req.LearnerID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		learner = &l
	}

	sess := s.gw.Sessions.Create()
	if learner != nil {
		sess.SetLearner(learner.ID)
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: sess.ID, Learner: learner})
}

func (s *Server) handleDropSession(w http.ResponseWriter, r *http.Request) {
	s.gw.Sessions.Drop(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectLearner(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LearnerID == "" {
		sess.SetLearner("")
		writeJSON(w, http.StatusOK, sessionResponse{SessionID: sess.ID})
		return
	}
	l, err := s.gw.SelectLearner(r.Context(), sess, req.LearnerID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sess.ID, Learner: &l})
}

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, ok := s.session(w, req.SessionID)
	if !ok {
		return
	}

	res, err := s.gw.Turn(r.Context(), sess, req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.Error("chat turn failed", zap.String("session", sess.ID), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleLearners(w http.ResponseWriter, r *http.Request) {
	learners, err := s.gw.Store.Learners(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(learners))
}

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := s.gw.Store.Lessons(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if subject := strings.ToLower(r.URL.Query().Get("subject")); subject != "" {
		filtered := lessons[:0]
		for _, l := range lessons {
			if l.Subject == subject {
				filtered = append(filtered, l)
			}
		}
		lessons = filtered
	}
	writeJSON(w, http.StatusOK, nonNil(lessons))
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	learnerID := r.URL.Query().Get("learnerId")
	if learnerID == "" {
		writeError(w, http.StatusBadRequest, "learnerId is required")
		return
	}
	items, err := s.gw.Store.Schedule(r.Context(), learnerID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, s.gw.Features.All())
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.gw.Features.Search(q)))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "online",
		"time":     time.Now().Format(time.RFC3339),
		"provider": s.gw.Config.Provider,
		"model":    s.gw.Config.Model,
		"sessions": s.gw.Sessions.Count(),
	})
}

func (s *Server) session(w http.ResponseWriter, id string) (*session.Session, bool) {
	sess, err := s.gw.Sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown session")
		return nil, false
	}
	return sess, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, planner.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("store error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

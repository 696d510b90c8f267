// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
	"github.com/0xcro3dile/staffassist/internal/domain/usecases"
)

const maxBodyBytes = 1 << 20

// Messages returned in the error envelope.
const (
	errBadRequest    = "Invalid request: a non-empty message is required."
	errInternal      = "Sorry, I encountered an error processing your request. Please try again."
	errInternalReply = "I apologize, but I encountered an error. Please try again or contact support if the issue persists."
)

// Options configures the listener.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server for the staff assistant API.
type Server struct {
	assistant *usecases.Assistant
	logger    *zap.Logger
	opts      Options
}

// NewServer creates a new HTTP server.
func NewServer(assistant *usecases.Assistant, opts Options, logger *zap.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{assistant: assistant, logger: logger, opts: opts}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/staff-assistant", s.handleAssistant)
	mux.HandleFunc("/api/sessions", s.handleSession)
	mux.HandleFunc("/api/health", s.handleHealth)

	return corsMiddleware(s.loggingMiddleware(s.recoverMiddleware(mux)))
}

// Start runs the HTTP server until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	s.logger.Info("staffassist server starting", zap.String("addr", s.opts.Addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// assistantRequest is the POST /api/staff-assistant body.
type assistantRequest struct {
	Message     string         `json:"message"`
	SessionID   string         `json:"sessionId"`
	StaffUserID string         `json:"staffUserId"`
	Context     map[string]any `json:"context,omitempty"`
}

// errorEnvelope is returned on 4xx/5xx so clients always have something to render.
type errorEnvelope struct {
	Error    string       `json:"error"`
	Response errorMessage `json:"response"`
}

type errorMessage struct {
	Type    entities.ResponseType `json:"type"`
	Content string                `json:"content"`
}

// handleAssistant answers one staff query.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req assistantRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.logger.Warn("malformed assistant request", zap.Error(err))
		writeError(w, http.StatusBadRequest, errBadRequest, errBadRequest)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, errBadRequest, errBadRequest)
		return
	}

	reply := s.assistant.Handle(r.Context(), entities.Query{
		Text:         req.Message,
		SessionID:    req.SessionID,
		AskerID:      req.StaffUserID,
		PriorContext: req.Context,
	})
	writeJSON(w, http.StatusOK, reply)
}

// handleSession returns the conversation log for ?id=.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id required"})
		return
	}

	log, err := s.assistant.History(r.Context(), id)
	if err != nil {
		s.logger.Error("reading session failed", zap.String("session", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read session"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId":       id,
		"conversationLog": log,
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, content string) {
	writeJSON(w, status, errorEnvelope{
		Error:    msg,
		Response: errorMessage{Type: entities.ResponseText, Content: content},
	})
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("panic in handler", zap.Any("panic", v), zap.String("path", r.URL.Path))
				writeError(w, http.StatusInternalServerError, errInternal, errInternalReply)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}

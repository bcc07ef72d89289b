package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shop-assistant/internal/logger"
	"shop-assistant/internal/metrics"
	"shop-assistant/internal/usecase"
)

const maxBodyBytes = 64 << 10

const (
	messageInternal    = "Internal server error"
	messageInvalidBody = "Request body must be a JSON object with a userEnquiry string"
	messageInvalidEnq  = "userEnquiry must not be empty"
)

// ChatUseCase answers one customer enquiry.
type ChatUseCase interface {
	Handle(ctx context.Context, enquiry string) (string, error)
}

type Handler struct {
	chat   ChatUseCase
	logger *zap.Logger
	router http.Handler
}

type chatbotRequest struct {
	UserEnquiry string `json:"userEnquiry"`
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
}

var now = func() time.Time { return time.Now().UTC() }

func NewHandler(chat ChatUseCase, log *zap.Logger) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{chat: chat, logger: log}
	h.router = h.routes()
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(h.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(correlationID)
	r.Use(wideEventMiddleware(h.logger))
	r.Use(metrics.Middleware())

	r.Post("/chatbot", h.chatbot)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "Cannot "+r.Method+" "+r.URL.Path)
	})
	return r
}

func (h *Handler) chatbot(w http.ResponseWriter, r *http.Request) {
	var req chatbotRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		logger.FromContext(r.Context()).Warn("invalid chatbot request body", zap.Error(err))
		writeError(w, r, http.StatusBadRequest, messageInvalidBody)
		return
	}

	reply, err := h.chat.Handle(r.Context(), req.UserEnquiry)
	if err != nil {
		status, message := mapError(err)
		writeError(w, r, status, message)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, reply)
}

// mapError turns a pipeline failure into a status and client-facing message.
// Only caller mistakes are surfaced; everything else is a generic 500.
func mapError(err error) (int, string) {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorInvalidInput {
		return http.StatusBadRequest, messageInvalidEnq
	}
	return http.StatusInternalServerError, messageInternal
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		StatusCode: status,
		Message:    message,
		Timestamp:  now().Format(time.RFC3339Nano),
		Path:       r.URL.Path,
	})
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"pretest-quiz-service/internal/app"
	"pretest-quiz-service/internal/domain"
)

var (
	errInvalidPayload     = errors.New("invalid payload")
	errUnsupportedMessage = errors.New("unsupported message type")
)

// SubmissionSaver stores payloads received by the collector endpoint.
type SubmissionSaver interface {
	SaveSubmission(ctx context.Context, payload domain.SubmissionPayload) error
}

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Service        *app.QuizService
	Collector      SubmissionSaver
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter mounts health, attempt, collector and websocket routes.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	api := &APIHandler{service: cfg.Service, collector: cfg.Collector, log: log.Named("api")}
	ws := NewWSHandler(cfg.Service, log.Named("ws"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log.Named("http")), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(15 * time.Second))
		gr.Post("/api/attempts", api.CreateAttempt)
		gr.Get("/api/attempts/{sessionID}/result", api.Result)
		if cfg.Collector != nil {
			gr.Post("/api/quiz/submit", api.CollectSubmission)
		}
	})
	return r
}

// APIHandler serves the JSON endpoints.
type APIHandler struct {
	service   *app.QuizService
	collector SubmissionSaver
	log       *zap.Logger
}

type createAttemptRequest struct {
	Grade     string `json:"grade"`
	LearnerID string `json:"learnerId"`
}

type createAttemptResponse struct {
	SessionID     string       `json:"sessionId"`
	Grade         domain.Grade `json:"grade"`
	QuestionCount int          `json:"questionCount"`
}

type collectResponse struct {
	Success bool `json:"success"`
	Answers int  `json:"answers"`
}

func (h *APIHandler) CreateAttempt(w http.ResponseWriter, r *http.Request) {
	var req createAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidPayload)
		return
	}
	grade, err := domain.ParseGrade(req.Grade)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	session, count, err := h.service.StartAttempt(r.Context(), r.URL.Query().Get("profileId"), grade, req.LearnerID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, createAttemptResponse{
		SessionID:     session.ID,
		Grade:         session.Grade,
		QuestionCount: count,
	})
}

func (h *APIHandler) Result(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Results(r.Context(), r.URL.Query().Get("profileId"), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// CollectSubmission is the backend collector: it accepts the wire payload
// produced by the submission client and stores it.
func (h *APIHandler) CollectSubmission(w http.ResponseWriter, r *http.Request) {
	var payload domain.SubmissionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidPayload)
		return
	}
	if payload.SessionInfo.SessionID == "" || len(payload.Answers) == 0 {
		writeError(w, http.StatusBadRequest, errInvalidPayload)
		return
	}
	if err := h.collector.SaveSubmission(r.Context(), payload); err != nil {
		h.log.Error("store submission failed", zap.String("session_id", payload.SessionInfo.SessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("could not store submission"))
		return
	}
	h.log.Info("submission stored",
		zap.String("session_id", payload.SessionInfo.SessionID),
		zap.Int("answers", len(payload.Answers)))
	writeJSON(w, http.StatusCreated, collectResponse{Success: true, Answers: len(payload.Answers)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProfileRequired), errors.Is(err, domain.ErrInvalidGrade):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionNotCompleted),
		errors.Is(err, domain.ErrQuestionsNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/domain"
	"github.com/ggrewal99/jobtrackr-backend-v2/internal/service"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/auth"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/config"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/logger"
	mw "github.com/ggrewal99/jobtrackr-backend-v2/pkg/middleware"
)

// Error codes surfaced in JSON error bodies.
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeInvalidToken  = "INVALID_TOKEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeInternalError = "INTERNAL_ERROR"
)

type ctxKey int

const accountIDKey ctxKey = iota

type Handlers struct {
	accounts  service.AccountService
	jobs      service.JobService
	tasks     service.TaskService
	analytics service.AnalyticsService
	idemStore mw.IdempotencyStore
	config    *config.Config
}

func New(
	accounts service.AccountService,
	jobs service.JobService,
	tasks service.TaskService,
	analytics service.AnalyticsService,
	idemStore mw.IdempotencyStore,
	config *config.Config,
) *Handlers {
	return &Handlers{
		accounts:  accounts,
		jobs:      jobs,
		tasks:     tasks,
		analytics: analytics,
		idemStore: idemStore,
		config:    config,
	}
}

// Routes mounts the full API surface under /api.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	authLimit := mw.NewRateLimiter(mw.RateLimitConfig{
		RequestsPerMinute: h.config.RateLimit.RequestsPerMinute,
		Burst:             h.config.RateLimit.Burst,
	})
	idem := h.idempotency()

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Public endpoints carry a per-IP limit so credential guessing
			// and mail flooding hit a 429 before any handler work.
			r.Group(func(r chi.Router) {
				r.Use(authLimit.Middleware())
				r.Post("/register", h.Register)
				r.Post("/resend-verification", h.ResendVerification)
				r.Get("/verify-email", h.VerifyEmail)
				r.Post("/login", h.Login)
				r.Post("/forgot-password", h.ForgotPassword)
				r.Post("/reset-password", h.ResetPassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(h.RequireAuth)
				r.Put("/change-password", h.ChangePassword)
				r.Put("/update", h.UpdateProfile)
			})
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.With(idem).Post("/", h.CreateJob)
			r.Get("/", h.ListJobs)
			r.Get("/{id}", h.GetJob)
			r.Put("/{id}", h.UpdateJob)
			r.Delete("/{id}", h.DeleteJob)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.With(idem).Post("/", h.CreateTask)
			r.Get("/", h.ListTasks)
			r.Get("/{id}", h.GetTask)
			r.Put("/{id}", h.UpdateTask)
			r.Delete("/{id}", h.DeleteTask)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Get("/summary", h.AnalyticsSummary)
			r.Get("/monthly", h.AnalyticsMonthly)
		})
	})

	return r
}

// idempotency returns the Idempotency-Key middleware, or a pass-through
// when no store is configured.
func (h *Handlers) idempotency() func(http.Handler) http.Handler {
	if h.idemStore == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw.IdempotencyMiddleware(h.idemStore)
}

// RequireAuth gates a route group on a valid bearer session token. A
// verification token never passes here; its purpose claim differs.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "no token", CodeUnauthorized)
			return
		}

		claims, err := auth.ParseSessionToken(strings.TrimPrefix(header, "Bearer "), h.config.Auth.JWTSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "token failed", CodeInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), accountIDKey, claims.Sub)
		ctx = context.WithValue(ctx, logger.AccountIDKey, claims.Sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountID(r *http.Request) int64 {
	id, _ := r.Context().Value(accountIDKey).(int64)
	return id
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
		"code":  code,
	})
}

// writeDomainError maps an operation error to its HTTP shape. This is the
// only place error kinds become status codes; anything untyped stays a
// generic 500 with the detail logged server-side.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindValidation:
			writeError(w, http.StatusBadRequest, de.Message, CodeInvalidInput)
		case domain.KindNotFound:
			writeError(w, http.StatusNotFound, de.Message, CodeNotFound)
		case domain.KindUnauthorized:
			writeError(w, http.StatusUnauthorized, de.Message, CodeUnauthorized)
		case domain.KindConflict:
			writeError(w, http.StatusConflict, de.Message, CodeConflict)
		default:
			writeError(w, http.StatusInternalServerError, "Something went wrong", CodeInternalError)
		}
		return
	}

	logger.ErrorContext(ctx, "Unhandled internal error", "error", err)
	writeError(w, http.StatusInternalServerError, "Something went wrong", CodeInternalError)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/user/seometrics/internal/capability"
	"github.com/user/seometrics/internal/db"
	"github.com/user/seometrics/internal/orchestrator"
	"github.com/user/seometrics/internal/registry"
)

// chatRunner is what the chat endpoint needs from the orchestration loop.
type chatRunner interface {
	Run(ctx context.Context, req orchestrator.ChatRequest) (*orchestrator.ChatResult, error)
}

type handler struct {
	runner       chatRunner
	capabilities *capability.Registry
	models       *registry.Registry
	activityRepo *db.ActivityRepo
	historyRepo  *db.HistoryRepo
}

func NewRouter(conn *sql.DB, runner chatRunner, capabilities *capability.Registry, models *registry.Registry, token string) http.Handler {
	handler := &handler{
		runner:       runner,
		capabilities: capabilities,
		models:       models,
		activityRepo: db.NewActivityRepo(conn),
		historyRepo:  db.NewHistoryRepo(conn),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", handler.chat)
	mux.HandleFunc("GET /api/chat/history", handler.chatHistory)
	mux.HandleFunc("GET /api/capabilities", handler.listCapabilities)
	mux.HandleFunc("GET /api/activity", handler.listActivity)

	mux.HandleFunc("GET /api/models", handler.listModels)
	mux.HandleFunc("GET /api/models/{id}", handler.getModel)
	mux.HandleFunc("PUT /api/models/{id}", handler.putModel)
	mux.HandleFunc("DELETE /api/models/{id}", handler.deleteModel)

	return authMiddleware(token)(jsonMiddleware(corsMiddleware(mux)))
}

func authMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if callerToken(r) == token {
				next.ServeHTTP(w, r)
				return
			}

			jsonError(w, http.StatusUnauthorized, "unauthorized")
		})
	}
}

// callerToken extracts the caller's bearer token; the query form exists for
// clients that cannot set headers.
func callerToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return r.URL.Query().Get("token")
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

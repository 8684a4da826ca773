package httpx

import (
	"net/http"
	"time"

	"log/slog"

	"peercall/internal/app"
	"peercall/internal/store"
	"peercall/internal/ws"
	"peercall/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub, db *store.Postgres) http.Handler {
	mw := NewMiddleware(cfg)
	users := &UsersAPI{DB: db}
	groups := &GroupsAPI{DB: db}

	mux := http.NewServeMux()

	// Health / readiness / metrics. Liveness reports process status and
	// current time, no auth.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"status": "ok", "time": time.Now().UTC()})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, "store unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Live stats (rooms / connections in this process)
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, _ *http.Request) {
		rooms, conns := hub.Dispatcher().Stats()
		writeJSON(w, map[string]int{"rooms": rooms, "connections": conns})
	})

	// Users
	mux.Handle("/api/users", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			users.Create(w, r)
			return
		}
		if r.Method == http.MethodGet {
			users.List(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	mux.Handle("/api/users/{username}", http.HandlerFunc(users.Get))

	// Groups (read-only; they are created by joins over the socket)
	mux.Handle("/api/groups", http.HandlerFunc(groups.List))
	mux.Handle("/api/groups/{id}", http.HandlerFunc(groups.Get))
	mux.Handle("/api/groups/{id}/messages", http.HandlerFunc(groups.Messages))

	return mw.Wrap(mux)
}

package status

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
)

// Source returns the snapshot to serve.
type Source func() (*Snapshot, error)

// NewHandler returns a read-only HTTP view of the daemon status.
//
//	GET /status   the snapshot
//	GET /healthz  200 while the daemon reports running, 503 otherwise
func NewHandler(src Source) http.Handler {
	router := chi.NewRouter()
	router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		s, err := src()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, s)
	})
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s, err := src()
		if err != nil || !s.Running {
			writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"running": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"running": true, "pid": s.PID, "updated_at": s.UpdatedAt})
	})
	return router
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the status endpoint on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logging.Info("status endpoint listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

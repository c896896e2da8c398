package surveysync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-surveysync/pkg/binding"
)

var errLoopStopped = errors.New("surveysync: loop is not running")

// SnapshotTimeout bounds how long the inspection endpoint waits for the loop.
const SnapshotTimeout = 2 * time.Second

// InspectHandler serves read-only views of a runtime:
//
//	GET /healthz               liveness
//	GET /surveys               mount point ids
//	GET /surveys/{id}          current mount content
//	GET /surveys/{id}/data     answers snapshot, read on the loop
//	GET /metrics               prometheus metrics
func InspectHandler(rt *binding.Runtime) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /surveys", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"surveys": rt.Page().IDs()})
	})
	mux.HandleFunc("GET /surveys/{id}", func(w http.ResponseWriter, r *http.Request) {
		mount, ok := rt.Page().Lookup(r.PathValue("id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(mount.Content()))
	})
	mux.HandleFunc("GET /surveys/{id}/data", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), SnapshotTimeout)
		defer cancel()
		data, ok, err := snapshotOnLoop(ctx, rt, r.PathValue("id"))
		switch {
		case err != nil:
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
		case !ok:
			http.NotFound(w, r)
		default:
			writeJSON(w, http.StatusOK, data)
		}
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

type snapshotResult struct {
	data map[string]any
	ok   bool
}

func snapshotOnLoop(ctx context.Context, rt *binding.Runtime, id string) (map[string]any, bool, error) {
	result := make(chan snapshotResult, 1)
	posted := rt.Scheduler().RunOnLoop(func() {
		data, ok := rt.Snapshot(id)
		result <- snapshotResult{data: data, ok: ok}
	})
	if !posted {
		return nil, false, errLoopStopped
	}
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-result:
		return res.data, res.ok, nil
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewServer returns the HTTP server for health, status and metrics.
func NewServer(app *App) *http.Server {
	return &http.Server{
		Addr:              app.Config.Addr,
		Handler:           NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// NewRouter returns a new router with all the routes defined in this file.
func NewRouter(app *App) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", app.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/status", app.HandleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/status/{stream}", app.HandleStreamStatus).Methods(http.MethodGet)

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if app.Registry != nil {
		gatherer = app.Registry
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

// HandleHealth runs every dependency check.
func (a *App) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(a.Checks))
	for name := range a.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := a.Checks[name](ctx); err != nil {
			a.Logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"status": "errored",
				"error":  name + " connection error",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Streams []StreamProgress `json:"streams"`
}

// HandleStatus lists the progress of every configured stream.
func (a *App) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	snapshot := a.Progress.Snapshot()
	resp := statusResponse{Streams: make([]StreamProgress, 0, len(a.Config.Streams))}
	for _, stream := range a.Config.Streams {
		sp, ok := snapshot[stream]
		if !ok {
			sp = StreamProgress{Stream: stream}
		}
		resp.Streams = append(resp.Streams, sp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleStreamStatus returns the progress of one stream.
func (a *App) HandleStreamStatus(w http.ResponseWriter, r *http.Request) {
	stream := mux.Vars(r)["stream"]
	sp, ok := a.Progress.Get(stream)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "stream not found"})
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

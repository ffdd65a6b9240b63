package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desoc-network/govx/pkg/config"
	"github.com/desoc-network/govx/pkg/db/memory"
	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/events"
	"github.com/desoc-network/govx/pkg/projection"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sch := schema.Default()
	store := memory.New()
	registry := prometheus.NewRegistry()
	return &App{
		Config:    &config.Config{Addr: ":0", Streams: []string{"govx:drafts", "govx:governor"}},
		Logger:    logger,
		Schema:    sch,
		Store:     store,
		Projector: projection.New(sch, store, logger, projection.WithMetrics(projection.NewMetrics(registry))),
		Progress:  NewProgress(),
		Registry:  registry,
		Checks:    map[string]HealthCheck{},
	}
}

func serve(app *App, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewRouter(app).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	app.Checks["redis"] = func(context.Context) error { return nil }

	rec := serve(app, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	app.Checks["postgres"] = func(context.Context) error { return errors.New("refused") }
	rec = serve(app, "/api/health")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "postgres connection error")
}

func TestStatus(t *testing.T) {
	app := newTestApp(t)
	app.Progress.record("govx:drafts", "9-0", "DraftCreated", 12, outcomeApplied)

	rec := serve(app, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Streams, 2)
	assert.Equal(t, "9-0", resp.Streams[0].LastID)
	assert.Equal(t, uint64(12), resp.Streams[0].BlockNumber)
	assert.Equal(t, "govx:governor", resp.Streams[1].Stream)
	assert.Empty(t, resp.Streams[1].LastID)

	rec = serve(app, "/api/status/govx:drafts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"applied":1`)

	rec = serve(app, "/api/status/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	_, err := app.Projector.Apply(context.Background(), events.Envelope{
		Event: events.CommunityRegistered,
		Args:  json.RawMessage(`{"communityId":1,"name":"alpha"}`),
	})
	require.NoError(t, err)

	rec := serve(app, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `govx_projector_events_total{event="CommunityRegistered",outcome="applied"} 1`), body)
	assert.Contains(t, body, `govx_projector_mutations_total{policy="insert_or_update",table="communities"} 1`)
}

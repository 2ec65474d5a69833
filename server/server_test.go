package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suhasdasari/S4D5/log"
	"github.com/suhasdasari/S4D5/metrics"
	"github.com/suhasdasari/S4D5/prebuilt"
	"github.com/suhasdasari/S4D5/store"
	"github.com/suhasdasari/S4D5/store/memory"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	handler http.Handler
	store   *memory.MemoryAuditStore
}

func newFixture(t *testing.T, market prebuilt.MarketDataProvider, withMetrics bool) *fixture {
	t.Helper()

	runnable, err := prebuilt.CreateAlphaStrategist(prebuilt.AlphaStrategistConfig{
		Market: market,
		Now:    func() time.Time { return testNow },
		Logger: log.NoOpLogger{},
	})
	require.NoError(t, err)

	opts := Options{
		Store:       memory.NewMemoryAuditStore(),
		DefaultGoal: "Find alpha in BTC/ETH markets",
		Logger:      log.NoOpLogger{},
		Now:         func() time.Time { return testNow },
	}
	if withMetrics {
		reg := prometheus.NewRegistry()
		listener, err := metrics.NewListener(reg)
		require.NoError(t, err)
		runnable = runnable.WithListeners(listener)
		opts.Gatherer = reg
	}
	opts.Runnable = runnable

	srv, err := New(opts)
	require.NoError(t, err)
	return &fixture{handler: srv.Handler(), store: opts.Store.(*memory.MemoryAuditStore)}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeRecord(t *testing.T, w *httptest.ResponseRecorder) store.Record {
	t.Helper()
	var rec store.Record
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rec))
	return rec
}

var stableMarket = prebuilt.FixedMarket{
	Market: prebuilt.MarketSnapshot{Volume24h: 20_000_000, PriceVolatility: prebuilt.VolatilityMedium, CurrentPrice: 2500, OrderBookImbalance: prebuilt.ImbalanceBullish},
}

var riskyMarket = prebuilt.FixedMarket{
	Market: prebuilt.MarketSnapshot{Volume24h: 20_000_000, PriceVolatility: prebuilt.VolatilityHigh, CurrentPrice: 2500, OrderBookImbalance: prebuilt.ImbalanceBullish},
	Draw:   0.95,
}

func TestNew_RequiresRunnableAndStore(t *testing.T) {
	_, err := New(Options{Store: memory.NewMemoryAuditStore()})
	assert.Error(t, err)

	runnable, err := prebuilt.CreateAlphaStrategist(prebuilt.AlphaStrategistConfig{Market: stableMarket})
	require.NoError(t, err)
	_, err = New(Options{Runnable: runnable})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, stableMarket, false)
	w := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestCreateRun_PersistsRecord(t *testing.T) {
	f := newFixture(t, stableMarket, false)

	w := f.do(t, http.MethodPost, "/runs", `{"goal":"Find alpha in BTC markets"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	rec := decodeRecord(t, w)
	assert.NotEmpty(t, rec.RunID)
	assert.Equal(t, "/runs/"+rec.RunID, w.Header().Get("Location"))
	assert.Equal(t, prebuilt.AlphaStrategistName, rec.Workflow)
	assert.Equal(t, "COMPLETED", rec.Status)
	assert.Len(t, rec.Entries, 6)
	assert.Equal(t, testNow, rec.CreatedAt)

	proposal, ok := rec.State["trade_proposal"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "BTC", proposal["asset"])

	stored, err := f.store.Load(context.Background(), rec.RunID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", stored.Status)
}

func TestCreateRun_TerminatedEarly(t *testing.T) {
	f := newFixture(t, riskyMarket, false)

	w := f.do(t, http.MethodPost, "/runs", `{"goal":"ETH"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	rec := decodeRecord(t, w)
	assert.Equal(t, "TERMINATED_EARLY", rec.Status)
	assert.Equal(t, "high_risk", rec.Outcome)
	assert.Len(t, rec.Entries, 2)
}

func TestCreateRun_DefaultGoal(t *testing.T) {
	f := newFixture(t, stableMarket, false)

	w := f.do(t, http.MethodPost, "/runs", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	rec := decodeRecord(t, w)
	assert.Equal(t, "Find alpha in BTC/ETH markets", rec.State["goal"])
}

func TestCreateRun_FailedRunIsStored(t *testing.T) {
	f := newFixture(t, prebuilt.FixedMarket{Err: errors.New("rpc down")}, false)

	w := f.do(t, http.MethodPost, "/runs", `{"goal":"ETH"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	rec := decodeRecord(t, w)
	assert.Equal(t, "FAILED", rec.Status)
	assert.Contains(t, rec.Error, "rpc down")
	assert.Len(t, rec.Entries, 1)
}

func TestCreateRun_BadBody(t *testing.T) {
	f := newFixture(t, stableMarket, false)

	w := f.do(t, http.MethodPost, "/runs", `{"goal":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestGetAndDeleteRun(t *testing.T) {
	f := newFixture(t, stableMarket, false)
	created := decodeRecord(t, f.do(t, http.MethodPost, "/runs", `{"goal":"ETH"}`))

	w := f.do(t, http.MethodGet, "/runs/"+created.RunID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.RunID, decodeRecord(t, w).RunID)

	w = f.do(t, http.MethodDelete, "/runs/"+created.RunID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/runs/"+created.RunID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodDelete, "/runs/"+created.RunID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRuns(t *testing.T) {
	f := newFixture(t, stableMarket, false)

	w := f.do(t, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	f.do(t, http.MethodPost, "/runs", `{"goal":"ETH"}`)
	f.do(t, http.MethodPost, "/runs", `{"goal":"BTC"}`)

	var records []store.Record
	w = f.do(t, http.MethodGet, "/runs?workflow="+prebuilt.AlphaStrategistName, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
	assert.Len(t, records, 2)

	w = f.do(t, http.MethodGet, "/runs?workflow=other", "")
	require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
	assert.Empty(t, records)
}

func TestDrawGraph(t *testing.T) {
	f := newFixture(t, stableMarket, false)

	w := f.do(t, http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flowchart TD")
	assert.Contains(t, w.Body.String(), "Researcher -.->|high_risk| END")

	w = f.do(t, http.MethodGet, "/graph?format=ascii", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Graph Execution Flow (alpha_strategist):")

	w = f.do(t, http.MethodGet, "/graph?format=dot", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Planner" -> "Researcher";`)

	w = f.do(t, http.MethodGet, "/graph?format=svg", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, stableMarket, true)
	f.do(t, http.MethodPost, "/runs", `{"goal":"ETH"}`)

	w := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `s4d5_runs_total{graph="alpha_strategist",status="COMPLETED"} 1`)
	assert.Contains(t, body, `s4d5_routes_total{graph="alpha_strategist",outcome="pass",step="Researcher"} 1`)
}

func TestMetrics_NotMountedWithoutGatherer(t *testing.T) {
	f := newFixture(t, stableMarket, false)
	w := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

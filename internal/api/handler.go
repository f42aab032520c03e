package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quorumworks/govscore/internal/actor"
	"github.com/quorumworks/govscore/internal/config"
	"github.com/quorumworks/govscore/internal/engine"
	"github.com/quorumworks/govscore/internal/event"
	"github.com/quorumworks/govscore/internal/ledger"
	"github.com/quorumworks/govscore/internal/metrics"
	"github.com/quorumworks/govscore/internal/processor"
	"github.com/quorumworks/govscore/internal/rules"
)

const (
	maxBatchSize     = 100
	maxActivityLimit = 200
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	store  *ledger.Store
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader, store *ledger.Store) http.Handler {
	h := &Handler{eng: eng, loader: loader, store: store, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/events", h.ingestEvent)
	h.mux.HandleFunc("POST /v1/events/batch", h.ingestBatch)
	h.mux.HandleFunc("GET /v1/actors/{address}/score", h.actorScore)
	h.mux.HandleFunc("GET /v1/actors/{address}/activity", h.actorActivity)
	h.mux.HandleFunc("GET /v1/rules", h.listRules)
	h.mux.HandleFunc("POST /v1/rules/reload", h.reloadRules)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/events — synchronous single-event processing. The caller (a
// webhook or sync job) should re-deliver on any retryable failure; the
// dedup key makes redelivery safe.
func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	var ev event.ChainEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err), false)
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	ev.ReceivedAt = time.Now()

	out, err := h.eng.ProcessSync(r.Context(), &ev)
	if err != nil {
		h.writeProcessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) writeProcessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, err.Error(), true)
	case processor.IsTerminal(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), false)
	default:
		writeError(w, http.StatusServiceUnavailable, err.Error(), true)
	}
}

// POST /v1/events/batch — async batch ingestion (up to 100 events).
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var events []*event.ChainEvent
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err), false)
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one event", false)
		return
	}
	if len(events) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(events), maxBatchSize), false)
		return
	}
	// JSON null decodes into a nil element; reject before anything queues.
	for i, ev := range events {
		if ev == nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("batch element %d is null", i), false)
			return
		}
	}

	now := time.Now()
	jobID := uuid.New().String()
	queued := 0
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}
		ev.ReceivedAt = now
		if h.eng.ProcessAsync(ev) {
			queued++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   jobID,
		"total":    len(events),
		"queued":   queued,
		"rejected": len(events) - queued,
	})
}

// GET /v1/actors/{address}/score — current cumulative score. Accepts any
// supported address encoding; the response reports the canonical actor id.
func (h *Handler) actorScore(w http.ResponseWriter, r *http.Request) {
	id, err := actor.Resolve(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), false)
		return
	}
	score, err := h.store.Score(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), true)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"actor":         id,
		"profile_score": score,
	})
}

// GET /v1/actors/{address}/activity — recent non-deleted ledger records.
func (h *Handler) actorActivity(w http.ResponseWriter, r *http.Request) {
	id, err := actor.Resolve(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), false)
		return
	}
	recs, err := h.store.Activity(r.Context(), id, maxActivityLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), true)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"actor":   id,
		"records": recs,
	})
}

// GET /v1/rules — the currently loaded rule table.
func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	cfg := h.loader.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": cfg.Version,
		"scoring": cfg.Scoring,
	})
}

// POST /v1/rules/reload — re-read the rule table from disk and swap it
// in for subsequently processed events.
func (h *Handler) reloadRules(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), true)
		return
	}
	table, err := rules.Build(cfg)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error(), false)
		return
	}
	h.eng.SwapTable(table)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"version":  cfg.Version,
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if event queue >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

/*
handlers.go - HTTP API handlers for the time-tracking engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response and JSON
  serialization, delegating everything else to the tracker, reconciler,
  and store.

ENDPOINTS:
  User:
    GET    /api/user                  Cached stats + level progress
    POST   /api/user/reevaluate       Reconcile cached stats from ledger

  Activities:
    GET    /api/activities            List (most recent first)
    POST   /api/activities            Create
    DELETE /api/activities/{id}       Delete (history keeps the name)

  Timer:
    GET    /api/timer                 Running flag + elapsed (1s poll)
    POST   /api/timer/start           Start a session
    POST   /api/timer/stop            Stop and grant the tier's reward

  History:
    GET    /api/entries?limit=N       Recent entries
    DELETE /api/entries/{id}          Delete entry + reconcile
    GET    /api/transactions          XP ledger

  Catalog:
    GET    /api/tiers                 Reward tier catalog

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Session state conflicts (start while running)
  - 500: Storage errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data seeding
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/grindstone/activity-engine/engine"
	"github.com/grindstone/activity-engine/reward"
	"github.com/grindstone/activity-engine/tracker"
)

// defaultHistoryLimit matches the default number of history rows shown
// by the presentation layer.
const defaultHistoryLimit = 10

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Tracker    *tracker.Tracker
	Reconciler *tracker.Reconciler
	Store      engine.LedgerStore

	logger *slog.Logger
}

// NewHandler creates a handler around an initialized tracker.
func NewHandler(t *tracker.Tracker, r *tracker.Reconciler, store engine.LedgerStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Tracker: t, Reconciler: r, Store: store, logger: logger}
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// GetUser returns the cached stats with progress toward the next level.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK,
		userStatsDTO(h.Tracker.UserID(), h.Tracker.CurrentXP(), h.Tracker.CurrentLevel()))
}

// ReevaluateUser recomputes cached stats from the transaction ledger.
func (h *Handler) ReevaluateUser(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Reconciler.Reevaluate(r.Context(), h.Tracker.UserID())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, userStatsDTO(h.Tracker.UserID(), stats.XP, stats.Level))
}

// =============================================================================
// ACTIVITY HANDLERS
// =============================================================================

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.Tracker.Activities(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	dtos := make([]ActivityDTO, 0, len(activities))
	for _, a := range activities {
		dtos = append(dtos, activityDTO(a))
	}
	h.respond(w, http.StatusOK, dtos)
}

func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	activity, err := h.Tracker.CreateActivity(r.Context(), req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, activityDTO(activity))
}

func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id := engine.ActivityID(chi.URLParam(r, "id"))
	if err := h.Tracker.DeleteActivity(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TIMER HANDLERS
// =============================================================================

// GetTimer serves the periodic display poll. Read-only.
func (h *Handler) GetTimer(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, TimerDTO{
		Running: h.Tracker.Running(),
		Elapsed: h.Tracker.Elapsed(),
	})
}

func (h *Handler) StartTimer(w http.ResponseWriter, r *http.Request) {
	var req StartTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Tracker.Start(r.Context(), req.ActivityName); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, TimerDTO{Running: true, Elapsed: h.Tracker.Elapsed()})
}

func (h *Handler) StopTimer(w http.ResponseWriter, r *http.Request) {
	var req StopTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tier := reward.Tier(req.Tier)
	if _, ok := reward.RateFor(tier); !ok {
		h.respondMessage(w, http.StatusBadRequest, "unknown reward tier")
		return
	}

	res, stopped := h.Tracker.Stop(r.Context(), tier)
	h.respond(w, http.StatusOK, stopTimerDTO(res, stopped))
}

// =============================================================================
// HISTORY HANDLERS
// =============================================================================

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.Tracker.RecentEntries(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	dtos := make([]TimeEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, timeEntryDTO(e))
	}
	h.respond(w, http.StatusOK, dtos)
}

// DeleteEntry removes an entry with its ledger transactions, then
// reconciles so the cached stats match the shrunk ledger.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := engine.EntryID(chi.URLParam(r, "id"))
	if err := h.Tracker.DeleteEntry(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	stats, err := h.Reconciler.Reevaluate(r.Context(), h.Tracker.UserID())
	if err != nil {
		// The deletion committed; stale stats will settle on the next
		// reconciliation pass.
		h.logger.Error("reconcile after delete failed", "entry_id", string(id), "error", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.respond(w, http.StatusOK, userStatsDTO(h.Tracker.UserID(), stats.XP, stats.Level))
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.Store.ListXPTransactions(r.Context(), h.Tracker.UserID())
	if err != nil {
		h.respondError(w, err)
		return
	}

	dtos := make([]TransactionDTO, 0, len(transactions))
	for _, tx := range transactions {
		dtos = append(dtos, transactionDTO(tx))
	}
	h.respond(w, http.StatusOK, dtos)
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	dtos := make([]TierDTO, 0, len(reward.Tiers()))
	for _, t := range reward.Tiers() {
		dtos = append(dtos, tierDTO(t))
	}
	h.respond(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (h *Handler) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) respondMessage(w http.ResponseWriter, status int, msg string) {
	h.respond(w, status, map[string]string{"error": msg})
}

// respondError maps the engine's error taxonomy onto HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionRunning):
		h.respondMessage(w, http.StatusConflict, err.Error())
	case engine.IsValidation(err):
		h.respondMessage(w, http.StatusBadRequest, err.Error())
	case engine.IsNotFound(err):
		h.respondMessage(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("internal error", "error", err)
		h.respondMessage(w, http.StatusInternalServerError, "internal error")
	}
}

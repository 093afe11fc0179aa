package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bracketops/live-console/middleware"
	"github.com/bracketops/live-console/models"
	"github.com/bracketops/live-console/services"
)

type LiveHandler struct {
	live    services.LiveService
	archive services.ArchiveService
}

func NewLiveHandler(live services.LiveService, archive services.ArchiveService) *LiveHandler {
	return &LiveHandler{
		live:    live,
		archive: archive,
	}
}

// GetStateHandler serves the authoritative snapshot plus recomputed
// analytics to any poller. The match card and rosters come from the
// tournament service; their absence degrades to null, never a failure,
// because the live state itself is owned here.
func (h *LiveHandler) GetStateHandler(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if matchID == "" {
		badRequestResponse(w, r, errors.New("missing matchID"))
		return
	}

	snap := h.live.GetSnapshot(r.Context(), matchID)
	analytics := h.live.Analytics(snap)

	info, err := h.live.MatchInfo(r.Context(), matchID)
	if err != nil {
		if !errors.Is(err, services.ErrMatchInfoUnavailable) {
			slog.Error("failed to fetch match info",
				slog.String("match_id", matchID),
				slog.Any("error", err))
		}
		info = nil
	}

	response := jsonResponse{
		"match":          info,
		"teams":          nil,
		"current_scores": snap.Teams,
		"score_history":  snap.ScoreHistory,
		"ticker":         snap.Ticker,
		"analytics":      analytics,
	}
	if info != nil {
		response["teams"] = info.Teams
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateEventHandler applies one operator event and acks it. The console
// echoes acked events locally instead of re-polling after every action.
func (h *LiveHandler) UpdateEventHandler(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if matchID == "" {
		badRequestResponse(w, r, errors.New("missing matchID"))
		return
	}

	var input struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	evt := models.LiveEvent{
		Type:    models.LiveEventType(input.Type),
		Payload: input.Payload,
	}

	ack, err := h.live.ApplyEvent(r.Context(), matchID, evt)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"ack": ack}
	if op, ok := middleware.OperatorFromContext(r.Context()); ok {
		response["operator"] = op.ID
	}

	if err := writeJSON(w, http.StatusAccepted, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ArchiveSnapshotHandler uploads the current snapshot to object storage
// once a match has been externally marked complete. The in-memory snapshot
// keeps serving historical reads.
func (h *LiveHandler) ArchiveSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if matchID == "" {
		badRequestResponse(w, r, errors.New("missing matchID"))
		return
	}

	snap := h.live.GetSnapshot(r.Context(), matchID)

	location, err := h.archive.ArchiveSnapshot(r.Context(), matchID, snap)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"archived": true,
		"match_id": matchID,
		"location": location,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

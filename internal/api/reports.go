package api

import (
	"net/http"

	"github.com/google/uuid"
)

// GetNAV handles GET /api/v1/nav.
func (h *Handler) GetNAV(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	result, err := h.nav.Calculate(r.Context(), asOf)
	if err != nil {
		writeServiceError(w, err, "failed to calculate NAV")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetOwnership handles GET /api/v1/ownership.
func (h *Handler) GetOwnership(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	result, err := h.ownership.Calculate(r.Context(), asOf)
	if err != nil {
		writeServiceError(w, err, "failed to calculate ownership")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetRealizedPnL handles GET /api/v1/pnl/realized.
func (h *Handler) GetRealizedPnL(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	result, err := h.nav.RealizedPnL(r.Context(), asOf)
	if err != nil {
		writeServiceError(w, err, "failed to calculate realized P&L")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetAssetHistory handles GET /api/v1/assets/{id}/history.
func (h *Handler) GetAssetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	history, err := h.nav.AssetHistory(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get asset history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

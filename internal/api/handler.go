package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/fundbook/internal/clock"
	"github.com/mtlprog/fundbook/internal/domain"
	"github.com/mtlprog/fundbook/internal/fee"
	"github.com/mtlprog/fundbook/internal/nav"
	"github.com/mtlprog/fundbook/internal/ownership"
	"github.com/mtlprog/fundbook/internal/snapshot"
)

const maxBodyBytes = 1 << 16

// NAVService reports NAV, realized P&L and asset history.
type NAVService interface {
	Calculate(ctx context.Context, asOf *time.Time) (nav.Result, error)
	RealizedPnL(ctx context.Context, asOf *time.Time) (nav.Realized, error)
	AssetHistory(ctx context.Context, assetID uuid.UUID) (nav.History, error)
}

// OwnershipService reports the ownership table.
type OwnershipService interface {
	Calculate(ctx context.Context, asOf *time.Time) (ownership.Result, error)
}

// SnapshotService creates and reads period snapshots.
type SnapshotService interface {
	Create(ctx context.Context, date time.Time, feeRate *decimal.Decimal) (domain.PeriodSnapshot, error)
	Get(ctx context.Context, id uuid.UUID) (domain.PeriodSnapshot, error)
	Latest(ctx context.Context) (domain.PeriodSnapshot, error)
	List(ctx context.Context, f snapshot.Filter) ([]domain.PeriodSnapshot, error)
}

// StatementWriter renders a snapshot as a downloadable workbook.
type StatementWriter interface {
	Write(w io.Writer, snap domain.PeriodSnapshot) error
}

// Handler provides HTTP endpoints for the fund API.
type Handler struct {
	nav        NAVService
	ownership  OwnershipService
	snapshots  SnapshotService
	statements StatementWriter
	clock      clock.Clock
}

// NewHandler creates a new API handler.
func NewHandler(navSvc NAVService, own OwnershipService, snapshots SnapshotService, statements StatementWriter, clk clock.Clock) *Handler {
	return &Handler{
		nav:        navSvc,
		ownership:  own,
		snapshots:  snapshots,
		statements: statements,
		clock:      clk,
	}
}

// GetLatestSnapshot handles GET /api/v1/snapshots/latest.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.snapshots.Latest(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to get latest snapshot")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSnapshot handles GET /api/v1/snapshots/{id}.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot id")
		return
	}

	s, err := h.snapshots.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get snapshot")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ExportSnapshot handles GET /api/v1/snapshots/{id}/xlsx.
func (h *Handler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot id")
		return
	}

	s, err := h.snapshots.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get snapshot")
		return
	}

	var buf bytes.Buffer
	if err := h.statements.Write(&buf, s); err != nil {
		slog.Error("failed to render snapshot statement", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="snapshot-%s.xlsx"`, s.Date.Format(time.DateOnly)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write statement body", "error", err)
	}
}

// ListSnapshots handles GET /api/v1/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f snapshot.Filter

	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit, expected a positive integer")
			return
		}
		f.Limit = n
	}
	if o := q.Get("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset, expected a non-negative integer")
			return
		}
		f.Offset = n
	}
	var err error
	if f.From, err = parseDateParam(q.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
		return
	}
	if f.To, err = parseDateParam(q.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
		return
	}

	snapshots, err := h.snapshots.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, err, "failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

type createSnapshotRequest struct {
	Date    string           `json:"date"`
	FeeRate *decimal.Decimal `json:"feeRate"`
}

// CreateSnapshot handles POST /api/v1/snapshots.
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req createSnapshotRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	date := clock.Date(h.clock.Now())
	if req.Date != "" {
		d, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
			return
		}
		date = d
	}

	s, err := h.snapshots.Create(r.Context(), date, req.FeeRate)
	if err != nil {
		writeServiceError(w, err, "failed to create snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// parseDateParam parses an optional YYYY-MM-DD query value.
func parseDateParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseAsOf parses an optional ?date= as the end of that day. Absent means now.
func parseAsOf(r *http.Request) (*time.Time, error) {
	d, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil || d == nil {
		return nil, err
	}
	end := clock.EndOfDay(*d)
	return &end, nil
}

// writeServiceError maps domain errors to HTTP statuses and logs unexpected ones.
func writeServiceError(w http.ResponseWriter, err error, msg string) {
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrDuplicateSnapshotDate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, fee.ErrInvalidRate), errors.Is(err, snapshot.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsArithmetic(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

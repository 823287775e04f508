package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sleeautomation/sitehooks/logger"
	"github.com/sleeautomation/sitehooks/notion"
	"github.com/sleeautomation/sitehooks/telemetry"
)

// FetchErrorMessage is the fixed error string of a failed feed response.
const FetchErrorMessage = "Failed to fetch posts"

// PageSource yields the published pages of the content store.
type PageSource interface {
	QueryPublished(ctx context.Context) ([]notion.Page, error)
}

// Handler serves the post feed as a JSON array.
type Handler struct {
	source PageSource
	now    func() time.Time
}

// NewHandler returns a feed handler reading from source.
func NewHandler(source PageSource) *Handler {
	return &Handler{source: source, now: time.Now}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// SetCORS writes the feed's cross-origin headers.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()
	pages, err := h.source.QueryPublished(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, "notion query failed", "error", err)
		telemetry.FeedRequests.WithLabelValues(telemetry.OutcomeError).Inc()
		WriteError(w, err)
		return
	}

	items := Transform(pages, h.now())
	telemetry.FeedRequests.WithLabelValues(telemetry.OutcomeOK).Inc()
	telemetry.FeedItems.Add(float64(len(items)))
	writeJSON(w, http.StatusOK, items)
}

// WriteError writes the 500 feed failure body carrying err's message.
func WriteError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   FetchErrorMessage,
		Details: err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode feed response: %v", err)
	}
}

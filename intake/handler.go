package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sleeautomation/sitehooks/logger"
)

// maxBodyBytes caps the submission body read by the handler.
const maxBodyBytes = 1 << 20

// Submitter processes one raw submission body.
type Submitter interface {
	Submit(ctx context.Context, body []byte) Result
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Handler is the intake webhook. GET reports liveness; POST submits. POST
// always answers 200 and carries failures in the body.
type Handler struct {
	svc         Submitter
	serviceName string
}

func NewHandler(svc Submitter, serviceName string) *Handler {
	return &Handler{svc: svc, serviceName: serviceName}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, statusResponse{
			Status:  "ok",
			Message: h.serviceName + " webhook is running",
		})
	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			logger.ErrorCtx(r.Context(), "failed to read submission body", "error", err)
			WriteJSON(w, http.StatusOK, fail(KindParse, fmt.Errorf("read body: %w", err)))
			return
		}
		WriteJSON(w, http.StatusOK, h.svc.Submit(r.Context(), body))
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode intake response: %v", err)
	}
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/tenderboard/internal/apperror"
	"github.com/sakif/tenderboard/internal/model"
	"github.com/sakif/tenderboard/internal/service"
)

// TenderHandler exposes the tender endpoints: the authenticated dashboard
// query and the webhook the scraping pipeline pushes into.
type TenderHandler struct {
	tenders *service.TenderService
	logger  *slog.Logger
}

// NewTenderHandler creates a TenderHandler.
func NewTenderHandler(tenders *service.TenderService, logger *slog.Logger) *TenderHandler {
	return &TenderHandler{
		tenders: tenders,
		logger:  logger,
	}
}

// HandleList returns all tenders, best AI score first.
//
// HTTP: GET /api/tenders
// Auth: session (session.Manager.RequireAuth rejects anonymous callers with
// 401 before this runs)
func (h *TenderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tenders, err := h.tenders.List(r.Context())
	if err != nil {
		h.logger.Error("listing tenders failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tenders)
}

// webhookRequest is the payload the pipeline POSTs. Field names follow the
// pipeline's snake_case convention. Deadline arrives as a string because the
// pipeline sends either a full RFC 3339 timestamp or a bare date.
type webhookRequest struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	AISummary   string `json:"ai_summary"`
	AIScore     int    `json:"ai_score"`
}

// HandleWebhook ingests one tender record.
//
// HTTP: POST /api/webhooks/tenders
// Auth: x-api-key header (auth.RequireWebhookKey middleware)
//
// 201 with the stored record on success. Re-posting an existing code is the
// normal re-scoring path, not an error — the response carries the merged
// record (fresh AI fields, original everything-else).
func (h *TenderHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		writeError(w, err)
		return
	}

	tender, err := h.tenders.Ingest(r.Context(), service.IngestInput{
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		Deadline:    deadline,
		AISummary:   req.AISummary,
		AIScore:     req.AIScore,
	})
	if err != nil {
		h.logger.Error("webhook ingestion failed",
			slog.String("code", req.Code),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, webhookResponse{
		Message: "Tender saved",
		Data:    tender,
	})
}

type webhookResponse struct {
	Message string        `json:"message"`
	Data    *model.Tender `json:"data"`
}

// parseDeadline accepts the two formats the pipeline emits: RFC 3339
// ("2026-03-01T17:00:00Z") and bare dates ("2026-03-01"). Empty means no
// deadline known yet.
func parseDeadline(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}

	return nil, apperror.ValidationFailed("deadline",
		"deadline must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bugtriage/internal/bootstrap/logging"
	domainreport "bugtriage/internal/domain/report"
	"bugtriage/internal/errs"
	"bugtriage/internal/ports"
	"bugtriage/internal/usecase/report"
)

// reportService is what the API needs from the report usecases; tests
// substitute a stub. Lookups go through the public view so operator-only
// fields never reach the open endpoint.
type reportService interface {
	Submit(ctx context.Context, input report.SubmitInput) (report.SubmitResult, error)
	GetPublic(ctx context.Context, externalID string) (report.PublicReportDetail, error)
}

type reportHandler struct {
	svc reportService
}

const maxScreenshotBytes = 10 << 20

type submitRequest struct {
	Description string `json:"description"`
	PageURL     string `json:"page_url"`
	Referrer    string `json:"referrer"`

	Browser   string `json:"browser"`
	OS        string `json:"os"`
	UserAgent string `json:"user_agent"`
	Viewport  string `json:"viewport"`

	ConsoleLogs string `json:"console_logs"`

	UserID   *uint64 `json:"user_id"`
	UserKind string  `json:"user_kind"`
}

type submitAccepted struct {
	ExternalID           string `json:"external_id"`
	Status               string `json:"status"`
	ClarificationMessage string `json:"clarification_message,omitempty"`
}

type submitRejected struct {
	Success              bool   `json:"success"`
	RejectionReason      string `json:"rejection_reason"`
	NeedsClarification   bool   `json:"needs_clarification"`
	ClarificationMessage string `json:"clarification_message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *reportHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	input, err := decodeSubmit(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.svc.Submit(r.Context(), input)
	if err != nil {
		if errors.Is(err, domainreport.ErrDescriptionRequired) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "description is required"})
			return
		}
		logging.Error(r.Context(), "submit failed",
			slog.String("component", "httpapi"),
			slog.Any("err", errs.Loggable(err)),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	if !result.Success {
		writeJSON(w, http.StatusUnprocessableEntity, submitRejected{
			Success:              false,
			RejectionReason:      result.Verdict.RejectionReason,
			NeedsClarification:   result.Verdict.NeedsClarification,
			ClarificationMessage: result.Verdict.ClarificationMessage,
		})
		return
	}

	writeJSON(w, http.StatusCreated, submitAccepted{
		ExternalID:           result.Report.ExternalID,
		Status:               result.Report.Status,
		ClarificationMessage: result.Verdict.ClarificationMessage,
	})
}

func (h *reportHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")

	detail, err := h.svc.GetPublic(r.Context(), externalID)
	if err != nil {
		if errors.Is(err, ports.ErrReportNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "report not found"})
			return
		}
		logging.Error(r.Context(), "get report failed",
			slog.String("component", "httpapi"),
			slog.String("external_id", externalID),
			slog.Any("err", errs.Loggable(err)),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// decodeSubmit accepts multipart form submissions (the browser widget, with
// an optional screenshot part) and plain JSON bodies.
func decodeSubmit(r *http.Request) (report.SubmitInput, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		return decodeMultipart(r)
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return report.SubmitInput{}, errors.New("invalid json body")
	}
	return submitInputFromRequest(req), nil
}

func decodeMultipart(r *http.Request) (report.SubmitInput, error) {
	if err := r.ParseMultipartForm(maxScreenshotBytes); err != nil {
		return report.SubmitInput{}, errors.New("invalid multipart body")
	}

	req := submitRequest{
		Description: r.FormValue("description"),
		PageURL:     r.FormValue("page_url"),
		Referrer:    r.FormValue("referrer"),
		Browser:     r.FormValue("browser"),
		OS:          r.FormValue("os"),
		UserAgent:   r.FormValue("user_agent"),
		Viewport:    r.FormValue("viewport"),
		ConsoleLogs: r.FormValue("console_logs"),
		UserKind:    r.FormValue("user_kind"),
	}
	if raw := strings.TrimSpace(r.FormValue("user_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return report.SubmitInput{}, errors.New("invalid user_id")
		}
		req.UserID = &id
	}

	input := submitInputFromRequest(req)

	file, header, err := r.FormFile("screenshot")
	if err == nil {
		defer func() {
			_ = file.Close()
		}()

		data, readErr := io.ReadAll(io.LimitReader(file, maxScreenshotBytes+1))
		if readErr != nil {
			return report.SubmitInput{}, errors.New("failed to read screenshot")
		}
		if len(data) > maxScreenshotBytes {
			return report.SubmitInput{}, errors.New("screenshot too large")
		}

		input.Screenshot = data
		input.ScreenshotFilename = header.Filename
		input.ScreenshotContentType = header.Header.Get("Content-Type")
	} else if !errors.Is(err, http.ErrMissingFile) {
		return report.SubmitInput{}, errors.New("invalid screenshot part")
	}

	return input, nil
}

func submitInputFromRequest(req submitRequest) report.SubmitInput {
	return report.SubmitInput{
		Description: req.Description,
		PageURL:     req.PageURL,
		Referrer:    req.Referrer,
		Browser:     req.Browser,
		OS:          req.OS,
		UserAgent:   req.UserAgent,
		Viewport:    req.Viewport,
		ConsoleLogs: req.ConsoleLogs,
		UserID:      req.UserID,
		UserKind:    domainreport.SubmitterKind(req.UserKind),
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

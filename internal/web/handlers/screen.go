package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ocr-screening/internal/labresult"
	"github.com/ocr-screening/internal/ocr"
	"github.com/ocr-screening/internal/screening"
	"github.com/ocr-screening/internal/validation"
)

// ScreenHandler handles the screening endpoints
type ScreenHandler struct {
	Service       *screening.Service
	MaxTextBytes  int64
	MaxImageBytes int64
}

// ScreenRequest is the body of POST /api/screen. Candidates, when given,
// replace extraction but are still traced against Text.
type ScreenRequest struct {
	Text       string                   `json:"text"`
	Candidates []labresult.RawCandidate `json:"candidates,omitempty"`
}

// ScreenResponse is returned for every screened request, including
// unprocessed ones.
type ScreenResponse struct {
	ID         string                 `json:"id"`
	Outcome    screening.Outcome      `json:"outcome"`
	Message    string                 `json:"message,omitempty"`
	Summary    string                 `json:"summary"`
	Status     validation.Status      `json:"status"`
	Confidence float64                `json:"confidence"`
	Reason     string                 `json:"reason"`
	Results    []labresult.Record     `json:"results"`
	Warnings   []string               `json:"warnings,omitempty"`
	Rejected   []validation.Rejection `json:"rejected,omitempty"`
	Dropped    []labresult.Drop       `json:"dropped,omitempty"`
}

func newScreenResponse(res screening.Result) ScreenResponse {
	resp := ScreenResponse{
		ID:         res.ID.String(),
		Outcome:    res.Outcome,
		Message:    res.Message,
		Summary:    res.Summary,
		Status:     res.Verdict.Status,
		Confidence: res.Verdict.Confidence,
		Reason:     res.Verdict.Reason,
		Results:    res.Records(),
		Dropped:    res.Dropped,
	}
	if res.Outcome != screening.OutcomeUnprocessed {
		resp.Warnings = res.Verdict.Warnings
		resp.Rejected = res.Verdict.Rejected
	}
	return resp
}

// Screen screens report text.
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	if h.MaxTextBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxTextBytes)
	}

	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	var res screening.Result
	if req.Candidates != nil {
		res = h.Service.ScreenCandidates(req.Text, req.Candidates)
	} else {
		res = h.Service.Screen(req.Text)
	}

	writeJSON(w, http.StatusOK, newScreenResponse(res))
}

// ScreenImage runs an uploaded image through OCR and screens the text.
func (h *ScreenHandler) ScreenImage(w http.ResponseWriter, r *http.Request) {
	if h.MaxImageBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxImageBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part", err.Error())
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No selected file", "")
		return
	}

	res, err := h.Service.ScreenImage(r.Context(), header.Filename, file)
	if err != nil {
		var apiErr *ocr.APIError
		switch {
		case errors.Is(err, screening.ErrNoOCR):
			writeError(w, http.StatusServiceUnavailable, "OCR is not configured", "")
		case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
			writeError(w, http.StatusBadRequest, apiErr.Message, apiErr.Details)
		case errors.Is(err, ocr.ErrUnavailable):
			writeError(w, http.StatusBadGateway, "OCR service unavailable", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Failed to process image", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, newScreenResponse(res))
}

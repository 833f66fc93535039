package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cchome2024/FinanceSync/internal/engine"
	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/service"
)

// parseUpload handles POST /api/v1/parse/upload. The form carries a
// prompt (or content) text field, an optional company_id and an optional file.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	text := r.FormValue("prompt")
	if text == "" {
		text = r.FormValue("content")
	}
	in := extract.Input{Text: text}
	source := model.SourceAIChat

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "failed to read uploaded file")
			return
		}
		in.Files = append(in.Files, extract.File{
			Name:        filepath.Base(header.Filename),
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
		source = model.SourceManualUpload
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to read uploaded file")
		return
	}

	if strings.TrimSpace(in.Text) == "" && len(in.Files) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "prompt or file is required")
		return
	}

	extractor := s.resolve(in)
	if extractor == nil {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_file", "no extractor accepts the uploaded file")
		return
	}

	result, err := s.svc.Ingest(r.Context(), engine.IngestRequest{
		Extractor:     extractor,
		Input:         in,
		Source:        source,
		CompanyID:     r.FormValue("company_id"),
		InitiatorRole: "finance_user",
	})
	if err != nil {
		s.logger.Error("Extraction failed", "error", err)
		writeError(w, http.StatusBadGateway, "extraction_failed", err.Error())
		return
	}

	resp := parseResponse{
		JobID:   result.Job.ID,
		Status:  string(result.Job.Status),
		Preview: nonNilPreview(result.Preview),
	}
	if result.Job.Status == model.StatusFailed {
		resp.RawResponse = map[string]any{"rawText": result.Job.ErrorLog}
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// getJob handles GET /api/v1/import-jobs/{id}.
func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.GetJobDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jobDetailResponse{
		jobResponse: toJobResponse(detail.Job),
		Attachments: toAttachmentResponses(detail.Attachments),
		Preview:     nonNilPreview(detail.Preview),
	})
}

// listJobs handles GET /api/v1/import-jobs?status=&source=&limit=.
func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.ImportJobFilter{
		Status: model.ImportStatus(q.Get("status")),
		Source: model.ImportSource(q.Get("source")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	jobs, err := s.svc.ListJobs(r.Context(), filter)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": out, "count": len(out)})
}

// confirmJob handles POST /api/v1/import-jobs/{id}/confirm.
func (s *Server) confirmJob(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if len(req.Actions) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "actions must not be empty")
		return
	}

	result, err := s.svc.ApplyConfirmation(r.Context(), r.PathValue("id"), req.Actions)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if result.UpdatedRecords == nil {
		result.UpdatedRecords = []model.CandidateRecord{}
	}
	writeJSON(w, http.StatusOK, result)
}

// jobLogs handles GET /api/v1/import-jobs/{id}/logs.
func (s *Server) jobLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.svc.ListConfirmationLogs(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": toLogResponses(logs), "count": len(logs)})
}

// listCategories handles GET /api/v1/categories?type=.
func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categoryType := model.CategoryType(r.URL.Query().Get("type"))
	if categoryType == "" {
		categoryType = model.CategoryTypeRevenue
	}

	categories, err := s.svc.ListCategories(r.Context(), categoryType)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": toCategoryResponses(categories), "count": len(categories)})
}

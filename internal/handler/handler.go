package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"bimsight/internal/codec"
	"bimsight/internal/domain"
	"bimsight/internal/engine"
	"bimsight/internal/service"
)

// maxBodyBytes bounds evaluation request bodies
const maxBodyBytes = 4 << 20

// ComplianceHandler handles compliance API requests
type ComplianceHandler struct {
	svc    *service.ComplianceService
	logger *zap.Logger
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(svc *service.ComplianceService, logger *zap.Logger) *ComplianceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplianceHandler{svc: svc, logger: logger}
}

// Error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// EvaluateRequest is the body of evaluate and capture requests
type EvaluateRequest struct {
	Session    string             `json:"session,omitempty"`
	Detections []domain.Detection `json:"detections"`
}

// CaptureResponse is returned after a capture
type CaptureResponse struct {
	Sample     *domain.Sample      `json:"sample"`
	Evaluation *service.Evaluation `json:"evaluation"`
}

// ConfigResponse describes the scoring policy in effect
type ConfigResponse struct {
	Params   engine.Params       `json:"params"`
	Keywords engine.KeywordTable `json:"keywords"`
}

// Register adds the API routes to mux
func (h *ComplianceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/evaluate", h.Evaluate)

	mux.HandleFunc("GET /api/sessions", h.ListSessions)
	mux.HandleFunc("POST /api/sessions/{id}/capture", h.Capture)
	mux.HandleFunc("GET /api/sessions/{id}/samples", h.ListSamples)
	mux.HandleFunc("GET /api/sessions/{id}/summary", h.Summary)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.ResetSession)

	mux.HandleFunc("GET /api/model", h.GetModel)
	mux.HandleFunc("POST /api/model/reload", h.ReloadModel)
	mux.HandleFunc("GET /api/model/export/{format}", h.ExportModel)

	mux.HandleFunc("GET /api/config", h.GetConfig)
}

// Evaluate scores a batch of detections. The session comes from ?session= or the body.
func (h *ComplianceHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeEvaluateRequest(w, r)
	if !ok {
		return
	}
	session := r.URL.Query().Get("session")
	if session == "" {
		session = req.Session
	}

	eval, err := h.svc.Evaluate(r.Context(), session, req.Detections)
	if err != nil {
		h.logger.Warn("evaluation failed", zap.Error(err))
		h.writeError(w, "Failed to evaluate", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, eval, http.StatusOK)
}

// Capture evaluates a batch and stores it as a sample of the session
func (h *ComplianceHandler) Capture(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeEvaluateRequest(w, r)
	if !ok {
		return
	}

	sample, eval, err := h.svc.Capture(r.Context(), r.PathValue("id"), req.Detections)
	if err != nil {
		h.writeServiceError(w, "Failed to capture sample", err)
		return
	}

	h.writeJSON(w, CaptureResponse{Sample: sample, Evaluation: eval}, http.StatusCreated)
}

// ListSessions returns the sessions with stored samples
func (h *ComplianceHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListSessions(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to list sessions", err)
		return
	}
	h.writeJSON(w, sessions, http.StatusOK)
}

// ListSamples returns the stored samples of a session; ?limit= bounds the count
func (h *ComplianceHandler) ListSamples(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, "Invalid limit", "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	samples, err := h.svc.ListSamples(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		h.writeServiceError(w, "Failed to list samples", err)
		return
	}
	h.writeJSON(w, samples, http.StatusOK)
}

// Summary returns the live and stored statistics of a session
func (h *ComplianceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "Failed to summarise session", err)
		return
	}
	h.writeJSON(w, summary, http.StatusOK)
}

// ResetSession clears the session's window and stored samples
func (h *ComplianceHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.ResetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "Failed to reset session", err)
		return
	}
	h.writeJSON(w, map[string]int64{"deleted": deleted}, http.StatusOK)
}

// GetModel returns the current reference index
func (h *ComplianceHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Model(), http.StatusOK)
}

// ReloadModel reloads the model source
func (h *ComplianceHandler) ReloadModel(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Reload(r.Context())
	if err != nil {
		h.logger.Warn("model reload failed", zap.Error(err))
		h.writeError(w, "Failed to reload model", err.Error(), http.StatusUnprocessableEntity)
		return
	}
	h.writeJSON(w, snap, http.StatusOK)
}

// ExportModel writes the current model as a JSON or YAML document
func (h *ComplianceHandler) ExportModel(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")

	// buffer so an encoding failure can still be reported as an error response
	var buf bytes.Buffer
	if err := h.svc.ExportModel(format, &buf); err != nil {
		if errors.Is(err, codec.ErrUnknownFormat) {
			h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Warn("model export failed", zap.Error(err))
		h.writeError(w, "Failed to export model", err.Error(), http.StatusInternalServerError)
		return
	}

	contentType, ext := "application/json", "json"
	if format != "json" {
		contentType, ext = "application/x-yaml", "yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=model."+ext)
	w.Write(buf.Bytes())
}

// GetConfig returns the scoring policy in effect
func (h *ComplianceHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, ConfigResponse{Params: h.svc.Params(), Keywords: h.svc.Keywords()}, http.StatusOK)
}

func (h *ComplianceHandler) decodeEvaluateRequest(w http.ResponseWriter, r *http.Request) (*EvaluateRequest, bool) {
	var req EvaluateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (h *ComplianceHandler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, service.ErrNoRepository) {
		h.writeError(w, msg, err.Error(), http.StatusServiceUnavailable)
		return
	}
	h.logger.Warn(msg, zap.Error(err))
	h.writeError(w, msg, err.Error(), http.StatusInternalServerError)
}

func (h *ComplianceHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode JSON", zap.Error(err))
	}
}

func (h *ComplianceHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.logger.Warn("failed to encode error response", zap.Error(err))
	}
}

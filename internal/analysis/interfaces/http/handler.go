// Package http exposes the analysis API: session lifecycle, uploads,
// validation, identity review, the pipeline run, result views and
// downloads.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"revstrux/internal/analysis/application"
	"revstrux/internal/ingest"
	"revstrux/internal/observability/metrics"
	session "revstrux/internal/session/domain"
	"revstrux/internal/synthetic"
)

const defaultMaxUploadBytes = 64 << 20

// Handler serves the /api routes.
type Handler struct {
	service   *application.Service
	logger    *log.Logger
	maxUpload int64
	seed      int64
}

// Option customizes the handler.
type Option func(*Handler)

// WithMaxUploadBytes caps multipart upload size.
func WithMaxUploadBytes(limit int64) Option {
	return func(h *Handler) {
		if limit > 0 {
			h.maxUpload = limit
		}
	}
}

// WithSyntheticSeed fixes the seed of generated demo datasets.
func WithSyntheticSeed(seed int64) Option {
	return func(h *Handler) {
		h.seed = seed
	}
}

// NewHandler constructs a handler.
func NewHandler(service *application.Service, logger *log.Logger, opts ...Option) (*Handler, error) {
	if service == nil {
		return nil, errors.New("analysis handler: nil service")
	}
	if logger == nil {
		return nil, errors.New("analysis handler: nil logger")
	}
	h := &Handler{service: service, logger: logger, maxUpload: defaultMaxUploadBytes, seed: synthetic.DefaultSeed}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP dispatches /api requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	switch {
	case path == "" || path == "/":
		writeJSON(w, http.StatusOK, map[string]string{"message": "RevStrux API v1.1", "status": "running"})
	case path == "/sessions":
		h.handleCreateSession(w, r)
	case strings.HasPrefix(path, "/sessions/"):
		h.handleSession(w, r, strings.TrimPrefix(path, "/sessions/"))
	case strings.HasPrefix(path, "/templates/"):
		h.handleTemplate(w, r, strings.TrimPrefix(path, "/templates/"))
	case path == "/synthetic":
		h.handleSynthetic(w, r)
	case strings.HasPrefix(path, "/synthetic/download/"):
		h.handleSyntheticDownload(w, r, strings.TrimPrefix(path, "/synthetic/download/"))
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	sessionID := parts[0]
	if sessionID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	tail := parts[1:]

	switch {
	case len(tail) == 0:
		h.handleGetSession(w, r, sessionID)
	case tail[0] == "settings" && len(tail) == 1:
		h.handleSettings(w, r, sessionID)
	case tail[0] == "upload" && len(tail) == 2:
		h.handleUpload(w, r, sessionID, tail[1])
	case tail[0] == "smart-upload" && len(tail) == 1:
		h.handleSmartUpload(w, r, sessionID)
	case tail[0] == "validate" && len(tail) == 1:
		h.handleValidate(w, r, sessionID, false)
	case tail[0] == "smart-validate" && len(tail) == 1:
		h.handleValidate(w, r, sessionID, true)
	case tail[0] == "identity" && len(tail) == 1:
		h.handleIdentity(w, r, sessionID)
	case tail[0] == "identity" && len(tail) == 2:
		h.handleIdentityAction(w, r, sessionID, tail[1])
	case tail[0] == "analyze" && len(tail) == 1:
		h.handleAnalyze(w, r, sessionID)
	case tail[0] == "status" && len(tail) == 1:
		h.handleStatus(w, r, sessionID)
	case tail[0] == "dashboard" && len(tail) == 1:
		h.handleDashboard(w, r, sessionID)
	case tail[0] == "accounts" && len(tail) == 1:
		h.handleAccounts(w, r, sessionID)
	case tail[0] == "accounts" && len(tail) == 2:
		h.handleLineage(w, r, sessionID, tail[1])
	case tail[0] == "exclusions" && len(tail) == 1:
		h.handleExclusions(w, r, sessionID)
	case tail[0] == "export" && len(tail) >= 2:
		h.handleExport(w, r, sessionID, tail[1:])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, err := h.service.CreateSession(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.SessionID,
		"status":     sess.Status,
		"settings":   sess.Settings,
		"created_at": sess.CreatedAt,
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, err := h.service.Get(r.Context(), sessionID)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var settings session.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}
	if _, err := h.service.UpdateSettings(r.Context(), sessionID, settings); err != nil {
		respondSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, sessionID, fileType string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !ingest.KnownType(fileType) {
		writeError(w, http.StatusBadRequest, "Invalid file type. Must be one of: "+strings.Join(ingest.FileTypes, ", "))
		return
	}
	started := time.Now()
	name, data, err := readUpload(r, "file", h.maxUpload)
	if err != nil {
		metrics.ObserveUpload(fileType, metrics.ResultError, 0, time.Since(started))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	table, err := ingest.ParseCSV(strings.NewReader(string(data)))
	if err != nil {
		metrics.ObserveUpload(fileType, metrics.ResultError, 0, time.Since(started))
		writeError(w, http.StatusBadRequest, "File encoding error. Re-save as UTF-8 CSV.")
		return
	}
	rows := table.Rows
	if _, err := h.service.StoreUpload(r.Context(), sessionID, fileType, name, rows); err != nil {
		metrics.ObserveUpload(fileType, metrics.ResultError, 0, time.Since(started))
		respondSessionError(w, err)
		return
	}
	metrics.ObserveUpload(fileType, metrics.ResultSuccess, len(rows), time.Since(started))
	writeJSON(w, http.StatusOK, map[string]any{
		"file_type": fileType,
		"rows":      len(rows),
		"filename":  name,
	})
}

func (h *Handler) handleSmartUpload(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, err := h.service.Get(r.Context(), sessionID); err != nil {
		respondSessionError(w, err)
		return
	}
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	var results []ingest.ProcessResult
	for _, fh := range files {
		data, err := readFileHeader(fh)
		if err != nil {
			results = append(results, ingest.ProcessResult{Filename: fh.Filename, Error: "Unreadable file."})
			continue
		}
		if strings.HasSuffix(strings.ToLower(fh.Filename), ".zip") {
			members, err := ingest.ExtractZIP(data)
			if err != nil {
				results = append(results, ingest.ProcessResult{Filename: fh.Filename, Error: "Invalid ZIP file."})
				continue
			}
			for _, member := range members {
				results = append(results, ingest.ProcessFile(member.Name, member.Data))
			}
			continue
		}
		results = append(results, ingest.ProcessFile(fh.Filename, data))
	}

	started := time.Now()
	var stored []string
	for _, result := range results {
		ft := result.DetectedType
		if ft == "" || len(result.Data) == 0 {
			metrics.ObserveUpload(ft, metrics.ResultError, 0, time.Since(started))
			continue
		}
		if result.Validation != nil && len(result.Validation.Errors) > 0 {
			metrics.ObserveUpload(ft, metrics.ResultError, 0, time.Since(started))
			continue
		}
		if _, err := h.service.StoreUpload(r.Context(), sessionID, ft, result.Filename, result.Data); err != nil {
			respondSessionError(w, err)
			return
		}
		metrics.ObserveUpload(ft, metrics.ResultSuccess, len(result.Data), time.Since(started))
		stored = append(stored, ft)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results":      results,
		"stored_types": stored,
	})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request, sessionID string, smart bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	mode := "strict"
	if smart {
		mode = "smart"
	}
	outcome, err := h.validationOutcome(r.Context(), sessionID, smart)
	if err != nil {
		metrics.IncValidation(mode, metrics.ResultError)
		respondSessionError(w, err)
		return
	}
	result := metrics.ResultError
	if outcome.Valid {
		result = metrics.ResultSuccess
	}
	metrics.IncValidation(mode, result)
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) validationOutcome(ctx context.Context, sessionID string, smart bool) (application.ValidationOutcome, error) {
	if smart {
		return h.service.SmartValidate(ctx, sessionID)
	}
	return h.service.Validate(ctx, sessionID)
}

func (h *Handler) handleIdentity(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, err := h.service.Get(r.Context(), sessionID)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if sess.IdentityResult == nil {
		writeError(w, http.StatusConflict, "Identity matching not run yet")
		return
	}
	ir := sess.IdentityResult
	decided := make(map[string]bool, len(sess.Decisions))
	for _, d := range sess.Decisions {
		decided[d.MatchID] = true
	}
	pending := make([]any, 0, len(ir.NeedsReview))
	for _, m := range ir.NeedsReview {
		if !decided[m.MatchID] {
			pending = append(pending, m)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"auto_matched":        ir.AutoMatched,
		"needs_review":        ir.NeedsReview,
		"pending_review":      pending,
		"unmatched_accounts":  ir.UnmatchedAccounts,
		"unmatched_customers": ir.UnmatchedCustomers,
		"prospects":           ir.Prospects,
		"decisions":           sess.Decisions,
		"all_reviewed":        len(pending) == 0,
	})
}

func (h *Handler) handleIdentityAction(w http.ResponseWriter, r *http.Request, sessionID, action string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch action {
	case "decide":
		var body struct {
			MatchID  string `json:"match_id"`
			Decision string `json:"decision"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.MatchID == "" {
			writeError(w, http.StatusBadRequest, "Invalid request. Need match_id and decision (confirmed/rejected)")
			return
		}
		count, err := h.service.Decide(r.Context(), sessionID, body.MatchID, body.Decision)
		if errors.Is(err, session.ErrInvalidDecision) {
			writeError(w, http.StatusBadRequest, "Invalid request. Need match_id and decision (confirmed/rejected)")
			return
		}
		if err != nil {
			respondSessionError(w, err)
			return
		}
		metrics.IncDecision(action)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "decisions_count": count})
	case "undo":
		removed, err := h.service.Undo(r.Context(), sessionID)
		if errors.Is(err, session.ErrNoDecisions) {
			writeError(w, http.StatusConflict, "No decisions to undo")
			return
		}
		if err != nil {
			respondSessionError(w, err)
			return
		}
		metrics.IncDecision(action)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "undone": removed})
	case "reset":
		cleared, err := h.service.ResetDecisions(r.Context(), sessionID)
		if err != nil {
			respondSessionError(w, err)
			return
		}
		metrics.IncDecision(action)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "cleared": cleared})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := h.service.Start(r.Context(), sessionID); err != nil {
		if errors.Is(err, application.ErrIdentityNotRun) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		respondSessionError(w, err)
		return
	}
	go func() {
		started := time.Now()
		result := metrics.ResultSuccess
		if err := h.service.Run(context.Background(), sessionID); err != nil {
			result = metrics.ResultError
		}
		metrics.ObserveAnalysis(result, time.Since(started))
	}()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": session.StatusProcessing})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, err := h.service.Get(r.Context(), sessionID)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            sess.Status,
		"processing_status": sess.Processing,
		"completed_at":      sess.CompletedAt,
	})
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request, fileType string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	content, ok := ingest.Template(fileType)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown file type")
		return
	}
	serveCSV(w, fileType+"_template.csv", content)
}

func (h *Handler) handleSynthetic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	dataset := synthetic.Generate(h.seed)
	sess, err := h.service.CreateSession(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	settings := sess.Settings
	settings.PeriodStart = dataset.PeriodStart
	settings.PeriodEnd = dataset.PeriodEnd
	if _, err := h.service.UpdateSettings(r.Context(), sess.SessionID, settings); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, ft := range ingest.FileTypes {
		if _, err := h.service.StoreUpload(r.Context(), sess.SessionID, ft, ft+"_synthetic.csv", dataset.Rows(ft)); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	metrics.IncSynthetic()
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.SessionID,
		"metadata":   dataset.Metadata,
	})
}

func (h *Handler) handleSyntheticDownload(w http.ResponseWriter, r *http.Request, fileType string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	dataset := synthetic.Generate(h.seed)
	content, ok := dataset.CSV(fileType)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown file type or no data")
		return
	}
	serveCSV(w, fileType+"_synthetic.csv", content)
}

func readUpload(r *http.Request, field string, limit int64) (string, []byte, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		return "", nil, errors.New("invalid multipart payload")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, errors.New("missing file")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, errors.New("unreadable file")
	}
	return header.Filename, data, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func serveCSV(w http.ResponseWriter, filename string, content []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=`+filename)
	_, _ = w.Write(content)
}

func servePDF(w http.ResponseWriter, filename string, content []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename=`+filename)
	_, _ = w.Write(content)
}

func serveXLSX(w http.ResponseWriter, filename string, content []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename=`+filename)
	_, _ = w.Write(content)
}

func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrEmptyID):
		writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrDataNotFound):
		writeError(w, http.StatusConflict, "Analysis not complete")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

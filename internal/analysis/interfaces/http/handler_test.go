package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"revstrux/internal/analysis/application"
	"revstrux/internal/session/infrastructure/memory"

	session "revstrux/internal/session/domain"
)

var fixtureCSV = map[string]string{
	"accounts": "account_id,account_name,account_status,source_system\n" +
		"ACC-1,Globex Corp,active,salesforce\n" +
		"ACC-2,Initech LLC,active,salesforce\n",
	"customers": "customer_id,customer_name,customer_status,source_system\n" +
		"CUST-1,Globex Corp,active,stripe\n",
	"subscriptions": "sub_id,customer_id,start_date,end_date,mrr,currency,billing_frequency,pricing_model,sub_status\n" +
		"SUB-1,CUST-1,2024-01-01,2024-03-31,1000,USD,monthly,flat,active\n",
	"invoices": "invoice_id,customer_id,sub_id,invoice_date,period_start,period_end,amount,currency,status\n" +
		"INV-1,CUST-1,SUB-1,2024-01-01,2024-01-01,2024-01-31,1000,USD,paid\n" +
		"INV-2,CUST-1,SUB-1,2024-02-01,2024-02-01,2024-02-29,1000,USD,paid\n",
	"payments": "payment_id,invoice_id,payment_date,amount,currency\n" +
		"PAY-1,INV-1,2024-01-15,1000,USD\n" +
		"PAY-2,INV-2,2024-02-15,1000,USD\n",
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	svc, err := application.NewService(memory.NewSessionRepository(), memory.NewDataRepository(), logger)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	h, err := NewHandler(svc, logger)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return h
}

func doJSON(t *testing.T, h *Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func uploadCSV(t *testing.T, h *Handler, sessionID, fileType, content string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileType+".csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/upload/"+fileType, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload %s: status %d body %s", fileType, rec.Code, rec.Body.String())
	}
}

func createSession(t *testing.T, h *Handler) string {
	t.Helper()
	rec, body := doJSON(t, h, http.MethodPost, "/api/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("create session: status %d", rec.Code)
	}
	id, _ := body["session_id"].(string)
	if id == "" {
		t.Fatalf("missing session_id in %v", body)
	}
	return id
}

func waitForStatus(t *testing.T, h *Handler, sessionID, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, body := doJSON(t, h, http.MethodGet, "/api/sessions/"+sessionID+"/status", nil)
		if body["status"] == want {
			return
		}
		if body["status"] == session.StatusError {
			t.Fatalf("analysis errored: %v", body["processing_status"])
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session never reached status %s", want)
}

func TestRootAnnouncesService(t *testing.T) {
	h := newTestHandler(t)
	rec, body := doJSON(t, h, http.MethodGet, "/api/", nil)
	if rec.Code != http.StatusOK || body["message"] != "RevStrux API v1.1" {
		t.Fatalf("unexpected root response: %d %v", rec.Code, body)
	}
}

func TestFullAnalysisOverHTTP(t *testing.T) {
	h := newTestHandler(t)
	sessionID := createSession(t, h)

	rec, _ := doJSON(t, h, http.MethodPut, "/api/sessions/"+sessionID+"/settings",
		session.Settings{Currency: "USD", PeriodStart: "2024-01", PeriodEnd: "2024-03"})
	if rec.Code != http.StatusOK {
		t.Fatalf("settings: status %d", rec.Code)
	}

	for ft, content := range fixtureCSV {
		uploadCSV(t, h, sessionID, ft, content)
	}

	rec, body := doJSON(t, h, http.MethodPost, "/api/sessions/"+sessionID+"/validate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("validate: status %d", rec.Code)
	}
	if body["valid"] != true {
		t.Fatalf("expected valid, got %v", body)
	}
	if body["identity_summary"] == nil {
		t.Fatal("missing identity summary")
	}

	rec, body = doJSON(t, h, http.MethodGet, "/api/sessions/"+sessionID+"/identity", nil)
	if rec.Code != http.StatusOK || body["all_reviewed"] != true {
		t.Fatalf("identity: %d %v", rec.Code, body)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/sessions/"+sessionID+"/analyze", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: status %d", rec.Code)
	}
	waitForStatus(t, h, sessionID, session.StatusCompleted)

	rec, body = doJSON(t, h, http.MethodGet, "/api/sessions/"+sessionID+"/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d body %v", rec.Code, body)
	}
	if body["score"] == nil {
		t.Fatal("dashboard missing score")
	}
	findings, _ := body["top_findings"].([]any)
	if len(findings) != 1 {
		t.Fatalf("top findings = %d, want the missing-invoice account", len(findings))
	}

	rec, body = doJSON(t, h, http.MethodGet, "/api/sessions/"+sessionID+"/accounts?variance_type=MISSING_INVOICE", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("accounts: status %d", rec.Code)
	}
	accounts, _ := body["accounts"].([]any)
	if len(accounts) != 1 {
		t.Fatalf("filtered accounts = %d, want 1", len(accounts))
	}
	first, _ := accounts[0].(map[string]any)
	rsxID, _ := first["rsx_id"].(string)
	if rsxID == "" {
		t.Fatalf("missing rsx_id in %v", first)
	}

	rec, body = doJSON(t, h, http.MethodGet, "/api/sessions/"+sessionID+"/accounts/"+rsxID, nil)
	if rec.Code != http.StatusOK || body["entity"] == nil {
		t.Fatalf("lineage: %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, h, http.MethodGet, "/api/sessions/"+sessionID+"/exclusions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("exclusions: status %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID+"/export/accounts", nil)
	exportRec := httptest.NewRecorder()
	h.ServeHTTP(exportRec, req)
	if exportRec.Code != http.StatusOK {
		t.Fatalf("export accounts: status %d", exportRec.Code)
	}
	if !strings.HasPrefix(exportRec.Body.String(), "rsx_id,account_name") {
		t.Fatalf("unexpected export header: %q", exportRec.Body.String()[:40])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID+"/export/report", nil)
	reportRec := httptest.NewRecorder()
	h.ServeHTTP(reportRec, req)
	if reportRec.Code != http.StatusOK {
		t.Fatalf("export report: status %d", reportRec.Code)
	}
	if !bytes.HasPrefix(reportRec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("report export is not a PDF")
	}
}

func TestSmartUploadStoresDetectedTypes(t *testing.T) {
	h := newTestHandler(t)
	sessionID := createSession(t, h)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("files", "crm_export.csv")
	_, _ = part.Write([]byte("acct_id,company_name,account_status,source_system\nACC-1,Globex Corp,active,salesforce\n"))
	part, _ = mw.CreateFormFile("files", "notes.txt")
	_, _ = part.Write([]byte("not a csv"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/smart-upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("smart upload: status %d body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Results []struct {
			Filename     string `json:"filename"`
			DetectedType string `json:"detected_type"`
			Error        string `json:"error"`
		} `json:"results"`
		StoredTypes []string `json:"stored_types"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(body.Results))
	}
	if len(body.StoredTypes) != 1 || body.StoredTypes[0] != "accounts" {
		t.Fatalf("stored types = %v", body.StoredTypes)
	}
	if body.Results[1].Error == "" {
		t.Fatal("expected an error for the unsupported file")
	}
}

func TestIdentityActionsRequireState(t *testing.T) {
	h := newTestHandler(t)
	sessionID := createSession(t, h)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/sessions/"+sessionID+"/identity", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("identity before matching: status %d", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/sessions/"+sessionID+"/identity/decide",
		map[string]string{"match_id": "m1", "decision": "maybe"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad decision: status %d", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/sessions/"+sessionID+"/identity/undo", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("undo with no decisions: status %d", rec.Code)
	}
}

func TestSessionNotFound(t *testing.T) {
	h := newTestHandler(t)
	rec, body := doJSON(t, h, http.MethodGet, "/api/sessions/nope", nil)
	if rec.Code != http.StatusNotFound || body["error"] != "Session not found" {
		t.Fatalf("unexpected response: %d %v", rec.Code, body)
	}
}

func TestTemplateDownload(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/templates/subscriptions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("template: status %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "sub_id,") {
		t.Fatalf("unexpected template header: %q", rec.Body.String()[:20])
	}

	rec2, _ := doJSON(t, h, http.MethodGet, "/api/templates/unknown", nil)
	if rec2.Code != http.StatusNotFound {
		t.Fatalf("unknown template: status %d", rec2.Code)
	}
}

func TestSyntheticSession(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doJSON(t, h, http.MethodPost, "/api/synthetic", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("synthetic: status %d", rec.Code)
	}
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("missing session_id: %v", body)
	}
	metadata, _ := body["metadata"].(map[string]any)
	if metadata["total_accounts"] != float64(60) {
		t.Fatalf("metadata = %v", metadata)
	}

	rec2, sess := doJSON(t, h, http.MethodGet, "/api/sessions/"+sessionID, nil)
	if rec2.Code != http.StatusOK {
		t.Fatalf("get synthetic session: status %d", rec2.Code)
	}
	settings, _ := sess["settings"].(map[string]any)
	if settings["period_start"] != "2024-01" {
		t.Fatalf("synthetic settings = %v", settings)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/synthetic/download/accounts", nil)
	dlRec := httptest.NewRecorder()
	h.ServeHTTP(dlRec, req)
	if dlRec.Code != http.StatusOK {
		t.Fatalf("download: status %d", dlRec.Code)
	}
	lines := strings.Count(strings.TrimSpace(dlRec.Body.String()), "\n") + 1
	if lines != 61 {
		t.Fatalf("account csv lines = %d, want header plus 60 rows", lines)
	}
}

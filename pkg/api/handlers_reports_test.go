package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ymehili/fraudcheck/pkg/analysis"
	"github.com/ymehili/fraudcheck/pkg/export"
	"github.com/ymehili/fraudcheck/pkg/report"
)

const testRecordJSON = `{
	"id": "an-20260831-7f3c9b2e",
	"createdAt": "2026-08-31T14:30:00Z",
	"processingMs": 1840,
	"riskScore": 85.5,
	"confidence": 0.92,
	"ocrFields": {
		"payee": "John Smith",
		"amountNumeric": "$1,200.00",
		"routingNumber": "021000021"
	},
	"rules": {
		"violations": ["Routing number failed checksum validation"]
	}
}`

func newTestService(t *testing.T) (*ReportService, *Router) {
	t.Helper()

	gen := report.NewGenerator(nil)
	gen.Now = func() time.Time {
		return time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
	}
	sink := export.NewPDFSink()
	gen.Sink = sink

	svc := NewReportService(gen, sink, NewHub(), t.TempDir())
	rt := NewRouter()
	svc.Register(rt)
	return svc, rt
}

func postRecord(rt *Router, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, req)
	return w
}

func TestHandleGenerate(t *testing.T) {
	_, rt := newTestService(t)

	w := postRecord(rt, "/api/reports", testRecordJSON)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "check-analysis-7f3c9b2e.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-1.4")) {
		t.Error("response body is not a PDF")
	}
}

func TestHandleGenerateBadJSON(t *testing.T) {
	_, rt := newTestService(t)

	w := postRecord(rt, "/api/reports", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error response is not JSON: %v", err)
	}
	if resp.Success || resp.Error == nil {
		t.Error("expected structured error envelope")
	}
}

func TestHandleGenerateEmptyBody(t *testing.T) {
	_, rt := newTestService(t)
	if w := postRecord(rt, "/api/reports", ""); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleGenerateInvalidScore(t *testing.T) {
	_, rt := newTestService(t)
	body := `{"id":"an-1","createdAt":"2026-08-31T14:30:00Z","riskScore":150,"confidence":0.5}`
	if w := postRecord(rt, "/api/reports", body); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleGenerateUnrenderableRecord(t *testing.T) {
	_, rt := newTestService(t)
	body := `{"id":"an-1","createdAt":"2026-08-31T14:30:00Z","riskScore":50,"confidence":0.5,
		"ocrFields":{"payee":"Renée Dupont"}}`
	w := postRecord(rt, "/api/reports", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestHandleGenerateAsync(t *testing.T) {
	svc, rt := newTestService(t)

	w := postRecord(rt, "/api/reports/async", testRecordJSON)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			JobID  string `json:"jobId"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode failed: %v", err)
	}
	if resp.Data.JobID == "" {
		t.Fatal("no job id returned")
	}

	// Wait for the worker to settle the job.
	var job Job
	deadline := time.Now().Add(5 * time.Second)
	for {
		var ok bool
		job, ok = svc.Jobs.Get(resp.Data.JobID)
		if !ok {
			t.Fatal("job vanished from registry")
		}
		if job.Status == JobCompleted || job.Status == JobFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in status %s", job.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if job.Status != JobCompleted {
		t.Fatalf("job failed: %s %s", job.ErrorCode, job.Error)
	}
	if job.PageCount == 0 {
		t.Error("completed job has no page count")
	}
	if job.ArtifactSHA == "" {
		t.Error("completed job has no artifact hash")
	}

	data, err := os.ReadFile(job.FileName)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.4")) {
		t.Error("artifact is not a PDF")
	}
	if filepath.Base(job.FileName) != "check-analysis-7f3c9b2e.pdf" {
		t.Errorf("artifact name = %q", filepath.Base(job.FileName))
	}
}

func TestAsyncCancelledJobKeepsNoArtifact(t *testing.T) {
	svc, _ := newTestService(t)

	rec, err := analysis.Decode([]byte(testRecordJSON))
	if err != nil {
		t.Fatalf("record decode failed: %v", err)
	}

	// Cancel before the worker runs: even a worker that writes the PDF
	// must honor the terminal state, discard the file, and stay silent.
	jobID, ctx := svc.Jobs.Create(context.Background(), rec.ID)
	if !svc.Jobs.Cancel(jobID) {
		t.Fatal("cancel of queued job refused")
	}

	svc.runJob(ctx, jobID, rec)

	job, ok := svc.Jobs.Get(jobID)
	if !ok {
		t.Fatal("job vanished from registry")
	}
	if job.Status != JobCancelled {
		t.Errorf("status = %s, want cancelled", job.Status)
	}
	if job.FileName != "" {
		t.Errorf("cancelled job carries file name %q", job.FileName)
	}

	artifact := filepath.Join(svc.OutputDir, report.DefaultFileName(rec))
	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Errorf("artifact %s survives cancellation (stat err: %v)", artifact, err)
	}
}

func TestHandleGetJob(t *testing.T) {
	svc, rt := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/jobs/nope", nil)
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d, want 404", w.Code)
	}

	id, _ := svc.Jobs.Create(context.Background(), "an-1")
	req = httptest.NewRequest(http.MethodGet, "/api/reports/jobs/"+id, nil)
	w = httptest.NewRecorder()
	rt.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"queued"`) {
		t.Errorf("job body = %s", w.Body.String())
	}
}

func TestHandleCancelJob(t *testing.T) {
	svc, rt := newTestService(t)
	id, _ := svc.Jobs.Create(context.Background(), "an-1")

	req := httptest.NewRequest(http.MethodDelete, "/api/reports/jobs/"+id, nil)
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", w.Code)
	}

	// Second cancel: the job is already terminal.
	w = httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/reports/jobs/"+id, nil))
	if w.Code != http.StatusConflict {
		t.Errorf("second cancel status = %d, want 409", w.Code)
	}
}

func TestHandleAuditTrailDisabled(t *testing.T) {
	_, rt := newTestService(t)
	for _, path := range []string{"/api/reports/audit/an-1", "/api/reports/audit"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		rt.ServeHTTP(w, req)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, w.Code)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	_, rt := newTestService(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

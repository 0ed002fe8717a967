package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ymehili/fraudcheck/pkg/analysis"
	"github.com/ymehili/fraudcheck/pkg/errors"
	"github.com/ymehili/fraudcheck/pkg/export"
	"github.com/ymehili/fraudcheck/pkg/report"
	"github.com/ymehili/fraudcheck/pkg/store"
)

// maxRecordBytes caps the request body for analysis records.
const maxRecordBytes = 1 << 20

// ReportService wires the generator, PDF sink, job registry, event hub, and
// optional audit store behind the HTTP surface.
type ReportService struct {
	Generator *report.Generator
	Sink      *export.PDFSink
	Hub       *Hub
	Jobs      *JobManager

	// OutputDir receives artifacts from asynchronous jobs.
	OutputDir string

	// Audit is nil when no database is configured; the trail is skipped.
	Audit *store.AuditRepo
}

// NewReportService creates a service with a fresh job registry.
func NewReportService(gen *report.Generator, sink *export.PDFSink, hub *Hub, outputDir string) *ReportService {
	return &ReportService{
		Generator: gen,
		Sink:      sink,
		Hub:       hub,
		Jobs:      NewJobManager(),
		OutputDir: outputDir,
	}
}

// Register attaches all report routes to the router.
func (s *ReportService) Register(rt *Router) {
	rt.POST("/api/reports", s.handleGenerate)
	rt.POST("/api/reports/async", s.handleGenerateAsync)
	rt.GET("/api/reports/jobs/:id", s.handleGetJob)
	rt.DELETE("/api/reports/jobs/:id", s.handleCancelJob)
	rt.GET("/api/reports/audit", s.handleAuditRecent)
	rt.GET("/api/reports/audit/:record_id", s.handleAuditTrail)
	rt.GET("/api/health", s.handleHealth)

	if s.Hub != nil {
		rt.GET("/ws", NewWebSocketHandler(s.Hub).HandleFunc())
	}
}

// handleGenerate produces the PDF synchronously and streams it back as the
// response body.
func (s *ReportService) handleGenerate(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.readRecord(w, r)
	if !ok {
		return
	}

	doc, err := s.Generator.Generate(rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	data, err := s.Sink.Build(doc)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	fileName := report.DefaultFileName(rec)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleGenerateAsync accepts the record, queues a job, and returns 202
// immediately. Completion is observable via the job endpoint and the
// WebSocket reports channel.
func (s *ReportService) handleGenerateAsync(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.readRecord(w, r)
	if !ok {
		return
	}
	if err := rec.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	jobID, ctx := s.Jobs.Create(context.Background(), rec.ID)
	if s.Hub != nil {
		s.Hub.BroadcastReportQueued(&ReportQueuedData{JobID: jobID, RecordID: rec.ID})
	}

	go s.runJob(ctx, jobID, rec)

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"jobId":  jobID,
		"status": string(JobQueued),
	})
}

// runJob performs the generation for one queued job and settles its state.
func (s *ReportService) runJob(ctx context.Context, jobID string, rec *analysis.Record) {
	s.Jobs.MarkRunning(jobID)

	doc, err := s.Generator.Generate(rec)
	if err != nil {
		s.failJob(jobID, rec.ID, err)
		return
	}

	fileName := filepath.Join(s.OutputDir, report.DefaultFileName(rec))
	if err := s.Sink.Write(doc, fileName); err != nil {
		s.failJob(jobID, rec.ID, err)
		return
	}
	sha, hashErr := export.HashFile(fileName)
	if hashErr != nil {
		log.Printf("[api] job %s: artifact hash failed: %v", jobID, hashErr)
	}
	pageCount := len(doc.Pages)

	// The manager's lock settles the race with Cancel: only the goroutine
	// that wins the transition keeps the artifact and announces it.
	if !s.Jobs.MarkCompleted(jobID, fileName, pageCount, export.ShortHash(sha)) {
		os.Remove(fileName)
		return
	}
	if s.Hub != nil {
		s.Hub.BroadcastReportCompleted(&ReportCompletedData{
			JobID:       jobID,
			RecordID:    rec.ID,
			FileName:    fileName,
			PageCount:   pageCount,
			RiskScore:   rec.RiskScore,
			ArtifactSHA: export.ShortHash(sha),
		})
	}

	s.recordAudit(ctx, rec, fileName, pageCount, sha)
}

func (s *ReportService) failJob(jobID, recordID string, err error) {
	code := "internal_error"
	if fe, ok := errors.AsFraudCheckError(err); ok {
		code = fe.Code
	}
	log.Printf("[api] job %s failed: %v", jobID, err)

	if !s.Jobs.MarkFailed(jobID, code, err.Error()) {
		return
	}
	if s.Hub != nil {
		s.Hub.BroadcastReportFailed(&ReportFailedData{
			JobID:    jobID,
			RecordID: recordID,
			Code:     code,
			Message:  err.Error(),
		})
	}
}

// recordAudit persists the generation when a store is configured.
func (s *ReportService) recordAudit(ctx context.Context, rec *analysis.Record, fileName string, pageCount int, sha string) {
	if s.Audit == nil {
		return
	}

	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	id, err := s.Audit.Insert(insertCtx, store.AuditEntry{
		RecordID:    rec.ID,
		RiskScore:   rec.RiskScore,
		PageCount:   pageCount,
		ArtifactSHA: sha,
		FileName:    fileName,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[api] audit insert failed for %s: %v", rec.ID, err)
		return
	}
	if s.Hub != nil {
		s.Hub.BroadcastAuditRecorded(&AuditRecordedData{EntryID: id, RecordID: rec.ID})
	}
}

func (s *ReportService) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.Jobs.Get(PathParam(r, "id"))
	if !ok {
		WriteError(w, http.StatusNotFound, "job_not_found", "No job with that id")
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

func (s *ReportService) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "id")
	if _, ok := s.Jobs.Get(id); !ok {
		WriteError(w, http.StatusNotFound, "job_not_found", "No job with that id")
		return
	}
	if !s.Jobs.Cancel(id) {
		WriteError(w, http.StatusConflict, "job_finished", "Job already reached a terminal state")
		return
	}
	job, _ := s.Jobs.Get(id)
	WriteJSON(w, http.StatusOK, job)
}

func (s *ReportService) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	if s.Audit == nil {
		WriteError(w, http.StatusServiceUnavailable, "audit_disabled", "No audit store configured")
		return
	}

	entries, err := s.Audit.ListByRecord(r.Context(), PathParam(r, "record_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

// handleAuditRecent lists the latest generations across all records.
// ?limit caps the result; the store applies its default when absent.
func (s *ReportService) handleAuditRecent(w http.ResponseWriter, r *http.Request) {
	if s.Audit == nil {
		WriteError(w, http.StatusServiceUnavailable, "audit_disabled", "No audit store configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.Audit.ListRecent(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

func (s *ReportService) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readRecord decodes the analysis record from the request body. On failure
// it writes the error response and returns ok=false.
func (s *ReportService) readRecord(w http.ResponseWriter, r *http.Request) (*analysis.Record, bool) {
	defer r.Body.Close()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxRecordBytes))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "body_read_failed", "Failed to read request body")
		return nil, false
	}
	if len(data) == 0 {
		WriteError(w, http.StatusBadRequest, errors.CodeRecordMissing, "Request body is empty")
		return nil, false
	}

	rec, err := analysis.Decode(data)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return rec, true
}

// writeDomainError maps structured errors to HTTP statuses: record problems
// are the caller's fault, layout failures mean the record cannot be
// rendered, everything else is a server-side failure.
func writeDomainError(w http.ResponseWriter, err error) {
	fe, ok := errors.AsFraudCheckError(err)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch fe.Category {
	case errors.CategoryRecord:
		status = http.StatusBadRequest
	case errors.CategoryLayout:
		status = http.StatusUnprocessableEntity
	case errors.CategoryExport, errors.CategoryStore, errors.CategoryInternal:
		status = http.StatusInternalServerError
	}
	WriteError(w, status, fe.Code, fe.Message)
}

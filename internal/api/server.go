package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pagespeedlab/sitespeed-runner/internal/manager"
	"github.com/pagespeedlab/sitespeed-runner/internal/metrics"
	"github.com/pagespeedlab/sitespeed-runner/internal/report"
	"github.com/pagespeedlab/sitespeed-runner/internal/scan"
)

// serviceName identifies the service in health responses.
const serviceName = "sitespeed-runner"

// Server wires HTTP handlers to the scan manager and report engine.
type Server struct {
	router     chi.Router
	manager    *manager.Manager
	locator    *report.Locator
	extractor  *report.Extractor
	merger     *report.Merger
	summarizer *report.Summarizer
	reportsDir string
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	mgr *manager.Manager,
	locator *report.Locator,
	reportsDir string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		manager:    mgr,
		locator:    locator,
		extractor:  report.NewExtractor(logger),
		merger:     report.NewMerger(locator, logger),
		summarizer: report.NewSummarizer(locator, logger),
		reportsDir: reportsDir,
		logger:     logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/health", s.health)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Post("/run-sitespeed", s.runSitespeed)
	r.Get("/status/{scanID}", s.getStatus)
	r.Get("/scans", s.listScans)

	r.Route("/report/{scanID}", func(r chi.Router) {
		r.Get("/", s.getReport)
		r.Get("/main", s.getMainPage)
		r.Get("/aggregate", s.getAggregate)
		r.Get("/recommendations", s.getRecommendations)
	})

	// Raw report artifacts (HTML pages, HAR files, videos) linked from the
	// summary response.
	r.Get("/reports/*", s.serveArtifact)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": serviceName})
}

type runRequest struct {
	URL           string   `json:"url"`
	Options       []string `json:"options"`
	RemoveAgeGate bool     `json:"removeAgeGate"`
}

func (s *Server) runSitespeed(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'url' in request body")
		return
	}

	job, err := s.manager.Submit(r.Context(), scan.SubmitRequest{
		URL:           req.URL,
		Options:       req.Options,
		RemoveAgeGate: req.RemoveAgeGate,
	})
	if err != nil {
		if errors.Is(err, scan.ErrInvalidInput) {
			s.writeError(w, http.StatusBadRequest, "URL must start with http:// or https://")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"scanId":    job.ID,
		"status":    string(job.Status),
		"statusUrl": "/status/" + job.ID,
		"reportUrl": "/report/" + job.ID,
	})
}

type statusResponse struct {
	ScanID      string  `json:"scanId"`
	Status      string  `json:"status"`
	URL         string  `json:"url"`
	StartedAt   string  `json:"started_at"`
	CompletedAt *string `json:"completed_at"`
	Error       string  `json:"error,omitempty"`
	ReportURL   string  `json:"reportUrl,omitempty"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")
	job, err := s.manager.GetStatus(scanID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Scan not found")
		return
	}

	resp := statusResponse{
		ScanID:      job.ID,
		Status:      string(job.Status),
		URL:         job.URL,
		StartedAt:   scan.FormatTimestamp(job.StartedAt),
		CompletedAt: formatOptional(job.CompletedAt),
	}
	switch job.Status {
	case scan.StatusFailed:
		resp.Error = job.Error
	case scan.StatusCompleted:
		resp.ReportURL = "/report/" + job.ID
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")
	job, ok := s.gateReport(w, scanID)
	if !ok {
		return
	}

	summary, found := s.summarizer.Build(scanID, summaryMeta(job))
	if !found {
		s.writeJSON(w, http.StatusNotFound, map[string]string{
			"error":  "Report file not found",
			"scanId": scanID,
			"hint":   "Check if sitespeed.io generated output files",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

type mainPageResponse struct {
	ScanID      string          `json:"scanId"`
	URL         string          `json:"url"`
	PageURL     string          `json:"pageUrl"`
	Timestamp   string          `json:"timestamp"`
	CompletedAt string          `json:"completed_at"`
	Technology  json.RawMessage `json:"technology,omitempty"`
	Metrics     pageMetricGroup `json:"metrics"`
}

// pageMetricGroup drops tool groups whose metrics are all null, so a page
// a tool never measured carries no empty object in the response.
type pageMetricGroup struct {
	Browsertime *report.BrowsertimeMetrics `json:"browsertime,omitempty"`
	Coach       *report.CoachMetrics       `json:"coach,omitempty"`
	Lighthouse  *report.LighthouseMetrics  `json:"lighthouse,omitempty"`
}

func newPageMetricGroup(bt report.BrowsertimeMetrics, coach report.CoachMetrics, lh report.LighthouseMetrics) pageMetricGroup {
	var g pageMetricGroup
	if !bt.IsEmpty() {
		g.Browsertime = &bt
	}
	if !coach.IsEmpty() {
		g.Coach = &coach
	}
	if !lh.IsEmpty() {
		g.Lighthouse = &lh
	}
	return g
}

func (s *Server) getMainPage(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")
	job, ok := s.gateReport(w, scanID)
	if !ok {
		return
	}

	pageDirs := s.locator.PageDirs(scanID)
	if len(pageDirs) == 0 {
		s.writeJSON(w, http.StatusNotFound, map[string]string{
			"error":  "No pages found in scan",
			"scanId": scanID,
		})
		return
	}

	main := s.extractor.ExtractPage(pageDirs[0])

	s.writeJSON(w, http.StatusOK, mainPageResponse{
		ScanID:      scanID,
		URL:         job.URL,
		PageURL:     main.Page,
		Timestamp:   formatKnown(job.StartedAt),
		CompletedAt: orEmpty(formatOptional(job.CompletedAt)),
		Technology:  main.Coach.Technology,
		Metrics:     newPageMetricGroup(main.Browsertime, main.Coach, main.Lighthouse),
	})
}

type pageSummary struct {
	Page                  string   `json:"page"`
	LighthousePerformance *float64 `json:"lighthousePerformance,omitempty"`
	CoachScore            *float64 `json:"coachScore,omitempty"`
}

type aggregateResponse struct {
	ScanID         string          `json:"scanId"`
	URL            string          `json:"url"`
	Timestamp      string          `json:"timestamp"`
	CompletedAt    string          `json:"completed_at"`
	PagesCount     int             `json:"pagesCount"`
	PagesScanned   []pageSummary   `json:"pagesScanned"`
	Technology     json.RawMessage `json:"technology,omitempty"`
	AverageMetrics pageMetricGroup `json:"averageMetrics"`
}

func (s *Server) getAggregate(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")
	job, ok := s.gateReport(w, scanID)
	if !ok {
		return
	}

	pageDirs := s.locator.PageDirs(scanID)
	if len(pageDirs) == 0 {
		s.writeJSON(w, http.StatusNotFound, map[string]string{
			"error":  "No pages found in scan",
			"scanId": scanID,
		})
		return
	}

	all := make([]report.PageMetrics, 0, len(pageDirs))
	scanned := make([]pageSummary, 0, len(pageDirs))
	for _, dir := range pageDirs {
		pm := s.extractor.ExtractPage(dir)
		all = append(all, pm)
		scanned = append(scanned, pageSummary{
			Page:                  pm.Page,
			LighthousePerformance: pm.Lighthouse.Performance,
			CoachScore:            pm.Coach.Score,
		})
	}

	agg := report.Aggregate(all)

	s.writeJSON(w, http.StatusOK, aggregateResponse{
		ScanID:         scanID,
		URL:            job.URL,
		Timestamp:      formatKnown(job.StartedAt),
		CompletedAt:    orEmpty(formatOptional(job.CompletedAt)),
		PagesCount:     agg.PagesCount,
		PagesScanned:   scanned,
		Technology:     all[0].Coach.Technology,
		AverageMetrics: newPageMetricGroup(agg.Browsertime, agg.Coach, agg.Lighthouse),
	})
}

type recommendationsResponse struct {
	ScanID               string                  `json:"scanId"`
	URL                  string                  `json:"url"`
	Timestamp            string                  `json:"timestamp"`
	RecommendationsCount int                     `json:"recommendationsCount"`
	Recommendations      []report.Recommendation `json:"recommendations"`
}

func (s *Server) getRecommendations(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")
	job, ok := s.gateReport(w, scanID)
	if !ok {
		return
	}

	recs := s.merger.Merge(scanID)
	if recs == nil {
		recs = []report.Recommendation{}
	}

	s.writeJSON(w, http.StatusOK, recommendationsResponse{
		ScanID:               scanID,
		URL:                  job.URL,
		Timestamp:            formatKnown(job.StartedAt),
		RecommendationsCount: len(recs),
		Recommendations:      recs,
	})
}

type scanListEntry struct {
	ScanID    string `json:"scanId"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	StartedAt string `json:"started_at"`
}

func (s *Server) listScans(w http.ResponseWriter, _ *http.Request) {
	jobs := s.manager.List()
	entries := make([]scanListEntry, 0, len(jobs))
	for _, job := range jobs {
		entries = append(entries, scanListEntry{
			ScanID:    job.ID,
			URL:       job.URL,
			Status:    string(job.Status),
			StartedAt: scan.FormatTimestamp(job.StartedAt),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"scans": entries, "total": len(entries)})
}

// serveArtifact streams a raw report file. http.FileServer canonicalizes
// paths ending in index.html with a 301, which would break the html links
// the report summary emits, so the file is opened and served directly.
func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request) {
	rel := path.Clean("/" + chi.URLParam(r, "*"))
	f, err := os.Open(filepath.Join(s.reportsDir, filepath.FromSlash(rel)))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// gateReport applies the shared report-endpoint preconditions: the report
// directory must exist on disk (404 otherwise, so reports survive a process
// restart) and a registry-known job must be completed (400 otherwise). The
// returned job is zero-valued when the registry no longer knows the scan.
func (s *Server) gateReport(w http.ResponseWriter, scanID string) (scan.Job, bool) {
	if !s.locator.HasReport(scanID) {
		s.writeError(w, http.StatusNotFound, "Scan not found")
		return scan.Job{}, false
	}
	job, err := s.manager.GetStatus(scanID)
	if err != nil {
		return scan.Job{}, true
	}
	if job.Status != scan.StatusCompleted {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Report not available. Scan status: %s", job.Status))
		return scan.Job{}, false
	}
	return job, true
}

func summaryMeta(job scan.Job) report.SummaryMeta {
	return report.SummaryMeta{
		URL:         job.URL,
		Timestamp:   formatKnown(job.StartedAt),
		CompletedAt: orEmpty(formatOptional(job.CompletedAt)),
	}
}

func formatKnown(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return scan.FormatTimestamp(t)
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	ts := scan.FormatTimestamp(*t)
	return &ts
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", uuid.NewString())
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

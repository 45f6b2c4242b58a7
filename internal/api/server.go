// Package api serves GuardianWeb scans over HTTP
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ARYAN-095/GuardianWeb/internal/api/middleware"
	scanapp "github.com/ARYAN-095/GuardianWeb/internal/application/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/artifacts"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/persistence/codec"
	"github.com/ARYAN-095/GuardianWeb/internal/shared/constants"
)

const (
	maxBodyBytes    = 1 << 20
	defaultJobLimit = 25
)

// apiPrefixes lists the versioned base path and its unversioned alias
var apiPrefixes = []string{"/api/v1", "/api"}

// AnalyzeRequest is the body of POST /api/v1/analyze
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// ScanService runs and serves scans
type ScanService interface {
	Analyze(ctx context.Context, rawURL string) (*scan.ScanRecord, error)
	LatestScan(ctx context.Context, rawURL string) (*scan.ScanRecord, error)
	ScanByID(ctx context.Context, scanID string) (*scan.ScanRecord, error)
	History(ctx context.Context, rawURL string, limit int) ([]*scan.ScanRecord, error)
}

// HealthService backs /health and /ready
type HealthService interface {
	Check(ctx context.Context) error
	Ready(ctx context.Context) error
}

// JobService runs scans in the background
type JobService interface {
	StartJob(ctx context.Context, req JobRequest) (*Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]Job, error)
	Subscribe() (chan Job, func())
}

// Config wires the server. Nil Health and Jobs disable those endpoints'
// backing checks.
type Config struct {
	Scans     ScanService
	Health    HealthService
	Jobs      JobService
	AuthToken string
	Logger    *zap.Logger

	// CORSOrigins lists dashboard origins; empty allows all
	CORSOrigins []string
	// ReadLimit applies per client to report, history and job status reads
	ReadLimit Limit
	// ScanLimit applies per client to requests that start a scan
	ScanLimit Limit
	// ScreenshotDir is served under /static/screenshots/ when set
	ScreenshotDir string
}

// Server is the GuardianWeb HTTP API
type Server struct {
	cfg     Config
	log     *zap.Logger
	mux     *http.ServeMux
	limits  *limiterPool
	handler http.Handler
}

// NewServer builds the route table and middleware chain
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		log:    logger.Named("api"),
		mux:    http.NewServeMux(),
		limits: newLimiterPool(cfg.ReadLimit, cfg.ScanLimit),
	}
	s.routes()
	s.handler = middleware.RequestID(s.withAccessLog(newCORSPolicy(cfg.CORSOrigins).wrap(s.mux)))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.handle("/health", routeHealth, s.handleHealth)
	s.handle("/ready", routeHealth, s.handleReady)
	s.handle("/analyze", routeScan, s.handleAnalyze)
	s.handle("/scans/", routeRead, s.handleScans)
	s.handle("/history", routeRead, s.handleHistory)
	s.handle("/jobs", routeScan, s.handleJobs)
	s.handle("/jobs/", routeRead, s.handleJobByID)
	s.handle("/jobs-stream", routeRead, s.handleJobStream)

	if s.cfg.ScreenshotDir != "" {
		files := http.StripPrefix(artifacts.LocalURLPrefix, http.FileServer(http.Dir(s.cfg.ScreenshotDir)))
		s.mux.Handle(artifacts.LocalURLPrefix, s.guard("screenshots", routeAsset, noDirectoryListing(files)))
	}
}

// handle registers h under every API prefix
func (s *Server) handle(pattern string, class routeClass, h http.HandlerFunc) {
	route := strings.Trim(pattern, "/")
	for _, prefix := range apiPrefixes {
		s.mux.Handle(prefix+pattern, s.guard(route, class, h))
	}
}

// guard applies the class policy: health checks pass through, everything else is
// rate limited per client, and API routes also need the token
func (s *Server) guard(route string, class routeClass, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n := notesFrom(r.Context()); n != nil {
			n.route = route
		}
		if class == routeHealth {
			next.ServeHTTP(w, r)
			return
		}

		effective := effectiveClass(class, r)
		if ok, wait := s.limits.reserve(effective, clientAddr(r)); !ok {
			w.Header().Set("Retry-After", retryAfterSeconds(wait))
			s.requestLogger(r).Warn("rate limited",
				zap.String("class", effective.String()), zap.String("client", clientAddr(r)))
			s.reject(w, r, http.StatusTooManyRequests, codeRateLimited,
				fmt.Sprintf("too many %s requests, retry later", effective))
			return
		}

		if class != routeAsset && !s.authorized(r) {
			s.reject(w, r, http.StatusUnauthorized, codeUnauthorized, "missing or invalid API token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorized accepts the token in X-Auth-Token or as a bearer token
func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.AuthToken == "" {
		return true
	}
	token := r.Header.Get("X-Auth-Token")
	if token == "" {
		token, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if s.cfg.Health != nil {
		if err := s.cfg.Health.Check(r.Context()); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": constants.ScannerVersion})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if s.cfg.Health != nil {
		if err := s.cfg.Health.Ready(r.Context()); err != nil {
			s.requestLogger(r).Warn("not ready", zap.Error(err))
			s.reject(w, r, http.StatusServiceUnavailable, codeNotReady, "scan storage is not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req AnalyzeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	record, err := s.cfg.Scans.Analyze(r.Context(), req.URL)
	if err != nil {
		var perr *scanapp.PersistError
		if errors.As(err, &perr) {
			annotateRecord(r.Context(), perr.Record)
		} else {
			annotate(r.Context(), zap.String("target", req.URL))
		}
		s.fail(w, r, err)
		return
	}
	annotateRecord(r.Context(), record)
	writeJSON(w, http.StatusOK, codec.Encode(record))
}

// handleScans serves /scans/latest?url= and /scans/{id}. The id is the
// ISO-8601 creation time and arrives percent-encoded.
func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := pathTail(r.URL.EscapedPath(), "/scans/")
	if id == "" {
		s.reject(w, r, http.StatusNotFound, codeScanNotFound, "scan ID required")
		return
	}

	var (
		record *scan.ScanRecord
		err    error
	)
	if id == "latest" {
		target := r.URL.Query().Get("url")
		if target == "" {
			s.reject(w, r, http.StatusBadRequest, codeBadRequest, "url query parameter is required")
			return
		}
		annotate(r.Context(), zap.String("target", target))
		record, err = s.cfg.Scans.LatestScan(r.Context(), target)
	} else {
		scanID, uerr := url.PathUnescape(id)
		if uerr != nil {
			s.reject(w, r, http.StatusBadRequest, codeBadRequest, "malformed scan ID")
			return
		}
		annotate(r.Context(), zap.String("scan_id", scanID))
		record, err = s.cfg.Scans.ScanByID(r.Context(), scanID)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.Encode(record))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	target := r.URL.Query().Get("url")
	if target == "" {
		s.reject(w, r, http.StatusBadRequest, codeBadRequest, "url query parameter is required")
		return
	}
	limit := queryLimit(r, constants.DefaultHistoryLimit)
	annotate(r.Context(), zap.String("target", target), zap.Int("limit", limit))

	records, err := s.cfg.Scans.History(r.Context(), target, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	docs := make([]codec.Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, codec.Encode(rec))
	}
	annotate(r.Context(), zap.Int("records", len(docs)))
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if !s.jobsEnabled(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		jobs, err := s.cfg.Jobs.ListJobs(r.Context(), queryLimit(r, defaultJobLimit))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	case http.MethodPost:
		var req JobRequest
		if !s.decodeBody(w, r, &req) {
			return
		}
		annotate(r.Context(), zap.String("target", req.URL))
		job, err := s.cfg.Jobs.StartJob(r.Context(), req)
		if err != nil {
			s.reject(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		annotate(r.Context(), zap.String("job_id", job.ID))
		writeJSON(w, http.StatusAccepted, job)
	default:
		s.methodNotAllowed(w, r, "GET, POST")
	}
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if !s.jobsEnabled(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := pathTail(r.URL.Path, "/jobs/")
	annotate(r.Context(), zap.String("job_id", id))
	job, err := s.cfg.Jobs.GetJob(r.Context(), id)
	if id == "" || err != nil || job == nil {
		s.reject(w, r, http.StatusNotFound, codeJobNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleJobStream pushes job updates as server-sent events until the client
// goes away or the job service closes the stream
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request) {
	if !s.jobsEnabled(w, r) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.fail(w, r, errors.New("response writer does not support streaming"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates, unsubscribe := s.cfg.Jobs.Subscribe()
	defer unsubscribe()

	sent := 0
	defer func() { annotate(r.Context(), zap.Int("events", sent)) }()
	for {
		select {
		case job, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(job)
			if err != nil {
				s.requestLogger(r).Error("failed to encode job update", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
			if err := writeEvent(w, "job", job.ID, payload); err != nil {
				s.requestLogger(r).Debug("job stream closed", zap.Error(err))
				return
			}
			sent++
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) jobsEnabled(w http.ResponseWriter, r *http.Request) bool {
	if s.cfg.Jobs == nil {
		s.reject(w, r, http.StatusNotFound, codeJobsDisabled, "background jobs are not enabled")
		return false
	}
	return true
}

// decodeBody reads a size-capped JSON body into dst, answering 400 on failure
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.reject(w, r, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// requestLogger returns a logger carrying the request id and route path
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return s.log.With(
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("path", r.URL.Path),
	)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeEvent writes one server-sent event frame
func writeEvent(w io.Writer, event, id string, data []byte) error {
	_, err := fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", event, id, data)
	return err
}

func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// pathTail returns what follows marker in path, or "" when nothing does
func pathTail(path, marker string) string {
	idx := strings.Index(path, marker)
	if idx < 0 {
		return ""
	}
	return strings.Trim(path[idx+len(marker):], "/")
}

func queryLimit(r *http.Request, fallback int) int {
	if q := r.URL.Query().Get("limit"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

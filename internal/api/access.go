package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ARYAN-095/GuardianWeb/internal/api/middleware"
	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

// requestNotes collects scan details a handler learned while serving a
// request, so the access log line says which site was scanned and how it
// scored rather than only which path was hit
type requestNotes struct {
	route  string
	fields []zap.Field
}

type notesKey struct{}

func notesFrom(ctx context.Context) *requestNotes {
	n, _ := ctx.Value(notesKey{}).(*requestNotes)
	return n
}

// annotate adds fields to the access log entry of the current request
func annotate(ctx context.Context, fields ...zap.Field) {
	if n := notesFrom(ctx); n != nil {
		n.fields = append(n.fields, fields...)
	}
}

// annotateRecord notes the scan a response is about
func annotateRecord(ctx context.Context, rec *scan.ScanRecord) {
	if rec == nil {
		return
	}
	fields := []zap.Field{
		zap.String("target", rec.URL()),
		zap.String("scan_id", rec.ScanID()),
		zap.Int("findings", rec.Consolidated().Len()),
	}
	if score, ok := rec.RiskScore(); ok {
		fields = append(fields, zap.Int("risk_score", score), zap.String("risk_level", string(rec.RiskLevel())))
	}
	annotate(ctx, fields...)
}

// withAccessLog writes one http_request entry per request
func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		notes := &requestNotes{}
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), notesKey{}, notes)))

		fields := append([]zap.Field{
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", notes.route),
			zap.String("client", clientAddr(r)),
			zap.Int("status", rw.status),
			zap.Duration("duration", time.Since(start)),
			zap.Int64("bytes", rw.bytes),
		}, notes.fields...)
		s.log.Info("http_request", fields...)
	})
}

// statusRecorder captures the status code and body size of a response
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Flush keeps the job event stream working through the recorder
func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// corsPolicy answers browser preflights for the dashboard origins. An empty
// origin list allows any origin.
type corsPolicy struct {
	any     bool
	origins map[string]struct{}
}

func newCORSPolicy(origins []string) corsPolicy {
	p := corsPolicy{any: len(origins) == 0, origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		p.origins[strings.TrimRight(o, "/")] = struct{}{}
	}
	return p
}

func (p corsPolicy) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := r.Header.Get("Origin")
		switch {
		case p.any:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			h.Add("Vary", "Origin")
			if _, ok := p.origins[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
			}
		}
		if h.Get("Access-Control-Allow-Origin") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token, "+middleware.HeaderRequestID)
			h.Set("Access-Control-Expose-Headers", middleware.HeaderRequestID+", Retry-After")
			h.Set("Access-Control-Max-Age", "3600")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

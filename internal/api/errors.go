package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ARYAN-095/GuardianWeb/internal/api/middleware"
	scanapp "github.com/ARYAN-095/GuardianWeb/internal/application/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/persistence/codec"
	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
)

// Error codes returned in the "code" field of error bodies
const (
	codeBadRequest       = "bad_request"
	codeInvalidURL       = "invalid_url"
	codeFetchFailed      = "fetch_failed"
	codeScanTimeout      = "scan_timeout"
	codeScanNotFound     = "scan_not_found"
	codeCaptureFailed    = "capture_failed"
	codeNotPersisted     = "scan_not_persisted"
	codeInternal         = "internal"
	codeUnauthorized     = "unauthorized"
	codeRateLimited      = "rate_limited"
	codeMethodNotAllowed = "method_not_allowed"
	codeJobsDisabled     = "jobs_disabled"
	codeJobNotFound      = "job_not_found"
	codeNotReady         = "not_ready"
)

// errorBody is the JSON shape of every error response. Report is only set
// when a scan finished but could not be stored.
type errorBody struct {
	Error     string          `json:"error"`
	Code      string          `json:"code"`
	RequestID string          `json:"request_id,omitempty"`
	Report    *codec.Document `json:"report,omitempty"`
}

// scanFailure is what a failed scan operation turns into on the wire
type scanFailure struct {
	status  int
	code    string
	message string
	report  *codec.Document
}

// classify maps scan pipeline errors to a response. Client-caused failures
// keep their message; server-side ones are replaced so internals stay in
// the log.
func classify(err error) scanFailure {
	var perr *scanapp.PersistError
	switch {
	case errors.As(err, &perr):
		doc := codec.Encode(perr.Record)
		return scanFailure{
			status:  http.StatusInternalServerError,
			code:    codeNotPersisted,
			message: "scan completed but could not be saved",
			report:  &doc,
		}
	case errors.Is(err, sharedErrors.ErrScanTimeout), errors.Is(err, context.DeadlineExceeded):
		return scanFailure{status: http.StatusGatewayTimeout, code: codeScanTimeout, message: "scan timed out"}
	case errors.Is(err, sharedErrors.ErrScanNotFound):
		return scanFailure{status: http.StatusNotFound, code: codeScanNotFound, message: err.Error()}
	case errors.Is(err, sharedErrors.ErrCaptureFailed):
		return scanFailure{status: http.StatusBadGateway, code: codeCaptureFailed, message: sharedErrors.ErrCaptureFailed.Error()}
	case errors.Is(err, sharedErrors.ErrInvalidURL):
		return scanFailure{status: http.StatusBadRequest, code: codeInvalidURL, message: err.Error()}
	case errors.Is(err, sharedErrors.ErrFetchFailed):
		return scanFailure{status: http.StatusBadRequest, code: codeFetchFailed, message: err.Error()}
	default:
		return scanFailure{status: http.StatusInternalServerError, code: codeInternal, message: "internal server error"}
	}
}

// fail writes the response for an error returned by the scan service
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	f := classify(err)
	annotate(r.Context(), zap.String("error_code", f.code))
	if f.status >= http.StatusInternalServerError {
		s.requestLogger(r).Error("scan request failed",
			zap.String("code", f.code), zap.Int("status", f.status), zap.Error(err))
	}
	writeJSON(w, f.status, errorBody{
		Error:     f.message,
		Code:      f.code,
		RequestID: middleware.GetRequestID(r.Context()),
		Report:    f.report,
	})
}

// reject writes a request-level error that never reached the scan service
func (s *Server) reject(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	annotate(r.Context(), zap.String("error_code", code))
	writeJSON(w, status, errorBody{
		Error:     message,
		Code:      code,
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	s.reject(w, r, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
}

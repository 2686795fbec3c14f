// Package handlers implements the desk's HTTP endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RTO-Desk/pkg/errors"
)

// dataEnvelope wraps successful payloads as {"data": ...}, the shape the
// records backend also uses.
type dataEnvelope struct {
	Data interface{} `json:"data"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, dataEnvelope{Data: data})
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// writeAppError maps an error onto the status registered for its code.
// Errors without an application code are reported as a masked 500.
func writeAppError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	resp := ErrorResponse{
		Code:      code.String(),
		Message:   err.Error(),
		RequestID: chimw.GetReqID(r.Context()),
	}

	var ae *errors.AppError
	if errors.As(err, &ae) {
		resp.Message = ae.Message
	}

	status := errors.HTTPStatusForCode(code)
	if code == errors.CodeUnknown || code == errors.CodeInternal {
		status = http.StatusInternalServerError
		resp.Code = errors.CodeInternal.String()
		resp.Message = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			logging.String("path", r.URL.Path),
			logging.String("code", code.String()),
			logging.String("request_id", resp.RequestID),
			logging.Err(err))
	}
	writeJSON(w, status, resp)
}

// queryInt reads a positive integer query parameter.  An absent parameter
// yields zero so the service default applies.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.Newf(errors.CodeInvalidParam, "%s must be a positive integer", name).WithDetail(name + "=" + v)
	}
	return n, nil
}

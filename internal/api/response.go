package api

import (
	"encoding/json"
	"net/http"

	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/common/logger"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Details   string   `json:"details,omitempty"`
	Fields    []string `json:"fields,omitempty"`
	Retryable bool     `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := apperrors.AsStandardError(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	resp := ErrorResponse{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Fields:    stdErr.Fields,
		Retryable: stdErr.Retryable,
	}
	if status >= http.StatusInternalServerError {
		// Infrastructure details stay in the logs.
		resp.Details = ""
		logger.FromContext(r.Context(), logger.NewNoOpLogger()).Error("request failed", map[string]interface{}{
			"code":  resp.Code,
			"error": err,
		})
	}

	if stdErr.Code == apperrors.ErrCodeUnauthenticated {
		w.Header().Set("WWW-Authenticate", `Bearer realm="incubator-portal"`)
	}
	writeJSON(w, status, resp)
}

// Package render writes JSON responses and the API error body.
package render

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kevinaaaquil/shelf/backend/errs"
)

// ClearSiteData tells the browser to drop locally stored credentials.
const ClearSiteData = `"storage"`

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// Error writes err as {"error","code","details"}. Internal causes are logged,
// never sent to the client.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	e := errs.From(err)
	if e.Code == errs.CodeSuspended {
		w.Header().Set("Clear-Site-Data", ClearSiteData)
	}
	status := e.HTTPStatus()
	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", e.Code,
			"error", err,
		)
	}
	JSON(w, status, e)
}

// DecodeJSON decodes the request body into v, rejecting unknown trailing data.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(err, errs.CodeValidation, "invalid json")
	}
	if dec.More() {
		return errs.Validation("invalid json")
	}
	return nil
}

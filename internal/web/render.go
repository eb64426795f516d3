package web

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/callscribe/internal/errors"
)

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// renderError maps an error to its HTTP status and JSON body. Unknown error
// types become a 500 INTERNAL without leaking the underlying message.
func renderError(w http.ResponseWriter, log *logrus.Entry, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.NewInternal(err)
	}

	entry := log.WithField("error", err.Error())
	if appErr.Status >= 500 {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}

	details := appErr.Details
	if details != nil {
		// The wrapped cause is for logs, not for clients.
		if _, ok := details["cause"]; ok {
			clean := make(map[string]any, len(details)-1)
			for k, v := range details {
				if k != "cause" {
					clean[k] = v
				}
			}
			details = clean
		}
	}

	renderJSON(w, appErr.Status, errorBody{Error: errorDetail{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: details,
	}})
}

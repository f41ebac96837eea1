package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response is the envelope of every JSON API reply.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}

// success sends a 200 with data.
func success(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Status: "success", Data: data})
}

// successMessage sends a 200 with a message and data.
func successMessage(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Response{Status: "success", Message: message, Data: data})
}

// errorResponse sends an error reply. err may be nil.
func errorResponse(w http.ResponseWriter, status int, message string, err error) {
	resp := Response{Status: "error", Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusBadRequest, message, nil)
}

// confirmationRequired rejects a destructive action sent without confirm.
func confirmationRequired(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusConflict, message, nil)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"texture-index/internal/logging"
)

// writeJSON streams v to the client as JSON. Once the body is underway
// there is no way to signal failure, so encode errors are only logged.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("JSON response write failed: %v", err)
	}
}

// writeJSONWith sets the JSON content type, writes code, and streams v.
func writeJSONWith(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, v)
}

// writeJSONError sends {"error": message} with the given status code.
func writeJSONError(w http.ResponseWriter, message string, code int) {
	writeJSONWith(w, code, map[string]string{"error": message})
}

// writeJSONStatus sends {"status": status} with a 200.
func writeJSONStatus(w http.ResponseWriter, status string) {
	writeJSONWith(w, http.StatusOK, map[string]string{"status": status})
}

package main

import (
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// httpErrorDetails adds field-level validation details to the error body.
func httpErrorDetails(w http.ResponseWriter, status int, message string, details map[string]string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   message,
		"details": details,
	})
}

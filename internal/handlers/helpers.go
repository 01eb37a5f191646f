package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/dwellio/dwellio-backend/internal/services"
)

// Response is the JSON envelope every endpoint writes:
// {success, data?, message?, errors?}.
type Response struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Data    interface{}           `json:"data,omitempty"`
	Errors  []services.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: status < 400, Message: message})
}

func writeValidationErrors(w http.ResponseWriter, errs []services.FieldError) {
	writeJSON(w, http.StatusBadRequest, Response{Success: false, Errors: errs})
}

// writeServerError hides internal detail from the client; the cause is
// logged at the call site.
func writeServerError(w http.ResponseWriter) {
	writeMessage(w, http.StatusInternalServerError, "Server error")
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// normalizeEmail lowercases and trims an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

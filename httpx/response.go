package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/diewo77/go-deliberations/i18n"
)

// ErrorResponse is the body of every failed API call.
// Error is a stable code; Message is its translation for the request language.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// avoid writing partial JSON
			http.Error(w, `{"success":false,"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		_ = err
	}
}

// Success writes fields with "success": true merged in.
func Success(w http.ResponseWriter, status int, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["success"] = true
	JSON(w, status, fields)
}

// JSONError writes an error body whose message is code translated for r.
func JSONError(w http.ResponseWriter, r *http.Request, status int, code string, details any) {
	JSON(w, status, ErrorResponse{
		Error:   code,
		Message: i18n.T(i18n.LangFromContext(r.Context()), code),
		Details: details,
	})
}

// JSONErrorMessage writes an error body with an explicit message.
func JSONErrorMessage(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Message: message, Details: details})
}

// Decode reads a JSON request body into dst.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

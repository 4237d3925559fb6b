package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"portfolio-backend-go/internal/services"
)

const maxBodyBytes = 1 << 20

// Envelope is the body of every API response.
type Envelope struct {
	Success bool                  `json:"success"`
	Data    any                   `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
	Errors  []services.FieldError `json:"errors,omitempty"`
	Message string                `json:"message,omitempty"`
	Count   *int                  `json:"count,omitempty"`
	Total   *int64                `json:"total,omitempty"`
	Page    *int                  `json:"page,omitempty"`
	Pages   *int                  `json:"pages,omitempty"`
}

// nullData renders as "data": null instead of omitting the key.
var nullData = json.RawMessage("null")

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Error: message})
}

func writeData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

func writeList[T any](w http.ResponseWriter, items []T) {
	count := len(items)
	if items == nil {
		items = []T{}
	}
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Count: &count, Data: items})
}

func writePage[T any](w http.ResponseWriter, result services.ListResult[T]) {
	items := result.Items
	if items == nil {
		items = []T{}
	}
	count := len(items)
	env := Envelope{Success: true, Count: &count, Data: items}
	if result.Paginated {
		env.Total = &result.Total
		env.Page = &result.Page
		env.Pages = &result.Pages
	}
	WriteJSON(w, http.StatusOK, env)
}

// writeServiceError renders err through the central translation. notFound
// names the missing document for store not-found errors.
func writeServiceError(w http.ResponseWriter, err error, notFound string) {
	serr := services.Translate(err, notFound)
	WriteJSON(w, serr.Status, Envelope{Success: false, Error: serr.Message, Errors: serr.Fields})
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return services.ErrValidation("Request body too large")
		case errors.Is(err, io.EOF):
			return services.ErrValidation("Request body is required")
		}
		return services.ErrValidation("Invalid request body")
	}
	return nil
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

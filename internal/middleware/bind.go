package middleware

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/igraphixwebpreview/RoadReportHub/pkg/validator"
)

const maxBodyBytes = 1 << 20

// BindJSON decodes and validates the request body into a fresh T per request
// and hands it to next. Malformed JSON and validation failures answer 400.
func BindJSON[T any](next func(w http.ResponseWriter, r *http.Request, body T)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body T

		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := validator.ValidateStruct(body); err != nil {
			writeError(w, http.StatusBadRequest, validator.Message(err))
			return
		}

		next(w, r, body)
	}
}

// DecodeLenient reads an optional body. An absent, malformed or oversized
// body yields the zero T and leaves the decision to the service.
func DecodeLenient[T any](w http.ResponseWriter, r *http.Request) T {
	var body T
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		var zero T
		return zero
	}
	return body
}

package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"weatherpredict/internal/types"
)

// maxRequestBodySize is the maximum allowed size of a request body (1 MB).
const maxRequestBodySize = 1 << 20

// ErrorResponse is the body of every error response. Detail carries the
// human-readable message; the remaining fields are for programmatic clients.
type ErrorResponse struct {
	Detail    string         `json:"detail"`
	Code      string         `json:"code"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// JSON writes data as a JSON response with the given status code. If
// marshalling fails it falls back to a 500 error body.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Detail:    "failed to marshal response",
			Code:      string(types.ErrCodeInternalUnexpected),
			RequestID: types.GetRequestID(r.Context()),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes err as an ErrorResponse. A *types.AppError anywhere in the
// chain decides the status and message. Any other error becomes a generic 500
// so internal details never reach the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	requestID := types.GetRequestID(r.Context())

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		JSON(w, r, appErr.HTTPStatus(), ErrorResponse{
			Detail:    appErr.Message,
			Code:      string(appErr.Code),
			RequestID: requestID,
			Details:   appErr.Details,
		})
		return
	}

	JSON(w, r, http.StatusInternalServerError, ErrorResponse{
		Detail:    "an unexpected error occurred",
		Code:      string(types.ErrCodeInternalUnexpected),
		RequestID: requestID,
	})
}

// DecodeJSON reads a single JSON value from the request body into dst. The
// body is capped at 1 MB. Unknown fields are ignored. Every failure is a
// *types.AppError in the validation family.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	return decode(r.Body, dst)
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be omitted.
// An empty or whitespace-only body leaves dst untouched.
func DecodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		return mapDecodeError(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return decode(bytes.NewReader(raw), dst)
}

func decode(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return mapDecodeError(err)
	}
	if dec.More() {
		return types.NewAppError(
			types.ErrCodeValidationInvalidJSON,
			"request body must contain a single JSON object",
			nil,
		)
	}
	return nil
}

// mapDecodeError translates a json.Decoder error into a structured AppError.
func mapDecodeError(err error) *types.AppError {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return types.NewAppError(
			types.ErrCodeValidationInvalidJSON,
			"request body must not exceed 1MB",
			err,
		)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return types.NewAppError(
			types.ErrCodeValidationInvalidJSON,
			"malformed JSON in request body",
			err,
		)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		details := map[string]any{"field": typeErr.Field, "got": typeErr.Value}
		if typeErr.Type != nil {
			details["expected"] = typeErr.Type.String()
		}
		msg := "invalid value for field"
		if typeErr.Field != "" {
			msg = "invalid value for field " + typeErr.Field
		}
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidField, msg, err, details)
	}

	if errors.Is(err, io.EOF) {
		return types.NewAppError(
			types.ErrCodeValidationInvalidJSON,
			"request body must not be empty",
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeValidationInvalidJSON,
		"invalid JSON in request body",
		err,
	)
}

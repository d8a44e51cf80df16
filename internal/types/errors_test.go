package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestAppErrorImplementsError verifies that *AppError satisfies the error interface.
func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeInternalModelUnavailable,
		Message: "Model not loaded",
	}

	expected := "internal_model_unavailable: Model not loaded"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorErrorFormatWithCause(t *testing.T) {
	appErr := NewAppError(ErrCodeInternalPredictionFailed, "Prediction error: bad shape", errors.New("bad shape"))

	expected := "internal_prediction_failed: Prediction error: bad shape: bad shape"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

// TestAppErrorUnwrap verifies the error chain support via Unwrap.
func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("scoring service timed out")
	appErr := NewAppError(ErrCodeUpstreamUnavailable, "scoring service unavailable", underlying)

	if !errors.Is(appErr, underlying) {
		t.Errorf("errors.Is should find the underlying error")
	}
	if (&AppError{Code: ErrCodeNotFoundRoute}).Unwrap() != nil {
		t.Errorf("Unwrap() should return nil when Err is nil")
	}
}

// TestAppErrorErrorsAs verifies that errors.As can extract AppError from an error chain.
func TestAppErrorErrorsAs(t *testing.T) {
	appErr := NewAppError(ErrCodeValidationMissingField, "field required", nil)
	wrapped := fmt.Errorf("handler failed: %w", appErr)

	var target *AppError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should extract *AppError from the chain")
	}
	if target.Code != ErrCodeValidationMissingField {
		t.Errorf("Code = %q, want %q", target.Code, ErrCodeValidationMissingField)
	}
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalidJSON, http.StatusUnprocessableEntity},
		{ErrCodeValidationMissingField, http.StatusUnprocessableEntity},
		{ErrCodeValidationInvalidField, http.StatusUnprocessableEntity},
		{ErrCodeNotFoundRoute, http.StatusNotFound},
		{ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrCodeInternalModelUnavailable, http.StatusInternalServerError},
		{ErrCodeInternalPredictionFailed, http.StatusInternalServerError},
		{ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{ErrCodeUpstreamRateLimited, http.StatusBadGateway},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
			if got := NewAppError(tt.code, "", nil).HTTPStatus(); got != tt.want {
				t.Errorf("AppError.HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

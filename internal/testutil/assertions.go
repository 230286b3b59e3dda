package testutil

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
)

// AssertAppError checks that err carries an *AppError with code and returns it.
func AssertAppError(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError with code %s, got %T: %v", code, err, err)
	}
	if appErr.Code != code {
		t.Errorf("expected %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
	return appErr
}

// AssertErrorIs checks err against a sentinel and that the status a client
// would see is the sentinel's.
func AssertErrorIs(t *testing.T, err error, sentinel *apperrors.AppError) {
	t.Helper()

	appErr := AssertAppError(t, err, sentinel.Code)
	if !errors.Is(err, sentinel) {
		t.Errorf("expected errors.Is(%v, %s)", err, sentinel.Code)
	}
	if appErr.StatusCode != sentinel.StatusCode {
		t.Errorf("expected status %d for %s, got %d", sentinel.StatusCode, sentinel.Code, appErr.StatusCode)
	}
}

// AssertErrorResponse checks that rec holds the API error body
// {"error":{"code","message"}} with the given status and code, and returns
// the message.
func AssertErrorResponse(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) string {
	t.Helper()

	if rec.Code != status {
		t.Errorf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	var body struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == nil {
		t.Fatalf("expected an error body, got %q", rec.Body.String())
	}
	if body.Error.Code != code {
		t.Errorf("expected %s, got %s (%s)", code, body.Error.Code, body.Error.Message)
	}
	return body.Error.Message
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/testutil"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.Get().Desugar()
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(prev) })
	return logs
}

func TestRequestLogging(t *testing.T) {
	logs := observeLogs(t)
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	t.Run("assigns a request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := rec.Header().Get(requestIDHeader)
		if id == "" || rec.Body.String() != id {
			t.Fatalf("expected request id header to match context, got %q / %q", id, rec.Body.String())
		}
	})

	t.Run("reuses a caller id", func(t *testing.T) {
		const callerID = "0190a8f2-7c1e-7b3a-9d4e-2f6a1b3c5d7e"
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(requestIDHeader, callerID)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if got := rec.Header().Get(requestIDHeader); got != callerID {
			t.Errorf("expected %s, got %s", callerID, got)
		}
	})

	entries := logs.FilterMessage("request").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 request entries, got %d", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/ping" {
		t.Errorf("unexpected fields: %v", entries[0].ContextMap())
	}
}

func TestErrorHandler(t *testing.T) {
	logs := observeLogs(t)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		Fail(c, apperrors.Wrap(apperrors.ErrRemoteWriteFailed, errors.New("disk full")))
	})
	r.GET("/raw", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})
	r.GET("/bind", func(c *gin.Context) {
		_ = c.Error(errors.New("Key: 'name' Error:Field validation for 'name' failed on the 'required' tag")).SetType(gin.ErrorTypeBind)
	})
	r.GET("/plain", func(c *gin.Context) {
		Fail(c, apperrors.ErrFirstLoginRequired)
	})
	r.GET("/written", func(c *gin.Context) {
		c.String(http.StatusAccepted, "queued")
		_ = c.Error(errors.New("late"))
	})
	r.GET("/chain", func(c *gin.Context) {
		Fail(c, apperrors.ErrForbidden)
	}, func(c *gin.Context) {
		c.String(http.StatusOK, "should not run")
	})

	serve := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if msg := testutil.AssertErrorResponse(t, serve("/app"), http.StatusBadGateway, "REMOTE_WRITE_FAILED"); strings.Contains(msg, "disk full") {
		t.Errorf("internal error leaked: %s", msg)
	}

	rec := serve("/raw")
	testutil.AssertErrorResponse(t, rec, http.StatusInternalServerError, "INTERNAL_ERROR")
	if strings.Contains(rec.Body.String(), "boom") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}

	if msg := testutil.AssertErrorResponse(t, serve("/bind"), http.StatusBadRequest, "INVALID_INPUT"); !strings.Contains(msg, "required") {
		t.Errorf("expected the binding detail, got %q", msg)
	}

	testutil.AssertErrorResponse(t, serve("/plain"), http.StatusForbidden, "FIRST_LOGIN_REQUIRED")
	testutil.AssertErrorResponse(t, serve("/chain"), http.StatusForbidden, "FORBIDDEN")

	rec = serve("/written")
	if rec.Code != http.StatusAccepted || rec.Body.String() != "queued" {
		t.Errorf("expected the handler's response to stand, got %d %q", rec.Code, rec.Body.String())
	}

	failed := logs.FilterMessage("request failed").All()
	if len(failed) != 2 {
		t.Fatalf("expected the two internal failures to be logged, got %d", len(failed))
	}
	if failed[0].ContextMap()["internal"] != "disk full" || failed[1].ContextMap()["code"] != "INTERNAL_ERROR" {
		t.Errorf("unexpected fields: %v / %v", failed[0].ContextMap(), failed[1].ContextMap())
	}
}

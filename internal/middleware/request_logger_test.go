package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSessionID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, SessionID(r, "sid"))

	r.Header.Set(SessionHeader, "from-header")
	assert.Equal(t, "from-header", SessionID(r, "sid"))

	r.AddCookie(&http.Cookie{Name: "sid", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", SessionID(r, "sid"))
}

func TestRequestLoggerAddsSession(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	h := WithRequestLogger(base, "sid")(AccessLog(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LoggerFromRequest(r, zap.NewNop()).Info("inside")
		w.WriteHeader(http.StatusBadGateway)
	})))

	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set(SessionHeader, "abc")
	h.ServeHTTP(httptest.NewRecorder(), r)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "inside", entries[0].Message)
		assert.Equal(t, "abc", entries[0].ContextMap()["session_id"])
		assert.Equal(t, "request failed", entries[1].Message)
		assert.EqualValues(t, http.StatusBadGateway, entries[1].ContextMap()["status"])
	}
}

package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/servicedesk-be/internal/auth"
	"github.com/hongminglow/servicedesk-be/internal/logs"
	"github.com/hongminglow/servicedesk-be/internal/models"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

type stubVerifier struct {
	id  auth.Identity
	err error
}

func (s stubVerifier) Verify(token string) (auth.Identity, error) {
	if token != "good" {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	return s.id, s.err
}

func TestAuthenticate(t *testing.T) {
	var seen auth.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Authenticate(stubVerifier{id: auth.Identity{UserID: 4, Username: "ana", Role: models.RoleStandard}})(next)

	cases := map[string]struct {
		header string
		want   int
	}{
		"missing":      {header: "", want: http.StatusUnauthorized},
		"wrong scheme": {header: "Basic good", want: http.StatusUnauthorized},
		"empty token":  {header: "Bearer   ", want: http.StatusUnauthorized},
		"bad token":    {header: "Bearer bad", want: http.StatusUnauthorized},
		"valid":        {header: "bearer good", want: http.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/clients", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
			if tc.want == http.StatusUnauthorized {
				assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))
			}
		})
	}
	assert.Equal(t, int64(4), seen.UserID)
}

func TestAuthenticateVerifierError(t *testing.T) {
	h := Authenticate(stubVerifier{err: errors.New("boom")})(ok)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCORSAllowList(t *testing.T) {
	h := CORS([]string{"http://app.test"})(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://app.test")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "http://app.test", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORSWildcardPreflight(t *testing.T) {
	h := CORS([]string{"*"})(ok)
	req := httptest.NewRequest(http.MethodOptions, "/clients", nil)
	req.Header.Set("Origin", "http://any.test")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRateLimiterPerIP(t *testing.T) {
	l := NewRateLimiter(1, 2, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Minute)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	l := NewRateLimiter(60, 1, nil)
	now := time.Now()
	l.now = func() time.Time { return now }
	l.Allow("a")
	now = now.Add(time.Hour)
	l.Allow("b")
	assert.Len(t, l.buckets, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := NewRateLimiter(1, 1, nil).Middleware(ok)
	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestClientIPIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req, nil))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "192.0.2.1", ClientIP(req, nil))

	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	assert.Equal(t, "192.0.2.1", ClientIP(req, proxies))
}

func TestClientIPBehindTrustedProxy(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:443"

	assert.Equal(t, "10.0.0.5", ClientIP(req, proxies))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.9, 10.0.0.7")
	assert.Equal(t, "203.0.113.9", ClientIP(req, proxies))

	req.Header.Set("X-Forwarded-For", "not-an-ip")
	assert.Equal(t, "10.0.0.5", ClientIP(req, proxies))
}

func TestRateLimitMiddlewareIgnoresSpoofedForwardedFor(t *testing.T) {
	h := NewRateLimiter(1, 2, nil).Middleware(ok)
	codes := make([]int, 0, 4)
	for i := range 4 {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.9.9.%d", i))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRequestIDAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logs.New(logs.Options{Format: "json", Output: &buf})
	h := RequestID(Logging(logger)(ok))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-Id"))
	assert.Contains(t, buf.String(), `"reqid":"abc-123"`)
	assert.Contains(t, buf.String(), `"status":200`)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

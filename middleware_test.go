package guardkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(t *testing.T, h http.Handler, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestBearerCredential tests header parsing.
func TestBearerCredential(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"standard", "Bearer abc123", "abc123"},
		{"case insensitive scheme", "bearer abc123", "abc123"},
		{"extra whitespace", "Bearer   abc123  ", "abc123"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"scheme only", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerCredential(req))
		})
	}
}

// TestMiddlewareRequireMinimumRank tests the rank gate over HTTP.
func TestMiddlewareRequireMinimumRank(t *testing.T) {
	mw := NewMiddleware(testAuthorizer())
	h := mw.RequireMinimumRank("employee")(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(t, h, "employee-token").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, h, "admin-token").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(t, h, "customer-token").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, h, "forged-token").Code)
}

// TestMiddlewareRequirePermissions tests the permission gate over HTTP.
func TestMiddlewareRequirePermissions(t *testing.T) {
	mw := NewMiddleware(testAuthorizer())
	h := mw.RequirePermissions("manage_orders", "manage_services")(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(t, h, "owner-token").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(t, h, "employee-token").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, h, "").Code)

	// Top role passes without any grants behind it.
	assert.Equal(t, http.StatusOK, doRequest(t, h, "admin-token").Code)
}

// TestMiddlewareStoreOutage tests the 503 path when the permission
// store is down.
func TestMiddlewareStoreOutage(t *testing.T) {
	a := NewAuthorizer(
		staticResolver{"employee-token": {ID: "u2", Role: "employee"}},
		failingLoader{},
		DefaultHierarchy(),
	)
	mw := NewMiddleware(a)

	// Permission gates fail closed with 503.
	h := mw.RequirePermissions("manage_orders")(okHandler())
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(t, h, "employee-token").Code)

	// Rank gates never touch the store and still work.
	h = mw.RequireMinimumRank("employee")(okHandler())
	assert.Equal(t, http.StatusOK, doRequest(t, h, "employee-token").Code)
}

// TestMiddlewareChainedGates tests that chained gates authenticate once
// and AND their decisions.
func TestMiddlewareChainedGates(t *testing.T) {
	resolver := &countingResolver{principals: map[string]Principal{
		"owner-token": {ID: "u3", Role: "owner"},
	}}
	a := NewAuthorizer(resolver, staticLoader{"owner": {"manage_orders"}}, DefaultHierarchy())
	mw := NewMiddleware(a)

	h := mw.RequireMinimumRank("employee")(
		mw.RequirePermissions("manage_orders")(okHandler()))

	rec := doRequest(t, h, "owner-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, resolver.calls)
}

// TestMiddlewareAuthenticate tests the enforce-nothing variant.
func TestMiddlewareAuthenticate(t *testing.T) {
	mw := NewMiddleware(testAuthorizer())

	var seen *AuthContext
	h := mw.Authenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := doRequest(t, h, "customer-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.True(t, seen.Authenticated())
	assert.Equal(t, "customer", seen.Principal().Role)

	// Anonymous requests still reach the handler.
	seen = nil
	rec = doRequest(t, h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.False(t, seen.Authenticated())
}

// TestMiddlewareOptions tests custom extractors and denial handlers.
func TestMiddlewareOptions(t *testing.T) {
	mw := NewMiddleware(testAuthorizer(),
		WithCredentialExtractor(func(r *http.Request) string {
			return r.Header.Get("X-Api-Token")
		}),
		WithDenialHandler(func(w http.ResponseWriter, r *http.Request, d Decision) {
			w.WriteHeader(http.StatusTeapot)
		}),
	)

	h := mw.RequireMinimumRank("employee")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Api-Token", "employee-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Bearer headers are ignored with a custom extractor, and denials
	// route through the custom handler.
	rec = doRequest(t, h, "employee-token")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

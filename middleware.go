package guardkit

import (
	"net/http"
	"strings"
)

// Middleware provides HTTP gates over an Authorizer. Gates compose by
// AND: chain as many as a route needs and every one must pass.
type Middleware struct {
	authorizer    *Authorizer
	getCredential func(*http.Request) string
	denialHandler func(http.ResponseWriter, *http.Request, Decision)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := guardkit.NewMiddleware(authorizer,
//	    guardkit.WithCredentialExtractor(func(r *http.Request) string {
//	        return r.Header.Get("X-Api-Token")
//	    }),
//	)
func NewMiddleware(authorizer *Authorizer, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		authorizer:    authorizer,
		getCredential: BearerCredential,
		denialHandler: defaultDenialHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithCredentialExtractor sets a custom function to extract the raw
// credential from a request.
func WithCredentialExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getCredential = fn
	}
}

// WithDenialHandler sets a custom handler for denied requests.
func WithDenialHandler(fn func(http.ResponseWriter, *http.Request, Decision)) MiddlewareOption {
	return func(m *Middleware) {
		m.denialHandler = fn
	}
}

// BearerCredential extracts the token from an "Authorization: Bearer"
// header. Returns empty string when the header is absent or carries a
// different scheme.
func BearerCredential(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// defaultDenialHandler maps denials to the transport contract:
// unauthenticated to 401, store outage to 503, every other gate
// failure to 403.
func defaultDenialHandler(w http.ResponseWriter, r *http.Request, d Decision) {
	switch {
	case d.Reason.Unauthenticated():
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	case d.Reason == DenyStoreUnavailable:
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	default:
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	}
}

// contextFor returns the request's AuthContext, building and caching it
// on first use so a request with several gates resolves identity and
// loads permissions exactly once.
func (m *Middleware) contextFor(r *http.Request) (*AuthContext, *http.Request) {
	if actx := GetAuthContext(r.Context()); actx != nil {
		return actx, r
	}
	actx := m.authorizer.Authenticate(r.Context(), m.getCredential(r))
	return actx, r.WithContext(WithAuthContext(r.Context(), actx))
}

// Authenticate builds the AuthContext and stores it in the request
// context without enforcing anything. Use it on route groups whose
// handlers inspect the context themselves.
//
// Example:
//
//	router.Use(mw.Authenticate())
//
//	func dashboardHandler(w http.ResponseWriter, r *http.Request) {
//	    actx := guardkit.FromContext(r.Context())
//	    if actx.Authenticated() {
//	        // show account widgets
//	    }
//	}
func (m *Middleware) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, r = m.contextFor(r)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMinimumRank creates middleware that requires the caller's
// role to rank at or above minimum.
//
// Example:
//
//	router.With(mw.RequireMinimumRank("employee")).
//	    Get("/staff/orders", listOrdersHandler)
func (m *Middleware) RequireMinimumRank(minimum string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actx, r := m.contextFor(r)
			if d := m.authorizer.RequireMinimumRank(actx, minimum); !d.Allowed {
				m.denialHandler(w, r, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermissions creates middleware that requires every listed
// permission key. An empty list always passes; the top-ranked role
// passes regardless of its grants.
//
// Example:
//
//	router.With(mw.RequirePermissions("manage_orders", "manage_services")).
//	    Post("/staff/orders", createOrderHandler)
func (m *Middleware) RequirePermissions(keys ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actx, r := m.contextFor(r)
			if d := m.authorizer.RequireAllPermissions(actx, keys...); !d.Allowed {
				m.denialHandler(w, r, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

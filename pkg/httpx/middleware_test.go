package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nikhilsi/trading-recommendations-app/pkg/httpx"
	"github.com/stretchr/testify/require"
)

type fakePrincipal struct {
	id       string
	admin    bool
	verified bool
}

func (p fakePrincipal) PrincipalID() string       { return p.id }
func (p fakePrincipal) PrincipalIsAdmin() bool    { return p.admin }
func (p fakePrincipal) PrincipalIsVerified() bool { return p.verified }

type fakeAuthenticator map[string]fakePrincipal

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (httpx.Principal, error) {
	if token == "boom" {
		return nil, errors.New("database unavailable")
	}
	p, ok := f[token]
	if !ok {
		return nil, nil
	}
	return p, nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestRecover(t *testing.T) {
	h := httpx.Recover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body httpx.ErrorResponse
	decodeBody(t, rec, &body)
	require.Equal(t, "Internal server error", body.Error)
	require.NotContains(t, rec.Body.String(), "kaboom")
}

func TestCORS(t *testing.T) {
	h := httpx.CORS([]string{"https://app.example.com"})(okHandler())

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, httpx.SplitList(" a, ,b ,"))
	require.Nil(t, httpx.SplitList(""))
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := httpx.BearerToken(req)
	require.False(t, ok)

	req.Header.Set("Authorization", "Basic abc")
	_, ok = httpx.BearerToken(req)
	require.False(t, ok)

	req.Header.Set("Authorization", "bearer tok123")
	tok, ok := httpx.BearerToken(req)
	require.True(t, ok)
	require.Equal(t, "tok123", tok)
}

func TestAuthnMiddleware(t *testing.T) {
	auth := fakeAuthenticator{
		"user":  {id: "u1", verified: true},
		"admin": {id: "a1", admin: true, verified: true},
	}
	var seen httpx.Principal
	h := httpx.AuthnMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httpx.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	call := func(authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing", func(t *testing.T) {
		rec := call("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		require.Contains(t, rec.Body.String(), "Authentication required")
	})

	t.Run("invalid", func(t *testing.T) {
		rec := call("Bearer nope")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, `Bearer error="invalid_token"`, rec.Header().Get("WWW-Authenticate"))
		require.Contains(t, rec.Body.String(), "Invalid authentication credentials")
	})

	t.Run("internal failure", func(t *testing.T) {
		rec := call("Bearer boom")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotContains(t, rec.Body.String(), "database")
	})

	t.Run("valid", func(t *testing.T) {
		rec := call("Bearer user")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "u1", seen.PrincipalID())
	})
}

func TestOptionalAuthn(t *testing.T) {
	auth := fakeAuthenticator{"user": {id: "u1"}}
	var seen httpx.Principal
	h := httpx.OptionalAuthn(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httpx.PrincipalFrom(r.Context())
	}))

	for _, authz := range []string{"", "Bearer nope", "Bearer boom"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", authz)
		h.ServeHTTP(httptest.NewRecorder(), req)
		require.Nil(t, seen, authz)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer user")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	require.Equal(t, "u1", seen.PrincipalID())
}

func TestRequireAdminAndVerified(t *testing.T) {
	auth := fakeAuthenticator{
		"user":       {id: "u1", verified: true},
		"unverified": {id: "u2"},
		"admin":      {id: "a1", admin: true, verified: true},
	}
	admin := httpx.Chain(okHandler(), httpx.AuthnMiddleware(auth), httpx.RequireAdmin())
	verified := httpx.Chain(okHandler(), httpx.AuthnMiddleware(auth), httpx.RequireVerified())

	call := func(h http.Handler, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := call(admin, "user")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Admin access required")
	require.Equal(t, http.StatusOK, call(admin, "admin").Code)

	rec = call(verified, "unverified")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Email verification required")
	require.Equal(t, http.StatusOK, call(verified, "user").Code)

	// Without an authn middleware in front the gate still refuses.
	rec = httptest.NewRecorder()
	httpx.RequireAdmin()(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	decode := func(body string) (payload, error) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := httpx.DecodeJSON(httptest.NewRecorder(), req, &p)
		return p, err
	}

	p, err := decode(`{"email":"a@x.com"}`)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", p.Email)

	_, err = decode(`{"email":"a@x.com","admin":true}`)
	require.Error(t, err, "unknown fields are rejected")

	_, err = decode(`{"email":"a@x.com"}{"email":"b@x.com"}`)
	require.Error(t, err, "trailing data is rejected")

	_, err = decode(`not json`)
	require.Error(t, err)
}

func TestWriteValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteValidationError(rec, map[string]string{"email": "invalid email address"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body httpx.ErrorResponse
	decodeBody(t, rec, &body)
	require.Equal(t, "Validation failed", body.Error)
	require.Equal(t, "invalid email address", body.Details["email"])
	require.NotEmpty(t, body.Timestamp)
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/zahnovia-backend/internal/http/response"
	"github.com/yungbote/zahnovia-backend/internal/platform/ctxutil"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/services"
)

type fakeAuth struct {
	services.AuthService
	tokens map[string]uuid.UUID
}

func (f fakeAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	id, ok := f.tokens[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{TokenString: token, UserID: id}), nil
}

type fakeProfiles struct {
	services.ProfileService
	complete map[uuid.UUID]bool
}

func (f fakeProfiles) CanAccess(_ context.Context, userID uuid.UUID) (bool, error) {
	return f.complete[userID], nil
}

func newGuardedRouter(auth fakeAuth, profiles fakeProfiles) *gin.Engine {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), auth, profiles)
	r := gin.New()
	protected := r.Group("/api", am.RequireAuth())
	protected.GET("/profile", func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.UserID(c.Request.Context()).String())
	})
	protected.GET("/dashboard", am.RequireCompleteProfile(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env.Error.Code
}

func TestRequireAuthTokenSources(t *testing.T) {
	done, pending := uuid.New(), uuid.New()
	r := newGuardedRouter(
		fakeAuth{tokens: map[string]uuid.UUID{"tok-done": done, "tok-pending": pending}},
		fakeProfiles{complete: map[uuid.UUID]bool{done: true}},
	)

	cases := []struct {
		name   string
		mutate func(*http.Request)
		status int
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer tok-done") }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "tok-done"}) }, http.StatusOK},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=tok-done" }, http.StatusOK},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"unknown", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			tc.mutate(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			if tc.status == http.StatusOK && rec.Body.String() != done.String() {
				t.Fatalf("user id = %q", rec.Body.String())
			}
			if tc.status == http.StatusUnauthorized && errorCode(t, rec) != "unauthorized" {
				t.Fatalf("unexpected body %s", rec.Body.String())
			}
		})
	}
}

func TestRequireCompleteProfile(t *testing.T) {
	done, pending := uuid.New(), uuid.New()
	r := newGuardedRouter(
		fakeAuth{tokens: map[string]uuid.UUID{"tok-done": done, "tok-pending": pending}},
		fakeProfiles{complete: map[uuid.UUID]bool{done: true}},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer tok-pending")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != "profile_incomplete" {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}

	// The profile page itself stays reachable.
	req = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer tok-pending")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer tok-done")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
}

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, "req-42")
	req.Header.Set(headerTraceID, "bad value\nwith newline")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil || seen.RequestID != "req-42" {
		t.Fatalf("trace data = %+v", seen)
	}
	if seen.TraceID == "" || seen.TraceID == "bad value\nwith newline" {
		t.Fatalf("unsafe trace id kept: %q", seen.TraceID)
	}
	if rec.Header().Get(headerRequestID) != "req-42" {
		t.Fatalf("response header = %q", rec.Header().Get(headerRequestID))
	}
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nikhilkumar688/SamayBihar/internal/apperr"
	"github.com/nikhilkumar688/SamayBihar/internal/httpx"
	"github.com/nikhilkumar688/SamayBihar/internal/logging"
	"github.com/nikhilkumar688/SamayBihar/internal/user"
)

// countingStore はストアへのアクセス回数を数えます。
type countingStore struct {
	user.Store
	calls atomic.Int32
}

func (s *countingStore) FindByID(ctx context.Context, id string) (*user.User, error) {
	s.calls.Add(1)
	return s.Store.FindByID(ctx, id)
}

func (s *countingStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	s.calls.Add(1)
	return s.Store.FindByEmail(ctx, email)
}

func newProtectedRouter(t *testing.T, tokens *TokenIssuer, store user.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(store, NewPasswordHasher(4), tokens, ServiceOptions{Logger: logging.Discard()})
	manager := NewManager(svc, tokens, CookieOptions{}, nil, logging.Discard())

	router := gin.New()
	router.Use(httpx.ErrorHandler(logging.Discard()))
	router.GET("/me", manager.RequireToken(), func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			t.Fatal("identity missing from context")
		}
		c.JSON(http.StatusOK, identity)
	})
	return router
}

func TestRequireTokenMissing(t *testing.T) {
	tokens := NewTokenIssuer([]byte("secret"), AccessTokenTTL)
	store := &countingStore{Store: user.NewMemoryStore()}
	router := newProtectedRouter(t, tokens, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != "Unauthorized: No token provided" {
		t.Fatalf("message = %q", body.Message)
	}
	if store.calls.Load() != 0 {
		t.Fatal("store must not be consulted")
	}
}

func TestRequireTokenSources(t *testing.T) {
	tokens := NewTokenIssuer([]byte("secret"), AccessTokenTTL)
	router := newProtectedRouter(t, tokens, user.NewMemoryStore())

	cookieToken, err := tokens.Issue(Identity{ID: "from-cookie"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	headerToken, err := tokens.Issue(Identity{ID: "from-header", IsAdmin: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{"cookie", cookieToken, "", `{"id":"from-cookie","isAdmin":false}`},
		{"bearer", "", "Bearer " + headerToken, `{"id":"from-header","isAdmin":true}`},
		{"cookie wins", cookieToken, "Bearer " + headerToken, `{"id":"from-cookie","isAdmin":false}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			if rec.Body.String() != tc.want {
				t.Fatalf("body = %s, want %s", rec.Body.String(), tc.want)
			}
		})
	}
}

func TestRequireTokenRejects(t *testing.T) {
	tokens := NewTokenIssuer([]byte("secret"), AccessTokenTTL)
	router := newProtectedRouter(t, tokens, user.NewMemoryStore())

	past := time.Now().Add(-8 * 24 * time.Hour)
	expired, err := tokens.WithClock(fixedClock(past)).Issue(Identity{ID: "u-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	forged, err := NewTokenIssuer([]byte("other"), AccessTokenTTL).Issue(Identity{ID: "u-1", IsAdmin: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for name, header := range map[string]string{
		"expired":   "Bearer " + expired,
		"forged":    "Bearer " + forged,
		"malformed": "Bearer not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if body := decodeError(t, rec); body.Message != "Unauthorized: Invalid token" {
				t.Fatalf("message = %q", body.Message)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"Bearer abc":   "abc",
		"Bearer  abc ": "abc",
		"Basic abc":    "",
		"bearer abc":   "",
		"Bearerabc":    "",
	}
	for in, want := range cases {
		if got := bearerToken(in); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGates(t *testing.T) {
	const msg = "You are not allowed to delete this account"

	member := Identity{ID: "u-1"}
	admin := Identity{ID: "admin", IsAdmin: true}

	if err := RequireSelf(member, "u-1", msg); err != nil {
		t.Fatalf("self rejected: %v", err)
	}
	if err := RequireSelf(admin, "u-1", msg); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("RequireSelf must reject admins acting on others, got %v", err)
	}
	if err := RequireSelfOrAdmin(member, "u-1", msg); err != nil {
		t.Fatalf("self rejected: %v", err)
	}
	if err := RequireSelfOrAdmin(admin, "u-1", msg); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}

	err := RequireSelfOrAdmin(member, "u-2", msg)
	appErr := apperr.From(err)
	if appErr.Kind != apperr.KindAuthorization || appErr.Status != http.StatusForbidden || appErr.Message != msg {
		t.Fatalf("unexpected error: %+v", appErr)
	}
	if err := RequireSelf(Identity{}, "", msg); err == nil {
		t.Fatal("empty identity must be rejected")
	}
}

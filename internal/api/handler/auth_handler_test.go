package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/moviehub/frontend-session/internal/core/domain"
	"github.com/moviehub/frontend-session/internal/core/session"
	"github.com/moviehub/frontend-session/internal/infrastructure/db/memory"
)

type stubAuthService struct {
	loginFn  func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	signupFn func(ctx context.Context, data domain.SignupData) (*domain.AuthResult, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Signup(ctx context.Context, data domain.SignupData) (*domain.AuthResult, error) {
	return s.signupFn(ctx, data)
}

func newContext(method, target, body string, store *session.Store) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if store != nil {
		c.Set("session_store", store)
	}
	return c, rec
}

func restored(auth *stubAuthService) *session.Store {
	s := session.New(memory.NewStorage(), auth)
	s.Restore(context.Background())
	return s
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (*domain.AuthResult, error) {
			if email != "sarah.wilson@example.com" || password != "password123" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &domain.AuthResult{User: &domain.User{ID: 5, Email: email, Role: domain.RoleCustomer}, Token: "t"}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/api/auth/login",
		`{"email":"sarah.wilson@example.com","password":"password123","from":"/customer/bookings"}`, restored(stub))

	if err := NewAuthHandler().Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["redirectTo"] != "/customer/bookings" {
		t.Fatalf("expected return path, got %v", resp["redirectTo"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["role"] != "CUSTOMER" {
		t.Fatalf("unexpected user: %v", resp["user"])
	}
}

func TestAuthHandler_Login_ValidationFails(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*domain.AuthResult, error) {
			t.Fatal("auth service must not be called for invalid input")
			return nil, nil
		},
	}
	c, _ := newContext(http.MethodPost, "/api/auth/login", `{"email":"nope","password":"123"}`, restored(stub))

	err := NewAuthHandler().Login(c)
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T %v", err, err)
	}
	if len(ve.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %v", ve.Messages)
	}
	if !strings.Contains(ve.Error(), "email must be a valid email") || !strings.Contains(ve.Error(), "password must be at least 6 characters") {
		t.Errorf("unexpected messages: %s", ve.Error())
	}
}

func TestAuthHandler_Login_Failure(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*domain.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newContext(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"secret"}`, restored(stub))

	err := NewAuthHandler().Login(c)
	if msg, ok := session.IsAuthError(err); !ok || msg != "invalid credentials" {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestAuthHandler_MissingStore(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/session", "", nil)

	err := NewAuthHandler().Session(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 HTTPError, got %v", err)
	}
}

func TestViewHandler_LoginRedirectsAuthenticated(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/login?from=%2Fsuper-admin%2Fusers", "", nil)
	c.Set("session_snapshot", domain.Snapshot{
		CurrentUser:     &domain.User{ID: 1, Role: domain.RoleSuperAdmin},
		IsAuthenticated: true,
	})

	if err := NewViewHandler().Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/super-admin/users" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

func TestStrongPassword(t *testing.T) {
	tests := map[string]bool{
		"Secret123":  true,
		"Sec@ret$12": true,
		"secret123":  false,
		"SECRET123":  false,
		"SecretPass": false,
		"Secret 123": false,
		"Sécret123":  false,
	}
	for pw, want := range tests {
		if got := strongPassword(pw); got != want {
			t.Errorf("strongPassword(%q) = %v, want %v", pw, got, want)
		}
	}
}

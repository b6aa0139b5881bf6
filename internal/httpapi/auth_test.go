package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"oshudkini/backend/internal/domain"
	"oshudkini/backend/internal/otp"
	"oshudkini/backend/internal/store"
	"oshudkini/backend/internal/store/memory"
)

func newTestAuthManager() (*AuthManager, *otp.MemoryStore) {
	otpStore := otp.NewMemoryStore()
	return NewAuthManager("test-secret-key", time.Hour, 5*time.Minute, false, memory.NewSeeded(), otpStore), otpStore
}

func TestRegisterValidation(t *testing.T) {
	auth, _ := newTestAuthManager()
	ctx := context.Background()

	cases := []domain.RegisterRequest{
		{Username: "", Email: "a@b.com", Password: "secret123"},
		{Username: "user", Email: "not-an-email", Password: "secret123"},
		{Username: "user", Email: "a@b.com", Password: "short"},
	}
	for i, req := range cases {
		if _, err := auth.Register(ctx, httptest.NewRecorder(), req); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("case %d: expected invalid input, got %v", i, err)
		}
	}
}

func TestRegisterHashesPasswordAndOpensSession(t *testing.T) {
	auth, _ := newTestAuthManager()
	rec := httptest.NewRecorder()

	user, err := auth.Register(context.Background(), rec, domain.RegisterRequest{
		Username: "tester",
		Email:    "tester@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Password != "" {
		t.Fatalf("password must not surface in the returned user, got %q", user.Password)
	}

	var session *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			session = cookie
		}
	}
	if session == nil || session.Value == "" {
		t.Fatalf("expected register to set a session cookie")
	}
}

func TestLoginRoundTripThroughCookie(t *testing.T) {
	auth, _ := newTestAuthManager()
	rec := httptest.NewRecorder()

	user, err := auth.Login(context.Background(), rec, domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	var session *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			session = cookie
		}
	}
	if session == nil || session.Value == "" {
		t.Fatalf("expected session cookie to be set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(session)
	actor, err := auth.ActorFromRequest(req)
	if err != nil {
		t.Fatalf("actor from request: %v", err)
	}
	if actor.UserID != user.ID || actor.Username != "admin" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestActorFromRequestNoCookie(t *testing.T) {
	auth, _ := newTestAuthManager()

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	if _, err := auth.ActorFromRequest(req); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestActorFromRequestGarbageToken(t *testing.T) {
	auth, _ := newTestAuthManager()

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "garbage"})
	_, err := auth.ActorFromRequest(req)
	if err == nil || errors.Is(err, ErrNoSession) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	auth, _ := newTestAuthManager()

	expired, err := auth.sign(domain.User{ID: "user-1", Username: "admin"}, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: expired})
	if _, err := auth.ActorFromRequest(req); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestOTPFlow(t *testing.T) {
	auth, otpStore := newTestAuthManager()
	ctx := context.Background()

	if err := auth.SendOTP(ctx, "Admin@Example.com"); err != nil {
		t.Fatalf("send otp: %v", err)
	}

	code, ok, err := otpStore.Get(ctx, "admin@example.com")
	if err != nil || !ok {
		t.Fatalf("expected stored OTP, got ok=%v err=%v", ok, err)
	}
	if !regexp.MustCompile(`^\d{6}$`).MatchString(code) {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	if err := auth.VerifyOTP(ctx, "admin@example.com", wrong); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected wrong code to fail, got %v", err)
	}

	if err := auth.VerifyOTP(ctx, "ADMIN@example.com", code); err != nil {
		t.Fatalf("verify otp: %v", err)
	}

	// Single use: the code is consumed on success.
	if err := auth.VerifyOTP(ctx, "admin@example.com", code); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected second verify to fail, got %v", err)
	}
}

func TestOTPExpiry(t *testing.T) {
	otpStore := otp.NewMemoryStore()
	ctx := context.Background()

	if err := otpStore.Put(ctx, "owner@example.com", "123456", time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := otpStore.Get(ctx, "owner@example.com"); ok {
		t.Fatalf("expected OTP to have expired")
	}
}

func TestSendOTPRejectsBadEmail(t *testing.T) {
	auth, _ := newTestAuthManager()

	if err := auth.SendOTP(context.Background(), "not-an-email"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSendOTPUnknownUser(t *testing.T) {
	auth, otpStore := newTestAuthManager()
	ctx := context.Background()

	if err := auth.SendOTP(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, ok, _ := otpStore.Get(ctx, "nobody@example.com"); ok {
		t.Fatalf("no code should be stored for an unknown user")
	}
}

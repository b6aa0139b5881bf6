package httpapi

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"oshudkini/backend/internal/domain"
	"oshudkini/backend/internal/otp"
	"oshudkini/backend/internal/store"
)

const sessionCookieName = "token"

// UserStore is the slice of the repository the auth layer needs.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByLogin(ctx context.Context, login string) (*domain.User, error)
}

// ErrOTPInvalid covers a missing, expired or mismatched code.
var ErrOTPInvalid = errors.New("invalid or expired OTP")

type AuthManager struct {
	secret        []byte
	tokenTTL      time.Duration
	otpTTL        time.Duration
	secureCookies bool
	users         UserStore
	otpStore      otp.Store
}

type sessionClaims struct {
	jwtlib.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
}

func NewAuthManager(secret string, tokenTTL, otpTTL time.Duration, secureCookies bool, users UserStore, otpStore otp.Store) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if otpTTL <= 0 {
		otpTTL = 5 * time.Minute
	}
	return &AuthManager{
		secret:        []byte(secret),
		tokenTTL:      tokenTTL,
		otpTTL:        otpTTL,
		secureCookies: secureCookies,
		users:         users,
		otpStore:      otpStore,
	}
}

// Register creates the user and immediately opens a session for it,
// setting the cookie on the response.
func (a *AuthManager) Register(ctx context.Context, w http.ResponseWriter, req domain.RegisterRequest) (domain.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || !strings.Contains(email, "@") {
		return domain.User{}, store.ErrInvalidInput
	}
	if len(req.Password) < 6 {
		return domain.User{}, fmt.Errorf("password must be at least 6 characters: %w", store.ErrInvalidInput)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return domain.User{}, err
	}

	created, err := a.users.CreateUser(ctx, domain.User{
		Username: username,
		Email:    email,
		Password: hash,
	})
	if err != nil {
		return domain.User{}, err
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(*created, expiresAt)
	if err != nil {
		return domain.User{}, err
	}
	a.setSessionCookie(w, token, expiresAt)

	log.Printf("[auth] user registered id=%s username=%s", created.ID, created.Username)
	registered := *created
	registered.Password = ""
	return registered, nil
}

// Login accepts a username or an email in the username field and, on a
// bcrypt match, sets the session cookie on the response.
func (a *AuthManager) Login(ctx context.Context, w http.ResponseWriter, req domain.LoginRequest) (domain.User, error) {
	login := strings.TrimSpace(req.Username)
	if login == "" || req.Password == "" {
		return domain.User{}, errors.New("invalid credentials")
	}

	user, err := a.users.FindUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, errors.New("invalid credentials")
		}
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return domain.User{}, errors.New("invalid credentials")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(*user, expiresAt)
	if err != nil {
		return domain.User{}, err
	}
	a.setSessionCookie(w, token, expiresAt)

	loggedIn := *user
	loggedIn.Password = ""
	return loggedIn, nil
}

// Logout expires the session cookie. It succeeds whether or not a
// session existed.
func (a *AuthManager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// ActorFromRequest resolves the session cookie into an actor.
// ErrNoSession means no cookie was presented; any other error means the
// token was present but invalid or expired.
var ErrNoSession = errors.New("no session")

func (a *AuthManager) ActorFromRequest(r *http.Request) (domain.Actor, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return domain.Actor{}, ErrNoSession
	}

	claims := &sessionClaims{}
	token, err := jwtlib.ParseWithClaims(cookie.Value, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}

	return domain.Actor{UserID: sub, Username: claims.Username, Email: claims.Email}, nil
}

// CurrentUser loads the full user record behind an actor.
func (a *AuthManager) CurrentUser(ctx context.Context, actor domain.Actor) (domain.User, error) {
	user, err := a.users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return domain.User{}, err
	}
	current := *user
	current.Password = ""
	return current, nil
}

// SendOTP generates a 6-digit code and stores it against the email.
// Delivery is a log line; wiring an SMTP sender replaces that.
func (a *AuthManager) SendOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return store.ErrInvalidInput
	}
	if _, err := a.users.GetUserByEmail(ctx, email); err != nil {
		return err
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}
	if err := a.otpStore.Put(ctx, email, code, a.otpTTL); err != nil {
		return err
	}

	log.Printf("[auth] OTP for %s: %s (valid %s)", email, code, a.otpTTL)
	return nil
}

func (a *AuthManager) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return store.ErrInvalidInput
	}

	stored, ok, err := a.otpStore.Get(ctx, email)
	if err != nil {
		return err
	}
	if !ok || stored != code {
		return ErrOTPInvalid
	}

	return a.otpStore.Delete(ctx, email)
}

func (a *AuthManager) sign(user domain.User, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "oshudkini",
		},
		Username: user.Username,
		Email:    user.Email,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthManager) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

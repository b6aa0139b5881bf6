package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oshudkini/backend/internal/domain"
	"oshudkini/backend/internal/otp"
	"oshudkini/backend/internal/service"
	"oshudkini/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo)
	auth := NewAuthManager("test-secret-key", time.Hour, 5*time.Minute, false, repo, otp.NewMemoryStore())

	return New(svc, auth, "*")
}

// loginAsAdmin performs a login against the seeded admin account and
// returns the session cookie.
func loginAsAdmin(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "admin123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d (body: %s)", rec.Code, rec.Body.String())
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatalf("no session cookie in login response")
	return nil
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeProduct(t *testing.T, rec *httptest.ResponseRecorder) domain.Product {
	t.Helper()

	var body struct {
		Product domain.Product `json:"product"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	return body.Product
}

func decodeEmployee(t *testing.T, rec *httptest.ResponseRecorder) domain.Employee {
	t.Helper()

	var body struct {
		Employee domain.Employee `json:"employee"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode employee: %v", err)
	}
	return body.Employee
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestLoginSetsHTTPOnlyCookie(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	cookie := loginAsAdmin(t, handler)
	if !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly session cookie")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected SameSite=Strict, got %v", cookie.SameSite)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	}, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRequireCookie(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	for _, path := range []string{"/api/products", "/api/employees", "/api/sales", "/api/dashboard", "/api/auth/me"} {
		rec := doJSON(t, handler, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without cookie, got %d", path, rec.Code)
		}
	}
}

func TestInvalidTokenIsForbidden(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	bad := &http.Cookie{Name: sessionCookieName, Value: "not-a-jwt"}
	rec := doJSON(t, handler, http.MethodGet, "/api/products", nil, bad)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for invalid token, got %d", rec.Code)
	}
}

func TestAuthMeReturnsCurrentUser(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	cookie := loginAsAdmin(t, handler)

	rec := doJSON(t, handler, http.MethodGet, "/api/auth/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		User domain.User `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.User.Username != "admin" {
		t.Fatalf("expected admin, got %q", body.User.Username)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	cookie := loginAsAdmin(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/logout", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected session cookie to be expired")
	}
}

func TestRegisterThenLogin(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "shopowner",
		"email":    "owner@example.com",
		"password": "secret123",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// Email works as the login identifier too.
	login := doJSON(t, handler, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "owner@example.com",
		"password": "secret123",
	}, nil)
	if login.Code != http.StatusOK {
		t.Fatalf("expected 200 for email login, got %d (body: %s)", login.Code, login.Body.String())
	}
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "admin",
		"email":    "second@example.com",
		"password": "secret123",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestProductCRUDOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	cookie := loginAsAdmin(t, handler)

	created := doJSON(t, handler, http.MethodPost, "/api/products", map[string]any{
		"name":     "Histacin 4mg",
		"price":    1.5,
		"quantity": 60,
	}, cookie)
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", created.Code, created.Body.String())
	}

	product := decodeProduct(t, created)
	if product.ID == "" {
		t.Fatalf("expected product id to be assigned")
	}

	updated := doJSON(t, handler, http.MethodPut, "/api/products/"+product.ID, map[string]any{
		"price": 2.0,
	}, cookie)
	if updated.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", updated.Code, updated.Body.String())
	}

	deleted := doJSON(t, handler, http.MethodDelete, "/api/products/"+product.ID, nil, cookie)
	if deleted.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", deleted.Code)
	}

	missing := doJSON(t, handler, http.MethodGet, "/api/products/"+product.ID, nil, cookie)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", missing.Code)
	}
}

func TestCreateSaleInsufficientStockIs400WithDetail(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	cookie := loginAsAdmin(t, handler)

	created := doJSON(t, handler, http.MethodPost, "/api/products", map[string]any{
		"name":     "Alatrol 10mg",
		"price":    2.0,
		"quantity": 1,
	}, cookie)
	product := decodeProduct(t, created)

	rec := doJSON(t, handler, http.MethodPost, "/api/sales", map[string]any{
		"customerName": "Walk-in",
		"items": []map[string]any{
			{"productId": product.ID, "quantity": 5},
		},
	}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	msg, _ := body["message"].(string)
	if msg == "" || !bytes.Contains([]byte(msg), []byte("Alatrol 10mg")) {
		t.Fatalf("expected product name in message, got %q", msg)
	}
}

func TestSaleCreateAndDeleteOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	cookie := loginAsAdmin(t, handler)

	created := doJSON(t, handler, http.MethodPost, "/api/products", map[string]any{
		"name":     "Filmet 400mg",
		"price":    3.0,
		"quantity": 10,
	}, cookie)
	product := decodeProduct(t, created)

	saleRec := doJSON(t, handler, http.MethodPost, "/api/sales", map[string]any{
		"customerName": "Walk-in",
		"items": []map[string]any{
			{"productId": product.ID, "quantity": 4},
		},
	}, cookie)
	if saleRec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", saleRec.Code, saleRec.Body.String())
	}
	var saleBody struct {
		Sale domain.Sale `json:"sale"`
	}
	if err := json.NewDecoder(saleRec.Body).Decode(&saleBody); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	sale := saleBody.Sale
	if sale.TotalAmount != 12.0 {
		t.Fatalf("expected total 12.0, got %v", sale.TotalAmount)
	}

	delRec := doJSON(t, handler, http.MethodDelete, "/api/sales/"+sale.ID, nil, cookie)
	if delRec.Code != http.StatusOK {
		t.Fatalf("expected 200 on sale delete, got %d (body: %s)", delRec.Code, delRec.Body.String())
	}

	prodRec := doJSON(t, handler, http.MethodGet, "/api/products/"+product.ID, nil, cookie)
	after := decodeProduct(t, prodRec)
	if after.Quantity != 10 {
		t.Fatalf("expected stock restored to 10, got %d", after.Quantity)
	}
}

func TestEmployeeStatusRoutes(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	cookie := loginAsAdmin(t, handler)

	created := doJSON(t, handler, http.MethodPost, "/api/employees", map[string]any{
		"name":  "Nasrin Sultana",
		"email": "nasrin@example.com",
	}, cookie)
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", created.Code, created.Body.String())
	}
	employee := decodeEmployee(t, created)

	deactivated := doJSON(t, handler, http.MethodPatch, fmt.Sprintf("/api/employees/%s/deactivate", employee.ID), nil, cookie)
	if deactivated.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", deactivated.Code, deactivated.Body.String())
	}
	after := decodeEmployee(t, deactivated)
	if after.Status != domain.EmployeeStatusInactive {
		t.Fatalf("expected Inactive, got %s", after.Status)
	}

	activated := doJSON(t, handler, http.MethodPatch, fmt.Sprintf("/api/employees/%s/activate", employee.ID), nil, cookie)
	if activated.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", activated.Code)
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	cookie := loginAsAdmin(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/products", map[string]any{
		"name":    "Omep 20mg",
		"price":   4.0,
		"surpise": true,
	}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

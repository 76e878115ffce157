package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

const testSecret = "test-secret-test-secret-test-secret"

func newTestHandler(t *testing.T, admins ...string) http.Handler {
	t.Helper()

	s := &Server{
		Log:    zap.NewNop(),
		Store:  NewFastMemStore(),
		JWT:    NewTokenMaker(testSecret),
		Admins: AdminSet(admins),
	}
	return NewHandler(s, HTTPDeps{Log: zap.NewNop(), Service: "auth"})
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, email, pass string) string {
	t.Helper()

	rec := post(t, h, "/auth/login", map[string]any{"email": email, "password": pass})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rec.Code, rec.Body.String())
	}
	var lr loginResp
	if err := json.Unmarshal(rec.Body.Bytes(), &lr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return lr.AccessToken
}

func TestRegisterLoginWhoAmI(t *testing.T) {
	h := newTestHandler(t)

	rec := post(t, h, "/auth/register", map[string]any{"email": " Buyer@Example.com ", "password": "password123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rec.Code, rec.Body.String())
	}
	var reg registerResp
	if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reg.Role != RoleUser {
		t.Fatalf("role=%q", reg.Role)
	}

	tok := login(t, h, "buyer@example.com", "password123")

	req := httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	who := httptest.NewRecorder()
	h.ServeHTTP(who, req)
	if who.Code != http.StatusOK {
		t.Fatalf("whoami status=%d", who.Code)
	}

	var got map[string]string
	if err := json.Unmarshal(who.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["user_id"] != reg.ID || got["email"] != "buyer@example.com" {
		t.Fatalf("whoami=%v", got)
	}
}

func TestRegister_AdminEmailGetsAdminRole(t *testing.T) {
	h := newTestHandler(t, "owner@example.com")

	rec := post(t, h, "/auth/register", map[string]any{"email": "owner@example.com", "password": "password123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d", rec.Code)
	}

	claims, err := NewTokenMaker(testSecret).Parse(login(t, h, "owner@example.com", "password123"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != RoleAdmin {
		t.Fatalf("role=%q", claims.Role)
	}
}

func TestRegister_Rejects(t *testing.T) {
	h := newTestHandler(t)

	if rec := post(t, h, "/auth/register", map[string]any{"email": "a@example.com", "password": "short"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("short password status=%d", rec.Code)
	}
	if rec := post(t, h, "/auth/register", map[string]any{"email": "a@example.com", "password": "password123", "role": "admin"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status=%d", rec.Code)
	}
	if rec := post(t, h, "/auth/register", map[string]any{"email": "a@example.com", "password": "password123"}); rec.Code != http.StatusCreated {
		t.Fatalf("first register status=%d", rec.Code)
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	s := &Server{Log: zap.NewNop(), Store: NewFastMemStore(), JWT: NewTokenMaker(testSecret)}
	h := NewHandler(s, HTTPDeps{})

	body := map[string]any{"email": "dup@example.com", "password": "password123"}
	if rec := post(t, h, "/auth/register", body); rec.Code != http.StatusCreated {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec := post(t, h, "/auth/register", body); rec.Code != http.StatusConflict {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newTestHandler(t)
	post(t, h, "/auth/register", map[string]any{"email": "x@example.com", "password": "password123"})

	rec := post(t, h, "/auth/login", map[string]any{"email": "x@example.com", "password": "password124"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestTokenMaker_RejectsForeignAndExpired(t *testing.T) {
	tm := NewTokenMaker(testSecret)

	expired, err := tm.New("u_1", "a@example.com", RoleUser, -time.Minute)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := tm.Parse(expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}

	foreign, err := NewTokenMaker("another-secret-another-secret-xx").New("u_1", "a@example.com", RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := tm.Parse(foreign); err == nil {
		t.Fatalf("expected foreign token to fail")
	}

	ok, err := tm.New("u_1", "a@example.com", RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c, err := tm.Parse(ok)
	if err != nil || c.UserID != "u_1" || c.Subject != "u_1" {
		t.Fatalf("claims=%+v err=%v", c, err)
	}
}

package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campushub/portal/internal/config"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	server := NewServer(config.Config{
		JWTSecret:       "test-secret",
		JWTIssuer:       "test-issuer",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err := server.SeedDemoData(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	app := httptest.NewServer(server.Router())
	t.Cleanup(app.Close)
	return server, app
}

func doReq(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) (bool, string, json.RawMessage) {
	t.Helper()
	defer resp.Body.Close()
	var env struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env.Success, env.Message, env.Data
}

func TestLoginEnvelopeShape(t *testing.T) {
	_, app := testServer(t)

	resp := doReq(t, http.MethodPost, app.URL+"/api/auth/login", "", map[string]string{
		"email":    "teacher@demo.local",
		"password": "dev-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	success, _, data := decodeEnvelope(t, resp)
	if !success {
		t.Fatalf("expected success envelope")
	}

	var payload struct {
		User struct {
			ID   string `json:"_id"`
			Role string `json:"role"`
		} `json:"user"`
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if payload.User.ID == "" || payload.User.Role != "teacher" {
		t.Fatalf("unexpected user payload: %+v", payload.User)
	}
	if payload.Token == "" || payload.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, app := testServer(t)

	resp := doReq(t, http.MethodPost, app.URL+"/api/auth/login", "", map[string]string{
		"email":    "teacher@demo.local",
		"password": "nope",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	success, message, _ := decodeEnvelope(t, resp)
	if success || message == "" {
		t.Fatalf("expected failure envelope with message")
	}
}

func TestNotificationsRequireAuth(t *testing.T) {
	_, app := testServer(t)

	resp := doReq(t, http.MethodGet, app.URL+"/api/notifications", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodGet, app.URL+"/api/notifications", "garbage-token", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with invalid token, got %d", resp.StatusCode)
	}
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	_, app := testServer(t)

	resp := doReq(t, http.MethodPost, app.URL+"/api/auth/login", "", map[string]string{
		"email":    "student@demo.local",
		"password": "dev-password",
	})
	_, _, data := decodeEnvelope(t, resp)
	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/api/auth/refresh-token", "", map[string]string{
		"refreshToken": payload.RefreshToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on first use, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doReq(t, http.MethodPost, app.URL+"/api/auth/refresh-token", "", map[string]string{
		"refreshToken": payload.RefreshToken,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on replay, got %d", resp.StatusCode)
	}
}

//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/model"
	"github.com/taskvault/taskvault/internal/repository"
)

const adminEmail = "e2e-admin@taskvault.local"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type registerResponse struct {
	Message string `json:"message"`
	User    string `json:"user"`
}

type todoResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
	OwnerID     int64  `json:"owner_id"`
}

func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("TASKVAULT_BASE_URL", "http://localhost:8080")

	username := fmt.Sprintf("e2e-user-%d", time.Now().UnixNano())
	password := "e2e-password"

	registerUser(t, baseURL, username, password)
	token := loginUser(t, baseURL, username, password)

	payload := map[string]any{
		"title":       "e2e smoke task",
		"description": "created by the e2e suite",
		"priority":    3,
	}

	var created todoResponse
	status := doJSON(t, http.MethodPost, baseURL+"/todo/", token, payload, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from todo create, got %d", status)
	}
	if created.ID == 0 {
		t.Fatalf("todo create response missing id")
	}

	var fetched todoResponse
	status = doJSON(t, http.MethodGet, fmt.Sprintf("%s/todo/%d", baseURL, created.ID), token, nil, &fetched)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from todo get, got %d", status)
	}
	if fetched.Title != "e2e smoke task" {
		t.Fatalf("unexpected title %q", fetched.Title)
	}

	update := map[string]any{
		"title":       "e2e smoke task (done)",
		"description": "created by the e2e suite",
		"priority":    1,
		"completed":   true,
	}
	var updated todoResponse
	status = doJSON(t, http.MethodPut, fmt.Sprintf("%s/todo/%d", baseURL, created.ID), token, update, &updated)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from todo update, got %d", status)
	}
	if !updated.Completed {
		t.Fatalf("expected todo to be completed after update")
	}

	var listed []todoResponse
	status = doJSON(t, http.MethodGet, baseURL+"/", token, nil, &listed)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from todo list, got %d", status)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 todo in list, got %d", len(listed))
	}

	status = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/todo/%d", baseURL, created.ID), token, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from todo delete, got %d", status)
	}

	status = doJSON(t, http.MethodGet, fmt.Sprintf("%s/todo/%d", baseURL, created.ID), token, nil, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestE2EOwnershipFence(t *testing.T) {
	baseURL := envOrDefault("TASKVAULT_BASE_URL", "http://localhost:8080")

	suffix := time.Now().UnixNano()
	owner := fmt.Sprintf("e2e-owner-%d", suffix)
	intruder := fmt.Sprintf("e2e-intruder-%d", suffix)

	registerUser(t, baseURL, owner, "owner-password")
	registerUser(t, baseURL, intruder, "intruder-password")

	ownerToken := loginUser(t, baseURL, owner, "owner-password")
	intruderToken := loginUser(t, baseURL, intruder, "intruder-password")

	payload := map[string]any{
		"title":       "private task",
		"description": "only the owner should see this",
		"priority":    2,
	}

	var created todoResponse
	status := doJSON(t, http.MethodPost, baseURL+"/todo/", ownerToken, payload, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from todo create, got %d", status)
	}

	// A non-owner must not be able to observe the todo at all.
	status = doJSON(t, http.MethodGet, fmt.Sprintf("%s/todo/%d", baseURL, created.ID), intruderToken, nil, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for non-owner get, got %d", status)
	}

	status = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/todo/%d", baseURL, created.ID), intruderToken, nil, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for non-owner delete, got %d", status)
	}
}

func TestE2EAdminFlow(t *testing.T) {
	baseURL := envOrDefault("TASKVAULT_BASE_URL", "http://localhost:8080")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}

	adminUsername := fmt.Sprintf("e2e-admin-%d", time.Now().UnixNano())
	adminPassword := "e2e-admin-password"
	bootstrapAdmin(t, dbURL, adminUsername, adminPassword)

	adminToken := loginUser(t, baseURL, adminUsername, adminPassword)

	username := fmt.Sprintf("e2e-member-%d", time.Now().UnixNano())
	registerUser(t, baseURL, username, "member-password")
	memberToken := loginUser(t, baseURL, username, "member-password")

	payload := map[string]any{
		"title":       "task for admin review",
		"description": "the admin should reach this one",
		"priority":    4,
	}
	var created todoResponse
	status := doJSON(t, http.MethodPost, baseURL+"/todo/", memberToken, payload, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from todo create, got %d", status)
	}

	// A regular member must not reach the admin surface.
	status = doJSON(t, http.MethodGet, baseURL+"/admin/todo", memberToken, nil, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for member on admin route, got %d", status)
	}

	var all []todoResponse
	status = doJSON(t, http.MethodGet, baseURL+"/admin/todo", adminToken, nil, &all)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from admin list, got %d", status)
	}

	found := false
	for _, todo := range all {
		if todo.ID == created.ID {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("admin list missing todo %d", created.ID)
	}

	status = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/admin/todo/%d", baseURL, created.ID), adminToken, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from admin delete, got %d", status)
	}
}

func TestE2ELoginFailureIsUniform(t *testing.T) {
	baseURL := envOrDefault("TASKVAULT_BASE_URL", "http://localhost:8080")

	username := fmt.Sprintf("e2e-uniform-%d", time.Now().UnixNano())
	registerUser(t, baseURL, username, "correct-password")

	wrongPassStatus, wrongPassBody := attemptLogin(t, baseURL, username, "wrong-password")
	unknownStatus, unknownBody := attemptLogin(t, baseURL, "no-such-user-ever", "whatever-pass")

	if wrongPassStatus != http.StatusUnauthorized || unknownStatus != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both failures, got %d and %d", wrongPassStatus, unknownStatus)
	}
	if wrongPassBody != unknownBody {
		t.Fatalf("login failure responses differ:\n%s\nvs\n%s", wrongPassBody, unknownBody)
	}
}

func TestE2ENoSecretsInResponses(t *testing.T) {
	baseURL := envOrDefault("TASKVAULT_BASE_URL", "http://localhost:8080")

	username := fmt.Sprintf("e2e-secrets-%d", time.Now().UnixNano())
	password := "super-secret-password"

	body := registerUserRaw(t, baseURL, username, password)
	if strings.Contains(body, password) {
		t.Error("SECURITY: registration response echoed the plaintext password")
	}
	if strings.Contains(body, "$argon2id$") {
		t.Error("SECURITY: registration response leaked the password hash")
	}

	token := loginUser(t, baseURL, username, password)

	var listed []todoResponse
	raw := doJSONRaw(t, http.MethodGet, baseURL+"/", token, nil, &listed)
	if strings.Contains(raw, password) || strings.Contains(raw, "$argon2id$") {
		t.Error("SECURITY: authenticated response leaked credential material")
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func bootstrapAdmin(t *testing.T, dbURL, username, password string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer repo.Close()

	hashed, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := &model.User{
		Username:       username,
		Email:          adminEmail,
		FirstName:      "E2E",
		LastName:       "Admin",
		HashedPassword: hashed,
		Role:           model.RoleAdmin,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create admin user: %v", err)
	}
}

func registerUser(t *testing.T, baseURL, username, password string) registerResponse {
	t.Helper()

	payload := map[string]any{
		"username":   username,
		"password":   password,
		"email":      username + "@taskvault.local",
		"first_name": "E2E",
		"last_name":  "User",
	}

	var resp registerResponse
	status := doJSON(t, http.MethodPost, baseURL+"/auth/", "", payload, &resp)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from register, got %d", status)
	}
	if resp.User != username {
		t.Fatalf("register response user mismatch: got %q", resp.User)
	}
	return resp
}

func registerUserRaw(t *testing.T, baseURL, username, password string) string {
	t.Helper()

	payload := map[string]any{
		"username":   username,
		"password":   password,
		"email":      username + "@taskvault.local",
		"first_name": "E2E",
		"last_name":  "User",
	}

	return doJSONRaw(t, http.MethodPost, baseURL+"/auth/", "", payload, nil)
}

func loginUser(t *testing.T, baseURL, username, password string) string {
	t.Helper()

	status, body := attemptLogin(t, baseURL, username, password)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d: %s", status, body)
	}

	var resp tokenResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("login response missing access_token")
	}
	if resp.TokenType != "bearer" {
		t.Fatalf("unexpected token_type %q", resp.TokenType)
	}
	return resp.AccessToken
}

// attemptLogin posts form-encoded credentials and returns status and raw body.
func attemptLogin(t *testing.T, baseURL, username, password string) (int, string) {
	t.Helper()

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequest(http.MethodPost, baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("create login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read login response: %v", err)
	}
	return resp.StatusCode, string(body)
}

func doJSON(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && resp.ContentLength != 0 {
			t.Fatalf("decode response: %v", err)
		}
	}

	return resp.StatusCode
}

func doJSONRaw(t *testing.T, method, url, token string, body any, out any) string {
	t.Helper()

	var buf io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil && len(raw) > 0 {
			t.Fatalf("decode response: %v", err)
		}
	}

	return string(raw)
}

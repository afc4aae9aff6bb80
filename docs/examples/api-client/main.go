// Taskvault API Client Example
//
// This is a minimal example of how to register, log in, and manage todos
// against a running Taskvault server.
//
// Usage:
//   export TASKVAULT_BASE_URL="http://localhost:8080"
//   go run main.go

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// TokenResponse is the login response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Todo represents a task in API responses
type Todo struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
	OwnerID     int64  `json:"owner_id"`
}

func main() {
	baseURL := os.Getenv("TASKVAULT_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := &http.Client{Timeout: 10 * time.Second}
	username := fmt.Sprintf("example-%d", time.Now().Unix())

	// 1. Register a user
	register := map[string]string{
		"username":   username,
		"password":   "example-password",
		"email":      username + "@example.com",
		"first_name": "Example",
		"last_name":  "User",
	}
	body, _ := json.Marshal(register)
	resp, err := client.Post(baseURL+"/auth/", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("register: unexpected status %d", resp.StatusCode)
	}
	log.Printf("✓ Registered %s", username)

	// 2. Log in with a form-encoded body and keep the bearer token
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", "example-password")
	resp, err = client.Post(baseURL+"/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		log.Fatalf("login: decode: %v", err)
	}
	resp.Body.Close()
	log.Printf("✓ Logged in, token expires in %ds", token.ExpiresIn)

	// 3. Create a todo
	create := map[string]any{
		"title":       "Try the example client",
		"description": "Walk through the full API surface",
		"priority":    2,
	}
	todo := doAuthed[Todo](client, token.AccessToken, http.MethodPost, baseURL+"/todo/", create)
	log.Printf("✓ Created todo %d: %s", todo.ID, todo.Title)

	// 4. Mark it completed (PUT replaces every field)
	update := map[string]any{
		"title":       todo.Title,
		"description": todo.Description,
		"priority":    todo.Priority,
		"completed":   true,
	}
	updated := doAuthed[Todo](client, token.AccessToken, http.MethodPut, fmt.Sprintf("%s/todo/%d", baseURL, todo.ID), update)
	log.Printf("✓ Completed todo %d (completed=%v)", updated.ID, updated.Completed)

	// 5. List todos
	todos := doAuthed[[]Todo](client, token.AccessToken, http.MethodGet, baseURL+"/", nil)
	log.Printf("✓ Listed %d todo(s)", len(todos))

	// 6. Delete it
	deleted := doAuthed[Todo](client, token.AccessToken, http.MethodDelete, fmt.Sprintf("%s/todo/%d", baseURL, todo.ID), nil)
	log.Printf("✓ Deleted todo %d", deleted.ID)
}

// doAuthed sends an authenticated JSON request and decodes the response into T.
func doAuthed[T any](client *http.Client, token, method, url string, payload any) T {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Fatalf("%s %s: marshal: %v", method, url, err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		log.Fatalf("%s %s: %v", method, url, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Fatalf("%s %s: unexpected status %d", method, url, resp.StatusCode)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("%s %s: decode: %v", method, url, err)
	}
	return out
}

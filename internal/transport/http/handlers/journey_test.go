package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"ipcr/internal/app/server"
	"ipcr/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(t *testing.T, dbURL string) config.Config {
	t.Helper()
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		ReportsDir:         t.TempDir(),
	}
}

func TestAppraisalJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(t, dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	client := ts.Client()
	token := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	userID := createUser(t, client, ts.URL, token, fmt.Sprintf("rater-%d@example.com", time.Now().UnixNano()))
	categoryID := createCategory(t, client, ts.URL, token, fmt.Sprintf("Instruction %d", time.Now().UnixNano()))
	taskID := createTask(t, client, ts.URL, token, categoryID)

	idemKey := fmt.Sprintf("journey-%d", time.Now().UnixNano())
	docID := generateDocument(t, client, ts.URL, token, idemKey, userID, taskID)

	replayID := generateDocument(t, client, ts.URL, token, idemKey, userID, taskID)
	if replayID != docID {
		t.Fatalf("expected idempotent replay to return document %s, got %s", docID, replayID)
	}

	subTaskID := firstSubTask(t, client, ts.URL, token, docID)

	putJSON(t, client, ts.URL+"/api/v1/appraisal/sub-tasks/"+subTaskID+"/targets", token, map[string]any{
		"quantity":     100,
		"time":         20,
		"modification": 2,
	})
	resp := putJSON(t, client, ts.URL+"/api/v1/appraisal/sub-tasks/"+subTaskID+"/accomplishment", token, map[string]any{
		"quantity":     130,
		"time":         17,
		"modification": 3,
	})

	var scored struct {
		SubTask struct {
			Quantity   int     `json:"quantity"`
			Efficiency int     `json:"efficiency"`
			Timeliness int     `json:"timeliness"`
			Average    float64 `json:"average"`
		} `json:"subTask"`
	}
	if err := json.Unmarshal(resp.Data, &scored); err != nil {
		t.Fatalf("failed to decode accomplishment response: %v", err)
	}
	if scored.SubTask.Quantity != 5 || scored.SubTask.Efficiency != 3 || scored.SubTask.Timeliness != 4 {
		t.Fatalf("unexpected scores: %+v", scored.SubTask)
	}
	if scored.SubTask.Average != 4.00 {
		t.Fatalf("expected average 4.00, got %v", scored.SubTask.Average)
	}

	signoff := postJSON(t, client, ts.URL+"/api/v1/appraisal/documents/"+docID+"/signoff", token, map[string]any{
		"field": "reviewed_by",
		"name":  "Dr. Reviewer",
	})
	var doc map[string]any
	if err := json.Unmarshal(signoff.Data, &doc); err != nil {
		t.Fatalf("failed to decode signoff response: %v", err)
	}
	if doc["reviewedBy"] != "Dr. Reviewer" {
		t.Fatalf("expected reviewer recorded, got %v", doc["reviewedBy"])
	}

	rating := getJSON(t, client, ts.URL+"/api/v1/reports/users/"+userID+"/final-rating", token)
	var final map[string]any
	if err := json.Unmarshal(rating.Data, &final); err != nil {
		t.Fatalf("failed to decode final rating response: %v", err)
	}
	if _, ok := final["rating"]; !ok {
		t.Fatal("expected a rating field")
	}

	downloadPDF(t, client, ts.URL+"/api/v1/reports/documents/"+docID+"/pdf", token)
}

func TestEmployeeCannotManagePlanning(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(t, dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	email := fmt.Sprintf("employee-%d@example.com", time.Now().UnixNano())
	postJSON(t, client, ts.URL+"/api/v1/users", adminToken, map[string]any{
		"firstName": "Plain",
		"lastName":  "Employee",
		"email":     email,
		"password":  "Employee123!",
		"role":      "employee",
	})

	token := login(t, client, ts.URL, email, "Employee123!")
	postJSONStatus(t, client, ts.URL+"/api/v1/appraisal/categories", token, map[string]any{
		"name":         "Forbidden Category",
		"functionType": "CORE FUNCTION",
	}, http.StatusForbidden)
	postJSONStatus(t, client, ts.URL+"/api/v1/settings/period", token, map[string]any{}, http.StatusForbidden)
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["accessToken"].(string)
	if token == "" {
		t.Fatal("expected access token")
	}
	return token
}

func createUser(t *testing.T, client *http.Client, baseURL, token, email string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/users", token, map[string]any{
		"firstName": "Journey",
		"lastName":  "Tester",
		"email":     email,
		"password":  "Tester123!",
		"role":      "employee",
	})
	return extractID(t, resp)
}

func createCategory(t *testing.T, client *http.Client, baseURL, token, name string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/appraisal/categories", token, map[string]any{
		"name":         name,
		"functionType": "CORE FUNCTION",
		"priority":     1,
	})
	return extractID(t, resp)
}

func createTask(t *testing.T, client *http.Client, baseURL, token, categoryID string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/appraisal/tasks", token, map[string]any{
		"categoryId":        categoryID,
		"title":             "Conduct lectures",
		"targetDescription": "sessions delivered",
		"timeDescription":   "weeks",
	})
	return extractID(t, resp)
}

func generateDocument(t *testing.T, client *http.Client, baseURL, token, idemKey, userID, taskID string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]any{
		"userId":  userID,
		"kind":    "ipcr",
		"taskIds": []string{taskID},
	})
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/appraisal/documents", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", idemKey)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return extractID(t, env)
}

func firstSubTask(t *testing.T, client *http.Client, baseURL, token, docID string) string {
	t.Helper()
	resp := getJSON(t, client, baseURL+"/api/v1/appraisal/documents/"+docID+"/sub-tasks", token)
	var subTasks []map[string]any
	if err := json.Unmarshal(resp.Data, &subTasks); err != nil {
		t.Fatalf("failed to decode sub-task response: %v", err)
	}
	if len(subTasks) == 0 {
		t.Fatal("expected at least one sub-task")
	}
	id, _ := subTasks[0]["id"].(string)
	if id == "" {
		t.Fatal("expected sub-task id")
	}
	return id
}

func downloadPDF(t *testing.T, client *http.Client, url, token string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for pdf download, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read pdf: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected pdf content")
	}
}

func extractID(t *testing.T, env envelope) string {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode id payload: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatalf("expected id in payload: %v", payload)
	}
	return id
}

func postJSON(t *testing.T, client *http.Client, url, token string, body map[string]any) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, body, 0)
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body map[string]any, want int) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, body, want)
}

func putJSON(t *testing.T, client *http.Client, url, token string, body map[string]any) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPut, url, token, body, 0)
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body map[string]any, want int) envelope {
	t.Helper()
	raw, _ := json.Marshal(body)
	req, err := http.NewRequest(method, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if want != 0 {
		if resp.StatusCode != want {
			t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(payload))
		}
	} else if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(payload))
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(payload))
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

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

	"teamspark/internal/app/server"
	"teamspark/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		Environment:        "test",
		SeedOrgName:        "Test Organization",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@test.local",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}
}

func TestEngagementJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	suffix := time.Now().UnixNano()
	managerEmail := fmt.Sprintf("manager-%d@example.com", suffix)
	memberEmail := fmt.Sprintf("member-%d@example.com", suffix)
	managerID := createUser(t, client, ts.URL, adminToken, managerEmail, "Morgan Manager", "MANAGER")
	memberID := createUser(t, client, ts.URL, adminToken, memberEmail, "Mel Member", "MEMBER")

	teamID := createTeam(t, client, ts.URL, adminToken, fmt.Sprintf("Platform %d", suffix))
	addTeamMember(t, client, ts.URL, adminToken, teamID, managerID, "MANAGER")
	addTeamMember(t, client, ts.URL, adminToken, teamID, memberID, "MEMBER")

	managerToken := login(t, client, ts.URL, managerEmail, "Manager123!")
	memberToken := login(t, client, ts.URL, memberEmail, "Manager123!")

	// Kudos: member thanks the manager, manager sees it under filter=received.
	kudosResp := postJSON(t, client, ts.URL+"/api/v1/kudos", memberToken, map[string]any{
		"toUserId": managerID,
		"category": "teamwork",
		"message":  "Unblocked the release in an afternoon",
	})
	var createdKudos map[string]any
	mustDecode(t, kudosResp.Data, &createdKudos)
	if createdKudos["category"] != "TEAMWORK" {
		t.Fatalf("expected normalized category TEAMWORK, got %v", createdKudos["category"])
	}

	received := getJSON(t, client, ts.URL+"/api/v1/kudos?filter=received", managerToken)
	var feed []map[string]any
	mustDecode(t, received.Data, &feed)
	if len(feed) == 0 {
		t.Fatal("expected manager to have received kudos")
	}

	// Weekly check-in: first submit succeeds, same week is a conflict.
	postJSON(t, client, ts.URL+"/api/v1/checkins", memberToken, map[string]any{
		"achievements": "Shipped the importer",
		"challenges":   "Flaky CI",
		"nextWeekPlan": "Start on exports",
		"mood":         4,
	})
	postJSONStatus(t, client, ts.URL+"/api/v1/checkins", memberToken, map[string]any{
		"achievements": "Duplicate entry",
		"mood":         3,
	}, http.StatusConflict)

	teamWeek := getJSON(t, client, ts.URL+"/api/v1/checkins/team", managerToken)
	var teamCheckins []map[string]any
	mustDecode(t, teamWeek.Data, &teamCheckins)
	if len(teamCheckins) == 0 {
		t.Fatal("expected manager to see the member's check-in")
	}

	// OKR: objective with a metric key result, progress via check-in.
	objectiveID := createID(t, postJSON(t, client, ts.URL+"/api/v1/objectives", adminToken, map[string]any{
		"title":       "Improve onboarding",
		"ownerType":   "INDIVIDUAL",
		"ownerUserId": memberID,
		"status":      "ACTIVE",
		"quarter":     "2026-Q3",
	}))
	keyResultID := createID(t, postJSON(t, client, ts.URL+"/api/v1/objectives/"+objectiveID+"/key-results", adminToken, map[string]any{
		"title":       "Cut signup drop-off",
		"type":        "METRIC",
		"startValue":  0,
		"targetValue": 100,
	}))
	checkinResp := postJSON(t, client, ts.URL+"/api/v1/key-results/"+keyResultID+"/checkins", memberToken, map[string]any{
		"currentValue": 50,
		"confidence":   0.8,
		"comment":      "Halfway there",
	})
	var okrCheckin map[string]any
	mustDecode(t, checkinResp.Data, &okrCheckin)
	if progress, _ := okrCheckin["progress"].(float64); progress != 0.5 {
		t.Fatalf("expected progress 0.5, got %v", okrCheckin["progress"])
	}

	// Survey: open, member responds once, duplicate is rejected, admin reads results.
	surveyID := createID(t, postJSON(t, client, ts.URL+"/api/v1/surveys", adminToken, map[string]any{
		"title":     "Quarterly pulse",
		"anonymous": true,
		"questions": []map[string]any{
			{"text": "How are you feeling?", "type": "SCALE"},
			{"text": "Anything blocking you?", "type": "TEXT"},
		},
	}))
	postJSON(t, client, ts.URL+"/api/v1/surveys/"+surveyID+"/open", adminToken, map[string]any{})

	surveyView := getJSON(t, client, ts.URL+"/api/v1/surveys/"+surveyID, memberToken)
	var view struct {
		Questions []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"questions"`
	}
	mustDecode(t, surveyView.Data, &view)
	if len(view.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(view.Questions))
	}

	answers := make([]map[string]any, 0, 2)
	for _, q := range view.Questions {
		if q.Type == "SCALE" {
			answers = append(answers, map[string]any{"questionId": q.ID, "answerScale": 4})
		} else {
			answers = append(answers, map[string]any{"questionId": q.ID, "answerText": "All good"})
		}
	}
	postJSON(t, client, ts.URL+"/api/v1/surveys/"+surveyID+"/responses", memberToken, map[string]any{"answers": answers})
	postJSONStatus(t, client, ts.URL+"/api/v1/surveys/"+surveyID+"/responses", memberToken, map[string]any{"answers": answers}, http.StatusConflict)

	postJSON(t, client, ts.URL+"/api/v1/surveys/"+surveyID+"/close", adminToken, map[string]any{})
	results := getJSON(t, client, ts.URL+"/api/v1/surveys/"+surveyID+"/results", adminToken)
	var resultView struct {
		Responses []map[string]any `json:"responses"`
	}
	mustDecode(t, results.Data, &resultView)
	if len(resultView.Responses) != 2 {
		t.Fatalf("expected 2 response rows, got %d", len(resultView.Responses))
	}
	for _, response := range resultView.Responses {
		if userID, _ := response["userId"].(string); userID != "" {
			t.Fatalf("anonymous survey leaked responder id %q", userID)
		}
	}

	// Evaluation: draft, submit, review, share, then export.
	cycleID := createID(t, postJSON(t, client, ts.URL+"/api/v1/cycles", adminToken, map[string]any{
		"name":      fmt.Sprintf("H2 %d", suffix),
		"startDate": "2026-07-01",
		"endDate":   "2026-12-31",
	}))
	evaluationID := createID(t, postJSON(t, client, ts.URL+"/api/v1/evaluations", adminToken, map[string]any{
		"cycleId":     cycleID,
		"evaluateeId": memberID,
		"evaluatorId": managerID,
	}))
	patchJSON(t, client, ts.URL+"/api/v1/evaluations/"+evaluationID, managerToken, map[string]any{
		"overallRating": 4.5,
		"comments":      "Consistently strong delivery",
	})
	postJSON(t, client, ts.URL+"/api/v1/evaluations/"+evaluationID+"/submit", managerToken, map[string]any{})
	postJSON(t, client, ts.URL+"/api/v1/evaluations/"+evaluationID+"/review", adminToken, map[string]any{
		"approved": true,
	})
	shareResp := postJSON(t, client, ts.URL+"/api/v1/evaluations/"+evaluationID+"/share", adminToken, map[string]any{})
	var shared map[string]any
	mustDecode(t, shareResp.Data, &shared)
	if shared["status"] != "SHARED" {
		t.Fatalf("expected status SHARED, got %v", shared["status"])
	}

	pdfReq, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/evaluations/"+evaluationID+"/pdf", nil)
	pdfReq.Header.Set("Authorization", "Bearer "+memberToken)
	pdfResp, err := client.Do(pdfReq)
	if err != nil {
		t.Fatalf("pdf request failed: %v", err)
	}
	defer pdfResp.Body.Close()
	if pdfResp.StatusCode != http.StatusOK {
		t.Fatalf("expected pdf export 200, got %d", pdfResp.StatusCode)
	}
	if ct := pdfResp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}

	// Everything above should have left an audit trail.
	auditResp := getJSON(t, client, ts.URL+"/api/v1/audit/events?action=kudos.create", adminToken)
	var auditView struct {
		Events []map[string]any `json:"events"`
		Total  int              `json:"total"`
	}
	mustDecode(t, auditResp.Data, &auditView)
	if auditView.Total == 0 {
		t.Fatal("expected kudos.create audit events")
	}

	// Dashboard rolls the quarter up for managers.
	dashboard := getJSON(t, client, ts.URL+"/api/v1/reports/dashboard", managerToken)
	var summary map[string]any
	mustDecode(t, dashboard.Data, &summary)
	if _, ok := summary["kudosByCategory"]; !ok {
		t.Fatal("expected kudosByCategory in dashboard summary")
	}
}

func TestMemberCannotAccessAdminSurfaces(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	memberEmail := fmt.Sprintf("restricted-%d@example.com", time.Now().UnixNano())
	createUser(t, client, ts.URL, adminToken, memberEmail, "Robin Restricted", "MEMBER")
	memberToken := login(t, client, ts.URL, memberEmail, "Manager123!")

	getJSONStatus(t, client, ts.URL+"/api/v1/users", memberToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/audit/events", memberToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/reports/dashboard", memberToken, http.StatusForbidden)
	postJSONStatus(t, client, ts.URL+"/api/v1/surveys", memberToken, map[string]any{
		"title":     "Not allowed",
		"questions": []map[string]any{{"text": "?", "type": "TEXT"}},
	}, http.StatusForbidden)

	getJSONStatus(t, client, ts.URL+"/api/v1/kudos", "", http.StatusUnauthorized)
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	mustDecode(t, resp.Data, &payload)
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func createUser(t *testing.T, client *http.Client, baseURL, token, email, name, role string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/users", token, map[string]any{
		"email":    email,
		"name":     name,
		"role":     role,
		"password": "Manager123!",
	})
	return createID(t, resp)
}

func createTeam(t *testing.T, client *http.Client, baseURL, token, name string) string {
	t.Helper()
	return createID(t, postJSON(t, client, baseURL+"/api/v1/teams", token, map[string]any{"name": name}))
}

func addTeamMember(t *testing.T, client *http.Client, baseURL, token, teamID, userID, teamRole string) {
	t.Helper()
	postJSON(t, client, baseURL+"/api/v1/teams/"+teamID+"/members", token, map[string]any{
		"userId":   userID,
		"teamRole": teamRole,
	})
}

func createID(t *testing.T, resp envelope) string {
	t.Helper()
	var payload map[string]any
	mustDecode(t, resp.Data, &payload)
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatalf("expected id in response, got %s", string(resp.Data))
	}
	return id
}

func mustDecode(t *testing.T, raw json.RawMessage, out any) {
	t.Helper()
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("failed to decode response %s: %v", string(raw), err)
	}
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, body, 0)
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, body, want)
}

func patchJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPatch, url, token, body, 0)
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodGet, url, token, nil, 0)
}

func getJSONStatus(t *testing.T, client *http.Client, url, token string, want int) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodGet, url, token, nil, want)
}

// doJSON performs the request and decodes the response envelope. want == 0
// means any success status; otherwise the exact status is asserted.
func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, want int) envelope {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if want != 0 {
		if resp.StatusCode != want {
			t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
		}
		return env
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

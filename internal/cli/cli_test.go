package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adrg/xdg"

	"github.com/surveyops/surveyctl/internal/models"
)

// fakeBackend serves the admin and survey endpoints with one admin account
// and cookie sessions.
type fakeBackend struct {
	mu          sync.Mutex
	records     []models.SurveyRecord
	submissions []models.Submission
	failEmail   string // CreateRecord fails for this email
	revoked     bool   // record endpoints reject the session; check-auth still passes
}

func newFakeBackend(n int) *fakeBackend {
	fb := &fakeBackend{}
	base := time.Now().Add(-48 * time.Hour)
	for i := 0; i < n; i++ {
		fb.records = append(fb.records, models.SurveyRecord{
			ID:        "id-" + strconv.Itoa(i),
			Name:      "Person " + strconv.Itoa(i),
			Email:     "p" + strconv.Itoa(i) + "@example.com",
			City:      "Pune",
			Message:   "hello",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return fb
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func authed(r *http.Request) bool {
	c, err := r.Cookie("token")
	return err == nil && c.Value == "tok"
}

func (fb *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	switch {
	case r.URL.Path == "/api/admin/check-auth":
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})

	case r.URL.Path == "/api/admin/login":
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "admin@example.com" || req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "tok", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Login successful"})

	case r.URL.Path == "/api/admin/logout":
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", MaxAge: -1})
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})

	case r.URL.Path == "/api/admin/surveys":
		if !authed(r) || fb.revoked {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false})
			return
		}
		q := r.URL.Query()
		var matched []models.SurveyRecord
		for _, rec := range fb.records {
			if s := q.Get("search"); s == "" || strings.Contains(rec.Name, s) {
				matched = append(matched, rec)
			}
		}
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		from := min((page-1)*limit, len(matched))
		to := min(from+limit, len(matched))
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "surveys": matched[from:to], "total": len(matched)})

	case strings.HasPrefix(r.URL.Path, "/api/admin/surveys/"):
		if !authed(r) || fb.revoked {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false})
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/admin/surveys/")
		for _, rec := range fb.records {
			if rec.ID == id {
				writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "survey": rec})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Survey not found"})

	case r.URL.Path == "/api/survey" && r.Method == http.MethodPost:
		var sub models.Submission
		_ = json.NewDecoder(r.Body).Decode(&sub)
		if sub.Email == fb.failEmail {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "boom"})
			return
		}
		fb.submissions = append(fb.submissions, sub)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "message": "Survey submitted successfully"})

	default:
		http.NotFound(w, r)
	}
}

// setupEnv isolates config and state directories and starts a backend.
func setupEnv(t *testing.T, fb *fakeBackend) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("SURVEYCTL_BASE_URL", "")
	t.Setenv("SURVEYCTL_EMAIL", "")
	t.Setenv("SURVEYCTL_PASSWORD", "")
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	AddCommands(root)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), errOut.String(), err
}

func login(t *testing.T, baseURL string) {
	t.Helper()
	out, _, err := runCLI(t, "secret\n", "--base-url", baseURL, "login", "--email", "admin@example.com", "--password-stdin")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, "Logged in as admin@example.com") {
		t.Fatalf("login output = %q", out)
	}
}

func TestRecordsListRequiresLogin(t *testing.T) {
	baseURL := setupEnv(t, newFakeBackend(3))

	_, _, err := runCLI(t, "", "--base-url", baseURL, "records", "list")
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("records list error = %v, want ErrNotLoggedIn", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	baseURL := setupEnv(t, newFakeBackend(0))

	_, _, err := runCLI(t, "nope\n", "--base-url", baseURL, "login", "--email", "admin@example.com", "--password-stdin")
	if err == nil || err.Error() != "invalid email or password" {
		t.Errorf("login error = %v, want invalid email or password", err)
	}
}

func TestLoginSessionPersistsAcrossCommands(t *testing.T) {
	baseURL := setupEnv(t, newFakeBackend(12))
	login(t, baseURL)

	out, _, err := runCLI(t, "", "--base-url", baseURL, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "Session: authenticated") {
		t.Errorf("status output = %q", out)
	}

	out, _, err = runCLI(t, "", "--base-url", baseURL, "login", "--email", "admin@example.com", "--password-stdin")
	if err != nil {
		t.Fatalf("second login error = %v", err)
	}
	if !strings.Contains(out, "Already logged in") {
		t.Errorf("second login output = %q", out)
	}
}

func TestRecordsListTable(t *testing.T) {
	baseURL := setupEnv(t, newFakeBackend(12))
	login(t, baseURL)

	out, _, err := runCLI(t, "", "--base-url", baseURL, "records", "list", "--page", "2", "--size", "5")
	if err != nil {
		t.Fatalf("records list error = %v", err)
	}
	for _, want := range []string{"Person 5", "Person 9", "Showing 6 to 10 of 12 results", "Pages: 1 [2] 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Person 10") {
		t.Errorf("output contains a record from another page:\n%s", out)
	}
}

func TestRecordsListJSON(t *testing.T) {
	baseURL := setupEnv(t, newFakeBackend(12))
	login(t, baseURL)

	out, _, err := runCLI(t, "", "--base-url", baseURL, "records", "list", "--search", "Person 1", "-o", "json")
	if err != nil {
		t.Fatalf("records list error = %v", err)
	}

	var got listOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	// Person 1, 10, 11
	if got.Total != 3 || got.TotalPages != 1 || len(got.Records) != 3 || got.Search != "Person 1" {
		t.Errorf("got %+v", got)
	}
}

func TestRecordsListRejectsBadSize(t *testing.T) {
	baseURL := setupEnv(t, newFakeBackend(1))

	_, _, err := runCLI(t, "", "--base-url", baseURL, "records", "list", "--size", "7")
	if err == nil || !strings.Contains(err.Error(), "--size") {
		t.Errorf("error = %v, want a --size error", err)
	}
}

func TestRecordsGet(t *testing.T) {
	baseURL := setupEnv(t, newFakeBackend(3))
	login(t, baseURL)

	out, _, err := runCLI(t, "", "--base-url", baseURL, "records", "get", "id-2")
	if err != nil {
		t.Fatalf("records get error = %v", err)
	}
	if !strings.Contains(out, "Person 2") || !strings.Contains(out, "Message:\nhello") {
		t.Errorf("detail output = %q", out)
	}

	_, _, err = runCLI(t, "", "--base-url", baseURL, "records", "get", "missing")
	if err == nil {
		t.Error("expected an error for a missing record")
	}
}

func TestRecordsReportExpiredSessionAsNotLoggedIn(t *testing.T) {
	fb := newFakeBackend(3)
	baseURL := setupEnv(t, fb)
	login(t, baseURL)

	fb.mu.Lock()
	fb.revoked = true
	fb.mu.Unlock()

	for _, args := range [][]string{{"records", "list"}, {"records", "get", "id-1"}} {
		_, _, err := runCLI(t, "", append([]string{"--base-url", baseURL}, args...)...)
		if !errors.Is(err, ErrNotLoggedIn) {
			t.Errorf("%v error = %v, want ErrNotLoggedIn", args, err)
		}
	}

	// Other failures keep their own cause.
	fb.mu.Lock()
	fb.revoked = false
	fb.mu.Unlock()
	_, _, err := runCLI(t, "", "--base-url", baseURL, "records", "get", "missing")
	if err == nil || errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("missing record error = %v, want a not-found error", err)
	}
}

func TestLogoutForgetsSession(t *testing.T) {
	baseURL := setupEnv(t, newFakeBackend(3))
	login(t, baseURL)

	out, _, err := runCLI(t, "", "--base-url", baseURL, "logout")
	if err != nil {
		t.Fatalf("logout error = %v", err)
	}
	if !strings.Contains(out, "Logged out successfully") {
		t.Errorf("logout output = %q", out)
	}

	_, _, err = runCLI(t, "", "--base-url", baseURL, "status")
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("status after logout error = %v, want ErrNotLoggedIn", err)
	}
}

func TestSubmitSingleFromFlags(t *testing.T) {
	fb := newFakeBackend(0)
	baseURL := setupEnv(t, fb)

	out, _, err := runCLI(t, "", "--base-url", baseURL, "submit", "--name", "Asha Rao", "--email", "asha@example.com", "--city", "Pune")
	if err != nil {
		t.Fatalf("submit error = %v", err)
	}
	if !strings.Contains(out, "Survey submitted successfully") {
		t.Errorf("submit output = %q", out)
	}
	if len(fb.submissions) != 1 || fb.submissions[0].City != "Pune" {
		t.Errorf("submissions = %+v", fb.submissions)
	}
}

func TestSubmitMissingFieldsSendsNothing(t *testing.T) {
	fb := newFakeBackend(0)
	baseURL := setupEnv(t, fb)

	_, _, err := runCLI(t, "", "--base-url", baseURL, "submit", "--name", "Asha Rao")
	if err == nil || !strings.Contains(err.Error(), "missing email") {
		t.Errorf("error = %v, want missing email", err)
	}
	if len(fb.submissions) != 0 {
		t.Errorf("%d submissions sent", len(fb.submissions))
	}
}

func TestSubmitFileFromStdin(t *testing.T) {
	fb := newFakeBackend(0)
	fb.failEmail = "bad@example.com"
	baseURL := setupEnv(t, fb)

	input := `
- name: A
  email: a@example.com
- name: B
  email: bad@example.com
- name: C
  email: c@example.com
  street_address: 1 Main St
`
	out, errOut, err := runCLI(t, input, "--base-url", baseURL, "submit", "--file", "-", "--quiet")
	if err == nil || !strings.Contains(err.Error(), "1 of 3 entries failed") {
		t.Errorf("error = %v, want one failure", err)
	}
	if !strings.Contains(out, "Submitted 2 of 3 entries") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(errOut, "entry 2:") {
		t.Errorf("stderr = %q, want entry 2 failure", errOut)
	}
}

func TestConfigSetGet(t *testing.T) {
	setupEnv(t, newFakeBackend(0))
	path := t.TempDir() + "/config"

	if _, _, err := runCLI(t, "", "--config", path, "config", "set", "browser.page_size", "25"); err != nil {
		t.Fatalf("config set error = %v", err)
	}
	out, _, err := runCLI(t, "", "--config", path, "config", "get", "browser.page_size")
	if err != nil {
		t.Fatalf("config get error = %v", err)
	}
	if strings.TrimSpace(out) != "25" {
		t.Errorf("config get = %q, want 25", out)
	}

	if _, _, err := runCLI(t, "", "--config", path, "config", "set", "browser.page_size", "7"); err == nil {
		t.Error("config set accepted a disallowed page size")
	}
	if _, _, err := runCLI(t, "", "--config", path, "config", "set", "no.such_key", "1"); err == nil {
		t.Error("config set accepted an unknown key")
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	setupEnv(t, newFakeBackend(0))
	path := t.TempDir() + "/config"

	if _, _, err := runCLI(t, "", "--config", path, "config", "set", "http.proxy_password", "hunter2"); err != nil {
		t.Fatalf("config set error = %v", err)
	}
	out, _, err := runCLI(t, "", "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("config show printed the proxy password")
	}
	if !strings.Contains(out, "<set>") {
		t.Errorf("config show output = %q", out)
	}
}

func TestCommandStructure(t *testing.T) {
	root := NewRootCmd()
	AddCommands(root)

	for _, path := range [][]string{
		{"login"}, {"logout"}, {"status"}, {"browse"},
		{"records", "list"}, {"records", "get"}, {"submit"},
		{"config", "init"}, {"config", "show"}, {"config", "set"}, {"config", "get"}, {"config", "path"},
		{"version"}, {"completion", "bash"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd == nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not found: %v", path, err)
			continue
		}
		if cmd.Short == "" {
			t.Errorf("command %v has no short description", path)
		}
	}
}

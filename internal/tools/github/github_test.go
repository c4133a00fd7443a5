package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/javariai/javari-core/internal/config"
	"github.com/javariai/javari-core/internal/tools/github"
)

func setReadEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.FlagGitHubRead, "1")
	t.Setenv(config.EnvGitHubReadToken, "test-read-token")
	t.Setenv(config.EnvGitHubOwner, "javariai")
	t.Setenv(config.EnvGitHubRepo, "javari-core")
}

func setWriteEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.FlagGitHubWrite, "1")
	t.Setenv(config.EnvGitHubWriteToken, "test-write-token")
	t.Setenv(config.EnvGitHubOwner, "javariai")
	t.Setenv(config.EnvGitHubRepo, "javari-core")
	t.Setenv(config.EnvGitHubBranch, "main")
}

// ── Enablement ──────────────────────────────────────────────

func TestReadAdapter_EnablementGating(t *testing.T) {
	a := github.NewReadAdapter()

	t.Setenv(config.FlagGitHubRead, "")
	t.Setenv(config.EnvGitHubReadToken, "")
	if a.Enabled() {
		t.Error("Enabled() = true with no flag and no token")
	}

	t.Setenv(config.FlagGitHubRead, "true") // must be exactly "1"
	t.Setenv(config.EnvGitHubReadToken, "tok")
	if a.Enabled() {
		t.Error(`Enabled() = true with flag "true"; only "1" enables`)
	}

	t.Setenv(config.FlagGitHubRead, "1")
	t.Setenv(config.EnvGitHubReadToken, "")
	if a.Enabled() {
		t.Error("Enabled() = true with flag set but no token")
	}

	t.Setenv(config.EnvGitHubReadToken, "tok")
	if !a.Enabled() {
		t.Error("Enabled() = false with flag and token present")
	}
}

// ── Read Actions ────────────────────────────────────────────

func TestGetFile_DecodesContent(t *testing.T) {
	setReadEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/repos/javariai/javari-core/contents/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-read-token" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"path":     "README.md",
			"sha":      "abc123",
			"size":     12,
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("hello world\n")),
		})
	}))
	defer srv.Close()

	a := github.NewReadAdapter()
	a.BaseURL = srv.URL

	res := a.Execute(context.Background(), map[string]interface{}{
		"action": "getFile",
		"path":   "README.md",
		"ref":    "main",
	})
	if !res.Success {
		t.Fatalf("Execute(getFile) error = %q", res.Error)
	}

	data := res.Data.(map[string]interface{})
	if data["content"] != "hello world\n" {
		t.Errorf("content = %q, want decoded file body", data["content"])
	}
}

func TestListRepoTree_RequestShape(t *testing.T) {
	setReadEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/javariai/javari-core/git/trees/main" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("recursive") != "1" {
			t.Error("missing recursive=1")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sha":  "deadbeef",
			"tree": []map[string]interface{}{{"path": "go.mod", "type": "blob", "sha": "f1"}},
		})
	}))
	defer srv.Close()

	a := github.NewReadAdapter()
	a.BaseURL = srv.URL

	res := a.Execute(context.Background(), map[string]interface{}{"action": "listRepoTree"})
	if !res.Success {
		t.Fatalf("Execute(listRepoTree) error = %q", res.Error)
	}
}

func TestReadAdapter_UnknownAction(t *testing.T) {
	setReadEnv(t)
	a := github.NewReadAdapter()

	res := a.Execute(context.Background(), map[string]interface{}{"action": "deleteRepo"})
	if res.Success {
		t.Fatal("unknown action succeeded")
	}
	if !strings.Contains(res.Error, "deleteRepo") {
		t.Errorf("error %q does not name the unknown action", res.Error)
	}
}

// ── Write Invariant: PR-only ────────────────────────────────

func TestWriteAdapter_RejectsDefaultBranch(t *testing.T) {
	setWriteEnv(t)

	// Any network call is a failure: the invariant is structural and must be
	// enforced before the request is shaped.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("default-branch mutation reached the network: %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	a := github.NewWriteAdapter()
	a.BaseURL = srv.URL

	attempts := []map[string]interface{}{
		{"action": "createBranch", "branch": "main"},
		{"action": "upsertFile", "branch": "main", "path": "a.go", "content": "x"},
		{"action": "upsertFile", "branch": "", "path": "a.go", "content": "x"},
		{"action": "createPullRequest", "title": "t", "head": "main"},
	}

	for _, params := range attempts {
		res := a.Execute(context.Background(), params)
		if res.Success {
			t.Errorf("Execute(%v) succeeded, want rejection", params)
		}
		if res.Error == "" {
			t.Errorf("Execute(%v) returned no error message", params)
		}
	}
}

func TestUpsertFile_CarriesExistingSHA(t *testing.T) {
	setWriteEnv(t)

	var putPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]string{"sha": "oldsha"})
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&putPayload)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"content": map[string]string{"path": "a.go", "sha": "newsha"},
				"commit":  map[string]string{"sha": "c1"},
			})
		}
	}))
	defer srv.Close()

	a := github.NewWriteAdapter()
	a.BaseURL = srv.URL

	res := a.Execute(context.Background(), map[string]interface{}{
		"action":  "upsertFile",
		"branch":  "feature/x",
		"path":    "a.go",
		"content": "package a",
	})
	if !res.Success {
		t.Fatalf("Execute(upsertFile) error = %q", res.Error)
	}
	if putPayload["sha"] != "oldsha" {
		t.Errorf("PUT payload sha = %v, want existing blob sha", putPayload["sha"])
	}
	if putPayload["branch"] != "feature/x" {
		t.Errorf("PUT payload branch = %v", putPayload["branch"])
	}
}

func TestUpsertFile_OmitsSHAForNewFile(t *testing.T) {
	setWriteEnv(t)

	var putPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&putPayload)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"content": map[string]string{"path": "new.go", "sha": "n1"},
				"commit":  map[string]string{"sha": "c2"},
			})
		}
	}))
	defer srv.Close()

	a := github.NewWriteAdapter()
	a.BaseURL = srv.URL

	res := a.Execute(context.Background(), map[string]interface{}{
		"action":  "upsertFile",
		"branch":  "feature/x",
		"path":    "new.go",
		"content": "package new",
	})
	if !res.Success {
		t.Fatalf("Execute(upsertFile) error = %q", res.Error)
	}
	if _, present := putPayload["sha"]; present {
		t.Error("PUT payload carries a sha for a brand-new file")
	}
}

func TestCreatePullRequest_DefaultsBaseToDefaultBranch(t *testing.T) {
	setWriteEnv(t)

	var prPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&prPayload)
		json.NewEncoder(w).Encode(map[string]interface{}{"number": 7, "html_url": "http://x/pr/7", "state": "open"})
	}))
	defer srv.Close()

	a := github.NewWriteAdapter()
	a.BaseURL = srv.URL

	res := a.Execute(context.Background(), map[string]interface{}{
		"action": "createPullRequest",
		"title":  "Add parser",
		"head":   "feature/parser",
	})
	if !res.Success {
		t.Fatalf("Execute(createPullRequest) error = %q", res.Error)
	}
	if prPayload["base"] != "main" {
		t.Errorf("base = %q, want default branch", prPayload["base"])
	}
	if prPayload["head"] != "feature/parser" {
		t.Errorf("head = %q", prPayload["head"])
	}
}

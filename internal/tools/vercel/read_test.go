package vercel_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/javariai/javari-core/internal/config"
	"github.com/javariai/javari-core/internal/tools/vercel"
)

func setVercelEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.FlagVercelRead, "1")
	t.Setenv(config.EnvVercelToken, "vercel-token")
	t.Setenv(config.EnvVercelTeamID, "team_1")
	t.Setenv(config.EnvVercelProject, "prj_1")
}

func TestEnablement(t *testing.T) {
	a := vercel.NewReadAdapter()

	t.Setenv(config.FlagVercelRead, "1")
	t.Setenv(config.EnvVercelToken, "")
	if a.Enabled() {
		t.Error("Enabled() = true without token")
	}

	t.Setenv(config.EnvVercelToken, "tok")
	if !a.Enabled() {
		t.Error("Enabled() = false with flag and token")
	}
}

func TestGetDeploymentStatus(t *testing.T) {
	setVercelEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v13/deployments/dpl_123" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("teamId") != "team_1" {
			t.Error("missing teamId scope")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer vercel-token" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, `{"id":"dpl_123","url":"app.vercel.app","readyState":"READY","createdAt":1720000000,"target":"production"}`)
	}))
	defer srv.Close()

	a := vercel.NewReadAdapter()
	a.BaseURL = srv.URL

	res := a.Execute(context.Background(), map[string]interface{}{
		"action": "getDeploymentStatus",
		"id":     "dpl_123",
	})
	if !res.Success {
		t.Fatalf("Execute(getDeploymentStatus) error = %q", res.Error)
	}
}

func TestListDeployments_ProjectScope(t *testing.T) {
	setVercelEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v6/deployments" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("projectId") != "prj_1" {
			t.Error("missing projectId scope")
		}
		fmt.Fprint(w, `{"deployments":[{"uid":"dpl_1","name":"site","url":"a.vercel.app","state":"READY","created":1}]}`)
	}))
	defer srv.Close()

	a := vercel.NewReadAdapter()
	a.BaseURL = srv.URL

	res := a.Execute(context.Background(), map[string]interface{}{"action": "listDeployments"})
	if !res.Success {
		t.Fatalf("Execute(listDeployments) error = %q", res.Error)
	}
}

func TestGetDeploymentEvents_ParsesNDJSON(t *testing.T) {
	setVercelEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/deployments/dpl_123/events" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprintln(w, `{"type":"stdout","payload":{"text":"building"}}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `not-json, skipped`)
		fmt.Fprintln(w, `{"type":"stdout","payload":{"text":"done"}}`)
	}))
	defer srv.Close()

	a := vercel.NewReadAdapter()
	a.BaseURL = srv.URL

	res := a.Execute(context.Background(), map[string]interface{}{
		"action": "getDeploymentEvents",
		"id":     "dpl_123",
	})
	if !res.Success {
		t.Fatalf("Execute(getDeploymentEvents) error = %q", res.Error)
	}

	events := res.Data.([]map[string]interface{})
	if len(events) != 2 {
		t.Fatalf("parsed %d events, want 2 (blank and malformed lines skipped)", len(events))
	}
	if events[0]["type"] != "stdout" {
		t.Errorf("event[0] = %v", events[0])
	}
}

func TestUnknownAction(t *testing.T) {
	setVercelEnv(t)
	a := vercel.NewReadAdapter()

	res := a.Execute(context.Background(), map[string]interface{}{"action": "redeploy"})
	if res.Success {
		t.Fatal("unknown action succeeded")
	}
	if !strings.Contains(res.Error, "redeploy") {
		t.Errorf("error %q does not name the unknown action", res.Error)
	}
}

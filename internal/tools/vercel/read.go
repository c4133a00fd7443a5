// Package vercel provides the read-only Vercel tool adapter: deployment
// status, deployment listing, and build/runtime event retrieval.
package vercel

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/javariai/javari-core/internal/config"
	"github.com/javariai/javari-core/internal/tools"
	"github.com/javariai/javari-core/pkg/models"
)

// DefaultBaseURL is the public Vercel API endpoint.
const DefaultBaseURL = "https://api.vercel.com"

// ReadAdapter wraps the Vercel REST API, read paths only.
type ReadAdapter struct {
	BaseURL string
	client  *http.Client
}

// NewReadAdapter creates the Vercel read adapter.
func NewReadAdapter() *ReadAdapter {
	return &ReadAdapter{
		BaseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *ReadAdapter) Name() string { return "vercel-read" }

func (a *ReadAdapter) Description() string {
	return "Read-only Vercel access: deployment status, deployment lists, build events"
}

// Enabled requires the feature flag plus an API token. Team and project ids
// are optional scoping, not credentials.
func (a *ReadAdapter) Enabled() bool {
	return config.FlagEnabled(config.FlagVercelRead) &&
		config.HaveCredentials(config.EnvVercelToken)
}

// Read commands, one typed struct per action.

type getDeploymentStatusCmd struct {
	ID string `json:"id"`
}

type listDeploymentsCmd struct {
	Limit int `json:"limit"`
}

type getDeploymentEventsCmd struct {
	ID string `json:"id"`
}

// Execute dispatches a Vercel read action.
func (a *ReadAdapter) Execute(ctx context.Context, params map[string]interface{}) *models.ToolResult {
	action, err := tools.Action(params)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	switch action {
	case "getDeploymentStatus":
		var cmd getDeploymentStatusCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.getDeploymentStatus(ctx, cmd)

	case "listDeployments":
		var cmd listDeploymentsCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.listDeployments(ctx, cmd)

	case "getDeploymentEvents":
		var cmd getDeploymentEventsCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.getDeploymentEvents(ctx, cmd)

	default:
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("unknown vercel-read action %q (expected getDeploymentStatus, listDeployments or getDeploymentEvents)", action),
		}
	}
}

func (a *ReadAdapter) getDeploymentStatus(ctx context.Context, cmd getDeploymentStatusCmd) *models.ToolResult {
	if cmd.ID == "" {
		return &models.ToolResult{Success: false, Error: "getDeploymentStatus requires a deployment id"}
	}

	var deployment struct {
		ID         string `json:"id"`
		URL        string `json:"url"`
		ReadyState string `json:"readyState"`
		CreatedAt  int64  `json:"createdAt"`
		Target     string `json:"target"`
	}
	endpoint := a.scoped("/v13/deployments/" + url.PathEscape(cmd.ID))
	if err := a.get(ctx, endpoint, &deployment); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	return &models.ToolResult{Success: true, Data: deployment}
}

func (a *ReadAdapter) listDeployments(ctx context.Context, cmd listDeploymentsCmd) *models.ToolResult {
	limit := cmd.Limit
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	endpoint := a.scoped(fmt.Sprintf("/v6/deployments?limit=%d", limit))
	if project := os.Getenv(config.EnvVercelProject); project != "" {
		endpoint += "&projectId=" + url.QueryEscape(project)
	}

	var listing struct {
		Deployments []struct {
			UID        string `json:"uid"`
			Name       string `json:"name"`
			URL        string `json:"url"`
			State      string `json:"state"`
			Created    int64  `json:"created"`
		} `json:"deployments"`
	}
	if err := a.get(ctx, endpoint, &listing); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	return &models.ToolResult{Success: true, Data: listing.Deployments}
}

// getDeploymentEvents retrieves build/runtime logs. The endpoint streams
// newline-delimited JSON; each non-blank line is one event object.
func (a *ReadAdapter) getDeploymentEvents(ctx context.Context, cmd getDeploymentEventsCmd) *models.ToolResult {
	if cmd.ID == "" {
		return &models.ToolResult{Success: false, Error: "getDeploymentEvents requires a deployment id"}
	}

	endpoint := a.scoped("/v3/deployments/" + url.PathEscape(cmd.ID) + "/events")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("create request: %v", err)}
	}
	a.auth(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("vercel request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("vercel: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var events []map[string]interface{}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event map[string]interface{}
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			// Skip malformed lines rather than failing the whole log fetch.
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("read events: %v", err)}
	}

	return &models.ToolResult{Success: true, Data: events}
}

// scoped appends the team id query parameter when configured.
func (a *ReadAdapter) scoped(path string) string {
	endpoint := a.BaseURL + path
	if team := os.Getenv(config.EnvVercelTeamID); team != "" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		endpoint += sep + "teamId=" + url.QueryEscape(team)
	}
	return endpoint
}

func (a *ReadAdapter) auth(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+os.Getenv(config.EnvVercelToken))
}

func (a *ReadAdapter) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	a.auth(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("vercel request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vercel: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// Package github provides the GitHub tool adapters: a read-only adapter for
// repository inspection and a write adapter whose only mutation path ends in
// a pull request.
package github

import (
	"context"
	"encoding/base64"
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

// DefaultBaseURL is the public GitHub REST endpoint. Override BaseURL for
// GitHub Enterprise or tests.
const DefaultBaseURL = "https://api.github.com"

// ── Read Adapter ────────────────────────────────────────────

// ReadAdapter exposes read-only repository access: tree listing and file
// reads. It wraps the GitHub REST API and adds no business logic beyond
// request shaping and response normalization.
type ReadAdapter struct {
	BaseURL string
	client  *http.Client
}

// NewReadAdapter creates the GitHub read adapter.
func NewReadAdapter() *ReadAdapter {
	return &ReadAdapter{
		BaseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *ReadAdapter) Name() string { return "github-read" }

func (a *ReadAdapter) Description() string {
	return "Read-only GitHub access: list repository trees, read file contents"
}

// Enabled requires the feature flag plus a read token. Evaluated fresh on
// every call.
func (a *ReadAdapter) Enabled() bool {
	return config.FlagEnabled(config.FlagGitHubRead) &&
		config.HaveCredentials(config.EnvGitHubReadToken)
}

// Read commands, one typed struct per action.

type listRepoTreeCmd struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Ref   string `json:"ref"`
}

type getFileCmd struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Path  string `json:"path"`
	Ref   string `json:"ref"`
}

// Execute dispatches a read action.
func (a *ReadAdapter) Execute(ctx context.Context, params map[string]interface{}) *models.ToolResult {
	action, err := tools.Action(params)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	switch action {
	case "listRepoTree":
		var cmd listRepoTreeCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.listRepoTree(ctx, cmd)

	case "getFile":
		var cmd getFileCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.getFile(ctx, cmd)

	default:
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("unknown github-read action %q (expected listRepoTree or getFile)", action),
		}
	}
}

func (a *ReadAdapter) listRepoTree(ctx context.Context, cmd listRepoTreeCmd) *models.ToolResult {
	owner, repo, err := resolveRepo(cmd.Owner, cmd.Repo)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	ref := cmd.Ref
	if ref == "" {
		ref = defaultBranch()
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", a.BaseURL, owner, repo, url.PathEscape(ref))

	var tree struct {
		SHA       string `json:"sha"`
		Truncated bool   `json:"truncated"`
		Tree      []struct {
			Path string `json:"path"`
			Type string `json:"type"`
			Size int64  `json:"size,omitempty"`
			SHA  string `json:"sha"`
		} `json:"tree"`
	}
	if err := a.get(ctx, endpoint, &tree); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	return &models.ToolResult{Success: true, Data: tree}
}

func (a *ReadAdapter) getFile(ctx context.Context, cmd getFileCmd) *models.ToolResult {
	owner, repo, err := resolveRepo(cmd.Owner, cmd.Repo)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	if cmd.Path == "" {
		return &models.ToolResult{Success: false, Error: "getFile requires a path"}
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", a.BaseURL, owner, repo, escapePath(cmd.Path))
	if cmd.Ref != "" {
		endpoint += "?ref=" + url.QueryEscape(cmd.Ref)
	}

	var file struct {
		Path     string `json:"path"`
		SHA      string `json:"sha"`
		Size     int64  `json:"size"`
		Encoding string `json:"encoding"`
		Content  string `json:"content"`
	}
	if err := a.get(ctx, endpoint, &file); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	// Contents API returns base64 with embedded newlines.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("decode file content: %v", err)}
	}

	return &models.ToolResult{Success: true, Data: map[string]interface{}{
		"path":    file.Path,
		"sha":     file.SHA,
		"size":    file.Size,
		"content": string(decoded),
	}}
}

func (a *ReadAdapter) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+os.Getenv(config.EnvGitHubReadToken))

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// ── Shared Helpers ──────────────────────────────────────────

// resolveRepo falls back to the configured default owner/repo when the
// command leaves them blank.
func resolveRepo(owner, repo string) (string, string, error) {
	if owner == "" {
		owner = os.Getenv(config.EnvGitHubOwner)
	}
	if repo == "" {
		repo = os.Getenv(config.EnvGitHubRepo)
	}
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("owner and repo are required (set %s/%s or pass them explicitly)",
			config.EnvGitHubOwner, config.EnvGitHubRepo)
	}
	return owner, repo, nil
}

// defaultBranch returns the configured default branch, "main" when unset.
func defaultBranch() string {
	if b := os.Getenv(config.EnvGitHubBranch); b != "" {
		return b
	}
	return "main"
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

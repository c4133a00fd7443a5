package github

import (
	"bytes"
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

// ── Write Adapter (PR-only) ─────────────────────────────────

// WriteAdapter is the PR-only mutation path. Every mutation requires an
// explicit branch that is not the configured default branch, and changes can
// only land through a pull request: there is no action that commits to, or
// force-pushes, the default branch.
type WriteAdapter struct {
	BaseURL string
	client  *http.Client
}

// NewWriteAdapter creates the GitHub write adapter.
func NewWriteAdapter() *WriteAdapter {
	return &WriteAdapter{
		BaseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *WriteAdapter) Name() string { return "github-write" }

func (a *WriteAdapter) Description() string {
	return "PR-only GitHub mutations: create branches, upsert files, open pull requests"
}

// Enabled requires the write feature flag plus a write token.
func (a *WriteAdapter) Enabled() bool {
	return config.FlagEnabled(config.FlagGitHubWrite) &&
		config.HaveCredentials(config.EnvGitHubWriteToken)
}

// Write commands, one typed struct per action.

type createBranchCmd struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Branch  string `json:"branch"`
	FromRef string `json:"fromRef"`
}

type upsertFileCmd struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Branch  string `json:"branch"`
	Path    string `json:"path"`
	Content string `json:"content"`
	Message string `json:"message"`
}

type createPullRequestCmd struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

type addPrCommentCmd struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
	Body   string `json:"body"`
}

// Execute dispatches a write action.
func (a *WriteAdapter) Execute(ctx context.Context, params map[string]interface{}) *models.ToolResult {
	action, err := tools.Action(params)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	switch action {
	case "createBranch":
		var cmd createBranchCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.createBranch(ctx, cmd)

	case "upsertFile":
		var cmd upsertFileCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.upsertFile(ctx, cmd)

	case "createPullRequest":
		var cmd createPullRequestCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.createPullRequest(ctx, cmd)

	case "addPrComment":
		var cmd addPrCommentCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.addPrComment(ctx, cmd)

	default:
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("unknown github-write action %q (expected createBranch, upsertFile, createPullRequest or addPrComment)", action),
		}
	}
}

// requireWorkBranch enforces the structural PR-only invariant: mutations
// must name a branch, and never the default branch.
func requireWorkBranch(branch string) error {
	if branch == "" {
		return fmt.Errorf("an explicit branch name is required for mutations")
	}
	if branch == defaultBranch() {
		return fmt.Errorf("mutations on the default branch %q are not allowed; use a work branch and open a pull request", branch)
	}
	return nil
}

func (a *WriteAdapter) createBranch(ctx context.Context, cmd createBranchCmd) *models.ToolResult {
	owner, repo, err := resolveRepo(cmd.Owner, cmd.Repo)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	if err := requireWorkBranch(cmd.Branch); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	fromRef := cmd.FromRef
	if fromRef == "" {
		fromRef = defaultBranch()
	}

	// Resolve the base commit the new branch points at.
	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	refURL := fmt.Sprintf("%s/repos/%s/%s/git/ref/heads/%s", a.BaseURL, owner, repo, url.PathEscape(fromRef))
	if err := a.do(ctx, http.MethodGet, refURL, nil, &ref); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	payload := map[string]string{
		"ref": "refs/heads/" + cmd.Branch,
		"sha": ref.Object.SHA,
	}
	var created struct {
		Ref string `json:"ref"`
	}
	createURL := fmt.Sprintf("%s/repos/%s/%s/git/refs", a.BaseURL, owner, repo)
	if err := a.do(ctx, http.MethodPost, createURL, payload, &created); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	return &models.ToolResult{Success: true, Data: map[string]interface{}{
		"ref": created.Ref,
		"sha": ref.Object.SHA,
	}}
}

func (a *WriteAdapter) upsertFile(ctx context.Context, cmd upsertFileCmd) *models.ToolResult {
	owner, repo, err := resolveRepo(cmd.Owner, cmd.Repo)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	if err := requireWorkBranch(cmd.Branch); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	if cmd.Path == "" {
		return &models.ToolResult{Success: false, Error: "upsertFile requires a path"}
	}

	message := cmd.Message
	if message == "" {
		message = "Update " + cmd.Path
	}

	contentsURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", a.BaseURL, owner, repo, escapePath(cmd.Path))

	// The Contents API is optimistic-concurrency: updates must carry the
	// existing blob SHA, creates must omit it. Look the file up first so the
	// action is idempotent at the API level.
	existingSHA := ""
	var existing struct {
		SHA string `json:"sha"`
	}
	lookupErr := a.do(ctx, http.MethodGet, contentsURL+"?ref="+url.QueryEscape(cmd.Branch), nil, &existing)
	if lookupErr == nil {
		existingSHA = existing.SHA
	}

	payload := map[string]interface{}{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(cmd.Content)),
		"branch":  cmd.Branch,
	}
	if existingSHA != "" {
		payload["sha"] = existingSHA
	}

	var result struct {
		Content struct {
			Path string `json:"path"`
			SHA  string `json:"sha"`
		} `json:"content"`
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	if err := a.do(ctx, http.MethodPut, contentsURL, payload, &result); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	return &models.ToolResult{Success: true, Data: map[string]interface{}{
		"path":    result.Content.Path,
		"sha":     result.Content.SHA,
		"commit":  result.Commit.SHA,
		"branch":  cmd.Branch,
		"updated": existingSHA != "",
	}}
}

func (a *WriteAdapter) createPullRequest(ctx context.Context, cmd createPullRequestCmd) *models.ToolResult {
	owner, repo, err := resolveRepo(cmd.Owner, cmd.Repo)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	if err := requireWorkBranch(cmd.Head); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	if cmd.Title == "" {
		return &models.ToolResult{Success: false, Error: "createPullRequest requires a title"}
	}

	base := cmd.Base
	if base == "" {
		base = defaultBranch()
	}

	payload := map[string]string{
		"title": cmd.Title,
		"body":  cmd.Body,
		"head":  cmd.Head,
		"base":  base,
	}
	var pr struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
		State   string `json:"state"`
	}
	prURL := fmt.Sprintf("%s/repos/%s/%s/pulls", a.BaseURL, owner, repo)
	if err := a.do(ctx, http.MethodPost, prURL, payload, &pr); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	return &models.ToolResult{Success: true, Data: map[string]interface{}{
		"number": pr.Number,
		"url":    pr.HTMLURL,
		"state":  pr.State,
	}}
}

func (a *WriteAdapter) addPrComment(ctx context.Context, cmd addPrCommentCmd) *models.ToolResult {
	owner, repo, err := resolveRepo(cmd.Owner, cmd.Repo)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	if cmd.Number <= 0 {
		return &models.ToolResult{Success: false, Error: "addPrComment requires a positive pull request number"}
	}
	if cmd.Body == "" {
		return &models.ToolResult{Success: false, Error: "addPrComment requires a body"}
	}

	payload := map[string]string{"body": cmd.Body}
	var comment struct {
		ID      int64  `json:"id"`
		HTMLURL string `json:"html_url"`
	}
	commentURL := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", a.BaseURL, owner, repo, cmd.Number)
	if err := a.do(ctx, http.MethodPost, commentURL, payload, &comment); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	return &models.ToolResult{Success: true, Data: map[string]interface{}{
		"id":  comment.ID,
		"url": comment.HTMLURL,
	}}
}

func (a *WriteAdapter) do(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+os.Getenv(config.EnvGitHubWriteToken))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

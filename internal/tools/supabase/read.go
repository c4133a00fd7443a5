// Package supabase provides the read-only Supabase tool adapter: schema
// introspection, validated read-only SQL via an RPC function, and storage
// listing. The SQL validator in sqlguard.go is the safety boundary; no query
// reaches the wire without passing it.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/javariai/javari-core/internal/config"
	"github.com/javariai/javari-core/internal/tools"
	"github.com/javariai/javari-core/pkg/models"
)

// rpcFunction is the database function that executes validated read-only SQL.
const rpcFunction = "execute_readonly_sql"

// ReadAdapter wraps the Supabase REST/RPC and Storage APIs, read paths only.
type ReadAdapter struct {
	// BaseURL overrides the SUPABASE_URL project endpoint. Tests only.
	BaseURL string
	client  *http.Client
}

// NewReadAdapter creates the Supabase read adapter.
func NewReadAdapter() *ReadAdapter {
	return &ReadAdapter{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *ReadAdapter) Name() string { return "supabase-read" }

func (a *ReadAdapter) Description() string {
	return "Read-only Supabase access: table schemas, validated SQL queries, storage listing"
}

// Enabled requires the feature flag plus project URL and anon key.
func (a *ReadAdapter) Enabled() bool {
	return config.FlagEnabled(config.FlagSupabaseRead) &&
		config.HaveCredentials(config.EnvSupabaseURL, config.EnvSupabaseAnonKey)
}

// Read commands, one typed struct per action.

type getTableSchemaCmd struct {
	Table string `json:"table"`
}

type queryReadOnlyCmd struct {
	SQL string `json:"sql"`
}

type listObjectsCmd struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
}

// Execute dispatches a Supabase read action.
func (a *ReadAdapter) Execute(ctx context.Context, params map[string]interface{}) *models.ToolResult {
	action, err := tools.Action(params)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}

	switch action {
	case "getTableSchema":
		var cmd getTableSchemaCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.getTableSchema(ctx, cmd)

	case "queryReadOnly":
		var cmd queryReadOnlyCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.queryReadOnly(ctx, cmd)

	case "listTables":
		return a.listTables(ctx)

	case "listBuckets":
		return a.listBuckets(ctx)

	case "listObjects":
		var cmd listObjectsCmd
		if err := tools.DecodeParams(params, &cmd); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}
		}
		return a.listObjects(ctx, cmd)

	default:
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("unknown supabase-read action %q (expected getTableSchema, queryReadOnly, listTables, listBuckets or listObjects)", action),
		}
	}
}

// queryReadOnly validates the caller's SQL and runs it through the read-only
// RPC function with the row-limit ceiling applied.
func (a *ReadAdapter) queryReadOnly(ctx context.Context, cmd queryReadOnlyCmd) *models.ToolResult {
	if v := ValidateReadOnlyQuery(cmd.SQL); !v.Valid {
		return &models.ToolResult{Success: false, Error: v.Error}
	}

	rows, err := a.runSQL(ctx, EnsureRowLimit(cmd.SQL))
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	return &models.ToolResult{Success: true, Data: rows}
}

func (a *ReadAdapter) getTableSchema(ctx context.Context, cmd getTableSchemaCmd) *models.ToolResult {
	if cmd.Table == "" {
		return &models.ToolResult{Success: false, Error: "getTableSchema requires a table"}
	}
	if strings.ContainsAny(cmd.Table, `'";`) {
		return &models.ToolResult{Success: false, Error: "invalid table name"}
	}

	sql := fmt.Sprintf(
		"select column_name, data_type, is_nullable, column_default from information_schema.columns where table_schema = 'public' and table_name = '%s' order by ordinal_position",
		cmd.Table)

	rows, err := a.runSQL(ctx, sql)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	return &models.ToolResult{Success: true, Data: map[string]interface{}{
		"table":   cmd.Table,
		"columns": rows,
	}}
}

func (a *ReadAdapter) listTables(ctx context.Context) *models.ToolResult {
	sql := "select table_name from information_schema.tables where table_schema = 'public' order by table_name"
	rows, err := a.runSQL(ctx, sql)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	return &models.ToolResult{Success: true, Data: rows}
}

func (a *ReadAdapter) listBuckets(ctx context.Context) *models.ToolResult {
	var buckets []map[string]interface{}
	if err := a.do(ctx, http.MethodGet, "/storage/v1/bucket", nil, &buckets); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	return &models.ToolResult{Success: true, Data: buckets}
}

func (a *ReadAdapter) listObjects(ctx context.Context, cmd listObjectsCmd) *models.ToolResult {
	if cmd.Bucket == "" {
		return &models.ToolResult{Success: false, Error: "listObjects requires a bucket"}
	}

	payload := map[string]interface{}{
		"prefix": cmd.Prefix,
		"limit":  100,
	}
	var objects []map[string]interface{}
	if err := a.do(ctx, http.MethodPost, "/storage/v1/object/list/"+cmd.Bucket, payload, &objects); err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}
	}
	return &models.ToolResult{Success: true, Data: objects}
}

// runSQL sends an already-validated query to the read-only RPC function.
func (a *ReadAdapter) runSQL(ctx context.Context, sql string) (interface{}, error) {
	var rows interface{}
	payload := map[string]string{"query": sql}
	if err := a.do(ctx, http.MethodPost, "/rest/v1/rpc/"+rpcFunction, payload, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (a *ReadAdapter) do(ctx context.Context, method, path string, payload, out interface{}) error {
	base := a.BaseURL
	if base == "" {
		base = os.Getenv(config.EnvSupabaseURL)
	}
	anonKey := os.Getenv(config.EnvSupabaseAnonKey)

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", anonKey)
	req.Header.Set("Authorization", "Bearer "+anonKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("supabase: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

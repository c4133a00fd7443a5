// Package tools implements the capability-gated tool registry.
//
// The registry dispatches named tool invocations, re-checks each tool's
// enablement on every call (feature flags take effect without a restart),
// and caches successful results for a fixed TTL. Unknown or disabled tools
// are reported as ToolResult errors, never raised.
package tools

import (
	"context"

	"github.com/javariai/javari-core/pkg/models"
)

// Tool is a single external integration adapter. Name must be globally
// unique within a registry. Enabled must be a pure function of environment
// configuration, evaluated fresh on every call.
type Tool interface {
	Name() string
	Description() string
	Enabled() bool
	Execute(ctx context.Context, params map[string]interface{}) *models.ToolResult
}

// Descriptor is the externally visible summary of a registered tool.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

// Package models defines the shared data model for the Javari mediation core.
//
// Everything here is created fresh per invocation and never persisted; the
// only process-lifetime state in the core lives in the tool registry's cache.
package models

// ── Chat & Invocation ───────────────────────────────────────

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant", "tool"
	Content string `json:"content"`
}

// InvokeRequest is an inbound chat request. It is immutable per invocation.
type InvokeRequest struct {
	Messages  []ChatMessage          `json:"messages"`
	SessionID string                 `json:"session_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`

	// Context carries free-form routing hints. Recognized keys:
	// "previousFailed" (bool) and "error" (string) force RECOVER mode.
	Context map[string]interface{} `json:"context,omitempty"`
}

// LatestUserMessage returns the content of the last user turn, or the last
// turn of any role when no user turn exists.
func (r *InvokeRequest) LatestUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	if n := len(r.Messages); n > 0 {
		return r.Messages[n-1].Content
	}
	return ""
}

// InvokeResponse is the result of a core invocation. Invoke never fails:
// worst case the response carries ModeRecover and a zero cost.
type InvokeResponse struct {
	Message   string   `json:"message"`
	Mode      Mode     `json:"mode"`
	CostUSD   float64  `json:"cost_usd"`
	Model     string   `json:"model"`
	Reasoning string   `json:"reasoning,omitempty"`
	ToolsUsed []string `json:"tools_used,omitempty"`
}

// ── Operating Modes ─────────────────────────────────────────

// Mode is the operating mode selected for a request. Exactly one mode is
// chosen per invocation; ModeRecover doubles as the universal failure state.
type Mode string

const (
	ModeBuild   Mode = "BUILD"
	ModeAnalyze Mode = "ANALYZE"
	ModeExecute Mode = "EXECUTE"
	ModeRecover Mode = "RECOVER"
)

// Valid reports whether the mode is a known operating mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeBuild, ModeAnalyze, ModeExecute, ModeRecover:
		return true
	default:
		return false
	}
}

// Complexity buckets a request by the size of its latest user turn.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ── Model Selection ─────────────────────────────────────────

// ModelChoice is the router's decision for one (mode, complexity) cell.
// Fallbacks never contains ModelID and is consulted strictly in order.
type ModelChoice struct {
	ModelID              string   `json:"model_id"`
	CostPerMillionTokens float64  `json:"cost_per_million_tokens"`
	Rationale            string   `json:"rationale"`
	Fallbacks            []string `json:"fallbacks"`
}

// ── Tool Execution ──────────────────────────────────────────

// ToolResult is the outcome of a tool dispatch. Tool-level failures (unknown
// tool, disabled tool, validation errors) are reported here, never raised.
// Cached is set only by the registry, never by an adapter.
type ToolResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Cached  bool        `json:"cached,omitempty"`
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/javariai/javari-core/internal/mode"
	"github.com/javariai/javari-core/internal/routing"
	"github.com/javariai/javari-core/internal/sanitize"
	"github.com/javariai/javari-core/internal/tools"
	"github.com/javariai/javari-core/pkg/models"
)

// DefaultMaxTurns bounds the tool-use loop per invocation.
const DefaultMaxTurns = 4

const recoverMessage = "I ran into a problem completing that request. " +
	"Let's take a different approach: tell me a bit more about what you're after, or try a smaller step first."

const blockedMessage = "I produced a response that contained sensitive material, so I've withheld it. " +
	"Let's try again without including credentials or connection strings."

// Core is the request mediation engine. It classifies the request, selects a
// model, runs the tool-use loop under self-healing retries, and sanitizes
// everything on the way out.
//
// Invoke never returns an error: every failure path degrades into a
// RECOVER-mode response.
type Core struct {
	router    *routing.Router
	registry  *tools.Registry
	sanitizer *sanitize.Sanitizer
	caller    Caller

	maxRetries int
	maxTurns   int
	strategy   Strategy
}

// CoreOption configures the Core.
type CoreOption func(*Core)

// WithRetries sets the per-model attempt budget.
func WithRetries(n int) CoreOption {
	return func(c *Core) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithMaxTurns bounds the tool-use loop.
func WithMaxTurns(n int) CoreOption {
	return func(c *Core) {
		if n > 0 {
			c.maxTurns = n
		}
	}
}

// WithRetryStrategy sets the delay strategy between model retries.
func WithRetryStrategy(s Strategy) CoreOption {
	return func(c *Core) { c.strategy = s }
}

// NewCore wires the engine from its collaborators.
func NewCore(router *routing.Router, registry *tools.Registry, sanitizer *sanitize.Sanitizer, caller Caller, opts ...CoreOption) *Core {
	c := &Core{
		router:     router,
		registry:   registry,
		sanitizer:  sanitizer,
		caller:     caller,
		maxRetries: DefaultMaxRetries,
		maxTurns:   DefaultMaxTurns,
		strategy:   Immediate{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke handles one chat request end to end. The returned response always
// has a valid mode; on total failure it carries ModeRecover, a zero cost and
// no model id.
func (c *Core) Invoke(ctx context.Context, req *models.InvokeRequest) *models.InvokeResponse {
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	message := req.LatestUserMessage()
	selected := mode.SelectMode(message, req.Context)
	complexity := mode.EstimateComplexity(message)
	choice := c.router.SelectCheapestCapable(selected, complexity)

	log.Info().
		Str("session_id", req.SessionID).
		Str("mode", string(selected)).
		Str("complexity", string(complexity)).
		Str("model", choice.ModelID).
		Msg("Invocation routed")

	messages := c.buildMessages(selected, req)

	reply, model, toolsUsed, err := c.runConversation(ctx, choice, messages)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("All models failed, degrading to RECOVER")
		return c.recoverResponse(recoverMessage)
	}

	safe, err := c.sanitizer.SafeEgress(reply, "model:"+model)
	if err != nil {
		log.Error().Err(err).Str("model", model).Msg("Egress blocked, degrading to RECOVER")
		return c.recoverResponse(blockedMessage)
	}

	return &models.InvokeResponse{
		Message:   safe,
		Mode:      selected,
		CostUSD:   choice.CostPerMillionTokens,
		Model:     model,
		Reasoning: choice.Rationale,
		ToolsUsed: toolsUsed,
	}
}

// runConversation drives the tool-use loop: call the model, execute any tool
// calls in its reply, feed results back, repeat until a plain text reply or
// the turn budget runs out.
func (c *Core) runConversation(ctx context.Context, choice models.ModelChoice, messages []models.ChatMessage) (reply, model string, toolsUsed []string, err error) {
	for turn := 1; turn <= c.maxTurns; turn++ {
		reply, model, err = c.callWithHealing(ctx, choice, messages)
		if err != nil {
			return "", "", toolsUsed, err
		}

		calls := parseToolCalls(reply)
		if len(calls) == 0 {
			return reply, model, toolsUsed, nil
		}

		messages = append(messages, models.ChatMessage{Role: "assistant", Content: reply})
		for _, call := range calls {
			result := c.registry.Execute(ctx, call.Name, call.Params)
			toolsUsed = append(toolsUsed, call.Name)
			messages = append(messages, models.ChatMessage{
				Role:    "tool",
				Content: fmt.Sprintf("[Tool: %s] %s", call.Name, renderToolResult(result)),
			})
		}

		log.Debug().Int("turn", turn).Int("tool_calls", len(calls)).Msg("Tool loop continuing")
	}

	// Turn budget exhausted; the last reply still contained tool calls, so
	// return it as-is rather than failing the whole invocation.
	return reply, model, toolsUsed, nil
}

// callWithHealing retries the primary model, then walks the fallback chain in
// order, one attempt per fallback. Replies that break the assistant persona
// count as failures.
func (c *Core) callWithHealing(ctx context.Context, choice models.ModelChoice, messages []models.ChatMessage) (string, string, error) {
	type attempt struct {
		reply string
		model string
	}

	try := func(modelID string) func(context.Context) (attempt, error) {
		return func(ctx context.Context) (attempt, error) {
			reply, err := c.caller.Call(ctx, modelID, messages)
			if err != nil {
				return attempt{}, err
			}
			if err := checkIdentity(modelID, reply); err != nil {
				return attempt{}, err
			}
			return attempt{reply: reply, model: modelID}, nil
		}
	}

	fallback := func(ctx context.Context) (attempt, error) {
		var lastErr error
		for _, fb := range choice.Fallbacks {
			result, err := try(fb)(ctx)
			if err == nil {
				return result, nil
			}
			log.Warn().Str("model", fb).Err(err).Msg("Fallback model failed, trying next")
			lastErr = err
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("no fallback models configured for %s", choice.ModelID)
		}
		return attempt{}, lastErr
	}

	result, err := ExecuteWithHealing(ctx, "model call",
		try(choice.ModelID),
		WithMaxRetries[attempt](c.maxRetries),
		WithStrategy[attempt](c.strategy),
		WithFallback(fallback),
	)
	if err != nil {
		return "", "", err
	}
	return result.reply, result.model, nil
}

// ExecuteTool runs a registry tool on behalf of the API surface, then
// sanitizes the serialized result before it leaves the process.
func (c *Core) ExecuteTool(ctx context.Context, name string, params map[string]interface{}) *models.ToolResult {
	result := c.registry.Execute(ctx, name, params)
	if !result.Success || result.Data == nil {
		return result
	}

	serialized, err := json.Marshal(result.Data)
	if err != nil {
		return result
	}

	safe, err := c.sanitizer.SafeEgress(string(serialized), "tool:"+name)
	if err != nil {
		return &models.ToolResult{Success: false, Error: "tool result withheld: sensitive material detected"}
	}
	if safe != string(serialized) {
		// Redaction happened; return the sanitized serialized form.
		return &models.ToolResult{Success: true, Data: safe, Cached: result.Cached}
	}
	return result
}

// Tools lists the registered tool descriptors.
func (c *Core) Tools() []tools.Descriptor {
	return c.registry.Descriptors()
}

// recoverResponse is the universal degradation result.
func (c *Core) recoverResponse(message string) *models.InvokeResponse {
	return &models.InvokeResponse{
		Message: message,
		Mode:    models.ModeRecover,
		CostUSD: 0,
	}
}

// buildMessages prefixes the conversation with the persona system prompt and
// the currently enabled tool roster.
func (c *Core) buildMessages(selected models.Mode, req *models.InvokeRequest) []models.ChatMessage {
	var b strings.Builder
	b.WriteString("You are Javari, an autonomous development assistant. ")
	b.WriteString("Always answer as Javari and never mention the underlying model or its vendor. ")
	b.WriteString("Current operating mode: ")
	b.WriteString(string(selected))
	b.WriteString(".")

	enabled := make([]tools.Descriptor, 0)
	for _, d := range c.registry.Descriptors() {
		if d.Enabled {
			enabled = append(enabled, d)
		}
	}
	if len(enabled) > 0 {
		b.WriteString("\n\nAvailable tools:\n")
		for _, d := range enabled {
			fmt.Fprintf(&b, "- %s: %s\n", d.Name, d.Description)
		}
		b.WriteString("\nTo use a tool, respond with a JSON block: {\"tool_calls\": [{\"name\": \"tool_name\", \"params\": {...}}]}")
	}

	messages := make([]models.ChatMessage, 0, len(req.Messages)+1)
	messages = append(messages, models.ChatMessage{Role: "system", Content: b.String()})
	messages = append(messages, req.Messages...)
	return messages
}

// ── Tool Call Parsing ───────────────────────────────────────

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params"`
}

// parseToolCalls extracts tool calls from a model reply. Two formats are
// accepted: a wrapper object {"tool_calls": [...]} or a bare array of call
// objects. Anything else is a plain text reply.
func parseToolCalls(content string) []ToolCall {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var wrapper struct {
		ToolCalls []ToolCall `json:"tool_calls"`
	}
	if err := json.Unmarshal([]byte(content), &wrapper); err == nil && len(wrapper.ToolCalls) > 0 {
		return wrapper.ToolCalls
	}

	var calls []ToolCall
	if err := json.Unmarshal([]byte(content), &calls); err == nil && len(calls) > 0 && calls[0].Name != "" {
		return calls
	}

	return nil
}

// renderToolResult flattens a tool result into a message the model can read.
func renderToolResult(result *models.ToolResult) string {
	if !result.Success {
		return "error: " + result.Error
	}
	data, err := json.Marshal(result.Data)
	if err != nil {
		return "error: unserializable tool result"
	}
	return string(data)
}

// Package routing implements cost-aware model selection.
//
// Routing is a fixed lookup table keyed by (mode, complexity); each cell
// declares the cheapest model capable of that work, a rationale, and an
// ordered fallback chain. There is no dynamic cost learning: the table is
// deterministic and auditable, and callers can recompute any decision from
// it.
package routing

import (
	"github.com/javariai/javari-core/pkg/models"
)

// Known model costs in USD per million input tokens.
var modelCosts = map[string]float64{
	"gpt-4o-mini":               0.15,
	"claude-3-5-haiku-20241022": 0.80,
	"gpt-4o":                    2.50,
	"claude-sonnet-4-20250514":  3.00,
	"claude-opus-4-20250514":    15.00,
}

// ModelCost returns the declared cost for a model id, or 0 for unknown ids.
func ModelCost(modelID string) float64 {
	return modelCosts[modelID]
}

// Router selects models from the fixed routing table.
type Router struct {
	table map[models.Mode]map[models.Complexity]models.ModelChoice
}

// New creates a router with the built-in routing table.
func New() *Router {
	return &Router{table: defaultTable()}
}

// SelectCheapestCapable returns the model choice for a (mode, complexity)
// cell. The primary is the cheapest model declared capable of that cell;
// Fallbacks never contains the primary and is consulted strictly in order.
//
// Unknown modes or complexities resolve to the RECOVER/low cell, the
// universal fallback state.
func (r *Router) SelectCheapestCapable(mode models.Mode, complexity models.Complexity) models.ModelChoice {
	if cells, ok := r.table[mode]; ok {
		if choice, ok := cells[complexity]; ok {
			return choice
		}
	}
	return r.table[models.ModeRecover][models.ComplexityLow]
}

func choice(modelID, rationale string, fallbacks ...string) models.ModelChoice {
	return models.ModelChoice{
		ModelID:              modelID,
		CostPerMillionTokens: modelCosts[modelID],
		Rationale:            rationale,
		Fallbacks:            fallbacks,
	}
}

func defaultTable() map[models.Mode]map[models.Complexity]models.ModelChoice {
	return map[models.Mode]map[models.Complexity]models.ModelChoice{
		models.ModeBuild: {
			models.ComplexityLow:    choice("gpt-4o-mini", "small code edits and scaffolding need speed, not depth", "claude-3-5-haiku-20241022"),
			models.ComplexityMedium: choice("claude-sonnet-4-20250514", "multi-file code generation benefits from stronger planning", "gpt-4o"),
			models.ComplexityHigh:   choice("claude-opus-4-20250514", "large builds justify the premium model", "claude-sonnet-4-20250514", "gpt-4o"),
		},
		models.ModeAnalyze: {
			models.ComplexityLow:    choice("gpt-4o-mini", "short reviews are cheap to answer well", "claude-3-5-haiku-20241022"),
			models.ComplexityMedium: choice("gpt-4o", "mid-size analysis needs a strong generalist", "claude-sonnet-4-20250514"),
			models.ComplexityHigh:   choice("claude-sonnet-4-20250514", "long-context review favors sonnet-class models", "claude-opus-4-20250514", "gpt-4o"),
		},
		models.ModeExecute: {
			models.ComplexityLow:    choice("claude-3-5-haiku-20241022", "tool-call reliability matters more than raw size", "gpt-4o-mini"),
			models.ComplexityMedium: choice("gpt-4o", "multi-step actions need dependable function calling", "claude-sonnet-4-20250514"),
			models.ComplexityHigh:   choice("claude-sonnet-4-20250514", "complex operations need careful sequencing", "claude-opus-4-20250514"),
		},
		models.ModeRecover: {
			models.ComplexityLow:    choice("claude-3-5-haiku-20241022", "recovery paths favor the most dependable cheap model", "gpt-4o-mini"),
			models.ComplexityMedium: choice("claude-sonnet-4-20250514", "diagnosing a prior failure warrants a stronger model", "gpt-4o"),
			models.ComplexityHigh:   choice("claude-sonnet-4-20250514", "deep recovery keeps the dependable tier with a premium fallback", "claude-opus-4-20250514"),
		},
	}
}

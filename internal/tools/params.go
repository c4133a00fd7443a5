package tools

import (
	"encoding/json"
	"fmt"
)

// Action extracts the "action" discriminator from a parameter map. Adapters
// parse it once into a typed command and dispatch exhaustively over the
// command type; unknown actions come back as descriptive errors, not panics.
func Action(params map[string]interface{}) (string, error) {
	raw, ok := params["action"]
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", "action")
	}
	action, ok := raw.(string)
	if !ok || action == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", "action")
	}
	return action, nil
}

// DecodeParams fills a typed command struct from the raw parameter map via a
// JSON round trip, so adapters get field-level typing without hand-written
// map plumbing.
func DecodeParams(params map[string]interface{}, dst interface{}) error {
	b, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

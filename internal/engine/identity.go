package engine

import (
	"fmt"
	"regexp"
)

// IdentityViolationError marks a model reply that broke character by naming
// its underlying provider or model. Violations are retryable: the next
// attempt or fallback model usually stays in character.
type IdentityViolationError struct {
	Model   string
	Matched string
}

func (e *IdentityViolationError) Error() string {
	return fmt.Sprintf("identity violation from %s: reply matched %q", e.Model, e.Matched)
}

// identityViolations flags phrasing where the assistant drops the Javari
// persona and identifies as the raw upstream model.
var identityViolations = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bas an ai (language )?model\b`),
	regexp.MustCompile(`(?i)\bi(?:'m| am) (chatgpt|claude|gpt-4|gemini|an openai\b)`),
	regexp.MustCompile(`(?i)\b(developed|created|made|trained) by (openai|anthropic|google deepmind)\b`),
	regexp.MustCompile(`(?i)\bmy knowledge cutoff\b`),
}

// checkIdentity returns an IdentityViolationError when the reply breaks
// persona, nil otherwise.
func checkIdentity(model, reply string) error {
	for _, re := range identityViolations {
		if m := re.FindString(reply); m != "" {
			return &IdentityViolationError{Model: model, Matched: m}
		}
	}
	return nil
}

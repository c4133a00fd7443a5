// Package sanitize implements the egress sanitizer: every piece of text that
// leaves the core toward the user is scanned against a table of
// credential-shaped secret patterns and either redacted (non-production) or
// blocked outright (production).
package sanitize

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// RedactionToken replaces every matched secret span in sanitized output.
const RedactionToken = "[REDACTED]"

// Threat records a single pattern match in the scanned text. Start and End
// are byte offsets into the text as it was when the pattern ran.
type Threat struct {
	Pattern string `json:"pattern"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// Result holds the outcome of a sanitization pass. Threats is empty if and
// only if no registered pattern matched.
type Result struct {
	Sanitized string   `json:"sanitized"`
	Threats   []Threat `json:"detected_threats,omitempty"`
}

// SecurityError is returned by SafeEgress in production mode when any secret
// pattern matched. The whole response is suppressed; no partially redacted
// text is ever forwarded once blocked.
type SecurityError struct {
	Source  string
	Threats []Threat
	Blocked bool
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("egress blocked: %d secret pattern(s) detected in %s output", len(e.Threats), e.Source)
}

// Sanitizer scans outbound text against a secret pattern set.
//
// The sanitizer is stateless between calls: streaming callers re-scan the
// full accumulated buffer as chunks arrive, so a secret split across two
// chunks is caught once both have arrived.
type Sanitizer struct {
	patterns   []SecretPattern
	production bool
}

// New creates a sanitizer with the given pattern set. production selects the
// block-instead-of-redact egress policy.
func New(patterns []SecretPattern, production bool) *Sanitizer {
	return &Sanitizer{patterns: patterns, production: production}
}

// Sanitize scans text against every registered pattern and returns the
// redacted text plus the list of detected threats. It never fails; policy
// enforcement lives in SafeEgress.
//
// Idempotence: the redaction token matches no pattern, so
// Sanitize(Sanitize(x).Sanitized) == Sanitize(x).Sanitized.
func (s *Sanitizer) Sanitize(text, source string) Result {
	res := Result{Sanitized: text}

	for _, p := range s.patterns {
		matches := p.Pattern.FindAllStringIndex(res.Sanitized, -1)
		if matches == nil {
			continue
		}
		for _, m := range matches {
			res.Threats = append(res.Threats, Threat{
				Pattern: p.Name,
				Start:   m[0],
				End:     m[1],
			})
		}
		res.Sanitized = p.Pattern.ReplaceAllString(res.Sanitized, RedactionToken)
	}

	if len(res.Threats) > 0 {
		log.Warn().
			Str("source", source).
			Int("threats", len(res.Threats)).
			Bool("production", s.production).
			Msg("Secret-shaped content detected in egress")
	}

	return res
}

// SafeEgress applies the environment policy to outbound model/tool text.
//
// Non-production: always returns the redacted text, never fails.
// Production: if any pattern matched, returns a *SecurityError and no text.
func (s *Sanitizer) SafeEgress(text, source string) (string, error) {
	res := s.Sanitize(text, source)

	if s.production && len(res.Threats) > 0 {
		return "", &SecurityError{
			Source:  source,
			Threats: res.Threats,
			Blocked: true,
		}
	}

	return res.Sanitized, nil
}

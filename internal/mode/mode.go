// Package mode implements task classification for inbound requests.
//
// Classification is a deliberate, simple lexicon match evaluated in strict
// priority order, not an ML classifier: ambiguous messages resolve to the
// first matching rule.
package mode

import (
	"regexp"
	"strings"

	"github.com/javariai/javari-core/pkg/models"
)

// Intent lexicons, checked in priority order after the failure check.
var (
	buildLexicon   = regexp.MustCompile(`(?i)\b(build|create|make|code|implement|develop)\b`)
	analyzeLexicon = regexp.MustCompile(`(?i)\b(analyze|review|compare|evaluate|assess)\b`)
	executeLexicon = regexp.MustCompile(`(?i)\b(deploy|run|execute|start|launch|fix)\b`)
)

// SelectMode maps a raw user message plus request context to an operating
// mode. Pure function of its inputs; no side effects.
//
// Priority order, first match wins:
//  1. context carries previousFailed or error  -> RECOVER
//  2. build-intent lexicon                     -> BUILD
//  3. analysis lexicon                         -> ANALYZE
//  4. action lexicon                           -> EXECUTE
//  5. default                                  -> BUILD
func SelectMode(message string, context map[string]interface{}) models.Mode {
	if failed, ok := context["previousFailed"].(bool); ok && failed {
		return models.ModeRecover
	}
	if errVal, ok := context["error"]; ok && errVal != nil && errVal != "" {
		return models.ModeRecover
	}

	switch {
	case buildLexicon.MatchString(message):
		return models.ModeBuild
	case analyzeLexicon.MatchString(message):
		return models.ModeAnalyze
	case executeLexicon.MatchString(message):
		return models.ModeExecute
	default:
		return models.ModeBuild
	}
}

// EstimateComplexity buckets a message by word count: under 20 words is low,
// under 100 is medium, everything else is high.
func EstimateComplexity(message string) models.Complexity {
	words := len(strings.Fields(message))
	switch {
	case words < 20:
		return models.ComplexityLow
	case words < 100:
		return models.ComplexityMedium
	default:
		return models.ComplexityHigh
	}
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/javariai/javari-core/pkg/models"
)

// CacheTTL is how long a successful tool result stays servable from cache.
const CacheTTL = 5 * time.Minute

type cacheEntry struct {
	data    interface{}
	written time.Time
}

// Registry holds named tools and a TTL result cache.
//
// The cache is keyed by tool name plus the exact serialized parameters; there
// is no partial-match reuse. Entries are never evicted, they merely age out
// at read time, so key cardinality grows with distinct parameter sets over
// the process lifetime.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool

	// cacheMu guards the whole check-then-act sequence so concurrent
	// identical misses cannot race the map.
	cacheMu sync.Mutex
	cache   map[string]cacheEntry

	// now is injectable for TTL tests.
	now func() time.Time
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
		cache: make(map[string]cacheEntry),
		now:   time.Now,
	}
}

// Register adds a tool to the registry. Registering a name twice replaces
// the previous tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	r.tools[t.Name()] = t
	r.mu.Unlock()

	log.Info().Str("tool", t.Name()).Msg("Tool registered")
}

// Descriptors returns a name-sorted summary of all registered tools with
// their live enabled state.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, Descriptor{
			Name:        t.Name(),
			Description: t.Description(),
			Enabled:     t.Enabled(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute dispatches a tool invocation by name.
//
// Dispatch order: lookup, enablement check, cache probe, adapter call. A
// cache hit never reaches the adapter; a miss calls through exactly once per
// registry invocation. Only the registry ever sets Cached on a result.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]interface{}) *models.ToolResult {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("tool %q not found", name),
		}
	}

	// Re-checked on every call: flag flips apply to the next request.
	if !tool.Enabled() {
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("tool %q is disabled", name),
		}
	}

	key := cacheKey(name, params)

	r.cacheMu.Lock()
	if entry, ok := r.cache[key]; ok && r.now().Sub(entry.written) <= CacheTTL {
		r.cacheMu.Unlock()
		log.Debug().Str("tool", name).Msg("Tool cache hit")
		return &models.ToolResult{Success: true, Data: entry.data, Cached: true}
	}
	r.cacheMu.Unlock()

	result := tool.Execute(ctx, params)
	if result == nil {
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("tool %q returned no result", name),
		}
	}

	if result.Success && result.Data != nil {
		r.cacheMu.Lock()
		r.cache[key] = cacheEntry{data: result.Data, written: r.now()}
		r.cacheMu.Unlock()
	}

	return result
}

// SetClock replaces the registry's time source. Test hook.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// cacheKey is the tool name plus the canonical JSON form of the parameters.
// encoding/json sorts map keys, so equal parameter sets always serialize
// identically.
func cacheKey(name string, params map[string]interface{}) string {
	b, err := json.Marshal(params)
	if err != nil {
		// Unserializable params never cache-hit; fall back to a unique-ish key.
		return name + ":" + fmt.Sprintf("%v", params)
	}
	return name + ":" + string(b)
}

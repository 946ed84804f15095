// Package search implements the web-search tool used by sub-agents. A
// Searcher returns whatever shape the provider natively produces; the Adapter
// normalizes every shape into []core.SearchResult and converts every failure
// mode into an empty result list plus an error marker so raw provider errors
// never cross into the dispatcher.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/tripmesh/tripmesh/core"
	"github.com/tripmesh/tripmesh/logging"
)

// Depth selects how thorough a search should be.
type Depth string

const (
	// DepthBasic is a fast shallow search.
	DepthBasic Depth = "basic"
	// DepthDeep is a slower exhaustive search.
	DepthDeep Depth = "deep"
)

// Searcher is the raw provider contract. The returned value may be a plain
// string, a map with a "results" field, or a list of fragments; the Adapter
// owns normalization.
type Searcher interface {
	Search(ctx context.Context, query string, depth Depth) (any, error)
}

// Adapter wraps a Searcher behind a uniform, non-failing interface. A nil
// Searcher is treated as an absent credential: every call degrades to an
// empty result list with core.ErrToolUnavailable.
type Adapter struct {
	searcher Searcher
	logger   logging.Logger
}

// NewAdapter constructs an Adapter. logger may be nil.
func NewAdapter(searcher Searcher, logger logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Adapter{searcher: searcher, logger: logger}
}

// Search runs a query and returns normalized results. On any failure it
// returns an empty slice together with core.ErrToolUnavailable; callers can
// always range over the first return value.
func (a *Adapter) Search(ctx context.Context, query string, depth Depth) ([]core.SearchResult, error) {
	start := time.Now()

	if a.searcher == nil {
		a.logger.Warn("search skipped, no backend configured", "query", query)
		return []core.SearchResult{}, core.ErrToolUnavailable
	}

	raw, err := a.searcher.Search(ctx, query, depth)
	elapsed := time.Since(start)
	if err != nil {
		a.logger.Warn("search failed",
			"query", query, "depth", string(depth), "duration_ms", elapsed.Milliseconds(), "error", err.Error())
		return []core.SearchResult{}, fmt.Errorf("%w: %v", core.ErrToolUnavailable, err)
	}

	results := Normalize(raw)
	a.logger.Info("search completed",
		"query", query, "depth", string(depth), "results", len(results), "duration_ms", elapsed.Milliseconds())
	return results, nil
}

// Normalize coerces a raw provider result into the uniform record list. It
// accepts the three shapes seen in the wild (plain string, mapping with a
// "results" list, bare list of fragments) and falls back to a stringified
// wrap for anything else rather than failing.
func Normalize(raw any) []core.SearchResult {
	switch v := raw.(type) {
	case nil:
		return []core.SearchResult{}
	case string:
		if v == "" {
			return []core.SearchResult{}
		}
		return []core.SearchResult{{Content: v}}
	case map[string]any:
		if list, ok := v["results"].([]any); ok {
			return normalizeList(list)
		}
		return []core.SearchResult{normalizeFragment(v)}
	case []any:
		return normalizeList(v)
	default:
		return []core.SearchResult{{Content: fmt.Sprintf("%v", v)}}
	}
}

func normalizeList(list []any) []core.SearchResult {
	out := make([]core.SearchResult, 0, len(list))
	for _, item := range list {
		r := normalizeFragment(item)
		if r.Content == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// normalizeFragment maps one raw fragment to a SearchResult. Mappings use
// the conventional content/title and url/source fields; everything else is
// stringified.
func normalizeFragment(item any) core.SearchResult {
	switch f := item.(type) {
	case string:
		return core.SearchResult{Content: f}
	case map[string]any:
		r := core.SearchResult{}
		if s, ok := f["content"].(string); ok && s != "" {
			r.Content = s
		} else if s, ok := f["title"].(string); ok {
			r.Content = s
		}
		if s, ok := f["url"].(string); ok {
			r.Source = s
		} else if s, ok := f["source"].(string); ok {
			r.Source = s
		}
		if r.Content == "" && r.Source == "" {
			r.Content = fmt.Sprintf("%v", f)
		}
		return r
	default:
		return core.SearchResult{Content: fmt.Sprintf("%v", item)}
	}
}

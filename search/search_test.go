package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripmesh/tripmesh/core"
)

// stubSearcher returns a canned raw value or error.
type stubSearcher struct {
	raw any
	err error
}

func (s stubSearcher) Search(context.Context, string, Depth) (any, error) {
	return s.raw, s.err
}

func TestNormalize_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []core.SearchResult
	}{
		{
			name: "plain string",
			raw:  "วัดพระแก้วเปิดทุกวัน",
			want: []core.SearchResult{{Content: "วัดพระแก้วเปิดทุกวัน"}},
		},
		{
			name: "mapping with results",
			raw: map[string]any{
				"results": []any{
					map[string]any{"content": "หาดป่าตอง", "url": "https://example.com/patong"},
					map[string]any{"title": "เกาะพีพี"},
				},
			},
			want: []core.SearchResult{
				{Content: "หาดป่าตอง", Source: "https://example.com/patong"},
				{Content: "เกาะพีพี"},
			},
		},
		{
			name: "bare list",
			raw:  []any{"ตลาดนัดจตุจักร", map[string]any{"content": "เยาวราช", "source": "guidebook"}},
			want: []core.SearchResult{
				{Content: "ตลาดนัดจตุจักร"},
				{Content: "เยาวราช", Source: "guidebook"},
			},
		},
		{
			name: "nil",
			raw:  nil,
			want: []core.SearchResult{},
		},
		{
			name: "unexpected shape coerced to string",
			raw:  42,
			want: []core.SearchResult{{Content: "42"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestAdapter_MissingBackendDegrades(t *testing.T) {
	adapter := NewAdapter(nil, nil)

	results, err := adapter.Search(context.Background(), "ที่เที่ยวเชียงราย", DepthBasic)

	assert.ErrorIs(t, err, core.ErrToolUnavailable)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestAdapter_BackendFailureDegrades(t *testing.T) {
	adapter := NewAdapter(stubSearcher{err: errors.New("connection refused")}, nil)

	results, err := adapter.Search(context.Background(), "โรงแรมในกระบี่", DepthDeep)

	assert.ErrorIs(t, err, core.ErrToolUnavailable)
	assert.Empty(t, results)
}

func TestAdapter_NormalizesBackendResult(t *testing.T) {
	adapter := NewAdapter(stubSearcher{raw: map[string]any{
		"results": []any{map[string]any{"content": "อุทยานแห่งชาติเขาใหญ่", "url": "https://example.com/khaoyai"}},
	}}, nil)

	results, err := adapter.Search(context.Background(), "เขาใหญ่", DepthBasic)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "อุทยานแห่งชาติเขาใหญ่", results[0].Content)
	assert.Equal(t, "https://example.com/khaoyai", results[0].Source)
}

func TestTavilyClient_MissingKey(t *testing.T) {
	client := NewTavilyClient("")

	_, err := client.Search(context.Background(), "หัวหิน", DepthBasic)

	assert.ErrorIs(t, err, core.ErrToolUnavailable)
}

func TestTavilyClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"content":"ตลาดน้ำอัมพวา","url":"https://example.com/amphawa"}]}`))
	}))
	defer srv.Close()

	client := NewTavilyClient("test-key", func(o *TavilyOptions) {
		o.BaseURL = srv.URL
	})

	raw, err := client.Search(context.Background(), "อัมพวา", DepthDeep)
	require.NoError(t, err)

	results := Normalize(raw)
	require.Len(t, results, 1)
	assert.Equal(t, "ตลาดน้ำอัมพวา", results[0].Content)
}

func TestTavilyClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewTavilyClient("test-key", func(o *TavilyOptions) {
		o.BaseURL = srv.URL
	})

	_, err := client.Search(context.Background(), "เชียงคาน", DepthBasic)
	assert.Error(t, err)
}

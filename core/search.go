package core

// SearchResult is the normalized record produced by the search adapter
// regardless of the provider's native result shape. Source is empty when the
// provider gave no attribution.
type SearchResult struct {
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

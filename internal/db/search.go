package db

// TagFilter restricts a search to documents whose tag field matches one of
// the given values. Multiple filters on a query are ANDed, values within one
// filter are ORed.
type TagFilter struct {
	Field  string
	Values []string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Tags         []TagFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for BM25 text search.
type TextQuery struct {
	IndexName    string
	Query        string
	Tags         []TagFilter
	TopK         int
	ReturnFields []string
	Language     string // query-time stemmer language, empty = index default
	Fuzzy        int    // per-term Levenshtein distance 0..2
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

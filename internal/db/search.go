package db

// SearchQuery is a federated full-text request.
type SearchQuery struct {
	Text             string
	SelectProperties []string
	SortField        string
	SortDesc         bool
	TrimDuplicates   bool
	Interleave       bool
	RowLimit         int
}

// SearchRow is one federated search result. Every value arrives as a string.
type SearchRow map[string]string

// SearchResult holds the rows of a federated query and the backend's total hit count.
type SearchResult struct {
	Rows  []SearchRow
	Total int
}

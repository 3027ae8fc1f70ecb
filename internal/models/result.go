package models

// SearchResult is a single ranked poster with its similarity score and
// derived status.
type SearchResult struct {
	Poster *Poster `json:"poster"`
	// Score is the cosine similarity against the keyword query; zero when the
	// query had no keyword.
	Score  float64 `json:"score,omitempty"`
	Status Status  `json:"status"`
	Rank   int     `json:"rank"`
}

// SearchResponse is the response for a ranked search request.
type SearchResponse struct {
	Results []*SearchResult `json:"results"`
	// Total is the number of matches before pagination.
	Total        int    `json:"total"`
	QueryTime    int64  `json:"query_time_ms"`
	IndexVersion uint64 `json:"index_version"`
}

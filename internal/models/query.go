package models

// Order selects result ordering when no keyword ranking applies.
type Order string

const (
	// OrderNew orders by creation time, newest first.
	OrderNew Order = "new"
	// OrderTitle orders by title ascending, case-insensitive.
	OrderTitle Order = "title"
)

// ListQuery filters a store-level listing. Keyword matches case-insensitively
// against title, description, and tags with substring semantics.
type ListQuery struct {
	Keyword string
	Tag     string
	Order   Order
}

// SearchQuery is a ranked search request against the poster index.
type SearchQuery struct {
	Keyword string `json:"keyword,omitempty"`
	Tag     string `json:"tag,omitempty"`
	// Categories keeps posters whose tag string contains any entry (substring,
	// case-insensitive).
	Categories []string `json:"categories,omitempty"`
	// Statuses filters by derived status relative to ReferenceDate.
	Statuses []Status `json:"statuses,omitempty"`
	// ReferenceDate is an ISO-8601 date; empty means today.
	ReferenceDate string `json:"reference_date,omitempty"`
	Order         Order  `json:"order,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// Validate normalizes limit, offset, and order in place. A non-positive
// defaultLimit falls back to 24; a non-positive maxLimit means no cap.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if defaultLimit <= 0 {
		defaultLimit = 24
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Order == "" {
		q.Order = OrderNew
	}
	return nil
}

// Profile describes a user for profile-based recommendation.
type Profile struct {
	Name                string   `json:"name,omitempty"`
	AgeGroup            string   `json:"age_group,omitempty"`
	Region              string   `json:"region,omitempty"`
	Interests           []string `json:"interests,omitempty"`
	PreferredCategories []string `json:"preferred_categories,omitempty"`
	Statuses            []Status `json:"statuses,omitempty"`
	Period              Period   `json:"period,omitempty"`
	Extra               string   `json:"extra,omitempty"`
}

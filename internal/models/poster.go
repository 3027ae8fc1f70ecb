// Package models defines core data structures for posters, queries, and search results.
package models

import "time"

// Category is the closed set of primary poster categories.
type Category string

const (
	CategoryContest     Category = "Contest"
	CategoryRecruitment Category = "Recruitment"
	CategoryFunding     Category = "Funding"
	CategoryCareer      Category = "Career"
	CategoryEvent       Category = "Event"
	CategoryOther       Category = "Other"
)

// Categories lists all valid categories in display order.
var Categories = []Category{
	CategoryContest,
	CategoryRecruitment,
	CategoryFunding,
	CategoryCareer,
	CategoryEvent,
	CategoryOther,
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Target describes who a poster is aimed at.
type Target struct {
	AgeGroup   string   `json:"age,omitempty"`
	Region     string   `json:"region,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

// Period is a declared date range. Dates are ISO-8601 (YYYY-MM-DD) strings;
// either or both may be empty when unknown.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// PosterInput holds the caller-supplied fields of a poster, used both for
// creation and for category prediction before a record exists.
type PosterInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Category      Category `json:"category,omitempty"`
	Subcategories []string `json:"subcategories,omitempty"`
	Hosts         []string `json:"hosts,omitempty"`
	Target        Target   `json:"target,omitempty"`
	Period        Period   `json:"period,omitempty"`
}

// Poster is a stored poster record. ID and CreatedAt are assigned once at
// insertion; ImagePath points at the record's image asset.
type Poster struct {
	PosterInput
	ID        string    `json:"id"`
	ImagePath string    `json:"image_path"`
	CreatedAt time.Time `json:"created_at"`
}

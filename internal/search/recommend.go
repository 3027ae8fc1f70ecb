package search

import (
	"strings"

	"github.com/po-you/poyou/internal/models"
)

// recommendLimit caps profile-based recommendation results.
const recommendLimit = 25

// ProfileQuery synthesizes a ranked search query from a user profile:
// interests joined as the keyword, the first interest as the tag filter, the
// preferred categories and statuses carried through.
func ProfileQuery(p *models.Profile) *models.SearchQuery {
	q := &models.SearchQuery{
		Keyword:    strings.Join(p.Interests, " "),
		Categories: p.PreferredCategories,
		Statuses:   p.Statuses,
		Order:      models.OrderNew,
		Limit:      recommendLimit,
	}
	if len(p.Interests) > 0 {
		q.Tag = strings.ToLower(p.Interests[0])
	}
	return q
}

// ProfileInput converts a profile into classifier candidate fields, used to
// predict a category when the profile names no preferred categories.
func ProfileInput(p *models.Profile) *models.PosterInput {
	desc := append([]string{}, p.Interests...)
	if p.Extra != "" {
		desc = append(desc, p.Extra)
	}
	return &models.PosterInput{
		Title:         strings.TrimSpace(strings.Join([]string{p.Name, p.AgeGroup, p.Region}, " ")),
		Description:   strings.Join(desc, " "),
		Subcategories: p.Interests,
		Target: models.Target{
			AgeGroup: p.AgeGroup,
			Region:   p.Region,
		},
		Period: p.Period,
	}
}

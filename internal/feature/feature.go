// Package feature normalizes structured poster fields into searchable text.
//
// Heterogeneous field shapes (scalars, sequences, nested sub-records) are
// flattened here so the search index and the classifier only ever see plain
// text.
package feature

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/po-you/poyou/internal/models"
)

// BuildSearchText concatenates the flattened textual content of a poster's
// fields in fixed order: title, description, subcategories, hosts, target,
// period. Runs of whitespace collapse to a single space. Deterministic and
// order-stable for reproducible vectorization.
func BuildSearchText(in *models.PosterInput) string {
	parts := []string{
		in.Title,
		in.Description,
		joinSeq(in.Subcategories),
		joinSeq(in.Hosts),
		joinSeq([]string{in.Target.AgeGroup, in.Target.Region, joinSeq(in.Target.Conditions)}),
		joinSeq([]string{in.Period.Start, in.Period.End}),
	}
	return Normalize(strings.Join(parts, " "))
}

// BuildTagString returns the lower-cased, comma-joined, de-duplicated,
// alphabetically sorted union of category, subcategories, target conditions,
// and hosts. Used for tag-filter matching.
func BuildTagString(in *models.PosterInput) string {
	seen := make(map[string]bool)
	var tags []string
	add := func(s string) {
		s = strings.ToLower(Normalize(s))
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		tags = append(tags, s)
	}
	add(string(in.Category))
	for _, s := range in.Subcategories {
		add(s)
	}
	for _, s := range in.Target.Conditions {
		add(s)
	}
	for _, s := range in.Hosts {
		add(s)
	}
	sort.Strings(tags)
	return strings.Join(tags, ",")
}

// Normalize applies NFC composition and collapses whitespace runs to a single
// space, trimming the ends. NFC keeps decomposed Hangul/Latin input from
// splitting tokens the vectorizer fitted in composed form.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func joinSeq(values []string) string {
	var nonEmpty []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}
	return strings.Join(nonEmpty, " ")
}

package classify

import (
	"math"
	"strings"
)

// CharVectorizer holds a fitted character n-gram TF-IDF vocabulary. N-grams
// are taken from space-padded words (word-boundary aware), so terms never
// span word breaks. Serialized as the vectorizer artifact.
type CharVectorizer struct {
	NgramMin int            `json:"ngram_min"`
	NgramMax int            `json:"ngram_max"`
	Vocab    map[string]int `json:"vocab"`
	IDF      []float64      `json:"idf"`
}

// charNgrams emits all n-grams of the padded words of text for n in
// [nmin, nmax]. A word shorter than n contributes its whole padded form once.
func charNgrams(text string, nmin, nmax int) []string {
	var grams []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		padded := []rune(" " + word + " ")
		for n := nmin; n <= nmax; n++ {
			if len(padded) <= n {
				grams = append(grams, string(padded))
				break
			}
			for off := 0; off+n <= len(padded); off++ {
				grams = append(grams, string(padded[off:off+n]))
			}
		}
	}
	return grams
}

// Transform vectorizes text into l2-normalized TF-IDF weights over the
// fitted vocabulary.
func (v *CharVectorizer) Transform(text string) map[int]float64 {
	counts := make(map[int]float64)
	for _, g := range charNgrams(text, v.NgramMin, v.NgramMax) {
		if idx, ok := v.Vocab[g]; ok {
			counts[idx]++
		}
	}
	var norm float64
	for idx, tf := range counts {
		w := tf * v.IDF[idx]
		counts[idx] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			counts[idx] /= norm
		}
	}
	return counts
}

// fitCharVectorizer builds the vocabulary over corpus, keeping n-grams with
// document frequency in [minDF, maxDF*len(corpus)], with smoothed idf.
func fitCharVectorizer(corpus []string, nmin, nmax, minDF int, maxDF float64) *CharVectorizer {
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, g := range charNgrams(doc, nmin, nmax) {
			if !seen[g] {
				seen[g] = true
				df[g]++
			}
		}
	}
	n := len(corpus)
	maxCount := int(maxDF * float64(n))
	vocab := make(map[string]int)
	var idf []float64
	for g, d := range df {
		if d < minDF || d > maxCount {
			continue
		}
		vocab[g] = len(idf)
		idf = append(idf, math.Log((1+float64(n))/(1+float64(d)))+1)
	}
	return &CharVectorizer{NgramMin: nmin, NgramMax: nmax, Vocab: vocab, IDF: idf}
}

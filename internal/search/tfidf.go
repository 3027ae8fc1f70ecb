// Package search builds a TF-IDF vector space over poster search text and
// answers filtered, ranked queries against it.
package search

import (
	"math"
	"strings"
	"unicode"
)

// SparseVec is an l2-normalized sparse vector keyed by vocabulary index.
type SparseVec map[int]float64

// tokenize lower-cases s and splits it into letter/digit runs, keeping tokens
// of at least two runes. Unigram, default word tokenization.
func tokenize(s string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			if t := b.String(); len([]rune(t)) >= 2 {
				tokens = append(tokens, t)
			}
			b.Reset()
		}
	}
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// Vectorizer holds a fitted unigram TF-IDF vocabulary.
type Vectorizer struct {
	vocab map[string]int
	idf   []float64
}

// FitVectorizer fits vocabulary and smoothed idf weights over the corpus.
func FitVectorizer(corpus []string) *Vectorizer {
	vocab := make(map[string]int)
	var df []int
	for _, doc := range corpus {
		seen := make(map[int]bool)
		for _, tok := range tokenize(doc) {
			idx, ok := vocab[tok]
			if !ok {
				idx = len(vocab)
				vocab[tok] = idx
				df = append(df, 0)
			}
			if !seen[idx] {
				seen[idx] = true
				df[idx]++
			}
		}
	}
	n := float64(len(corpus))
	idf := make([]float64, len(df))
	for i, d := range df {
		idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}
	return &Vectorizer{vocab: vocab, idf: idf}
}

// Transform vectorizes text against the fitted vocabulary and l2-normalizes
// the result. Tokens outside the vocabulary are ignored.
func (v *Vectorizer) Transform(text string) SparseVec {
	counts := make(map[int]float64)
	for _, tok := range tokenize(text) {
		if idx, ok := v.vocab[tok]; ok {
			counts[idx]++
		}
	}
	var norm float64
	for idx, tf := range counts {
		w := tf * v.idf[idx]
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

// VocabSize returns the number of fitted terms.
func (v *Vectorizer) VocabSize() int { return len(v.vocab) }

// Cosine returns the cosine similarity of two normalized sparse vectors.
func Cosine(a, b SparseVec) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for idx, w := range a {
		dot += w * b[idx]
	}
	return dot
}

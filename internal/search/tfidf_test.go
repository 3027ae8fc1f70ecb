package search

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"AI Hackathon Seoul", []string{"ai", "hackathon", "seoul"}},
		{"comma,separated  words", []string{"comma", "separated", "words"}},
		{"x y z", nil}, // single-rune tokens dropped
		{"", nil},
		{"2025-03-01", []string{"2025", "03", "01"}},
	}
	for _, tt := range tests {
		got := tokenize(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("tokenize(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestVectorizerTransformNormalized(t *testing.T) {
	v := FitVectorizer([]string{"ai hackathon seoul", "cooking contest", "ai research grant"})
	vec := v.Transform("ai hackathon seoul")
	var norm float64
	for _, w := range vec {
		norm += w * w
	}
	if math.Abs(norm-1.0) > 1e-9 {
		t.Errorf("vector not l2-normalized: %f", norm)
	}
}

func TestVectorizerUnknownTokensIgnored(t *testing.T) {
	v := FitVectorizer([]string{"ai hackathon"})
	vec := v.Transform("quantum blockchain")
	if len(vec) != 0 {
		t.Errorf("expected empty vector for out-of-vocabulary text, got %v", vec)
	}
}

func TestVectorizerRareTermsWeighHigher(t *testing.T) {
	// "common" appears in every document, "rare" in one; idf must separate them.
	v := FitVectorizer([]string{"common rare", "common other", "common more"})
	vec := v.Transform("common rare")
	var common, rare float64
	for tok, idx := range v.vocab {
		switch tok {
		case "common":
			common = vec[idx]
		case "rare":
			rare = vec[idx]
		}
	}
	if rare <= common {
		t.Errorf("rare term weight %f should exceed common term weight %f", rare, common)
	}
}

func TestCosine(t *testing.T) {
	v := FitVectorizer([]string{"ai hackathon seoul", "cooking contest"})
	a := v.Transform("ai hackathon seoul")
	if sim := Cosine(a, a); math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("self similarity = %f, want 1", sim)
	}
	b := v.Transform("cooking contest")
	if sim := Cosine(a, b); sim != 0 {
		t.Errorf("disjoint similarity = %f, want 0", sim)
	}
	if sim := Cosine(a, SparseVec{}); sim != 0 {
		t.Errorf("empty vector similarity = %f, want 0", sim)
	}
}

func TestFitVectorizerEmptyCorpus(t *testing.T) {
	v := FitVectorizer(nil)
	if v.VocabSize() != 0 {
		t.Errorf("expected empty vocabulary, got %d", v.VocabSize())
	}
	if vec := v.Transform("anything"); len(vec) != 0 {
		t.Errorf("expected empty vector, got %v", vec)
	}
}

// Package integration exercises the full poster pipeline against real
// storage on disk.
package integration

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/po-you/poyou/internal/classify"
	"github.com/po-you/poyou/internal/models"
	"github.com/po-you/poyou/internal/search"
	"github.com/po-you/poyou/internal/store"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestIntegration_StoreSearchClassify(t *testing.T) {
	logger := zap.NewNop()
	st, err := store.NewDiskStore(t.TempDir(), logger)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	engine := search.NewEngine(st, 0, logger)
	ctx := context.Background()

	seed := []models.PosterInput{
		{Title: "AI hackathon with grand prize", Category: models.CategoryContest, Subcategories: []string{"AI"}},
		{Title: "robotics competition hackathon prize", Category: models.CategoryContest},
		{Title: "club recruiting members join us", Category: models.CategoryRecruitment},
		{Title: "band recruiting members join rehearsals", Category: models.CategoryRecruitment},
		{Title: "research grant funding support", Category: models.CategoryFunding},
		{Title: "startup grant funding support teams", Category: models.CategoryFunding},
	}
	for i := range seed {
		if _, err := st.Create(ctx, &seed[i], pngBytes, ".png"); err != nil {
			t.Fatal(err)
		}
	}
	engine.Invalidate()

	// Ranked keyword search over the seeded corpus.
	resp, err := engine.Search(ctx, &models.SearchQuery{Keyword: "hackathon prize"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Fatalf("keyword search total = %d, want 2", resp.Total)
	}
	for _, res := range resp.Results {
		if res.Poster.Category != models.CategoryContest {
			t.Errorf("unexpected match: %s", res.Poster.Title)
		}
	}

	// Train the classifier from what the store holds, then predict.
	samples, err := classify.CollectSamples(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != len(seed) {
		t.Fatalf("collected %d samples, want %d", len(samples), len(seed))
	}
	artifactDir := t.TempDir()
	if err := classify.Train(samples, artifactDir, classify.DefaultTrainConfig(), logger); err != nil {
		t.Fatal(err)
	}
	svc := classify.NewService(artifactDir, logger)
	if !svc.Available() {
		t.Fatal("trained classifier should be available")
	}
	got := svc.PredictCategory(&models.PosterInput{Title: "apply for the grant funding support"})
	if got != models.CategoryFunding {
		t.Errorf("prediction = %q, want Funding", got)
	}

	// Deleting a poster and invalidating shrinks the index.
	posters, err := st.List(ctx, &models.ListQuery{Tag: "funding"})
	if err != nil {
		t.Fatal(err)
	}
	if len(posters) != 2 {
		t.Fatalf("funding posters = %d, want 2", len(posters))
	}
	if err := st.Delete(ctx, posters[0].ID); err != nil {
		t.Fatal(err)
	}
	engine.Invalidate()
	resp, err = engine.Search(ctx, &models.SearchQuery{Tag: "funding"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 {
		t.Errorf("after delete, funding matches = %d, want 1", resp.Total)
	}
}

package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/po-you/poyou/internal/feature"
	"github.com/po-you/poyou/internal/models"
	"github.com/po-you/poyou/internal/store"
)

// Sample pairs search text with a known category label for training.
type Sample struct {
	Text  string
	Label models.Category
}

// TrainConfig holds the classifier training hyperparameters.
type TrainConfig struct {
	NgramMin int
	NgramMax int
	// MinDF drops n-grams seen in fewer documents.
	MinDF int
	// MaxDF drops n-grams seen in more than this fraction of documents.
	MaxDF  float64
	C      float64
	Epochs int
}

// DefaultTrainConfig returns the production hyperparameters: char n-grams of
// length 3-5, document frequency bounds [2, 95%], C=0.5.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{NgramMin: 3, NgramMax: 5, MinDF: 2, MaxDF: 0.95, C: 0.5, Epochs: 40}
}

// CollectSamples builds training samples from every stored poster carrying a
// valid category label and non-empty search text.
func CollectSamples(ctx context.Context, st store.Store) ([]Sample, error) {
	posters, err := st.List(ctx, &models.ListQuery{})
	if err != nil {
		return nil, err
	}
	var samples []Sample
	for _, p := range posters {
		if !p.Category.Valid() {
			continue
		}
		text := feature.BuildSearchText(&p.PosterInput)
		if text == "" {
			continue
		}
		samples = append(samples, Sample{Text: text, Label: p.Category})
	}
	return samples, nil
}

// Train fits the char n-gram TF-IDF pipeline and one-vs-rest linear
// classifiers over samples, then writes the artifact set to dir. Training is
// deterministic for a given sample order.
func Train(samples []Sample, dir string, cfg TrainConfig, logger *zap.Logger) error {
	var (
		texts  []string
		labels []string
		counts = make(map[string]int)
	)
	for _, s := range samples {
		if !s.Label.Valid() || s.Text == "" {
			continue
		}
		texts = append(texts, s.Text)
		labels = append(labels, string(s.Label))
		counts[string(s.Label)]++
	}
	if len(counts) < 2 {
		return fmt.Errorf("need samples from at least 2 categories, got %d", len(counts))
	}

	classes := make([]string, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	vec := fitCharVectorizer(texts, cfg.NgramMin, cfg.NgramMax, cfg.MinDF, cfg.MaxDF)
	if len(vec.Vocab) == 0 {
		return fmt.Errorf("vocabulary empty after document-frequency pruning; need more training data")
	}
	features := make([]map[int]float64, len(texts))
	for i, t := range texts {
		features[i] = vec.Transform(t)
	}

	// Class-balanced sample weights.
	n := len(texts)
	weight := make([]float64, n)
	for i, l := range labels {
		weight[i] = float64(n) / (float64(len(classes)) * float64(counts[l]))
	}

	logger.Info("training category classifier",
		zap.Int("samples", n), zap.Int("classes", len(classes)), zap.Int("vocab", len(vec.Vocab)))

	var rows [][]float64
	var intercepts []float64
	if len(classes) == 2 {
		// Single decision function, positive class second as in sorted order.
		w, b := fitBinary(features, labels, weight, classes[1], len(vec.Vocab), cfg)
		rows, intercepts = [][]float64{w}, []float64{b}
	} else {
		for _, c := range classes {
			w, b := fitBinary(features, labels, weight, c, len(vec.Vocab), cfg)
			rows = append(rows, w)
			intercepts = append(intercepts, b)
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	if err := writeArtifact(filepath.Join(dir, vectorizerFile), vec); err != nil {
		return err
	}
	if err := writeArtifact(filepath.Join(dir, classifierFile), classifierArtifact{Weights: rows, Intercepts: intercepts}); err != nil {
		return err
	}
	if err := writeArtifact(filepath.Join(dir, labelsFile), labelArtifact{Classes: classes}); err != nil {
		return err
	}
	logger.Info("classifier artifacts written", zap.String("dir", dir))
	return nil
}

// fitBinary trains one-vs-rest hinge-loss SGD for the positive class.
func fitBinary(features []map[int]float64, labels []string, weight []float64, positive string, dim int, cfg TrainConfig) ([]float64, float64) {
	n := len(features)
	y := make([]float64, n)
	for i, l := range labels {
		if l == positive {
			y[i] = 1
		} else {
			y[i] = -1
		}
	}

	w := make([]float64, dim)
	var b float64
	lambda := 1.0 / (cfg.C * float64(n))
	rng := rand.New(rand.NewSource(42))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	t := 0
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, i := range order {
			t++
			eta := 1.0 / (lambda * float64(t))
			x := features[i]
			margin := b
			for idx, v := range x {
				margin += w[idx] * v
			}
			margin *= y[i]

			scale := 1.0 - eta*lambda
			if scale < 0 {
				scale = 0
			}
			for idx := range w {
				w[idx] *= scale
			}
			if margin < 1 {
				step := eta * weight[i] * y[i]
				for idx, v := range x {
					w[idx] += step * v
				}
				b += step
			}
		}
	}
	return w, b
}

func writeArtifact(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

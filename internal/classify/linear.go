package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact filenames inside the artifact directory.
const (
	vectorizerFile = "vectorizer.json"
	classifierFile = "classifier.json"
	labelsFile     = "labels.json"
	onnxModelFile  = "category_classifier.onnx"
)

// classifierArtifact is the serialized linear model: one weight row and
// intercept per class (a single row for a binary model).
type classifierArtifact struct {
	Weights    [][]float64 `json:"weights"`
	Intercepts []float64   `json:"intercepts"`
}

// labelArtifact maps class indices to labels. Either key is accepted.
type labelArtifact struct {
	Classes   []string `json:"classes"`
	Idx2Label []string `json:"idx2label"`
}

func (l *labelArtifact) labels() []string {
	if len(l.Classes) > 0 {
		return l.Classes
	}
	return l.Idx2Label
}

// LinearClassifier scores one-vs-rest linear decision functions over char
// n-gram TF-IDF features and returns the argmax label.
type LinearClassifier struct {
	vec        *CharVectorizer
	weights    [][]float64
	intercepts []float64
	labels     []string
}

// LoadLinear reads the three-part artifact set from dir. Missing files map
// to ErrModelUnavailable; present but inconsistent artifacts are hard errors.
func LoadLinear(dir string) (*LinearClassifier, error) {
	vec, err := loadVectorizer(dir)
	if err != nil {
		return nil, err
	}
	var clf classifierArtifact
	if err := readArtifact(filepath.Join(dir, classifierFile), &clf); err != nil {
		return nil, err
	}
	labels, err := loadLabels(dir)
	if err != nil {
		return nil, err
	}

	if len(clf.Weights) == 0 || len(clf.Weights) != len(clf.Intercepts) {
		return nil, fmt.Errorf("classifier artifact malformed: %d weight rows, %d intercepts", len(clf.Weights), len(clf.Intercepts))
	}
	if len(clf.Weights) > 1 && len(clf.Weights) != len(labels) {
		return nil, fmt.Errorf("classifier artifact malformed: %d weight rows for %d labels", len(clf.Weights), len(labels))
	}
	if len(clf.Weights) == 1 && len(labels) != 2 {
		return nil, fmt.Errorf("binary classifier artifact needs 2 labels, got %d", len(labels))
	}
	for i, row := range clf.Weights {
		if len(row) != len(vec.IDF) {
			return nil, fmt.Errorf("weight row %d has %d features, vectorizer has %d", i, len(row), len(vec.IDF))
		}
	}
	return &LinearClassifier{vec: vec, weights: clf.Weights, intercepts: clf.Intercepts, labels: labels}, nil
}

// Predict returns the label with the highest decision score.
func (c *LinearClassifier) Predict(text string) (string, error) {
	x := c.vec.Transform(text)
	if len(c.weights) == 1 {
		if decision(c.weights[0], c.intercepts[0], x) > 0 {
			return c.labels[1], nil
		}
		return c.labels[0], nil
	}
	best := 0
	bestScore := decision(c.weights[0], c.intercepts[0], x)
	for k := 1; k < len(c.weights); k++ {
		if score := decision(c.weights[k], c.intercepts[k], x); score > bestScore {
			best, bestScore = k, score
		}
	}
	return c.labels[best], nil
}

func decision(w []float64, b float64, x map[int]float64) float64 {
	score := b
	for idx, v := range x {
		score += w[idx] * v
	}
	return score
}

func loadVectorizer(dir string) (*CharVectorizer, error) {
	var vec CharVectorizer
	if err := readArtifact(filepath.Join(dir, vectorizerFile), &vec); err != nil {
		return nil, err
	}
	if len(vec.Vocab) != len(vec.IDF) {
		return nil, fmt.Errorf("vectorizer artifact malformed: %d vocab terms, %d idf weights", len(vec.Vocab), len(vec.IDF))
	}
	if vec.NgramMin <= 0 || vec.NgramMax < vec.NgramMin {
		return nil, fmt.Errorf("vectorizer artifact malformed: ngram range %d-%d", vec.NgramMin, vec.NgramMax)
	}
	return &vec, nil
}

func loadLabels(dir string) ([]string, error) {
	var la labelArtifact
	if err := readArtifact(filepath.Join(dir, labelsFile), &la); err != nil {
		return nil, err
	}
	labels := la.labels()
	if len(labels) == 0 {
		return nil, fmt.Errorf("label artifact has no classes")
	}
	return labels, nil
}

func readArtifact(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", filepath.Base(path), ErrModelUnavailable)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Package classify predicts a poster's category from its text features.
//
// All failure modes funnel through one fallback path: empty text, missing
// model artifacts, and inference errors each yield CategoryOther. Poster
// creation is never blocked by the classifier.
package classify

import (
	"errors"

	"go.uber.org/zap"

	"github.com/po-you/poyou/internal/feature"
	"github.com/po-you/poyou/internal/models"
)

// ErrModelUnavailable indicates no trained classifier artifacts were found.
var ErrModelUnavailable = errors.New("classifier model unavailable")

// Classifier predicts a category label from plain search text.
type Classifier interface {
	Predict(text string) (string, error)
}

// Service wraps a classifier with the single fallback policy.
type Service struct {
	clf    Classifier
	logger *zap.Logger
}

// NewService loads a classifier from artifactDir: first the three-part
// artifact set (classifier + vectorizer + label index), then the serialized
// ONNX pipeline. With neither available the service degrades to always
// answering CategoryOther.
func NewService(artifactDir string, logger *zap.Logger) *Service {
	clf, err := LoadLinear(artifactDir)
	if err == nil {
		logger.Info("category classifier loaded", zap.String("dir", artifactDir))
		return &Service{clf: clf, logger: logger}
	}
	if !errors.Is(err, ErrModelUnavailable) {
		logger.Warn("classifier artifacts unreadable", zap.String("dir", artifactDir), zap.Error(err))
	}

	onnx, onnxErr := NewONNXClassifier(artifactDir)
	if onnxErr == nil {
		logger.Info("ONNX category classifier loaded", zap.String("dir", artifactDir))
		return &Service{clf: onnx, logger: logger}
	}
	if !errors.Is(onnxErr, ErrModelUnavailable) {
		logger.Warn("ONNX classifier unavailable", zap.Error(onnxErr))
	}

	logger.Info("no trained classifier; predictions default to Other")
	return &Service{logger: logger}
}

// Available reports whether a trained model is loaded.
func (s *Service) Available() bool { return s.clf != nil }

// PredictCategory builds search text from the candidate fields and predicts
// a category. Never fails: empty text, a missing model, an inference error,
// or an out-of-enumeration label all map to CategoryOther.
func (s *Service) PredictCategory(in *models.PosterInput) models.Category {
	text := feature.BuildSearchText(in)
	if text == "" {
		return models.CategoryOther
	}
	if s.clf == nil {
		return models.CategoryOther
	}
	label, err := s.clf.Predict(text)
	if err != nil {
		s.logger.Warn("category inference failed", zap.Error(err))
		return models.CategoryOther
	}
	c := models.Category(label)
	if !c.Valid() {
		s.logger.Warn("classifier produced unknown label", zap.String("label", label))
		return models.CategoryOther
	}
	return c
}

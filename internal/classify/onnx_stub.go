//go:build !cgo
// +build !cgo

package classify

import "fmt"

// ONNXClassifier stub type when built without CGO (see onnx.go for the real
// implementation).
type ONNXClassifier struct{}

// NewONNXClassifier reports the model as unavailable when built without CGO
// so the service degrades to the Other fallback instead of failing startup.
func NewONNXClassifier(_ string) (*ONNXClassifier, error) {
	return nil, fmt.Errorf("ONNX classifier requires CGO: %w", ErrModelUnavailable)
}

// Predict is never reachable in non-CGO builds.
func (c *ONNXClassifier) Predict(_ string) (string, error) {
	return "", ErrModelUnavailable
}

// Close is a no-op for the stub.
func (c *ONNXClassifier) Close() error { return nil }

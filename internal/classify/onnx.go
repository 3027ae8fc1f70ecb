//go:build cgo
// +build cgo

package classify

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXClassifier runs a serialized classification pipeline through ONNX
// Runtime: char n-gram TF-IDF features in, per-class scores out. Requires
// CGO and the onnxruntime shared library.
type ONNXClassifier struct {
	session *ort.AdvancedSession
	vec     *CharVectorizer
	labels  []string
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

// NewONNXClassifier loads the ONNX model from dir alongside the vectorizer
// and label artifacts. A missing model file maps to ErrModelUnavailable.
func NewONNXClassifier(dir string) (*ONNXClassifier, error) {
	modelPath := filepath.Join(dir, onnxModelFile)
	if _, err := os.Stat(modelPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", onnxModelFile, ErrModelUnavailable)
		}
		return nil, fmt.Errorf("stat %s: %w", modelPath, err)
	}
	vec, err := loadVectorizer(dir)
	if err != nil {
		return nil, err
	}
	labels, err := loadLabels(dir)
	if err != nil {
		return nil, err
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	dim := len(vec.IDF)
	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(dim)), make([]float32, dim))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(labels))), make([]float32, len(labels)))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input"},
		[]string{"scores"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXClassifier{
		session:      session,
		vec:          vec,
		labels:       labels,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Predict vectorizes text, runs the session, and returns the argmax label.
func (c *ONNXClassifier) Predict(text string) (string, error) {
	x := c.vec.Transform(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	input := c.inputTensor.GetData()
	for i := range input {
		input[i] = 0
	}
	for idx, v := range x {
		input[idx] = float32(v)
	}

	if err := c.session.Run(); err != nil {
		return "", fmt.Errorf("inference failed: %w", err)
	}

	scores := c.outputTensor.GetData()
	best := 0
	for k := 1; k < len(c.labels) && k < len(scores); k++ {
		if scores[k] > scores[best] {
			best = k
		}
	}
	return c.labels[best], nil
}

// Close destroys the session and tensors.
func (c *ONNXClassifier) Close() error {
	var err error
	if c.session != nil {
		err = c.session.Destroy()
		c.session = nil
	}
	if c.inputTensor != nil {
		_ = c.inputTensor.Destroy()
		c.inputTensor = nil
	}
	if c.outputTensor != nil {
		_ = c.outputTensor.Destroy()
		c.outputTensor = nil
	}
	return err
}

package inference

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrClassifierUnavailable signals the designed degraded mode: the caller
// falls back to heuristic-only decisioning instead of crashing.
var ErrClassifierUnavailable = errors.New("inference: classifier unavailable")

// Prediction is the classifier's verdict over one feature vector.
type Prediction struct {
	IsPhishing bool
	// Confidence is the probability of the predicted class, read from the
	// [p_legit, p_phish] pair.
	Confidence float64
	PhishProb  float64
}

// Predictor wraps the ONNX phishing classifier together with the feature
// order it was trained on. The order file and the model are one versioned
// artifact; they ship and load together.
type Predictor struct {
	session      *ort.DynamicAdvancedSession
	featureOrder []string
}

func InitONNX(libraryPath string) error {
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize onnx environment: %w", err)
	}
	return nil
}

func CleanupONNX() {
	ort.DestroyEnvironment()
}

func NewPredictor(modelDir string) (*Predictor, error) {
	p := &Predictor{}

	// 1. Load the trained feature order
	file, err := os.Open(modelDir + "/feature_names.txt")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if name := scanner.Text(); name != "" {
			p.featureOrder = append(p.featureOrder, name)
		}
	}
	if len(p.featureOrder) == 0 {
		return nil, fmt.Errorf("%w: empty feature_names.txt", ErrClassifierUnavailable)
	}

	// 2. Load the model. Probabilities come from the second output so the
	// decision layer can apply confidence thresholds.
	inputNames := []string{"float_input"}
	outputNames := []string{"output_label", "output_probability"}

	p.session, err = ort.NewDynamicAdvancedSession(
		modelDir+"/phishing_classifier.onnx",
		inputNames,
		outputNames,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}

	return p, nil
}

// Predict runs the classifier over an ordered vector. A length mismatch
// against the trained arity is version skew: recovered by truncation or
// zero-padding, warned about, never silently ignored.
func (p *Predictor) Predict(vector []float32) (Prediction, error) {
	if p == nil || p.session == nil {
		return Prediction{}, ErrClassifierUnavailable
	}

	vector = p.fitDimensions(vector)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	inputShape := ort.NewShape(1, int64(len(vector)))
	inputTensor, err := ort.NewTensor(inputShape, vector)
	if err != nil {
		return Prediction{}, fmt.Errorf("input tensor creation failed: %w", err)
	}
	defer inputTensor.Destroy()

	labelTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return Prediction{}, fmt.Errorf("label tensor creation failed: %w", err)
	}
	defer labelTensor.Destroy()

	probTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		return Prediction{}, fmt.Errorf("probability tensor creation failed: %w", err)
	}
	defer probTensor.Destroy()

	err = p.session.Run(
		[]ort.Value{inputTensor},
		[]ort.Value{labelTensor, probTensor},
	)
	if err != nil {
		return Prediction{}, fmt.Errorf("inference failed: %w", err)
	}

	labels := labelTensor.GetData()
	probs := probTensor.GetData()

	pred := Prediction{IsPhishing: labels[0] == 1}
	if len(probs) >= 2 {
		pred.PhishProb = float64(probs[1])
		if pred.IsPhishing {
			pred.Confidence = float64(probs[1])
		} else {
			pred.Confidence = float64(probs[0])
		}
	}
	return pred, nil
}

// fitDimensions reconciles the vector length with the trained arity.
func (p *Predictor) fitDimensions(vector []float32) []float32 {
	expected := len(p.featureOrder)
	switch {
	case len(vector) == expected:
		return vector
	case len(vector) > expected:
		log.Printf("[inference] WARNING: vector has %d features, model expects %d; truncating extras", len(vector), expected)
		return vector[:expected]
	default:
		log.Printf("[inference] WARNING: vector has %d features, model expects %d; zero-padding", len(vector), expected)
		padded := make([]float32, expected)
		copy(padded, vector)
		return padded
	}
}

func (p *Predictor) GetFeatureOrder() []string {
	return p.featureOrder
}

func (p *Predictor) Close() {
	if p.session != nil {
		p.session.Destroy()
	}
}

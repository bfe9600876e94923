package tagger

import (
	"fmt"
	"image"
)

// Runner is the inference engine: it maps one input tensor to one probability
// vector aligned with the catalog. Implementations pick the runtime; tests
// substitute a deterministic stub.
type Runner interface {
	// InputSize reports the square spatial dimension the model expects.
	InputSize() int
	// Run executes inference. The returned vector must carry one probability
	// per catalog entry, in catalog order.
	Run(t *Tensor) ([]float32, error)
}

// Tagger runs the classification pipeline against a fixed catalog and engine.
// It holds no per-request state and is safe for concurrent use as long as the
// Runner is.
type Tagger struct {
	catalog *Catalog
	runner  Runner
	opts    Options
}

func New(catalog *Catalog, runner Runner, opts Options) *Tagger {
	return &Tagger{catalog: catalog, runner: runner, opts: opts}
}

// Predict classifies one image: normalize, infer, zip with the catalog and
// threshold per category.
func (t *Tagger) Predict(img image.Image) (*Result, error) {
	tensor, err := Normalize(img, t.runner.InputSize())
	if err != nil {
		return nil, err
	}
	probs, err := t.runner.Run(tensor)
	if err != nil {
		return nil, err
	}
	preds, err := t.Zip(probs)
	if err != nil {
		return nil, err
	}
	return Classify(preds, t.opts)
}

// Zip pairs a probability vector with the catalog, position for position.
// There is no reordering or key lookup; the engine's output order is the
// catalog order by contract.
func (t *Tagger) Zip(probs []float32) ([]Prediction, error) {
	if len(probs) != t.catalog.Len() {
		return nil, fmt.Errorf("%w: %d probabilities for %d catalog tags", ErrCatalogMismatch, len(probs), t.catalog.Len())
	}
	preds := make([]Prediction, len(probs))
	for i, tag := range t.catalog.Tags() {
		preds[i] = Prediction{Tag: tag, Score: probs[i]}
	}
	return preds, nil
}

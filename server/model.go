package server

import (
	"sync"

	"github.com/krau/wdtagger/tagger"
	ort "github.com/yalue/onnxruntime_go"
)

// Model is one ONNX session with preallocated input and output tensors.
// A session must not run concurrently, so models are checked out of the pool
// one request at a time.
type Model struct {
	session   *ort.AdvancedSession
	input     *ort.Tensor[float32]
	output    *ort.Tensor[float32]
	closeOnce sync.Once
}

// Close releases the session and its tensors. Safe to call more than once;
// the release happens exactly once.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.session.Destroy()
		m.input.Destroy()
		m.output.Destroy()
	})
}

// poolRunner implements tagger.Runner over a pool of sessions.
type poolRunner struct {
	pool chan *Model
	size int
}

func (r *poolRunner) InputSize() int { return r.size }

func (r *poolRunner) Run(t *tagger.Tensor) ([]float32, error) {
	m := <-r.pool
	defer func() { r.pool <- m }()

	copy(m.input.GetData(), t.Data)
	if err := m.session.Run(); err != nil {
		return nil, err
	}

	out := m.output.GetData()
	probs := make([]float32, len(out))
	copy(probs, out)
	return probs, nil
}

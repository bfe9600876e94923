package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/krau/wdtagger/config"
	"github.com/krau/wdtagger/tagger"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	modelPool chan *Model
	predictor *tagger.Tagger
)

// Init fetches the model and tag catalog when missing, loads the catalog and
// builds the session pool. The model's input spatial size is read from its
// metadata rather than configured.
func Init(ctx context.Context) error {
	cfg := config.C()
	modelPath := filepath.Join(cfg.ModelDir, cfg.ModelFileName)
	tagsPath := filepath.Join(cfg.ModelDir, cfg.ModelTagsName)

	if err := ensureFile(ctx, modelPath, cfg.ModelUrl); err != nil {
		return fmt.Errorf("failed to fetch model: %w", err)
	}
	if err := ensureFile(ctx, tagsPath, cfg.TagsUrl); err != nil {
		return fmt.Errorf("failed to fetch tag catalog: %w", err)
	}

	catalog, err := tagger.LoadCatalog(tagsPath)
	if err != nil {
		return fmt.Errorf("failed to load tag catalog: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("model declares no inputs or outputs")
	}
	// NHWC input: (batch, height, width, channels).
	dims := inputs[0].Dimensions
	if len(dims) != 4 {
		return fmt.Errorf("unexpected model input rank %d, want 4", len(dims))
	}
	inputSize := int(dims[1])
	if inputSize <= 0 {
		return fmt.Errorf("model reports non-positive input size %d", inputSize)
	}

	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	pool := make(chan *Model, poolSize)
	for i := 0; i < poolSize; i++ {
		m, err := newModel(modelPath, inputs[0].Name, outputs[0].Name, inputSize, catalog.Len())
		if err != nil {
			drainPool(pool)
			return err
		}
		pool <- m
	}

	modelPool = pool
	predictor = tagger.New(catalog, &poolRunner{pool: pool, size: inputSize}, tagger.Options{
		GeneralMCut:        cfg.GeneralMCut,
		CharacterMCut:      cfg.CharacterMCut,
		GeneralThreshold:   cfg.GeneralThreshold,
		CharacterThreshold: cfg.CharacterThreshold,
	})
	slog.Info("Model ready",
		slog.Int("input_size", inputSize),
		slog.Int("tags", catalog.Len()),
		slog.Int("sessions", poolSize))
	return nil
}

func newModel(modelPath, inputName, outputName string, inputSize, numTags int) (*Model, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	inputTensor, err := ort.NewTensor(
		ort.NewShape(1, int64(inputSize), int64(inputSize), 3),
		make([]float32, inputSize*inputSize*3))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numTags)))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputName},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		opts,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX Runtime session: %w", err)
	}

	return &Model{session: session, input: inputTensor, output: outputTensor}, nil
}

// Shutdown releases every pooled session. Call once, after the last request
// has finished.
func Shutdown() {
	if modelPool == nil {
		return
	}
	drainPool(modelPool)
	modelPool = nil
}

func drainPool(pool chan *Model) {
	for {
		select {
		case m := <-pool:
			m.Close()
		default:
			return
		}
	}
}

// ensureFile downloads url to path unless path already exists. The download
// goes through a temp file so a partial fetch never shadows a good one.
func ensureFile(ctx context.Context, path, url string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if url == "" {
		return fmt.Errorf("%s is missing and no download url is configured", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	slog.Info("Downloading", slog.String("url", url), slog.String("path", path))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s for %s", resp.Status, url)
	}

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

package equity

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/owulveryck/onnx-go"
	"github.com/owulveryck/onnx-go/backend/x/gorgonnx"
	"github.com/rs/zerolog/log"
	"gorgonia.org/tensor"

	"github.com/domino14/tetrizz/cache"
	"github.com/domino14/tetrizz/config"
	"github.com/domino14/tetrizz/game"
)

// ONNXModelTemplate holds the raw bytes of a model. Each ONNXEval builds
// its own graph from it, since a graph cannot run two inputs at once.
type ONNXModelTemplate struct {
	data []byte
}

// ONNXLoadFunc loads a model for a cache key of the form onnx:<path>.
func ONNXLoadFunc(cfg *config.Config, key string) (any, error) {
	path, ok := strings.CutPrefix(key, "onnx:")
	if !ok || path == "" {
		return nil, errors.New("onnxloadfunc - bad cache key: " + key)
	}
	bts, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ONNX model file: %w", err)
	}
	log.Debug().Str("path", path).Int("model-size", len(bts)).Msg("loaded-onnx-model")
	return &ONNXModelTemplate{data: bts}, nil
}

// ONNXEval scores placements with a learned model that takes the
// Features vector as a 1x19 float32 tensor and returns one value.
type ONNXEval struct {
	mu      sync.Mutex
	backend *gorgonnx.Graph
	model   *onnx.Model
	input   []float32
}

// NewInstance builds a runnable evaluator from the template.
func (t *ONNXModelTemplate) NewInstance() (*ONNXEval, error) {
	start := time.Now()
	defer func() {
		log.Debug().Int64("onnx_model_init_ms", time.Since(start).Milliseconds()).
			Msg("onnx model instance created")
	}()
	backend := gorgonnx.NewGraph()
	model := onnx.NewModel(backend)
	if err := model.UnmarshalBinary(t.data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ONNX model: %w", err)
	}
	return &ONNXEval{
		backend: backend,
		model:   model,
		input:   make([]float32, NumFeatures),
	}, nil
}

// LoadONNXEval returns a fresh evaluator for the model at path, reading the
// file through the object cache.
func LoadONNXEval(cfg *config.Config, path string) (*ONNXEval, error) {
	tmpl, err := cache.LoadAs[*ONNXModelTemplate](cfg, "onnx:"+path, ONNXLoadFunc)
	if err != nil {
		return nil, err
	}
	return tmpl.NewInstance()
}

// Eval runs the model once. Errors come from the backend.
func (e *ONNXEval) Eval(g *game.Game, info *game.PlacementInfo) (float64, error) {
	var f [NumFeatures]float64
	Features(g, info, &f)

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, v := range f {
		e.input[i] = float32(v)
	}
	t := tensor.New(tensor.WithShape(1, NumFeatures), tensor.WithBacking(e.input))
	if err := e.model.SetInput(0, t); err != nil {
		return 0, fmt.Errorf("failed to set ONNX input: %w", err)
	}
	if err := e.backend.Run(); err != nil {
		return 0, fmt.Errorf("failed to run ONNX model: %w", err)
	}
	output, err := e.model.GetOutputTensors()
	if err != nil {
		return 0, fmt.Errorf("failed to get output tensors: %w", err)
	}
	switch v := output[0].Data().(type) {
	case []float32:
		return float64(v[0]), nil
	case float32:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("unexpected output type: %T", v)
	}
}

// Value is Eval with failures scored as the worst possible outcome.
func (e *ONNXEval) Value(g *game.Game, info *game.PlacementInfo) float64 {
	v, err := e.Eval(g, info)
	if err != nil {
		log.Err(err).Msg("onnx-eval")
		return math.Inf(-1)
	}
	return v
}

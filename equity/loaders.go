package equity

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/tetrizz/cache"
	"github.com/domino14/tetrizz/config"
)

const (
	KindMinimal = "minimal"
	KindFeature = "feature"
)

// WeightFile is the on-disk form of a trained evaluator.
type WeightFile struct {
	Kind    string    `yaml:"kind"`
	Weights []float64 `yaml:"weights"`
}

// Evaluator builds the evaluator the file describes.
func (w *WeightFile) Evaluator() (Evaluator, error) {
	switch w.Kind {
	case KindMinimal:
		return NewMinimalEval(w.Weights)
	case KindFeature:
		return NewFeatureEval(w.Weights)
	}
	return nil, fmt.Errorf("unknown evaluator kind %q", w.Kind)
}

func ReadWeights(r io.Reader) (*WeightFile, error) {
	var w WeightFile
	if err := yaml.NewDecoder(r).Decode(&w); err != nil {
		return nil, fmt.Errorf("decoding weights: %w", err)
	}
	return &w, nil
}

func WriteWeights(out io.Writer, kind string, weights []float64) error {
	enc := yaml.NewEncoder(out)
	defer enc.Close()
	return enc.Encode(WeightFile{Kind: kind, Weights: weights})
}

// WeightsLoadFunc loads a weight file for a cache key of the form
// weights:<path>.
func WeightsLoadFunc(cfg *config.Config, key string) (any, error) {
	path, ok := strings.CutPrefix(key, "weights:")
	if !ok || path == "" {
		return nil, errors.New("weightsloadfunc - bad cache key: " + key)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	w, err := ReadWeights(f)
	if err != nil {
		return nil, err
	}
	// validate before the file lands in the cache
	if _, err := w.Evaluator(); err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Str("kind", w.Kind).Int("weights", len(w.Weights)).
		Msg("loaded-weights")
	return w, nil
}

// LoadWeights returns the evaluator stored at path.
func LoadWeights(cfg *config.Config, path string) (Evaluator, error) {
	w, err := cache.LoadAs[*WeightFile](cfg, "weights:"+path, WeightsLoadFunc)
	if err != nil {
		return nil, err
	}
	return w.Evaluator()
}

// FromConfig picks the evaluator the configuration asks for: an ONNX model
// if one is set, else a weight file, else the default minimal weights.
// When both a model and a weight file are set they are blended equally.
func FromConfig(cfg *config.Config) (Evaluator, error) {
	var evals []Evaluator
	if p := cfg.GetString(config.ConfigONNXModelPath); p != "" {
		e, err := LoadONNXEval(cfg, p)
		if err != nil {
			return nil, err
		}
		evals = append(evals, e)
	}
	if p := cfg.GetString(config.ConfigWeightsPath); p != "" {
		e, err := LoadWeights(cfg, p)
		if err != nil {
			return nil, err
		}
		evals = append(evals, e)
	}
	switch len(evals) {
	case 0:
		return DefaultMinimalEval(), nil
	case 1:
		return evals[0], nil
	}
	return NewCombined(Weighted{evals[0], 0.5}, Weighted{evals[1], 0.5}), nil
}

package signal

import (
	"context"
	"fmt"

	"github.com/karmachain/feedback-engine/pkg/logger"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const weightsKey = "default_behavior_weights"

// WeightProvider supplies the per-module behavior weights.
type WeightProvider interface {
	Weights(ctx context.Context) map[string]float64
}

// DefaultWeights returns the built-in module weighting used whenever the
// external source cannot be read.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		ModuleFinance: 1.0,
		ModuleGame:    1.2,
		ModuleGurukul: 1.3,
		ModuleInsight: 1.1,
	}
}

// FileWeightProvider reads weights from a JSON file shaped
// {"default_behavior_weights": {module: weight}}. The file is consulted on
// every call so weight changes take effect without a restart. Read failures
// are absorbed: the provider logs a warning and falls back to DefaultWeights.
type FileWeightProvider struct {
	path string
}

func NewFileWeightProvider(path string) *FileWeightProvider {
	return &FileWeightProvider{path: path}
}

func (p *FileWeightProvider) Weights(ctx context.Context) map[string]float64 {
	weights, err := p.load()
	if err != nil {
		logger.FromContext(ctx).Warn(
			"Failed to load behavior weights, using defaults",
			"path", p.path,
			"error", err,
		)
		return DefaultWeights()
	}
	return weights
}

func (p *FileWeightProvider) load() (map[string]float64, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(p.path), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("reading weights source: %w", err)
	}
	raw, ok := k.Get(weightsKey).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("weights source missing %q mapping", weightsKey)
	}
	weights := make(map[string]float64, len(raw))
	for module, value := range raw {
		w, ok := value.(float64)
		if !ok {
			return nil, fmt.Errorf("weight for module %q is not numeric", module)
		}
		weights[module] = w
	}
	return weights, nil
}

// StaticWeightProvider returns a fixed weight table; used in tests and as a
// fallback when no weights file is configured.
type StaticWeightProvider struct {
	weights map[string]float64
}

func NewStaticWeightProvider(weights map[string]float64) *StaticWeightProvider {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &StaticWeightProvider{weights: weights}
}

func (p *StaticWeightProvider) Weights(_ context.Context) map[string]float64 {
	return p.weights
}

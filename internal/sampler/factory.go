package sampler

import (
	"fmt"
	"math"
	"strings"

	"github.com/sanspareilsmyn/samplestream/internal/config"
)

// FromConfig builds the sampler described by cfg. Mixtures are built
// recursively from their components.
func FromConfig(cfg config.SamplerConfig) (Sampler, error) {
	kind := strings.ToLower(cfg.Kind)
	switch kind {
	case "constant":
		return Constant(cfg.Value), nil

	case "uniform":
		if !(cfg.From < cfg.To) {
			return nil, errorf("uniform needs from < to, got [%g, %g)", cfg.From, cfg.To)
		}
		return Uniform{From: cfg.From, To: cfg.To}, nil

	case "normal":
		if cfg.Std < 0 {
			return nil, errorf("normal needs std >= 0")
		}
		return Normal{Mean: cfg.Mean, Std: cfg.Std}, nil

	case "lognormal":
		if cfg.Std < 0 {
			return nil, errorf("lognormal needs std >= 0")
		}
		return Lognormal{LogMean: cfg.Mean, LogStd: cfg.Std}, nil

	case "to":
		if cfg.Low <= 0 || cfg.High <= cfg.Low {
			return nil, errorf("to needs 0 < low < high, got [%g, %g]", cfg.Low, cfg.High)
		}
		return To{Low: cfg.Low, High: cfg.High}, nil

	case "gamma":
		if !(cfg.Alpha > 0) || math.IsInf(cfg.Alpha, 0) {
			return nil, errorf("gamma needs alpha > 0")
		}
		return Gamma{Alpha: cfg.Alpha}, nil

	case "beta":
		if !(cfg.Alpha > 0) || !(cfg.Beta > 0) {
			return nil, errorf("beta needs alpha, beta > 0")
		}
		return Beta{A: cfg.Alpha, B: cfg.Beta}, nil

	case "mixture":
		components := make([]Sampler, 0, len(cfg.Components))
		for i, c := range cfg.Components {
			s, err := FromConfig(c)
			if err != nil {
				return nil, fmt.Errorf("mixture component %d: %w", i, err)
			}
			components = append(components, s)
		}
		return NewMixture(components, cfg.Weights)

	case "cdf":
		cdf, err := distributionCDF(strings.ToLower(cfg.Distribution), cfg)
		if err != nil {
			return nil, err
		}
		return NewCDF(cdf), nil

	case "sentinel":
		return Sentinel{}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSamplerKind, cfg.Kind)
	}
}

package stats

import (
	"fmt"
	"math"
)

// binTolerance bounds the relative disagreement accepted between a configured
// bin count and (Sup-Min)/BinWidth.
const binTolerance = 1e-9

// HistogramConfig describes a fixed-width binning of the domain [Min, Sup).
type HistogramConfig struct {
	Min      float64 `mapstructure:"min" msgpack:"min" json:"min"`
	Sup      float64 `mapstructure:"sup" msgpack:"sup" json:"sup"`
	BinWidth float64 `mapstructure:"binWidth" msgpack:"bin_width" json:"bin_width"`
	Bins     int     `mapstructure:"bins" msgpack:"bins" json:"bins"`
}

// Normalize validates the configuration and fills in whichever of BinWidth or
// Bins was left at zero. A degenerate domain (Min == Sup) is widened to fit
// the configured bins, or by one when only a bin count is given, so
// that bin widths never divide by zero; widened reports when that happened so
// the caller can log it. The widening keeps a run alive, it does not make its
// histogram meaningful.
func (c HistogramConfig) Normalize() (cfg HistogramConfig, widened bool, err error) {
	cfg = c
	if math.IsNaN(cfg.Min) || math.IsNaN(cfg.Sup) || math.IsInf(cfg.Min, 0) || math.IsInf(cfg.Sup, 0) {
		return cfg, false, fmt.Errorf("%w: domain bounds must be finite", ErrInvalidHistogram)
	}
	if cfg.Sup < cfg.Min {
		return cfg, false, fmt.Errorf("%w: sup %g below min %g", ErrInvalidHistogram, cfg.Sup, cfg.Min)
	}
	if cfg.BinWidth < 0 || cfg.Bins < 0 {
		return cfg, false, fmt.Errorf("%w: bin width and count must be positive", ErrInvalidHistogram)
	}
	if cfg.BinWidth == 0 && cfg.Bins == 0 {
		return cfg, false, fmt.Errorf("%w: either binWidth or bins is required", ErrInvalidHistogram)
	}

	if cfg.Sup == cfg.Min {
		widened = true
		switch {
		case cfg.Bins > 0 && cfg.BinWidth > 0:
			cfg.Sup = cfg.Min + float64(cfg.Bins)*cfg.BinWidth
		case cfg.Bins > 0:
			cfg.Sup = cfg.Min + 1
		default:
			cfg.Sup = cfg.Min + cfg.BinWidth
		}
	}

	span := cfg.Sup - cfg.Min
	switch {
	case cfg.Bins == 0:
		cfg.Bins = int(math.Round(span / cfg.BinWidth))
		if cfg.Bins < 1 {
			return c, widened, fmt.Errorf("%w: width %g exceeds [%g, %g)", ErrInconsistentHistogram, cfg.BinWidth, cfg.Min, cfg.Sup)
		}
		if math.Abs(span/cfg.BinWidth-float64(cfg.Bins)) > binTolerance*float64(cfg.Bins) {
			return cfg, widened, fmt.Errorf("%w: width %g does not divide [%g, %g)", ErrInconsistentHistogram, cfg.BinWidth, cfg.Min, cfg.Sup)
		}
	case cfg.BinWidth == 0:
		cfg.BinWidth = span / float64(cfg.Bins)
	default:
		if math.Abs(span/cfg.BinWidth-float64(cfg.Bins)) > binTolerance*float64(cfg.Bins) {
			return cfg, widened, fmt.Errorf("%w: %d bins of width %g over [%g, %g)", ErrInconsistentHistogram, cfg.Bins, cfg.BinWidth, cfg.Min, cfg.Sup)
		}
	}
	return cfg, widened, nil
}

// Histogram counts samples falling inside its domain. Samples outside are
// reported back to the caller as outliers and never binned.
type Histogram struct {
	cfg    HistogramConfig
	counts []uint64
}

// NewHistogram builds an empty histogram from a normalized configuration.
func NewHistogram(cfg HistogramConfig) (*Histogram, error) {
	norm, _, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	return &Histogram{cfg: norm, counts: make([]uint64, norm.Bins)}, nil
}

// Config returns the normalized configuration.
func (h *Histogram) Config() HistogramConfig { return h.cfg }

// Counts returns the bin counts. The slice is owned by the histogram.
func (h *Histogram) Counts() []uint64 { return h.counts }

// Total is the number of binned samples.
func (h *Histogram) Total() uint64 {
	var total uint64
	for _, c := range h.counts {
		total += c
	}
	return total
}

// IsOutlier reports whether x falls outside [Min, Sup). NaN is always an outlier.
func (h *Histogram) IsOutlier(x float64) bool {
	return math.IsNaN(x) || x < h.cfg.Min || x >= h.cfg.Sup
}

// Bin returns the bin index for an in-domain value, clamped to the valid range
// to absorb rounding at the edges.
func (h *Histogram) Bin(x float64) int {
	idx := int(math.Floor((x - h.cfg.Min) / h.cfg.BinWidth))
	if idx >= h.cfg.Bins {
		idx = h.cfg.Bins - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Observe bins x and reports true, or reports false if x is an outlier.
func (h *Histogram) Observe(x float64) bool {
	if h.IsOutlier(x) {
		return false
	}
	h.counts[h.Bin(x)]++
	return true
}

// Merge adds the counts of other into h.
func (h *Histogram) Merge(other *Histogram) error {
	if other == nil {
		return nil
	}
	if err := h.compatible(other); err != nil {
		return err
	}
	for i, c := range other.counts {
		h.counts[i] += c
	}
	return nil
}

// compatible reports ErrHistogramMismatch unless other bins like h.
func (h *Histogram) compatible(other *Histogram) error {
	if h.cfg != other.cfg || len(h.counts) != len(other.counts) {
		return fmt.Errorf("%w: %+v vs %+v", ErrHistogramMismatch, h.cfg, other.cfg)
	}
	return nil
}

// Reset zeroes all bins.
func (h *Histogram) Reset() {
	clear(h.counts)
}

// Clone returns an independent copy.
func (h *Histogram) Clone() *Histogram {
	return &Histogram{cfg: h.cfg, counts: append([]uint64(nil), h.counts...)}
}

// HistogramFromCounts rebuilds a histogram received from another process.
func HistogramFromCounts(cfg HistogramConfig, counts []uint64) (*Histogram, error) {
	h, err := NewHistogram(cfg)
	if err != nil {
		return nil, err
	}
	if h.cfg != cfg || len(counts) != h.cfg.Bins {
		return nil, fmt.Errorf("%w: %d counts for %+v", ErrHistogramMismatch, len(counts), cfg)
	}
	copy(h.counts, counts)
	return h, nil
}

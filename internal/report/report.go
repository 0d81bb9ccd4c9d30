package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/sanspareilsmyn/samplestream/internal/stats"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Float encodes non-finite values as JSON null instead of failing the whole
// report.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

type HistogramView struct {
	Min      Float    `json:"min"`
	Sup      Float    `json:"sup"`
	BinWidth Float    `json:"bin_width"`
	Counts   []uint64 `json:"counts"`
}

type OutlierView struct {
	Count   uint64  `json:"count"`
	Dropped uint64  `json:"dropped"`
	Values  []Float `json:"values"` // at most printLimit
}

// Report is a point-in-time rendering of the global aggregate.
type Report struct {
	RunID     string        `json:"run_id"`
	Iteration int           `json:"iteration"`
	Samples   uint64        `json:"samples"`
	NonFinite uint64        `json:"non_finite"`
	Min       Float         `json:"min"`
	Max       Float         `json:"max"`
	Mean      Float         `json:"mean"`
	Variance  Float         `json:"variance"`
	StdDev    Float         `json:"std_dev"`
	Histogram HistogramView `json:"histogram"`
	Outliers  OutlierView   `json:"outliers"`
}

// New builds a report from agg. Only the first printLimit outliers are kept;
// the total count is always reported.
func New(runID string, iteration int, agg *stats.Aggregate, printLimit int) Report {
	cfg := agg.Histogram.Config()
	r := Report{
		RunID:     runID,
		Iteration: iteration,
		Samples:   agg.Stats.Total(),
		NonFinite: agg.Stats.NonFinite,
		Min:       Float(agg.Stats.Min),
		Max:       Float(agg.Stats.Max),
		Mean:      Float(agg.Stats.Mean),
		Variance:  Float(agg.Stats.Variance),
		StdDev:    Float(agg.Stats.StdDev()),
		Histogram: HistogramView{
			Min:      Float(cfg.Min),
			Sup:      Float(cfg.Sup),
			BinWidth: Float(cfg.BinWidth),
			Counts:   append([]uint64(nil), agg.Histogram.Counts()...),
		},
		Outliers: OutlierView{
			Count:   agg.Outliers.Count(),
			Dropped: agg.Outliers.Dropped(),
			Values:  []Float{},
		},
	}

	values := agg.Outliers.Values()
	if printLimit >= 0 && len(values) > printLimit {
		values = values[:printLimit]
	}
	for _, v := range values {
		r.Outliers.Values = append(r.Outliers.Values, Float(v))
	}
	return r
}

// WriteText prints the report in the console layout.
func (r Report) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Iter %d: %.3f M samples\n  min %g, max %g, mean %g, variance %g, std %g\n",
		r.Iteration, float64(r.Samples)/1e6,
		float64(r.Min), float64(r.Max), float64(r.Mean), float64(r.Variance), float64(r.StdDev))
	if err != nil {
		return err
	}
	if r.NonFinite > 0 {
		if _, err := fmt.Fprintf(w, "  %d non-finite samples excluded from the moments\n", r.NonFinite); err != nil {
			return err
		}
	}

	h := r.Histogram
	if _, err := fmt.Fprintf(w, "  histogram [%g, %g), %d bins\n", float64(h.Min), float64(h.Sup), len(h.Counts)); err != nil {
		return err
	}
	if err := WriteHistogram(w, h.Counts, float64(h.Min), float64(h.BinWidth)); err != nil {
		return err
	}

	o := r.Outliers
	if o.Count == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "  outliers: %d (%d not recorded)\n", o.Count, o.Dropped); err != nil {
		return err
	}
	for _, v := range o.Values {
		if _, err := fmt.Fprintf(w, "    %g\n", float64(v)); err != nil {
			return err
		}
	}
	if shown := uint64(len(o.Values)); shown < o.Count-o.Dropped {
		if _, err := fmt.Fprintf(w, "    ... %d more\n", o.Count-o.Dropped-shown); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the report as a single JSON document.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Write renders r in the given format.
func Write(w io.Writer, format string, r Report) error {
	var err error
	switch format {
	case FormatText:
		err = r.WriteText(w)
	case FormatJSON:
		err = r.WriteJSON(w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// WriteFile replaces path with the rendered report. The report is written to a
// temporary file in the same directory and renamed over path, so readers never
// observe a partial report.
func WriteFile(path, format string, r Report) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, format, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

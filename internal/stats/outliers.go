package stats

const minOutlierCapacity = 16

// OutlierBuffer records samples that fell outside the histogram domain.
// Capacity doubles whenever an append would overflow it. With a positive
// limit, outliers beyond the limit are counted but their values are dropped.
type OutlierBuffer struct {
	values  []float64
	limit   int
	dropped uint64
}

// NewOutlierBuffer creates a buffer recording at most limit values; limit <= 0
// means unbounded. A disabled buffer (see NewCountingOutlierBuffer) only counts.
func NewOutlierBuffer(limit int) *OutlierBuffer {
	return &OutlierBuffer{limit: limit}
}

// NewCountingOutlierBuffer returns a buffer that never stores values, for runs
// too large to keep their outliers around.
func NewCountingOutlierBuffer() *OutlierBuffer {
	return &OutlierBuffer{limit: -1}
}

func (b *OutlierBuffer) disabled() bool { return b.limit < 0 }

func (b *OutlierBuffer) full() bool {
	return b.disabled() || (b.limit > 0 && len(b.values) >= b.limit)
}

// grow doubles the capacity until it holds at least need values.
func (b *OutlierBuffer) grow(need int) {
	if need <= cap(b.values) {
		return
	}
	c := cap(b.values)
	if c < minOutlierCapacity {
		c = minOutlierCapacity
	}
	for c < need {
		c *= 2
	}
	next := make([]float64, len(b.values), c)
	copy(next, b.values)
	b.values = next
}

// Append records x. When the buffer is at its limit the outlier is still
// counted and ErrOutlierBufferFull is returned; the caller decides whether
// that matters.
func (b *OutlierBuffer) Append(x float64) error {
	if b.full() {
		b.dropped++
		if b.disabled() {
			return nil
		}
		return ErrOutlierBufferFull
	}
	b.grow(len(b.values) + 1)
	b.values = append(b.values, x)
	return nil
}

// Merge concatenates other onto b, respecting b's limit.
func (b *OutlierBuffer) Merge(other *OutlierBuffer) error {
	if other == nil {
		return nil
	}
	b.dropped += other.dropped
	if len(other.values) == 0 {
		return nil
	}

	take := len(other.values)
	switch {
	case b.disabled():
		take = 0
	case b.limit > 0 && len(b.values)+take > b.limit:
		take = b.limit - len(b.values)
	}
	if take > 0 {
		b.grow(len(b.values) + take)
		b.values = append(b.values, other.values[:take]...)
	}
	if rest := len(other.values) - take; rest > 0 {
		b.dropped += uint64(rest)
		if !b.disabled() {
			return ErrOutlierBufferFull
		}
	}
	return nil
}

// Values returns the recorded outliers in arrival order.
func (b *OutlierBuffer) Values() []float64 { return b.values }

// Dropped is the number of outliers counted but not recorded.
func (b *OutlierBuffer) Dropped() uint64 { return b.dropped }

// Count is the total number of outliers seen, recorded or not.
func (b *OutlierBuffer) Count() uint64 { return uint64(len(b.values)) + b.dropped }

// Cap is the current storage capacity.
func (b *OutlierBuffer) Cap() int { return cap(b.values) }

// Limit is the configured recording limit (0 unbounded, negative disabled).
func (b *OutlierBuffer) Limit() int { return b.limit }

// Reset forgets all outliers but keeps the allocated storage.
func (b *OutlierBuffer) Reset() {
	b.values = b.values[:0]
	b.dropped = 0
}

// Clone returns an independent copy.
func (b *OutlierBuffer) Clone() *OutlierBuffer {
	return &OutlierBuffer{
		values:  append([]float64(nil), b.values...),
		limit:   b.limit,
		dropped: b.dropped,
	}
}

// OutlierBufferFrom rebuilds a buffer received from another process.
func OutlierBufferFrom(values []float64, dropped uint64, limit int) *OutlierBuffer {
	b := NewOutlierBuffer(limit)
	// values past the limit end up in dropped
	_ = b.Merge(&OutlierBuffer{values: values, dropped: dropped})
	return b
}

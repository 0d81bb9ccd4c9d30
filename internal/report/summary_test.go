package report

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/samplestream/internal/order"
)

func TestWriteSummary(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	s, err := order.Summarize(xs)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, FormatText, s))
	assert.Contains(t, buf.String(), "n 10, mean 5.5")
	assert.Contains(t, buf.String(), "p50 6")

	buf.Reset()
	require.NoError(t, WriteSummary(&buf, FormatJSON, s))
	var decoded order.Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, s, decoded)

	assert.ErrorIs(t, WriteSummary(&buf, "yaml", s), ErrUnknownFormat)
}

package sentimentobs

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-pulse/internal/metrics"
	"nifty-pulse/internal/types"
)

type stubBackend struct{ err error }

func (s stubBackend) Name() string { return "stub" }

func (s stubBackend) Classify(context.Context, string) (types.Classification, error) {
	if s.err != nil {
		return types.Classification{}, s.err
	}
	return types.Classification{Label: types.LabelPositive, Score: 0.7, Polarity: 0.7}, nil
}

func TestWrapCountsLabels(t *testing.T) {
	before := testutil.ToFloat64(metrics.HeadlineClassifications.WithLabelValues("stub", types.LabelPositive))

	c, err := Wrap(stubBackend{}).Classify(context.Background(), "Nifty gains")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, c.Polarity, 1e-9)

	after := testutil.ToFloat64(metrics.HeadlineClassifications.WithLabelValues("stub", types.LabelPositive))
	assert.InDelta(t, 1, after-before, 1e-9)
}

func TestWrapCountsFailures(t *testing.T) {
	before := testutil.ToFloat64(metrics.HeadlineClassifications.WithLabelValues("stub", "failed"))

	w := Wrap(stubBackend{err: errors.New("down")})
	assert.Equal(t, "stub", w.Name())
	_, err := w.Classify(context.Background(), "x")
	assert.Error(t, err)

	after := testutil.ToFloat64(metrics.HeadlineClassifications.WithLabelValues("stub", "failed"))
	assert.InDelta(t, 1, after-before, 1e-9)
}

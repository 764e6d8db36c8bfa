package main

import (
	"context"
	"log/slog"
	"io"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScrapeAndIngest_RequiresMetricsURL(t *testing.T) {
	t.Setenv("METRICS_URL", "")
	t.Setenv("PROJECT_ID", "some-project")
	err := scrapeAndIngest(context.Background(), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "METRICS_URL")
}

func TestScrapeAndIngest_RequiresProjectID(t *testing.T) {
	t.Setenv("METRICS_URL", "http://example.invalid/metrics")
	t.Setenv("PROJECT_ID", "")
	err := scrapeAndIngest(context.Background(), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROJECT_ID")
}

func TestCreatePoint_SetsDoubleValue(t *testing.T) {
	now := timestamppb.New(time.Now())
	point := createPoint(now, 42.5)
	assert.Equal(t, 42.5, point.GetValue().GetDoubleValue())
	assert.Equal(t, now, point.GetInterval().GetEndTime())
}

func TestCreateDistributionPoint_ConvertsBucketsAndCounts(t *testing.T) {
	hist := &dto.Histogram{
		SampleCount: proto.Uint64(10),
		SampleSum:   proto.Float64(55),
		Bucket: []*dto.Bucket{
			{UpperBound: proto.Float64(1), CumulativeCount: proto.Uint64(2)},
			{UpperBound: proto.Float64(5), CumulativeCount: proto.Uint64(7)},
			{UpperBound: proto.Float64(1e308), CumulativeCount: proto.Uint64(10)},
		},
	}
	now := timestamppb.New(time.Now())
	point := createDistributionPoint(now, hist, discardLogger())

	dist := point.GetValue().GetDistributionValue()
	require.NotNil(t, dist)
	assert.Equal(t, int64(10), dist.GetCount())
	assert.Equal(t, 5.5, dist.GetMean())
	assert.Equal(t, []int64{2, 5, 3}, dist.GetBucketCounts())
}

func TestEnvOr_FallsBackWhenUnset(t *testing.T) {
	t.Setenv("SCRAPE_REGION", "")
	assert.Equal(t, "europe-west1", envOr("SCRAPE_REGION", "europe-west1"))

	t.Setenv("SCRAPE_REGION", "us-central1")
	assert.Equal(t, "us-central1", envOr("SCRAPE_REGION", "europe-west1"))
}

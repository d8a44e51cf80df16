// Package metrics publishes API request telemetry to AWS CloudWatch.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric and dimension names.
const (
	MetricAPILatency      = "APILatency"
	MetricAPIRequestCount = "APIRequestCount"

	DimMethod   = "Method"
	DimEndpoint = "Endpoint"
	DimStatus   = "Status"
)

// maxBatch is the number of datums sent in one PutMetricData call. Each
// request produces two datums.
const maxBatch = 500

// DefaultFlushInterval is how often Run publishes buffered datums.
const DefaultFlushInterval = 30 * time.Second

// CloudWatchClient abstracts the PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchCollector buffers request metrics and publishes them in batches.
// RecordRequest never blocks on the network; publishing happens in Flush,
// which Run calls periodically and the server calls on shutdown.
type CloudWatchCollector struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending []cwtypes.MetricDatum
}

// NewCloudWatchCollector creates a collector publishing to namespace.
func NewCloudWatchCollector(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchCollector{
		client:    client,
		namespace: namespace,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordRequest buffers a latency and a count datum for one request.
func (c *CloudWatchCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		{Name: aws.String(DimMethod), Value: aws.String(method)},
		{Name: aws.String(DimEndpoint), Value: aws.String(endpoint)},
		{Name: aws.String(DimStatus), Value: aws.String(status)},
	}
	ts := aws.Time(c.now())

	c.mu.Lock()
	c.pending = append(c.pending,
		cwtypes.MetricDatum{
			MetricName: aws.String(MetricAPILatency),
			Value:      aws.Float64(float64(duration.Microseconds()) / 1000),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Timestamp:  ts,
			Dimensions: dims,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Timestamp:  ts,
			Dimensions: dims,
		},
	)
	c.mu.Unlock()
}

// Pending reports how many datums are waiting to be published.
func (c *CloudWatchCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Flush publishes every buffered datum. Batches that fail are dropped and
// logged; the first error is returned.
func (c *CloudWatchCollector) Flush(ctx context.Context) error {
	c.mu.Lock()
	data := c.pending
	c.pending = nil
	c.mu.Unlock()

	var firstErr error
	for start := 0; start < len(data); start += maxBatch {
		end := min(start+maxBatch, len(data))
		_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(c.namespace),
			MetricData: data[start:end],
		})
		if err != nil {
			c.logger.Error("failed to publish request metrics",
				"error", err.Error(),
				"datums", end-start,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Run flushes every interval until ctx is cancelled, then flushes once more
// with a short detached deadline.
func (c *CloudWatchCollector) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.Flush(ctx)
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			_ = c.Flush(final)
			cancel()
			return
		}
	}
}

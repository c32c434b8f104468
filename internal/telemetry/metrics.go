// Package telemetry publishes request and query outcome metrics to CloudWatch.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"weatherplugin/internal/types"
)

// publishTimeout bounds a single PutMetricData call.
const publishTimeout = 2 * time.Second

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics emits:
//   - APIRequestCount and APILatency: Dims {Endpoint, Method, Status}
//   - WeatherOutcome: Dims {Action, Reason}
//
// Publish failures are logged and never surface to the caller.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing under namespace.
// An empty namespace selects types.MetricNamespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{client: client, namespace: namespace, logger: logger}
}

// RecordRequest emits the request count and latency for one HTTP request.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	dims := []cwtypes.Dimension{
		dimension(types.DimEndpoint, endpoint),
		dimension(types.DimMethod, method),
		dimension(types.DimStatus, status),
	}
	m.put(ctx, []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
		{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	}, "endpoint", endpoint, "status", status)
}

// RecordOutcome emits a WeatherOutcome count. It publishes even when ctx is
// already cancelled, but never waits past ctx's deadline or publishTimeout,
// whichever comes first.
func (m *CloudWatchMetrics) RecordOutcome(ctx context.Context, action types.Action, reason string) {
	ctx, cancel := outcomeContext(ctx)
	defer cancel()

	m.put(ctx, []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricWeatherOutcome),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				dimension(types.DimAction, string(action)),
				dimension(types.DimReason, reason),
			},
		},
	}, "action", string(action), "reason", reason)
}

func (m *CloudWatchMetrics) put(ctx context.Context, data []cwtypes.MetricDatum, logArgs ...any) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record metric", append([]any{"error", err.Error()}, logArgs...)...)
	}
}

// outcomeContext detaches from ctx's cancellation and bounds the publish by
// the remaining caller deadline, capped at publishTimeout.
func outcomeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	bound := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < bound {
			bound = remaining
		}
	}
	return context.WithTimeout(context.WithoutCancel(ctx), bound)
}

func dimension(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

package observability

import (
	"context"
	"time"

	"lambdaboot/pkg/bootstrap"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// MetricsRecorder publishes dependency-resolution metrics to CloudWatch
type MetricsRecorder struct {
	namespace string
	logger    *zap.Logger
}

// NewMetricsRecorder creates a new metrics recorder
func NewMetricsRecorder(namespace string, logger *zap.Logger) *MetricsRecorder {
	return &MetricsRecorder{
		namespace: namespace,
		logger:    logger,
	}
}

// PostProcessor returns a bootstrap post-processor that records how many
// dependencies one registration resolved. The CloudWatch client is taken
// from the observed mapping under clientKey, so the hook is attached to the
// registration whose factory contributes that client. Publishing is best
// effort: a metrics outage must not abort the invocation, so failures are
// logged and swallowed here rather than propagated.
func (m *MetricsRecorder) PostProcessor(registration, clientKey string) bootstrap.PostProcessor {
	return func(ctx context.Context, deps map[string]interface{}) error {
		client, ok := deps[clientKey].(*cloudwatch.Client)
		if !ok {
			m.logger.Warn("cloudwatch client not found in resolved dependencies",
				zap.String("registration", registration),
				zap.String("key", clientKey),
			)
			return nil
		}

		_, err := client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace: aws.String(m.namespace),
			MetricData: []types.MetricDatum{
				{
					MetricName: aws.String("DependenciesResolved"),
					Value:      aws.Float64(float64(len(deps))),
					Unit:       types.StandardUnitCount,
					Timestamp:  aws.Time(time.Now()),
					Dimensions: []types.Dimension{
						{
							Name:  aws.String("Registration"),
							Value: aws.String(registration),
						},
					},
				},
			},
		})
		if err != nil {
			m.logger.Warn("failed to publish resolution metrics",
				zap.String("registration", registration),
				zap.Error(err),
			)
		}
		return nil
	}
}

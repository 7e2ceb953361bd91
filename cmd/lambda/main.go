package main

import (
	"context"
	"log"
	"time"

	"lambdaboot/infrastructure/config"
	"lambdaboot/infrastructure/di"
	"lambdaboot/infrastructure/messaging/eventbridge"
	"lambdaboot/infrastructure/persistence/dynamodb"
	"lambdaboot/pkg/bootstrap"
	"lambdaboot/pkg/observability"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

// Global variables for Lambda lifecycle management
var (
	// handler is the wrapped entry point registered with the runtime
	handler func(context.Context, events.CloudWatchEvent) (Response, error)

	// logger is the process-wide logger
	logger *zap.Logger

	// coldStart tracks whether this is a cold start invocation
	coldStart = true

	// coldStartTime records when the cold start began
	coldStartTime time.Time
)

// Response is the invocation result delivered to the runtime
type Response struct {
	InvocationID string `json:"invocationId"`
	Status       string `json:"status"`
}

// init runs during cold start
func init() {
	coldStartTime = time.Now()
	log.Println("Lambda cold start initiated")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err = di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	adapter := bootstrap.New(handle,
		bootstrap.WithLogger(logger),
		bootstrap.WithEnviron(config.Environ),
	).
		Register(di.AWSClientsFactory(cfg),
			bootstrap.WithName("aws-clients"),
			bootstrap.WithMaxAge(cfg.CacheMaxAge),
		)

	if cfg.EnableMetrics {
		metrics := observability.NewMetricsRecorder(cfg.MetricsNamespace, logger)
		adapter.PostProcessor(metrics.PostProcessor("aws-clients", di.KeyCloudWatch))
	}

	adapter.
		Register(di.CollaboratorsFactory(cfg, logger),
			bootstrap.WithName("collaborators"),
			bootstrap.WithMaxAge(cfg.CacheMaxAge),
		).
		Register(di.IdentityFactory(),
			bootstrap.WithName("identity"),
			bootstrap.WithCacheDisabled(),
		)

	if cfg.EnableTracing {
		tracer := observability.NewTracer(cfg.FunctionName)
		adapter.PostProcessor(tracer.PostProcessor("identity"))
	}

	handler = adapter.Handler()

	logger.Info("Lambda cold start completed",
		zap.Duration("duration", time.Since(coldStartTime)),
	)
}

// handle is the business function: it records an audit item for the
// invocation and publishes a completion event, using only dependencies
// resolved through the registration pipeline.
func handle(ctx context.Context, event events.CloudWatchEvent, deps *bootstrap.Context) (Response, error) {
	invocationID, err := di.InvocationID(deps)
	if err != nil {
		return Response{}, err
	}
	store, err := di.AuditStore(deps)
	if err != nil {
		return Response{}, err
	}
	publisher, err := di.EventPublisher(deps)
	if err != nil {
		return Response{}, err
	}

	started, _ := deps.Value(di.KeyStartedAt).(time.Time)
	duration := time.Since(started).Milliseconds()

	var requestID, functionName string
	if meta := deps.Meta(); meta != nil {
		requestID = meta.AwsRequestID
		functionName = meta.InvokedFunctionArn
	}
	if functionName == "" {
		functionName = deps.Env()["AWS_LAMBDA_FUNCTION_NAME"]
	}
	if functionName == "" {
		functionName = "lambdaboot"
	}

	wasColdStart := coldStart
	coldStart = false

	if err := store.Record(ctx, dynamodb.InvocationRecord{
		InvocationID:   invocationID,
		FunctionName:   functionName,
		RequestID:      requestID,
		Outcome:        "succeeded",
		ColdStart:      wasColdStart,
		DurationMillis: duration,
	}); err != nil {
		return Response{}, err
	}

	if err := publisher.PublishCompleted(ctx, eventbridge.CompletionEvent{
		InvocationID:   invocationID,
		FunctionName:   functionName,
		RequestID:      requestID,
		Outcome:        "succeeded",
		ColdStart:      wasColdStart,
		DurationMillis: duration,
	}); err != nil {
		return Response{}, err
	}

	logger.Info("invocation handled",
		zap.String("invocation_id", invocationID),
		zap.String("source", event.Source),
		zap.Bool("cold_start", wasColdStart),
	)

	return Response{
		InvocationID: invocationID,
		Status:       "succeeded",
	}, nil
}

// main is the entry point for the Lambda function
func main() {
	lambda.Start(handler)
}

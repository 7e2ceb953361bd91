package di

import (
	"context"
	"fmt"
	"time"

	"lambdaboot/infrastructure/config"
	"lambdaboot/infrastructure/messaging/eventbridge"
	"lambdaboot/infrastructure/persistence/dynamodb"
	"lambdaboot/pkg/bootstrap"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dependency keys contributed by the factories below.
const (
	KeyDynamoDB     = "dynamodb"
	KeyEventBridge  = "eventbridge"
	KeyCloudWatch   = "cloudwatch"
	KeyAuditStore   = "auditStore"
	KeyEvents       = "events"
	KeyInvocationID = "invocationID"
	KeyStartedAt    = "startedAt"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// AWSClientsFactory returns the factory that builds the shared AWS service
// clients. Registered with caching enabled, the clients are constructed once
// per freshness window and reused across warm invocations.
func AWSClientsFactory(cfg *config.Config) bootstrap.Factory {
	return func(ctx context.Context, deps *bootstrap.Context) (map[string]interface{}, error) {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		return map[string]interface{}{
			KeyDynamoDB:    awsdynamodb.NewFromConfig(awsCfg),
			KeyEventBridge: awseventbridge.NewFromConfig(awsCfg),
			KeyCloudWatch:  awscloudwatch.NewFromConfig(awsCfg),
		}, nil
	}
}

// CollaboratorsFactory returns the factory that builds the audit store and
// event publisher on top of the AWS clients. It reads the client keys
// contributed by an earlier registration, which is why it must be registered
// after AWSClientsFactory.
func CollaboratorsFactory(cfg *config.Config, logger *zap.Logger) bootstrap.Factory {
	return func(ctx context.Context, deps *bootstrap.Context) (map[string]interface{}, error) {
		dynamoClient, err := DynamoDBClient(deps)
		if err != nil {
			return nil, err
		}
		eventsClient, err := EventBridgeClient(deps)
		if err != nil {
			return nil, err
		}

		return map[string]interface{}{
			KeyAuditStore: dynamodb.NewInvocationStore(dynamoClient, cfg.AuditTable, logger),
			KeyEvents:     eventbridge.NewPublisher(eventsClient, cfg.EventBus, cfg.FunctionName, logger),
		}, nil
	}
}

// IdentityFactory returns the factory contributing per-invocation identity.
// It must be registered with caching disabled so every invocation gets a
// fresh ID and start time.
func IdentityFactory() bootstrap.Factory {
	return func(ctx context.Context, deps *bootstrap.Context) (map[string]interface{}, error) {
		return map[string]interface{}{
			KeyInvocationID: uuid.NewString(),
			KeyStartedAt:    time.Now().UTC(),
		}, nil
	}
}

// Typed accessors over the execution context.

// DynamoDBClient extracts the DynamoDB client from the execution context
func DynamoDBClient(deps *bootstrap.Context) (*awsdynamodb.Client, error) {
	client, ok := deps.Value(KeyDynamoDB).(*awsdynamodb.Client)
	if !ok {
		return nil, fmt.Errorf("dependency %q is missing or has the wrong type", KeyDynamoDB)
	}
	return client, nil
}

// EventBridgeClient extracts the EventBridge client from the execution context
func EventBridgeClient(deps *bootstrap.Context) (*awseventbridge.Client, error) {
	client, ok := deps.Value(KeyEventBridge).(*awseventbridge.Client)
	if !ok {
		return nil, fmt.Errorf("dependency %q is missing or has the wrong type", KeyEventBridge)
	}
	return client, nil
}

// CloudWatchClient extracts the CloudWatch client from the execution context
func CloudWatchClient(deps *bootstrap.Context) (*awscloudwatch.Client, error) {
	client, ok := deps.Value(KeyCloudWatch).(*awscloudwatch.Client)
	if !ok {
		return nil, fmt.Errorf("dependency %q is missing or has the wrong type", KeyCloudWatch)
	}
	return client, nil
}

// AuditStore extracts the invocation store from the execution context
func AuditStore(deps *bootstrap.Context) (*dynamodb.InvocationStore, error) {
	store, ok := deps.Value(KeyAuditStore).(*dynamodb.InvocationStore)
	if !ok {
		return nil, fmt.Errorf("dependency %q is missing or has the wrong type", KeyAuditStore)
	}
	return store, nil
}

// EventPublisher extracts the event publisher from the execution context
func EventPublisher(deps *bootstrap.Context) (*eventbridge.Publisher, error) {
	publisher, ok := deps.Value(KeyEvents).(*eventbridge.Publisher)
	if !ok {
		return nil, fmt.Errorf("dependency %q is missing or has the wrong type", KeyEvents)
	}
	return publisher, nil
}

// InvocationID extracts the per-invocation ID from the execution context
func InvocationID(deps *bootstrap.Context) (string, error) {
	id, ok := deps.Value(KeyInvocationID).(string)
	if !ok {
		return "", fmt.Errorf("dependency %q is missing or has the wrong type", KeyInvocationID)
	}
	return id, nil
}

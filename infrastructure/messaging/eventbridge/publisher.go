package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

const completedDetailType = "invocation.completed"

// CompletionEvent is the detail payload published after an invocation
type CompletionEvent struct {
	InvocationID   string `json:"invocationId"`
	FunctionName   string `json:"functionName"`
	RequestID      string `json:"requestId"`
	Outcome        string `json:"outcome"`
	ColdStart      bool   `json:"coldStart"`
	DurationMillis int64  `json:"durationMillis"`
}

// Publisher emits invocation lifecycle events to EventBridge
type Publisher struct {
	client  *awseventbridge.Client
	busName string
	source  string
	logger  *zap.Logger
}

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client *awseventbridge.Client, busName, source string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:  client,
		busName: busName,
		source:  source,
		logger:  logger,
	}
}

// PublishCompleted emits an invocation.completed event
func (p *Publisher) PublishCompleted(ctx context.Context, event CompletionEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal completion event: %w", err)
	}

	_, err = p.client.PutEvents(ctx, &awseventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(p.source),
				DetailType:   aws.String(completedDetailType),
				Detail:       aws.String(string(detail)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish completion event: %w", err)
	}

	p.logger.Debug("completion event published",
		zap.String("invocation_id", event.InvocationID),
		zap.String("outcome", event.Outcome),
	)
	return nil
}

package dynamodb

import (
	"context"
	"fmt"
	"time"

	"lambdaboot/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// invocationRecordTTL is how long audit records are kept before DynamoDB
// expires them.
const invocationRecordTTL = 30 * 24 * time.Hour

// InvocationRecord is how completed invocations are stored in DynamoDB
type InvocationRecord struct {
	PK             string `dynamodbav:"PK"` // INVOCATION#<function_name>
	SK             string `dynamodbav:"SK"` // TS#<timestamp>#<invocation_id>
	InvocationID   string `dynamodbav:"InvocationID" validate:"required"`
	FunctionName   string `dynamodbav:"FunctionName" validate:"required"`
	RequestID      string `dynamodbav:"RequestID"`
	Outcome        string `dynamodbav:"Outcome" validate:"oneof=succeeded failed"`
	ColdStart      bool   `dynamodbav:"ColdStart"`
	DurationMillis int64  `dynamodbav:"DurationMillis" validate:"min=0"`
	Timestamp      string `dynamodbav:"Timestamp"`

	// TTL for automatic cleanup
	TTL int64 `dynamodbav:"TTL,omitempty"`
}

// InvocationStore persists invocation audit records to DynamoDB
type InvocationStore struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewInvocationStore creates a new invocation store
func NewInvocationStore(client *awsdynamodb.Client, tableName string, logger *zap.Logger) *InvocationStore {
	return &InvocationStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Record writes one invocation's audit record
func (s *InvocationStore) Record(ctx context.Context, record InvocationRecord) error {
	if err := utils.ValidateStruct(record); err != nil {
		return fmt.Errorf("invalid invocation record: %w", err)
	}

	now := time.Now().UTC()
	record.PK = fmt.Sprintf("INVOCATION#%s", record.FunctionName)
	record.SK = fmt.Sprintf("TS#%s#%s", now.Format(time.RFC3339Nano), record.InvocationID)
	record.Timestamp = now.Format(time.RFC3339Nano)
	record.TTL = now.Add(invocationRecordTTL).Unix()

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal invocation record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store invocation record: %w", err)
	}

	s.logger.Debug("invocation recorded",
		zap.String("invocation_id", record.InvocationID),
		zap.String("outcome", record.Outcome),
	)
	return nil
}

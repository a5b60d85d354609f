package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type dynamoPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoSink archives audit events in DynamoDB. Items are partitioned by
// actor and sorted by time so one user's trail is a single Query.
type DynamoSink struct {
	client    dynamoPutter
	tableName string
}

// dynamoActivity represents the DynamoDB item structure
type dynamoActivity struct {
	ActorKey  string `dynamodbav:"actor"`
	SortKey   string `dynamodbav:"at_id"`
	ID        string `dynamodbav:"id"`
	ActorID   int64  `dynamodbav:"actor_id"`
	Action    string `dynamodbav:"action"`
	Detail    string `dynamodbav:"detail"`
	Severity  string `dynamodbav:"severity"`
	CreatedAt string `dynamodbav:"created_at"`
}

func NewDynamoSink(client *dynamodb.Client, tableName string) *DynamoSink {
	return &DynamoSink{client: client, tableName: tableName}
}

func (s *DynamoSink) Record(ctx context.Context, e Event) error {
	createdAt := e.At.UTC().Format(time.RFC3339Nano)
	item := dynamoActivity{
		ActorKey:  "USER#" + strconv.FormatInt(e.ActorID, 10),
		SortKey:   createdAt + "#" + e.ID,
		ID:        e.ID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		Detail:    e.Detail,
		Severity:  string(e.Severity),
		CreatedAt: createdAt,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	// Event IDs are unique; a duplicate means the same event was retried.
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(actor) AND attribute_not_exists(at_id)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put audit event: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/example/bizpanel/internal/domain/event"
)

type dynamoPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoEventPublisher writes committed sale events to a DynamoDB table.
// The table's Kinesis integration streams new items to the serverless
// notifier.
type DynamoEventPublisher struct {
	client    dynamoPutter
	tableName string
}

// dynamoEvent represents the DynamoDB item structure
type dynamoEvent struct {
	AggregateID   string `dynamodbav:"aggregate_id"`
	ID            string `dynamodbav:"id"`
	AggregateType string `dynamodbav:"aggregate_type"`
	EventType     string `dynamodbav:"event_type"`
	Data          string `dynamodbav:"data"`
	CreatedAt     string `dynamodbav:"created_at"`
}

func NewDynamoEventPublisher(client *dynamodb.Client, tableName string) *DynamoEventPublisher {
	return &DynamoEventPublisher{client: client, tableName: tableName}
}

// Publish stores payload, which must be an event.Envelope.
func (p *DynamoEventPublisher) Publish(ctx context.Context, key string, payload any) error {
	env, ok := payload.(event.Envelope)
	if !ok {
		return fmt.Errorf("dynamo publisher: unsupported payload %T", payload)
	}

	item := dynamoEvent{
		AggregateID:   key,
		ID:            env.ID,
		AggregateType: env.AggregateType,
		EventType:     env.EventType,
		Data:          string(env.Data),
		CreatedAt:     env.Timestamp.UTC().Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(p.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(aggregate_id) AND attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put event %s: %w", env.ID, err)
	}
	return nil
}

package kinesis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/example/bizpanel/internal/domain/event"
)

// ConvertFromKinesisRecord converts a Kinesis record (DynamoDB Streams format)
// written by the DynamoDB event publisher back into an envelope. Non-INSERT
// changes yield nil.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*event.Envelope, error) {
	var dynamoDBRecord events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &dynamoDBRecord); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}
	return ConvertFromDynamoDBStreamRecord(dynamoDBRecord)
}

// ConvertFromDynamoDBStreamRecord is used when consuming DynamoDB Streams
// directly.
func ConvertFromDynamoDBStreamRecord(record events.DynamoDBEventRecord) (*event.Envelope, error) {
	if record.EventName != "INSERT" {
		return nil, nil
	}
	return convertDynamoDBImage(record.Change.NewImage)
}

func convertDynamoDBImage(image map[string]events.DynamoDBAttributeValue) (*event.Envelope, error) {
	if image == nil {
		return nil, fmt.Errorf("DynamoDB image is nil")
	}

	env := &event.Envelope{}
	str := func(name string) string {
		if v, ok := image[name]; ok && v.DataType() == events.DataTypeString {
			return v.String()
		}
		return ""
	}

	env.ID = str("id")
	env.AggregateID = str("aggregate_id")
	env.AggregateType = str("aggregate_type")
	env.EventType = str("event_type")
	if data := str("data"); data != "" {
		if !json.Valid([]byte(data)) {
			return nil, fmt.Errorf("event %s carries invalid JSON data", env.ID)
		}
		env.Data = json.RawMessage(data)
	}
	if createdAt := str("created_at"); createdAt != "" {
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		env.Timestamp = t
	}

	if env.ID == "" || env.AggregateID == "" || env.EventType == "" {
		return nil, fmt.Errorf("missing required fields: id=%s, aggregate_id=%s, event_type=%s",
			env.ID, env.AggregateID, env.EventType)
	}
	return env, nil
}

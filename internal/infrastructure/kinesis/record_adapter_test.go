package kinesis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saleImage() map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"id":             events.NewStringAttribute("event-123"),
		"aggregate_id":   events.NewStringAttribute("42"),
		"aggregate_type": events.NewStringAttribute("Sale"),
		"event_type":     events.NewStringAttribute("SaleRecorded"),
		"data":           events.NewStringAttribute(`{"sale_id":42}`),
		"created_at":     events.NewStringAttribute("2026-01-15T10:30:00.123456789Z"),
	}
}

func TestConvertDynamoDBImage(t *testing.T) {
	broken := saleImage()
	broken["data"] = events.NewStringAttribute("{oops")

	badTime := saleImage()
	badTime["created_at"] = events.NewStringAttribute("yesterday")

	tests := []struct {
		name    string
		image   map[string]events.DynamoDBAttributeValue
		wantErr bool
	}{
		{name: "valid event", image: saleImage()},
		{name: "nil image", image: nil, wantErr: true},
		{
			name:    "missing required fields",
			image:   map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute("event-123")},
			wantErr: true,
		},
		{name: "invalid data", image: broken, wantErr: true},
		{name: "invalid timestamp", image: badTime, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := convertDynamoDBImage(tt.image)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, env)
			assert.Equal(t, "event-123", env.ID)
			assert.Equal(t, "42", env.AggregateID)
			assert.Equal(t, "Sale", env.AggregateType)
			assert.Equal(t, "SaleRecorded", env.EventType)
			assert.JSONEq(t, `{"sale_id":42}`, string(env.Data))
			assert.Equal(t, 2026, env.Timestamp.Year())
		})
	}
}

func TestConvertFromDynamoDBStreamRecord(t *testing.T) {
	t.Run("INSERT event converts successfully", func(t *testing.T) {
		record := events.DynamoDBEventRecord{
			EventName: "INSERT",
			Change:    events.DynamoDBStreamRecord{NewImage: saleImage()},
		}

		env, err := ConvertFromDynamoDBStreamRecord(record)
		require.NoError(t, err)
		require.NotNil(t, env)
		assert.Equal(t, "event-123", env.ID)
	})

	for _, name := range []string{"MODIFY", "REMOVE"} {
		t.Run(name+" event returns nil", func(t *testing.T) {
			env, err := ConvertFromDynamoDBStreamRecord(events.DynamoDBEventRecord{EventName: name})
			require.NoError(t, err)
			assert.Nil(t, env)
		})
	}
}

func TestConvertFromKinesisRecord(t *testing.T) {
	t.Run("valid Kinesis record", func(t *testing.T) {
		dynamoRecord := events.DynamoDBEventRecord{
			EventName: "INSERT",
			Change:    events.DynamoDBStreamRecord{NewImage: saleImage()},
		}
		data, err := json.Marshal(dynamoRecord)
		require.NoError(t, err)

		env, err := ConvertFromKinesisRecord(events.KinesisEventRecord{
			EventID: "kinesis-event-1",
			Kinesis: events.KinesisRecord{Data: data},
		})
		require.NoError(t, err)
		require.NotNil(t, env)
		assert.Equal(t, "SaleRecorded", env.EventType)
		assert.WithinDuration(t, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), env.Timestamp, time.Second)
	})

	t.Run("garbage payload", func(t *testing.T) {
		_, err := ConvertFromKinesisRecord(events.KinesisEventRecord{Kinesis: events.KinesisRecord{Data: []byte("nope")}})
		assert.Error(t, err)
	})
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/bizpanel/internal/domain/event"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestProducer_PublishEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "sales"}

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	env, err := event.New("Sale", "42", "SaleRecorded", map[string]int{"sale_id": 42}, at)
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "42", env))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, "SaleRecorded", string(msg.Headers[0].Value))

	var decoded event.Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, env.ID, decoded.ID)
}

func TestProducer_PublishPlainPayload(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	require.NoError(t, p.Publish(context.Background(), "k", map[string]string{"a": "b"}))
	require.Len(t, w.msgs, 1)
	assert.Empty(t, w.msgs[0].Headers)
	assert.JSONEq(t, `{"a":"b"}`, string(w.msgs[0].Value))
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("broker down")}}
	assert.EqualError(t, p.Publish(context.Background(), "k", 1), "broker down")
}

func TestConsumer_CommitsAfterHandling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeReader{
		queue: []kafka.Message{
			{Key: []byte("1"), Value: []byte(`{}`), Offset: 10},
			{Key: []byte("2"), Value: []byte(`bad`), Offset: 11},
		},
		cancel: cancel,
	}
	c := &Consumer{reader: r}

	var seen []string
	err := c.Consume(ctx, func(_ context.Context, key, _ []byte) error {
		seen = append(seen, string(key))
		if string(key) == "2" {
			return errors.New("cannot decode")
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"1", "2"}, seen)
	assert.Equal(t, []int64{10, 11}, r.committed)
}

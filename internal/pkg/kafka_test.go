package pkg

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestKafkaConsumer_StopsWithoutCommittingFailedMessage(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("ok")},
		{Offset: 2, Value: []byte("fail")},
		{Offset: 3, Value: []byte("ok")},
	}}
	c := &KafkaConsumer{reader: r}
	errDown := errors.New("smtp down")

	err := c.Consume(context.Background(), func(_ context.Context, _, value []byte) error {
		if string(value) == "fail" {
			return errDown
		}
		return nil
	})
	require.ErrorIs(t, err, errDown)
	assert.Equal(t, []int64{1}, r.committed)
	// offset 3 was never fetched past the failure
	assert.Len(t, r.msgs, 1)
}

func TestKafkaConsumer_ReturnsNilOnCancel(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Offset: 7}}}
	c := &KafkaConsumer{reader: r}
	ctx, cancel := context.WithCancel(context.Background())

	err := c.Consume(ctx, func(context.Context, []byte, []byte) error {
		cancel()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, r.committed)
}

package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeDLQ struct {
	published []kafka.Message
	causes    []error
}

func (d *fakeDLQ) Publish(_ context.Context, msg kafka.Message, lastErr error, _ string) error {
	d.published = append(d.published, msg)
	d.causes = append(d.causes, lastErr)
	return nil
}

func eventMessage(t *testing.T, eventType, id string) kafka.Message {
	t.Helper()
	event, err := NewEvent(eventType, id, "book", "m-book", bookPayload{})
	require.NoError(t, err)
	raw, err := event.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: TopicPrefix + "." + eventType, Value: raw}
}

func testConsumer(r messageReader, h Handler) *Consumer {
	return newConsumer(r, ConsumerConfig{GroupID: "test", RetryDelay: time.Millisecond}, h, testLogger())
}

func TestConsumer_Process_Success(t *testing.T) {
	r := &fakeReader{}
	var got []string
	c := testConsumer(r, func(_ context.Context, e *Event) error {
		got = append(got, e.AggregateID)
		return nil
	})

	assert.True(t, c.process(context.Background(), eventMessage(t, "book.created", "1")))
	assert.Equal(t, []string{"1"}, got)
	assert.Len(t, r.committed, 1)
}

func TestConsumer_Process_RetriesThenSucceeds(t *testing.T) {
	r := &fakeReader{}
	calls := 0
	c := testConsumer(r, func(context.Context, *Event) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.True(t, c.process(context.Background(), eventMessage(t, "book.created", "1")))
	assert.Equal(t, 3, calls)
	assert.Len(t, r.committed, 1)
}

func TestConsumer_Process_ExhaustedGoesToDLQ(t *testing.T) {
	r := &fakeReader{}
	dlq := &fakeDLQ{}
	calls := 0
	c := testConsumer(r, func(context.Context, *Event) error {
		calls++
		return errors.New("permanent")
	}).WithDLQ(dlq)

	assert.True(t, c.process(context.Background(), eventMessage(t, "book.deleted", "2")))
	assert.Equal(t, defaultMaxAttempts, calls)
	require.Len(t, dlq.published, 1)
	assert.EqualError(t, dlq.causes[0], "permanent")
	assert.Len(t, r.committed, 1, "poison message must still be committed")
}

func TestConsumer_Process_UndecodableMessage(t *testing.T) {
	r := &fakeReader{}
	dlq := &fakeDLQ{}
	called := false
	c := testConsumer(r, func(context.Context, *Event) error {
		called = true
		return nil
	}).WithDLQ(dlq)

	assert.True(t, c.process(context.Background(), kafka.Message{Topic: "mbook.book.created", Value: []byte("garbage")}))
	assert.False(t, called)
	assert.Len(t, dlq.published, 1)
	assert.Len(t, r.committed, 1)
}

func TestConsumer_Process_CanceledDuringRetry(t *testing.T) {
	r := &fakeReader{}
	ctx, cancel := context.WithCancel(context.Background())
	c := newConsumer(r, ConsumerConfig{GroupID: "test", RetryDelay: time.Hour}, func(context.Context, *Event) error {
		cancel()
		return errors.New("fail")
	}, testLogger())

	assert.False(t, c.process(ctx, eventMessage(t, "book.created", "1")))
	assert.Empty(t, r.committed)
}

func TestConsumer_Start_StopsOnCancel(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{eventMessage(t, "book.created", "1"), eventMessage(t, "book.created", "2")}}
	done := make(chan struct{}, 2)
	c := testConsumer(r, func(context.Context, *Event) error {
		done <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	<-done
	<-done
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.True(t, r.closed)
	assert.Len(t, r.committed, 2)
}

func TestNewConsumer_Defaults(t *testing.T) {
	c := newConsumer(&fakeReader{}, ConsumerConfig{}, nil, testLogger())
	assert.Equal(t, defaultMaxAttempts, c.maxAttempts)
	assert.Equal(t, defaultRetryDelay, c.retryDelay)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

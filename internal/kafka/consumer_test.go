package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestConsumer(t *testing.T) *Consumer {
	return &Consumer{workers: 4, backoff: time.Millisecond, log: zaptest.NewLogger(t)}
}

func TestHandleRetriesBeforeCommitting(t *testing.T) {
	c := newTestConsumer(t)
	m := kafka.Message{Partition: 2, Offset: 41}

	calls := 0
	h := func(context.Context, kafka.Message) error {
		calls++
		if calls < 3 {
			return errors.New("db down")
		}
		return nil
	}
	var committed []int64
	commit := func(_ context.Context, ms ...kafka.Message) error {
		for _, m := range ms {
			committed = append(committed, m.Offset)
		}
		return nil
	}

	ok := c.handle(context.Background(), 0, h, m, commit)
	assert.True(t, ok)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int64{41}, committed)
}

func TestHandleStopsUncommittedOnShutdown(t *testing.T) {
	c := newTestConsumer(t)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	h := func(context.Context, kafka.Message) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("db down")
	}
	commit := func(context.Context, ...kafka.Message) error {
		t.Fatal("failed message must not be committed")
		return nil
	}

	ok := c.handle(ctx, 0, h, kafka.Message{Offset: 7}, commit)
	require.False(t, ok)
	assert.Equal(t, 2, calls)
}

func TestRoutePinsPartitionToWorker(t *testing.T) {
	tests := []struct {
		name      string
		partition int
		workers   int
		want      int
	}{
		{name: "singleWorker", partition: 5, workers: 1, want: 0},
		{name: "wrapsAround", partition: 5, workers: 4, want: 1},
		{name: "firstPartition", partition: 0, workers: 4, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, route(tt.partition, tt.workers))
			assert.Equal(t, route(tt.partition, tt.workers), route(tt.partition, tt.workers))
		})
	}
}

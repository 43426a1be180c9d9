package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler returns nil only when the message was fully processed and its
// offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	topic   string
	workers int
	backoff time.Duration
	log     *zap.Logger
}

const maxBackoff = 10 * time.Second

func NewConsumer(brokers []string, group, topic string, workers int, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // commit explicitly after each handled message
	})
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{r: r, topic: topic, workers: workers, backoff: 200 * time.Millisecond, log: log.With(zap.String("topic", topic))}
}

// Start fetches messages and hands them to the worker pool until ctx is
// cancelled. Each partition is pinned to one worker so its messages are
// handled and committed in offset order. A failing message is retried in
// place with backoff and nothing behind it on that partition is committed
// until it succeeds.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup

	for i := range jobs {
		jobs[i] = make(chan kafka.Message, 128)
		wg.Add(1)
		go func(id int, in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				if !c.handle(ctx, id, h, m, c.r.CommitMessages) {
					return
				}
			}
		}(i, jobs[i])
	}

	defer wg.Wait()
	defer func() {
		for _, ch := range jobs {
			close(ch)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case jobs[route(m.Partition, c.workers)] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

func route(partition, workers int) int {
	if partition < 0 {
		partition = -partition
	}
	return partition % workers
}

// handle runs h until it succeeds, then commits m. It reports false when ctx
// ended first; m stays uncommitted and is redelivered to the next consumer.
func (c *Consumer) handle(ctx context.Context, worker int, h Handler, m kafka.Message, commit func(context.Context, ...kafka.Message) error) bool {
	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			break
		}
		c.log.Error("handle message",
			zap.Int("worker", worker),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.Int("attempt", attempt),
			zap.ByteString("key", m.Key),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
		if wait < maxBackoff {
			wait *= 2
		}
	}
	if err := commit(ctx, m); err != nil && ctx.Err() == nil {
		c.log.Warn("commit offset", zap.Int64("offset", m.Offset), zap.Error(err))
	}
	return ctx.Err() == nil
}

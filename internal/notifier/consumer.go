package notifier

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/cache"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// StreamConsumer 通知队列消费者
// 从 Redis Streams 取通知，逐条发往所有通道
// 发送失败只记日志仍然 ACK：告警内容已持久化在历史表，不值得无限重试刷屏
type StreamConsumer struct {
	queue       *cache.NotifyQueue
	dispatchers []Dispatcher
	consumer    string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewStreamConsumer 创建消费者
func NewStreamConsumer(queue *cache.NotifyQueue, dispatchers []Dispatcher, consumer string, timeout time.Duration, logger *zap.Logger) *StreamConsumer {
	return &StreamConsumer{
		queue:       queue,
		dispatchers: dispatchers,
		consumer:    consumer,
		timeout:     timeout,
		logger:      logger,
	}
}

// Start 阻塞消费直到 ctx 取消
func (c *StreamConsumer) Start(ctx context.Context) {
	c.logger.Info("Notification consumer started",
		zap.String("consumer", c.consumer),
		zap.Int("dispatchers", len(c.dispatchers)),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Notification consumer stopped")
			return
		default:
		}

		msgs, err := c.queue.Read(ctx, c.consumer, 10, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to read notification stream", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range msgs {
			c.handle(ctx, msg)
		}
	}
}

func (c *StreamConsumer) handle(ctx context.Context, msg cache.Message) {
	var n models.Notification
	if err := json.Unmarshal(msg.Data, &n); err != nil {
		c.logger.Error("Failed to decode notification, dropping",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		c.ack(ctx, msg.ID)
		return
	}

	for _, d := range c.dispatchers {
		sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := d.Send(sendCtx, &n)
		cancel()

		if err != nil {
			c.logger.Error("Dispatcher failed",
				zap.String("dispatcher", d.Name()),
				zap.String("event_id", n.EventID),
				zap.String("kind", string(n.Kind)),
				zap.Error(err),
			)
		}
	}

	c.ack(ctx, msg.ID)
}

func (c *StreamConsumer) ack(ctx context.Context, id string) {
	if err := c.queue.Ack(ctx, id); err != nil {
		c.logger.Warn("Failed to ack notification", zap.String("message_id", id), zap.Error(err))
	}
}

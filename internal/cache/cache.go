// Package cache Redis 状态缓存与通知队列
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/config"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// Client Redis客户端类型别名
type Client = redis.Client

// NewRedisClient 创建Redis客户端
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping 测试Redis连接
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Close 关闭Redis连接
func Close(client *redis.Client) error {
	return client.Close()
}

// ============================================
// 读数缓存 + 毛刺计数
// ============================================

// glitchTTL 毛刺确认计数的存活时间
// 超过这个窗口的零上报不再连续，计数自动归零
const glitchTTL = 2 * time.Minute

// ReadingCache 最近读数缓存与开机毛刺计数
// 缓存只做加速，丢了从 PostgreSQL 重建
type ReadingCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewReadingCache 创建读数缓存
func NewReadingCache(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *ReadingCache {
	return &ReadingCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *ReadingCache) key(dependentID int64, field string) string {
	return fmt.Sprintf("%s%d:%s", c.prefix, dependentID, field)
}

// SetReading 缓存最近一条读数（JSON）
func (c *ReadingCache) SetReading(ctx context.Context, dependentID int64, field string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	return c.client.Set(ctx, c.key(dependentID, field), data, c.ttl).Err()
}

// GetReading 读取缓存的读数，未命中返回 (false, nil)
func (c *ReadingCache) GetReading(ctx context.Context, dependentID int64, field string, out any) (bool, error) {
	data, err := c.client.Get(ctx, c.key(dependentID, field)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get reading: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal reading: %w", err)
	}
	return true, nil
}

// BumpGlitch 开机毛刺连续计数 +1，返回当前值
func (c *ReadingCache) BumpGlitch(ctx context.Context, dependentID int64) (int64, error) {
	key := c.key(dependentID, "glitch")

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to incr glitch counter: %w", err)
	}
	// 每次续期：窗口内连续才算数
	if err := c.client.Expire(ctx, key, glitchTTL).Err(); err != nil {
		c.logger.Warn("Failed to set glitch counter TTL", zap.Error(err))
	}
	return count, nil
}

// ResetGlitch 清零毛刺计数
func (c *ReadingCache) ResetGlitch(ctx context.Context, dependentID int64) error {
	return c.client.Del(ctx, c.key(dependentID, "glitch")).Err()
}

// ============================================
// 通知队列（Redis Streams）
// ============================================

// NotifyQueue 通知队列
// 决策引擎 XADD 入队，StreamConsumer 用消费者组取走派发
type NotifyQueue struct {
	client *redis.Client
	stream string
	group  string
	logger *zap.Logger
}

// NewNotifyQueue 创建通知队列
func NewNotifyQueue(client *redis.Client, stream, group string, logger *zap.Logger) *NotifyQueue {
	return &NotifyQueue{
		client: client,
		stream: stream,
		group:  group,
		logger: logger,
	}
}

// Publish 把通知以 JSON 形式 XADD 进队列
func (q *NotifyQueue) Publish(ctx context.Context, n *models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	q.logger.Debug("Published notification to stream",
		zap.String("stream", q.stream),
		zap.String("message_id", id),
	)
	return nil
}

// EnsureGroup 创建消费者组，已存在时忽略
func (q *NotifyQueue) EnsureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Message 队列里的一条通知消息
type Message struct {
	ID   string
	Data []byte
}

// Read 以指定消费者身份阻塞读取一批消息
func (q *NotifyQueue) Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: consumer,
		Streams:  []string{q.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()

	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var messages []Message
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			data, _ := msg.Values["data"].(string)
			messages = append(messages, Message{ID: msg.ID, Data: []byte(data)})
		}
	}
	return messages, nil
}

// Ack 确认消息已处理
func (q *NotifyQueue) Ack(ctx context.Context, id string) error {
	return q.client.XAck(ctx, q.stream, q.group, id).Err()
}

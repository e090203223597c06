package media

import (
	"Orion_Video/pkg/logger"
	"Orion_Video/pkg/rabbitmq"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

// Cleaner 事务提交后清理媒体文件，失败只记日志，不影响已经提交的结果
type Cleaner interface {
	Cleanup(ctx context.Context, paths ...string)
}

// CleanupMessage 队列里传递的清理任务
type CleanupMessage struct {
	Paths     []string `json:"paths"`
	CreatedAt int64    `json:"created_at"`
}

const cleanupTimeout = 30 * time.Second

// DirectCleaner 在当前进程里并发删除
type DirectCleaner struct {
	store Store
}

func NewDirectCleaner(store Store) *DirectCleaner {
	return &DirectCleaner{store: store}
}

// Cleanup 和请求的ctx脱钩：请求结束了，清理也要做完
func (c *DirectCleaner) Cleanup(_ context.Context, paths ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	_ = DeleteAll(ctx, c.store, paths)
}

// DeleteAll 并发删除多个路径，每个失败都记一条 MediaCleanupFailed 日志，返回第一个错误
func DeleteAll(ctx context.Context, store Store, paths []string) error {
	var g errgroup.Group
	for _, p := range paths {
		if p == "" {
			continue
		}
		p := p
		g.Go(func() error {
			if err := store.Delete(ctx, p); err != nil {
				logger.Log.WithFields(logrus.Fields{
					"event": "MediaCleanupFailed",
					"path":  p,
				}).WithError(err).Error("媒体文件清理失败")
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// QueueCleaner 把清理任务投递到RabbitMQ，由consumer进程异步执行；投递失败时退回到直接删除
type QueueCleaner struct {
	conn     *amqp.Connection
	fallback Cleaner
}

func NewQueueCleaner(conn *amqp.Connection, fallback Cleaner) *QueueCleaner {
	return &QueueCleaner{conn: conn, fallback: fallback}
}

func (c *QueueCleaner) Cleanup(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	if err := c.publish(CleanupMessage{Paths: paths, CreatedAt: time.Now().Unix()}); err != nil {
		logger.Log.WithField("paths", paths).WithError(err).Warn("清理任务投递失败，改为直接删除")
		c.fallback.Cleanup(ctx, paths...)
	}
}

// 每条消息单独开一个channel，用完就关
func (c *QueueCleaner) publish(msg CleanupMessage) error {
	if c.conn == nil || c.conn.IsClosed() {
		return fmt.Errorf("RabbitMQ连接不可用")
	}
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return ch.Publish(
		"",
		rabbitmq.QueueMediaCleanup,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}

// HandleCleanupMessage consumer进程处理一条清理消息
// 返回 (是否重试, 错误)：坏消息不重试，删除失败重试
func HandleCleanupMessage(ctx context.Context, store Store, body []byte) (bool, error) {
	var msg CleanupMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return false, fmt.Errorf("消息JSON解析失败: %w", err)
	}
	if err := DeleteAll(ctx, store, msg.Paths); err != nil {
		return true, err
	}
	return false, nil
}

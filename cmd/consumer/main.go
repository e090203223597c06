package main

import (
	"Orion_Video/internal/bootstrap"
	"Orion_Video/internal/config"
	"Orion_Video/internal/media"
	"Orion_Video/pkg/logger"
	"Orion_Video/pkg/rabbitmq"
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/streadway/amqp"
)

// 消费者进程：从orion.media_cleanup.queue读取清理任务，删除视频提交之后留下的媒体文件
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	logger.InitLogger(logger.Options{
		File:       cfg.LogFile,
		Level:      cfg.LogLevel,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.NewMediaStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("媒体存储初始化失败: %v", err)
	}
	conn, err := rabbitmq.InitRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到RabbitMQ: %v", err)
	}
	defer conn.Close()
	if err := rabbitmq.DeclareQueues(conn); err != nil {
		logger.Log.Fatalf("声明队列失败: %v", err)
	}

	consumeMediaCleanup(ctx, conn, store)
}

// 媒体清理消费者：1、通过连接创建channel 2、注册消费者，手动确认 3、逐条处理，按结果Ack/Nack
func consumeMediaCleanup(ctx context.Context, conn *amqp.Connection, store media.Store) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Log.Fatalf("无法打开Channel: %v", err)
	}
	defer ch.Close()

	// 一次只取一条，删除失败重新入队不会堆积在本进程
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Log.Fatalf("设置Qos失败: %v", err)
	}
	msgs, err := ch.Consume(
		rabbitmq.QueueMediaCleanup, // queue
		"",                         // consumer
		false,                      // auto-ack
		false,                      // exclusive
		false,                      // no-local
		false,                      // no-wait
		nil,                        // args
	)
	if err != nil {
		logger.Log.Fatalf("无法注册媒体清理消费者: %v", err)
	}

	logger.Log.Info(" [*] 等待媒体清理消息中. 按 CTRL+C 退出")
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("消费者退出")
			return
		case d, ok := <-msgs:
			if !ok {
				logger.Log.Warn("消息通道已关闭")
				return
			}
			handleDelivery(ctx, store, d)
		}
	}
}

func handleDelivery(ctx context.Context, store media.Store, d amqp.Delivery) {
	logCtx := logger.Log.WithField("body", string(d.Body)).WithField("redelivered", d.Redelivered)
	logCtx.Info("收到一条媒体清理消息")

	opCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	retry, err := media.HandleCleanupMessage(opCtx, store, d.Body)
	switch {
	case err == nil:
		d.Ack(false)
	case retry && !d.Redelivered:
		logCtx.WithError(err).Warn("清理失败，重新入队一次")
		d.Nack(false, true)
	default:
		// 坏消息或者已经重试过，丢弃，文件留在存储里只记日志
		logCtx.WithError(err).Error("清理失败，丢弃消息")
		d.Nack(false, false)
	}
}

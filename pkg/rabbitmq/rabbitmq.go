package rabbitmq

import (
	"github.com/streadway/amqp"
)

// 遵循：项目名.业务领域.实体/功能
const QueueMediaCleanup = "orion.media_cleanup.queue"

// InitRabbitMQ 初始化RabbitMQ连接
func InitRabbitMQ(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// DeclareQueues 声明服务用到的持久化队列，有就不用创建（幂等）
func DeclareQueues(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		QueueMediaCleanup, // name
		true,              // durable
		false,             // autoDelete
		false,             // exclusive
		false,             // noWait
		nil,               // args
	)
	return err
}

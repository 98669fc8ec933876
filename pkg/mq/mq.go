// Package mq RabbitMQ发布/消费封装
//
// 拓扑：一个durable topic exchange，消费者声明自己的durable队列并按routing key绑定。
// 消息体统一为JSON，DeliveryMode=Persistent。
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/pkg/metrics"
)

// Config 连接配置
type Config struct {
	URL          string
	Exchange     string
	ExchangeType string // 默认topic
}

func (c Config) exchangeType() string {
	if c.ExchangeType == "" {
		return amqp.ExchangeTopic
	}
	return c.ExchangeType
}

// permanentError 标记不可重试的消费错误（消息格式错误等），直接丢弃不再入队
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent 包装为不可重试错误
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent 判断是否不可重试
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

func dial(cfg Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, cfg.exchangeType(), true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}
	return conn, ch, nil
}

// =========================================
// Publisher
// =========================================

// Publisher 消息发布者
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher 创建发布者并声明exchange
func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	conn, ch, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("消息发布者已创建", zap.String("exchange", cfg.Exchange))
	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

// Publish 发布JSON消息
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("消息序列化失败: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	metrics.MessagesPublishedTotal.WithLabelValues(p.exchange, routingKey, metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}

	p.logger.Debug("消息已发布", zap.String("routing_key", routingKey), zap.Int("bytes", len(body)))
	return nil
}

// Close 关闭连接
func (p *Publisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// =========================================
// Consumer
// =========================================

// Handler 消息处理函数
// 返回nil确认消息；返回Permanent(err)丢弃；其他错误重新入队
type Handler func(ctx context.Context, body []byte) error

// Consumer 消息消费者
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	prefetch int
	logger   *zap.Logger
}

// NewConsumer 创建消费者，声明队列并绑定routing keys
func NewConsumer(cfg Config, queue string, routingKeys []string, prefetch int, logger *zap.Logger) (*Consumer, error) {
	conn, ch, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, key := range routingKeys {
		if err := ch.QueueBind(q.Name, key, cfg.Exchange, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("绑定Queue失败(%s): %w", key, err)
		}
	}

	if prefetch <= 0 {
		prefetch = 1
	}

	logger.Info("消息消费者已创建", zap.String("queue", q.Name), zap.Strings("routing_keys", routingKeys))
	return &Consumer{
		conn:     conn,
		channel:  ch,
		queue:    q.Name,
		prefetch: prefetch,
		logger:   logger,
	}, nil
}

// Consume 阻塞消费直到ctx取消
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	if err := c.channel.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	msgs, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	c.logger.Info("开始消费消息", zap.String("queue", c.queue))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("消费者退出", zap.String("queue", c.queue))
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("消息Channel已关闭")
			}
			dispatch(ctx, c.queue, msg, handler, c.logger)
		}
	}
}

// dispatch 处理单条消息并ack/nack
func dispatch(ctx context.Context, queue string, msg amqp.Delivery, handler Handler, logger *zap.Logger) {
	start := time.Now()
	err := handler(ctx, msg.Body)
	metrics.MessageProcessingDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.MessagesConsumedTotal.WithLabelValues(queue, "success").Inc()
		if ackErr := msg.Ack(false); ackErr != nil {
			logger.Warn("ack失败", zap.Error(ackErr))
		}
	case IsPermanent(err):
		metrics.MessagesConsumedTotal.WithLabelValues(queue, "dropped").Inc()
		logger.Error("消息无法处理，已丢弃",
			zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		if nackErr := msg.Nack(false, false); nackErr != nil {
			logger.Warn("nack失败", zap.Error(nackErr))
		}
	default:
		metrics.MessagesConsumedTotal.WithLabelValues(queue, "requeued").Inc()
		logger.Warn("消息处理失败，重新入队",
			zap.String("routing_key", msg.RoutingKey), zap.Bool("redelivered", msg.Redelivered), zap.Error(err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			logger.Warn("nack失败", zap.Error(nackErr))
		}
	}
}

// Close 关闭连接
func (c *Consumer) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

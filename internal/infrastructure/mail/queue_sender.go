// Package mail 邮件投递
//
// API进程通过QueueSender把邮件写入RabbitMQ，worker进程消费后由SMTPSender发出，
// 请求链路不等待SMTP。
package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/mail"
)

// Publisher 消息发布（*mq.Publisher）
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// QueueSender 把邮件投递到消息队列
type QueueSender struct {
	publisher  Publisher
	routingKey string
	logger     *zap.Logger
}

var _ mail.Sender = (*QueueSender)(nil)

// NewQueueSender 创建队列发送器
func NewQueueSender(publisher Publisher, routingKey string, logger *zap.Logger) *QueueSender {
	return &QueueSender{
		publisher:  publisher,
		routingKey: routingKey,
		logger:     logger.Named("mail"),
	}
}

// Send 入队即返回，真正的发送结果在worker里记录
func (s *QueueSender) Send(ctx context.Context, msg mail.Message) error {
	if err := s.publisher.Publish(ctx, s.routingKey, msg); err != nil {
		return err
	}
	s.logger.Debug("邮件已入队", zap.String("to", msg.To), zap.String("template", msg.Template))
	return nil
}

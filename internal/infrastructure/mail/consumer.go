package mail

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/mail"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/mq"
)

// NewHandler worker消费邮件任务
// 消息格式错误、收件人非法直接丢弃；SMTP失败重新入队
func NewHandler(sender mail.Sender, logger *zap.Logger) mq.Handler {
	logger = logger.Named("mail_worker")
	return func(ctx context.Context, body []byte) error {
		var msg mail.Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return mq.Permanent(err)
		}
		if msg.To == "" || (msg.HTML == "" && msg.Text == "") {
			return mq.Permanent(errors.New("mail job missing recipient or body"))
		}

		err := sender.Send(ctx, msg)
		if apperrors.IsKind(err, apperrors.KindValidation) {
			logger.Warn("收件人无效，丢弃邮件", zap.String("to", msg.To), zap.Error(err))
			return mq.Permanent(err)
		}
		return err
	}
}

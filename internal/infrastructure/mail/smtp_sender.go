package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	netmail "net/mail"
	"net/smtp"
	"net/textproto"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xiebiao/perfumestore/internal/domain/mail"
	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/metrics"
)

// sendFunc 与smtp.SendMail签名一致，测试时替换
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender 通过SMTP发送邮件，令牌桶限制发送速率（SMTP服务商通常有每秒上限）
type SMTPSender struct {
	addr    string
	auth    smtp.Auth
	from    *netmail.Address
	limiter *rate.Limiter
	send    sendFunc
	now     func() time.Time
	logger  *zap.Logger
}

var _ mail.Sender = (*SMTPSender)(nil)

// NewSMTPSender 创建SMTP发送器，rate<=0表示不限速
func NewSMTPSender(cfg config.MailConfig, logger *zap.Logger) (*SMTPSender, error) {
	from, err := netmail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("发件人地址无效 %q: %w", cfg.From, err)
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &SMTPSender{
		addr:    cfg.Addr(),
		auth:    auth,
		from:    from,
		limiter: rate.NewLimiter(limit, burst),
		send:    smtp.SendMail,
		now:     time.Now,
		logger:  logger.Named("smtp"),
	}, nil
}

// Send 等待令牌后发送；ctx取消时放弃
func (s *SMTPSender) Send(ctx context.Context, msg mail.Message) (err error) {
	defer func() {
		metrics.MailSentTotal.WithLabelValues(templateLabel(msg.Template), metrics.Result(err)).Inc()
	}()

	to, err := netmail.ParseAddress(msg.To)
	if err != nil {
		return apperrors.New(apperrors.ErrCodeInvalidParams, "invalid recipient address")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := s.build(to, msg)
	if err != nil {
		return apperrors.Wrap(err, "构建邮件失败")
	}

	if err := s.send(s.addr, s.auth, s.from.Address, []string{to.Address}, body); err != nil {
		s.logger.Warn("SMTP发送失败", zap.String("to", to.Address), zap.String("template", msg.Template), zap.Error(err))
		return &apperrors.AppError{Code: apperrors.ErrCodeMailTransport, Message: "mail transport failed", Err: err}
	}

	s.logger.Info("邮件已发送", zap.String("to", to.Address), zap.String("template", msg.Template))
	return nil
}

// build multipart/alternative：纯文本在前，HTML在后
func (s *SMTPSender) build(to *netmail.Address, msg mail.Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("From", s.from.String())
	header.Set("To", to.String())
	header.Set("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header.Set("Date", s.now().Format(time.RFC1123Z))
	header.Set("MIME-Version", "1.0")
	header.Set("Content-Type", "multipart/alternative; boundary="+mw.Boundary())

	var head bytes.Buffer
	for _, k := range []string{"From", "To", "Subject", "Date", "MIME-Version", "Content-Type"} {
		fmt.Fprintf(&head, "%s: %s\r\n", k, header.Get(k))
	}
	head.WriteString("\r\n")

	for _, part := range []struct{ contentType, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	} {
		if part.body == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return append(head.Bytes(), buf.Bytes()...), nil
}

func templateLabel(name string) string {
	if name == "" {
		return "none"
	}
	return name
}

// Package mail 事务邮件
package mail

import "context"

//go:generate mockgen -destination=mock/sender_mock.go -package=mock github.com/xiebiao/perfumestore/internal/domain/mail Sender

// Message 邮件内容
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
	Text     string `json:"text"`
	Template string `json:"template"` // 模板名，只用于日志和指标
}

// Sender 发送邮件
// 调用方把失败当作非关键错误：记录日志，不影响主流程
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

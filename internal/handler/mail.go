package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
)

// publishMail 把邮件消息投递到通知队列
// 投递失败只记录日志，业务结果不依赖通知是否送达，未送达的通知靠人工补发
func (h *Handler) publishMail(mailMessage domain.MailMessage) {
	mailData, err := json.Marshal(mailMessage)
	if err != nil {
		slog.Error("邮件信息序列化失败", "type", mailMessage.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.mailChannel.PublishWithContext(
		ctx,
		"",
		"notification_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	); err != nil {
		slog.Error("通知消息投递失败", "type", mailMessage.Type, "to", mailMessage.To, "error", err)
	}
}

package service

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/yeisme/fileuploader/pkg/queue"
)

// HandlerRegistry 注册订阅处理器，由 mq.Client 实现.
type HandlerRegistry interface {
	AddHandler(name, topic string, fn message.NoPublishHandlerFunc)
}

// RegisterAudit 订阅上传生命周期事件并写入审计日志.
// 解析失败的消息直接丢弃（返回 nil 以 Ack），避免在 Router 中反复重投.
func RegisterAudit(reg HandlerRegistry, logger zerolog.Logger) {
	logger = logger.With().Str("component", "audit").Logger()

	reg.AddHandler("audit.upload.committed", queue.TopicUploadCommitted, func(msg *message.Message) error {
		ev, err := queue.ParseUploadCommitted(msg)
		if err != nil {
			logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("drop malformed event")
			return nil
		}

		logger.Info().
			Str("request_id", ev.Header.RequestID).
			Str("file", ev.Payload.File.Name).
			Int64("size", ev.Payload.File.Size).
			Str("checksum", ev.Payload.File.Checksum).
			Bool("overwrote", ev.Payload.Overwrote).
			Str("client_ip", ev.Payload.ClientIP).
			Msg("upload committed")

		return nil
	})

	reg.AddHandler("audit.upload.rejected", queue.TopicUploadRejected, func(msg *message.Message) error {
		ev, err := queue.ParseWatermillMessage[queue.UploadRejectedPayload](msg)
		if err != nil {
			logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("drop malformed event")
			return nil
		}

		logger.Info().
			Str("request_id", ev.Header.RequestID).
			Str("reason", ev.Payload.Reason).
			Str("client_ip", ev.Payload.ClientIP).
			Msg("upload rejected")

		return nil
	})

	reg.AddHandler("audit.upload.failed", queue.TopicUploadFailed, func(msg *message.Message) error {
		ev, err := queue.ParseWatermillMessage[queue.UploadFailedPayload](msg)
		if err != nil {
			logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("drop malformed event")
			return nil
		}

		logger.Warn().
			Str("request_id", ev.Header.RequestID).
			Str("stage", ev.Payload.Stage).
			Str("file", ev.Payload.FileName).
			Int("status", ev.Payload.Status).
			Str("error", ev.Payload.Error).
			Str("client_ip", ev.Payload.ClientIP).
			Msg("upload failed")

		return nil
	})
}

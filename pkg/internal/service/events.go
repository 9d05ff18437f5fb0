package service

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/fileuploader/pkg/configs"
	ctxpkg "github.com/yeisme/fileuploader/pkg/context"
	"github.com/yeisme/fileuploader/pkg/queue"
)

// eventPublisher 按配置开关发布上传生命周期事件. 发布失败只记录日志，不影响响应.
type eventPublisher struct {
	pub queue.Publisher
	cfg configs.EventsConfig
}

func newEventPublisher(pub queue.Publisher, cfg configs.EventsConfig) *eventPublisher {
	if pub == nil || !cfg.Enabled {
		return nil
	}

	return &eventPublisher{pub: pub, cfg: cfg}
}

func headerOpts(ctx context.Context) []func(*queue.EventHeader) {
	opts := []func(*queue.EventHeader){
		queue.WithProducer(configs.DefaultMQClientID),
		queue.WithRequestID(ctxpkg.RequestID(ctx)),
	}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	return opts
}

func (e *eventPublisher) committed(ctx context.Context, p queue.UploadCommittedPayload) {
	if e == nil || !e.cfg.Upload.Committed {
		return
	}

	e.report(ctx, queue.TopicUploadCommitted, queue.PublishUploadCommitted(e.pub, p, headerOpts(ctx)...))
}

func (e *eventPublisher) rejected(ctx context.Context, p queue.UploadRejectedPayload) {
	if e == nil || !e.cfg.Upload.Rejected {
		return
	}

	e.report(ctx, queue.TopicUploadRejected, queue.PublishUploadRejected(e.pub, p, headerOpts(ctx)...))
}

func (e *eventPublisher) failed(ctx context.Context, p queue.UploadFailedPayload) {
	if e == nil || !e.cfg.Upload.Failed {
		return
	}

	e.report(ctx, queue.TopicUploadFailed, queue.PublishUploadFailed(e.pub, p, headerOpts(ctx)...))
}

func (e *eventPublisher) report(ctx context.Context, topic string, err error) {
	if err == nil {
		return
	}

	logger := ctxpkg.Logger(ctx)
	logger.Warn().Err(err).Str("topic", topic).Msg("publish event failed")
}

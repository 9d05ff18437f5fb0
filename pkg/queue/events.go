package queue

import "github.com/ThreeDotsLabs/watermill/message"

// Publisher 发布事件所需的最小接口，由 mq.Client 实现.
type Publisher interface {
	Publish(topic string, msgs ...*message.Message) error
}

// publish 构造消息并发布到 topic.
func publish[T any](pub Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// PublishUploadCommitted 发布 fu.upload.committed 事件.
func PublishUploadCommitted(pub Publisher, payload UploadCommittedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicUploadCommitted, payload, opts...)
}

// PublishUploadRejected 发布 fu.upload.rejected 事件.
func PublishUploadRejected(pub Publisher, payload UploadRejectedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicUploadRejected, payload, opts...)
}

// PublishUploadFailed 发布 fu.upload.failed 事件.
func PublishUploadFailed(pub Publisher, payload UploadFailedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicUploadFailed, payload, opts...)
}

// PublishScratchReaped 发布 fu.scratch.reaped 事件.
func PublishScratchReaped(pub Publisher, payload ScratchReapedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicScratchReaped, payload, opts...)
}

// ParseUploadCommitted 将 Watermill 消息解析为强类型 Envelope.
func ParseUploadCommitted(msg *message.Message) (Message[UploadCommittedPayload], error) {
	return ParseWatermillMessage[UploadCommittedPayload](msg)
}

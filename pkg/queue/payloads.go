package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪 ID.
	TraceID string `json:"trace_id,omitempty"`
	// RequestID 产生事件的 HTTP 请求 ID.
	RequestID string `json:"request_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileRef 描述一个上传文件.
type FileRef struct {
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"`
	Size        int64  `json:"size"`
	Checksum    string `json:"checksum,omitempty"` // xxhash64，十六进制
	ContentType string `json:"content_type,omitempty"`
}

// UploadCommittedPayload 文件已写入上传目录.
type UploadCommittedPayload struct {
	File       FileRef `json:"file"`
	Overwrote  bool    `json:"overwrote,omitempty"`
	ClientIP   string  `json:"client_ip,omitempty"`
	DurationMS int64   `json:"duration_ms"`
}

// UploadRejectedPayload 校验未通过.
type UploadRejectedPayload struct {
	Reason   string `json:"reason"` // missing_password / wrong_password / missing_file
	FileName string `json:"file_name,omitempty"`
	ClientIP string `json:"client_ip,omitempty"`
}

// UploadFailedPayload 上传失败.
type UploadFailedPayload struct {
	Stage    string `json:"stage"` // receive / commit
	FileName string `json:"file_name,omitempty"`
	Error    string `json:"error"`
	Status   int    `json:"status"`
	ClientIP string `json:"client_ip,omitempty"`
}

// ScratchReapedPayload 回收任务删除了孤儿临时文件.
type ScratchReapedPayload struct {
	Dir     string `json:"dir"`
	Removed int    `json:"removed"`
}

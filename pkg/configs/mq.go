package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeGoChannel MQType = "gochannel" // 进程内发布订阅，无外部依赖
	MQTypeNATS      MQType = "nats"

	DefaultMQURL          = "nats://localhost:4222"
	DefaultMQClientID     = "fileuploader" // 默认客户端ID
	DefaultMaxReconnects  = 5              // 默认最大重连次数.
	DefaultReconnectWait  = 5              // 默认重连等待时间（秒）.
	DefaultPingInterval   = 20             // 默认ping间隔 (秒)
	DefaultBufferSize     = 32768          // 默认重连缓冲区大小 (32KB)
	DefaultChannelBuffer  = 64             // gochannel 每个订阅者的缓冲
	DefaultConnectTimeout = 5 * time.Second
)

// MQConfig 消息队列配置.
type MQConfig struct {
	Type      MQType            `mapstructure:"type"      rule:"oneof=gochannel nats"`
	Common    MQCommonConfig    `mapstructure:"common"`
	GoChannel MQGoChannelConfig `mapstructure:"gochannel"`
	NATS      MQNATSConfig      `mapstructure:"nats"`
}

// MQCommonConfig 通用MQ配置.
type MQCommonConfig struct {
	URL            string        `mapstructure:"url"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	ClientID       string        `mapstructure:"client_id"`
	MaxReconnects  int           `mapstructure:"max_reconnects"  rule:"min=0,max=100"`
	ReconnectWait  int           `mapstructure:"reconnect_wait"  rule:"min=1,max=300"`
	PingInterval   int           `mapstructure:"ping_interval"   rule:"min=1,max=300"`
	BufferSize     int           `mapstructure:"buffer_size"     rule:"min=1024,max=1048576"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// MQGoChannelConfig 进程内 gochannel 配置.
type MQGoChannelConfig struct {
	OutputChannelBuffer int64 `mapstructure:"output_channel_buffer" rule:"min=0"`
	Persistent          bool  `mapstructure:"persistent"`
}

// MQNATSConfig NATS MQ 配置.
type MQNATSConfig struct {
	JetStreamEnabled       bool     `mapstructure:"jetstream_enabled"`
	SubjectPrefix          string   `mapstructure:"subject_prefix"`
	JetStreamAutoProvision bool     `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool     `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool     `mapstructure:"jetstream_ack_async"`
	JetStreamDurablePrefix string   `mapstructure:"jetstream_durable_prefix"`
	JWT                    string   `mapstructure:"jwt"`
	NKey                   string   `mapstructure:"nkey"`
	ClusterURLs            []string `mapstructure:"cluster_urls"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeGoChannel)

	// Common 默认值
	v.SetDefault("mq.common.url", DefaultMQURL)
	v.SetDefault("mq.common.user", "")
	v.SetDefault("mq.common.password", "")
	v.SetDefault("mq.common.client_id", DefaultMQClientID)
	v.SetDefault("mq.common.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.common.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.common.ping_interval", DefaultPingInterval)
	v.SetDefault("mq.common.buffer_size", DefaultBufferSize)
	v.SetDefault("mq.common.connect_timeout", DefaultConnectTimeout)

	// gochannel 默认值
	v.SetDefault("mq.gochannel.output_channel_buffer", DefaultChannelBuffer)
	v.SetDefault("mq.gochannel.persistent", false)

	// NATS 默认值
	v.SetDefault("mq.nats.jetstream_enabled", false)
	v.SetDefault("mq.nats.subject_prefix", "fileuploader.")
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_ack_async", false)
	v.SetDefault("mq.nats.jetstream_durable_prefix", "fileuploader-durable")
	v.SetDefault("mq.nats.jwt", "")
	v.SetDefault("mq.nats.nkey", "")
	v.SetDefault("mq.nats.cluster_urls", []string{})
}

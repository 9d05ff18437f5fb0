// Package mq 提供基于 Watermill 库的统一消息队列操作接口.
// 支持发布/订阅模式，并通过工厂模式抽象不同的 MQ 实现.
//
// 支持的 MQ 类型：
//   - gochannel（进程内，默认）
//   - NATS（支持 JetStream）
//
// 使用示例：
//
//	client, err := mq.New(ctx, cfg.MQ, mq.WithMetrics(metrics.GetRegistry()))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.AddHandler("audit", queue.TopicUploadCommitted, func(msg *message.Message) error {
//		fmt.Println(string(msg.Payload))
//		return nil
//	})
//	go client.Run(ctx)
package mq

import (
	"context"
	"errors"
	"fmt"
	"slices"

	watermill "github.com/ThreeDotsLabs/watermill"
	wmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/fileuploader/pkg/configs"
	nlog "github.com/yeisme/fileuploader/pkg/log"
)

// ErrNotInitialized 客户端未初始化.
var ErrNotInitialized = errors.New("mq client not initialized")

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// RegisteredTypes 返回已注册的 MQ 类型，按名称排序.
func RegisteredTypes() []configs.MQType {
	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}

// Client 封装 watermill Publisher、Subscriber 与处理订阅消息的 Router.
type Client struct {
	typ        configs.MQType
	prefix     string
	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router
	handlers   int
}

// Option 配置 Client.
type Option func(*options)

type options struct {
	registry prometheus.Registerer
	logger   watermill.LoggerAdapter
}

// WithMetrics 为 Publisher、Subscriber 和 Router 增加 Prometheus 指标.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithLogger 替换默认的 zerolog 适配器.
func WithLogger(l watermill.LoggerAdapter) Option {
	return func(o *options) { o.logger = l }
}

// New 按配置创建消息队列客户端.
func New(ctx context.Context, cfg configs.MQConfig, opts ...Option) (*Client, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = NewLoggerAdapter(nlog.Logger())
	}

	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	pub, sub, err := factory(ctx, &cfg, o.logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	router, err := message.NewRouter(message.RouterConfig{}, o.logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	if o.registry != nil {
		builder := wmetrics.NewPrometheusMetricsBuilder(o.registry, configs.DefaultMQClientID, "mq")
		builder.AddPrometheusRouterMetrics(router)

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	c := &Client{typ: cfg.Type, publisher: pub, subscriber: sub, router: router}
	if cfg.Type == configs.MQTypeNATS {
		c.prefix = cfg.NATS.SubjectPrefix
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Msg("mq client initialized")

	return c, nil
}

// Type 返回 MQ 类型.
func (c *Client) Type() configs.MQType { return c.typ }

// topic 返回底层实现使用的主题名（NATS 下带 subject 前缀）.
func (c *Client) topic(t string) string { return c.prefix + t }

// Publish 发布消息，实现 message.Publisher.
func (c *Client) Publish(topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return ErrNotInitialized
	}

	return c.publisher.Publish(c.topic(topic), msgs...)
}

// Subscribe 订阅主题，调用方负责 Ack/Nack.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, ErrNotInitialized
	}

	return c.subscriber.Subscribe(ctx, c.topic(topic))
}

// AddHandler 注册只消费不发布的处理器，需在 Run 之前调用.
func (c *Client) AddHandler(name, topic string, fn message.NoPublishHandlerFunc) {
	c.router.AddNoPublisherHandler(name, c.topic(topic), c.subscriber, fn)
	c.handlers++
}

// Run 运行 Router 直到 ctx 结束或 Close 被调用；没有处理器时立即返回.
func (c *Client) Run(ctx context.Context) error {
	if c.handlers == 0 {
		return nil
	}

	return c.router.Run(ctx)
}

// Running 在 Router 开始处理消息后关闭.
func (c *Client) Running() chan struct{} { return c.router.Running() }

// Close 关闭资源.
func (c *Client) Close() error {
	var errs []error

	if c.router != nil && c.handlers > 0 {
		errs = append(errs, c.router.Close())
	}

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	if c.subscriber != nil {
		errs = append(errs, c.subscriber.Close())
	}

	return errors.Join(errs...)
}

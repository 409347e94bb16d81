// Package mq 基于 Watermill 提供统一的发布/订阅客户端.
// 后端通过工厂注册：memory（gochannel）、nats（可选 JetStream）、redis（pub/sub）.
//
// 使用示例：
//
//	client, err := mq.New(ctx, &configs.GetConfig().MQ)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	msg, _ := queue.NewWatermillMessage(queue.TopicDocumentUploaded, payload)
//	_ = client.Publish(ctx, queue.TopicDocumentUploaded, msg)
//
//	ch, _ := client.Subscribe(ctx, queue.TopicDocumentUploaded)
//	for m := range ch {
//		m.Ack()
//	}
package mq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/docflow/pkg/configs"
	nlog "github.com/yeisme/docflow/pkg/log"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[configs.MQType]Factory{}
)

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的 MQ 类型（已排序）.
func GetRegisteredMQTypes() []configs.MQType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router
	closeFunc  func()
	closeOnce  sync.Once
}

// NewClient 使用现成的 Publisher/Subscriber 构造 Client，常用于测试.
func NewClient(pub message.Publisher, sub message.Subscriber) *Client {
	return &Client{publisher: pub, subscriber: sub}
}

// Publisher 返回底层 Publisher.
func (c *Client) Publisher() message.Publisher {
	if c == nil {
		return nil
	}

	return c.publisher
}

// Publish 便捷发布.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("mq publisher not initialized")
	}

	for _, m := range msgs {
		m.SetContext(ctx)
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 便捷订阅.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, fmt.Errorf("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Close 关闭资源，可重复调用.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	var errs []error

	c.closeOnce.Do(func() {
		if c.router != nil {
			errs = append(errs, c.router.Close())
		}

		if c.publisher != nil {
			errs = append(errs, c.publisher.Close())
		}

		if c.subscriber != nil {
			errs = append(errs, c.subscriber.Close())
		}

		if c.closeFunc != nil {
			c.closeFunc()
		}
	})

	return errors.Join(errs...)
}

// New 根据配置创建 MQ 客户端；common.enable_metrics 打开时用 prometheus 装饰收发端.
func New(ctx context.Context, cfg *configs.MQConfig) (*Client, error) {
	mqType := cfg.Type
	if mqType == "" {
		mqType = configs.MQTypeMemory
	}

	factoriesMu.RLock()
	factory, ok := factories[mqType]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", mqType)
	}

	logger := &zerologAdapter{l: nlog.Logger()}

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", mqType, err)
	}

	client := &Client{publisher: pub, subscriber: sub}

	if cfg.Common.EnableMetrics {
		if err := client.decorateMetrics(ctx, cfg.Common.Endpoint, logger); err != nil {
			_ = client.Close()
			return nil, err
		}
	}

	nlog.Logger().Info().Str("type", string(mqType)).Msg("mq client initialized")

	return client, nil
}

func (c *Client) decorateMetrics(ctx context.Context, endpoint string, logger watermill.LoggerAdapter) error {
	registry, closeServer := metrics.CreateRegistryAndServeHTTP(endpoint)
	c.closeFunc = closeServer

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}

	c.router = router

	builder := metrics.NewPrometheusMetricsBuilder(registry, "docflow", "mq")
	builder.AddPrometheusRouterMetrics(router)

	if c.publisher, err = builder.DecoratePublisher(c.publisher); err != nil {
		return fmt.Errorf("decorate publisher with metrics: %w", err)
	}

	if c.subscriber, err = builder.DecorateSubscriber(c.subscriber); err != nil {
		return fmt.Errorf("decorate subscriber with metrics: %w", err)
	}

	go func() {
		if runErr := router.Run(ctx); runErr != nil {
			nlog.Logger().Error().Err(runErr).Msg("mq router stopped")
		}
	}()

	nlog.Logger().Info().Str("endpoint", endpoint).Msg("mq metrics enabled")

	return nil
}

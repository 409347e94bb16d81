package mq

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	"github.com/yeisme/docflow/pkg/configs"
)

const (
	natsDrainTimeout   = 30 * time.Second
	natsFlusherTimeout = 10 * time.Second
	// 文档事件的订阅者只做通知转发，处理很快
	natsAckWait = 30 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// natsSettings 发布端与订阅端共用的连接参数.
type natsSettings struct {
	url       string
	options   []nats.Option
	jetStream wmnats.JetStreamConfig
	marshaler *wmnats.JSONMarshaler
}

func newNATSSettings(cfg *configs.MQConfig) natsSettings {
	c, n := cfg.Common, cfg.NATS

	opts := []nats.Option{
		nats.Name(c.ClientID),
		nats.MaxReconnects(c.MaxReconnects),
		nats.ReconnectWait(time.Duration(c.ReconnectWait) * time.Second),
		nats.PingInterval(time.Duration(c.PingInterval) * time.Second),
		nats.MaxPingsOutstanding(c.MaxPingsOut),
		nats.ReconnectBufSize(c.BufferSize),
		nats.DrainTimeout(natsDrainTimeout),
		nats.FlusherTimeout(natsFlusherTimeout),
		nats.RetryOnFailedConnect(true),
	}

	if c.ReconnectJitter {
		opts = append(opts, nats.ReconnectJitter(time.Second, 2*time.Second))
	}

	if n.JWT != "" {
		opts = append(opts, nats.UserJWTAndSeed(n.JWT, n.NKey))
	} else if c.User != "" {
		opts = append(opts, nats.UserInfo(c.User, c.Password))
	}

	url := c.URL
	if len(n.ClusterURLs) > 0 {
		url = strings.Join(n.ClusterURLs, ",")
	} else if !strings.Contains(url, "://") {
		url = "nats://" + url
	}

	return natsSettings{
		url:     url,
		options: opts,
		jetStream: wmnats.JetStreamConfig{
			Disabled:      !n.JetStreamEnabled,
			AutoProvision: n.JetStreamAutoProvision,
			TrackMsgId:    n.JetStreamTrackMsgID,
			AckAsync:      n.JetStreamAckAsync,
			DurablePrefix: n.JetStreamDurablePrefix,
		},
		marshaler: &wmnats.JSONMarshaler{},
	}
}

// natsFactory 创建 NATS 发布端与订阅端；LoadBalance 时多实例组成队列组，每条事件只投递一次.
func natsFactory(_ context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	s := newNATSSettings(cfg)

	logger.Info("connecting to nats", watermill.LogFields{
		"url":            s.url,
		"jetstream":      !s.jetStream.Disabled,
		"durable_prefix": s.jetStream.DurablePrefix,
	})

	pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         s.url,
		NatsOptions: s.options,
		JetStream:   s.jetStream,
		Marshaler:   s.marshaler,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("nats publisher: %w", err)
	}

	subCfg := wmnats.SubscriberConfig{
		URL:            s.url,
		NatsOptions:    s.options,
		JetStream:      s.jetStream,
		Unmarshaler:    s.marshaler,
		AckWaitTimeout: natsAckWait,
	}

	if cfg.NATS.LoadBalance {
		subCfg.QueueGroupPrefix = cfg.NATS.JetStreamDurablePrefix
	}

	sub, err := wmnats.NewSubscriber(subCfg, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, fmt.Errorf("nats subscriber: %w", err)
	}

	return pub, sub, nil
}

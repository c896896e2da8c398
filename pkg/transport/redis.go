package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-surveysync/internal/logger"
	"github.com/goliatone/go-surveysync/pkg/protocol"
)

// Default pub/sub channels.
const (
	DefaultCommandChannel = "surveysync:commands"
	DefaultEventChannel   = "surveysync:events"
)

// DefaultPublishTimeout bounds one event publish.
const DefaultPublishTimeout = 3 * time.Second

// RedisConfig describes the Redis connection.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient builds a client for cfg.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// RedisSink publishes events as JSON on a channel.
type RedisSink struct {
	client  redis.UniversalClient
	channel string
	timeout time.Duration
}

// NewRedisSink publishes to channel, or DefaultEventChannel when blank.
func NewRedisSink(client redis.UniversalClient, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultEventChannel
	}
	return &RedisSink{client: client, channel: channel, timeout: DefaultPublishTimeout}
}

// Emit implements protocol.EventSink.
func (s *RedisSink) Emit(ctx context.Context, event protocol.Event) error {
	raw, err := protocol.MarshalEvent(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Publish(ctx, s.channel, raw).Err(); err != nil {
		return fmt.Errorf("transport: redis publish %s: %w", s.channel, err)
	}
	return nil
}

// RedisSource reads host messages from a channel.
type RedisSource struct {
	client  redis.UniversalClient
	channel string
	logger  logger.Logger
	pubsub  *redis.PubSub
}

// NewRedisSource listens on channel, or DefaultCommandChannel when blank.
func NewRedisSource(client redis.UniversalClient, channel string, log logger.Logger) *RedisSource {
	if channel == "" {
		channel = DefaultCommandChannel
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RedisSource{client: client, channel: channel, logger: log}
}

// Open subscribes and waits for the server to confirm the subscription.
func (s *RedisSource) Open(ctx context.Context) error {
	if s.pubsub != nil {
		return nil
	}
	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("transport: redis subscribe %s: %w", s.channel, err)
	}
	s.pubsub = pubsub
	return nil
}

// Serve delivers messages to host until ctx is done or the subscription
// closes. It opens the subscription when Open was not called.
func (s *RedisSource) Serve(ctx context.Context, host Host) error {
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer s.Close()

	s.logger.Info("transport: listening for host messages", map[string]interface{}{"channel": s.channel})
	messages := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := host.DeliverRaw(ctx, []byte(msg.Payload)); err != nil {
				s.logger.Warn("transport: message not delivered", map[string]interface{}{
					"channel": msg.Channel,
					"error":   err.Error(),
				})
			}
		}
	}
}

// Close drops the subscription.
func (s *RedisSource) Close() error {
	if s.pubsub == nil {
		return nil
	}
	err := s.pubsub.Close()
	s.pubsub = nil
	return err
}

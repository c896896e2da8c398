package surveysync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-surveysync/internal/config"
	"github.com/goliatone/go-surveysync/internal/logger"
	"github.com/goliatone/go-surveysync/pkg/binding"
	"github.com/goliatone/go-surveysync/pkg/hooks"
	"github.com/goliatone/go-surveysync/pkg/loop"
	"github.com/goliatone/go-surveysync/pkg/protocol"
	"github.com/goliatone/go-surveysync/pkg/transport"
)

// ServiceOption customizes NewService.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	stdout   io.Writer
	redis    redis.UniversalClient
	sns      transport.SNSPublisher
	extra    []binding.Option
	hooks    *hooks.Hooks
	shutdown time.Duration
}

// WithEventOutput sets where the stdout sink writes.
func WithEventOutput(out io.Writer) ServiceOption {
	return func(o *serviceOptions) {
		o.stdout = out
	}
}

// WithRedisClient supplies the Redis client instead of dialing one from
// configuration.
func WithRedisClient(client redis.UniversalClient) ServiceOption {
	return func(o *serviceOptions) {
		o.redis = client
	}
}

// WithSNSPublisher supplies the SNS client instead of loading AWS
// configuration.
func WithSNSPublisher(publisher transport.SNSPublisher) ServiceOption {
	return func(o *serviceOptions) {
		o.sns = publisher
	}
}

// WithHooks registers lifecycle hooks for every instance.
func WithHooks(h hooks.Hooks) ServiceOption {
	return func(o *serviceOptions) {
		o.hooks = &h
	}
}

// WithRuntimeOptions appends binding options after the configured ones.
func WithRuntimeOptions(options ...binding.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.extra = append(o.extra, options...)
	}
}

// Service runs one runtime on its own loop behind the configured transport.
type Service struct {
	cfg      *config.Config
	logger   logger.Logger
	loop     *loop.Loop
	runtime  *binding.Runtime
	redis    redis.UniversalClient
	ownRedis bool
	shutdown time.Duration
}

// NewService wires a service from cfg. The loop is running when it returns.
func NewService(ctx context.Context, cfg *config.Config, log logger.Logger, options ...ServiceOption) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("surveysync: config is required")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	opts := serviceOptions{stdout: os.Stdout, shutdown: 5 * time.Second}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}

	s := &Service{cfg: cfg, logger: log, redis: opts.redis, shutdown: opts.shutdown}
	if s.redis == nil && cfg.UsesRedis() {
		s.redis = transport.NewRedisClient(transport.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.ownRedis = true
	}

	sink, err := s.buildSink(ctx, opts)
	if err != nil {
		s.closeRedis()
		return nil, err
	}
	catalog, err := cfg.ThemeCatalog()
	if err != nil {
		s.closeRedis()
		return nil, fmt.Errorf("surveysync: themes: %w", err)
	}
	registry, err := DefaultRenderers()
	if err != nil {
		s.closeRedis()
		return nil, err
	}

	runtimeOptions := []binding.Option{
		binding.WithSink(sink),
		binding.WithRenderers(registry),
		binding.WithDefaultView(cfg.Sync.DefaultView),
		binding.WithThemes(catalog),
		binding.WithLogger(log),
		binding.WithDebounceWindow(cfg.Sync.DebounceWindow),
	}
	if cfg.Hooks.Scripts {
		runtimeOptions = append(runtimeOptions, binding.WithScriptEngine(
			hooks.NewScriptEngine(hooks.WithScriptTimeout(cfg.Hooks.ScriptTimeout)),
		))
		log.Warn("surveysync: script hooks enabled, init payloads may run code", nil)
	}
	if opts.hooks != nil {
		runtimeOptions = append(runtimeOptions, binding.WithHooks(*opts.hooks))
	}
	runtimeOptions = append(runtimeOptions, opts.extra...)

	s.loop = loop.New()
	s.runtime, err = binding.New(s.loop, runtimeOptions...)
	if err != nil {
		s.loop.Stop()
		s.closeRedis()
		return nil, err
	}
	return s, nil
}

func (s *Service) buildSink(ctx context.Context, opts serviceOptions) (protocol.EventSink, error) {
	var sinks transport.Fanout
	for _, name := range s.cfg.Sync.Sinks {
		switch name {
		case config.SinkStdout:
			sinks = append(sinks, transport.NewWriter(opts.stdout))
		case config.SinkRedis:
			sinks = append(sinks, transport.NewRedisSink(s.redis, s.cfg.Redis.EventChannel))
		case config.SinkSNS:
			publisher := opts.sns
			if publisher == nil {
				client, err := transport.NewSNSClient(ctx, s.cfg.SNS.Region)
				if err != nil {
					return nil, err
				}
				publisher = client
			}
			sinks = append(sinks, transport.NewSNSSink(publisher, s.cfg.SNS.TopicARN))
		}
	}
	return sinks, nil
}

// Runtime exposes the hosted runtime. Its methods must run on the loop; use
// Deliver, DeliverRaw or Do from other goroutines.
func (s *Service) Runtime() *binding.Runtime {
	return s.runtime
}

// Do runs fn on the loop and waits for it.
func (s *Service) Do(ctx context.Context, fn func(rt *binding.Runtime) error) error {
	return s.loop.RunOnLoopSync(ctx, func() error { return fn(s.runtime) })
}

// Serve reads host messages until ctx is done, or until in is exhausted for
// the stdin transport. The inspection endpoint runs alongside when an HTTP
// address is configured.
func (s *Service) Serve(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpErr := make(chan error, 1)
	if addr := s.cfg.HTTP.Address; addr != "" {
		srv := &http.Server{Addr: addr, Handler: InspectHandler(s.runtime), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			s.logger.Info("surveysync: inspection endpoint listening", map[string]interface{}{"address": addr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErr <- err
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), s.shutdown)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var err error
	switch s.cfg.Sync.Transport {
	case config.TransportRedis:
		source := transport.NewRedisSource(s.redis, s.cfg.Redis.CommandChannel, s.logger)
		err = source.Serve(ctx, s.runtime)
	default:
		err = transport.ReadLines(ctx, in, s.runtime, s.logger)
		if err == nil {
			err = s.drain(ctx)
		}
	}
	select {
	case herr := <-httpErr:
		return fmt.Errorf("surveysync: inspection endpoint: %w", herr)
	default:
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// drain waits for messages already posted to the loop and for pending live
// events to flush.
func (s *Service) drain(ctx context.Context) error {
	if err := s.loop.RunOnLoopSync(ctx, func() error { return nil }); err != nil {
		return err
	}
	wait := s.cfg.Sync.DebounceWindow
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return s.loop.RunOnLoopSync(ctx, func() error { return nil })
}

// Close destroys every instance, stops the loop and releases connections.
func (s *Service) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	err := s.loop.RunOnLoopSync(ctx, func() error {
		for _, id := range s.runtime.Registry().IDs() {
			s.runtime.Destroy(id)
		}
		return nil
	})
	s.loop.Stop()
	return errors.Join(err, s.closeRedis())
}

func (s *Service) closeRedis() error {
	if s.redis == nil || !s.ownRedis {
		return nil
	}
	return s.redis.Close()
}

// Command kvcli sends one request to a mini-kv server and prints the reply.
//
//	kvcli [flags] get foo
//	server says: [0] bar
//
// The arguments after the flags form the request, in order.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mini-kv/client"
	"mini-kv/codec"
	"mini-kv/config"
	"mini-kv/loadbalance"
	"mini-kv/logx"
	"mini-kv/middleware"
	"mini-kv/registry"
	"mini-kv/transport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one kvcli invocation and returns the process exit code:
// 0 when a response was received, 1 when the cycle failed, 2 on usage errors.
func run(ctx context.Context, argv []string, out io.Writer) int {
	fs := flag.NewFlagSet("kvcli", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "path to a TOML or YAML config file")
	addr := fs.String("addr", "", "server address (overrides config)")
	timeout := fs.Duration("timeout", -1, "bound on the request/response cycle, 0 waits forever (overrides config)")
	format := fs.String("format", "text", "response rendering: text or json")
	logLevel := fs.String("log-level", "", "log verbosity (all, debug, info, warn, error, fatal, none)")
	logFormat := fs.String("log-format", "", "log output: auto, console or json")
	if err := fs.Parse(argv); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(out, "config: %v\n", err)
		return 2
	}

	// CLI flags override config file values
	if *addr != "" {
		cfg.Server.Addr = *addr
		cfg.Discovery.Endpoints = nil
	}
	if *timeout >= 0 {
		cfg.Server.Timeout = *timeout
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "config: %v\n", err)
		return 2
	}

	var renderer codec.Codec
	switch *format {
	case "text":
	case "json":
		renderer = codec.GetCodec(codec.CodecTypeJSON)
	default:
		fmt.Fprintf(out, "unknown -format %q: want text or json\n", *format)
		return 2
	}

	logx.Configure(cfg.Log.Level, cfg.Log.Format)
	logger := logx.Log.With().Str("component", "kvcli").Logger()

	resolver, closeResolver, err := newResolver(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("discovery setup failed")
		return 1
	}
	defer closeResolver()

	opts := []client.Option{
		client.WithLogger(logger),
		client.WithDialer(&transport.Dialer{Timeout: cfg.Server.DialTimeout}),
		client.Use(middleware.LoggingMiddleware(logger), middleware.TimeOutMiddleware(cfg.Server.Timeout)),
	}
	if cfg.Limit.Rate > 0 {
		opts = append(opts, client.Use(middleware.RateLimitMiddleware(cfg.Limit.Rate, cfg.Limit.Burst)))
	}
	cli := client.NewClient(resolver, opts...)

	resp, err := cli.Call(ctx, fs.Args()...)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return 1
	}

	if renderer == nil {
		fmt.Fprintln(out, resp.String())
		return 0
	}
	data, err := renderer.Encode(resp)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, string(data))
	return 0
}

// newResolver picks the static address, or etcd discovery when endpoints are configured.
func newResolver(cfg *config.Config) (client.Resolver, func(), error) {
	if len(cfg.Discovery.Endpoints) == 0 {
		return client.StaticResolver(cfg.Server.Addr), func() {}, nil
	}

	bal, err := loadbalance.New(cfg.Discovery.Balancer)
	if err != nil {
		return nil, nil, err
	}
	dialTimeout := cfg.Discovery.Timeout
	if dialTimeout == 0 {
		dialTimeout = 3 * time.Second
	}
	reg, err := registry.NewEtcdRegistry(cfg.Discovery.Endpoints, dialTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("connect etcd: %w", err)
	}
	resolver := &client.RegistryResolver{
		Registry: reg,
		Balancer: bal,
		Service:  cfg.Discovery.Service,
		Timeout:  cfg.Discovery.Timeout,
	}
	return resolver, func() { reg.Close() }, nil
}

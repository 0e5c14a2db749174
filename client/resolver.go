package client

import (
	"context"
	"fmt"
	"time"

	"mini-kv/loadbalance"
	"mini-kv/message"
	"mini-kv/registry"
)

// Resolver chooses the server address for a request.
type Resolver interface {
	Resolve(ctx context.Context, req *message.Request) (string, error)
}

// StaticResolver always returns the same address.
type StaticResolver string

func (r StaticResolver) Resolve(ctx context.Context, req *message.Request) (string, error) {
	return string(r), nil
}

// RegistryResolver discovers the servers of Service and lets Balancer pick
// one, keyed by the request's routing key.
type RegistryResolver struct {
	Registry registry.Registry
	Balancer loadbalance.Balancer
	Service  string
	Timeout  time.Duration // Bound on the discovery query, 0 means ctx only
}

func (r *RegistryResolver) Resolve(ctx context.Context, req *message.Request) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	instances, err := r.Registry.Discover(ctx, r.Service)
	if err != nil {
		return "", fmt.Errorf("discover %s: %w", r.Service, err)
	}

	instance, err := r.Balancer.Pick(req.Key(), instances)
	if err != nil {
		return "", fmt.Errorf("discover %s: %w", r.Service, err)
	}
	return instance.Addr, nil
}

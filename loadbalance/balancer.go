// Package loadbalance picks which discovered mini-kv server receives a request.
//
// Three strategies are implemented:
//   - RoundRobin:      equal-capacity servers
//   - WeightedRandom:  servers of different capacity
//   - ConsistentHash:  the same key always lands on the same server
package loadbalance

import (
	"fmt"
	"mini-kv/registry"
)

// Balancer is the interface for load balancing strategies.
type Balancer interface {
	// Pick selects one instance for a request whose routing key is key.
	// Strategies that do not route by key ignore it. Must be goroutine-safe.
	Pick(key string, instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}

// New returns the balancer registered under name.
func New(name string) (Balancer, error) {
	switch name {
	case "", "round_robin":
		return &RoundRobinBalancer{}, nil
	case "weighted_random":
		return &WeightedRandomBalancer{}, nil
	case "consistent_hash":
		return NewConsistentHashBalancer(), nil
	default:
		return nil, fmt.Errorf("unknown balancer %q", name)
	}
}

var errNoInstances = fmt.Errorf("no instances available")

// Package loadbalance picks which Bot API server instance serves a request.
//
// Three strategies are implemented:
//   - RoundRobin:      equal-capacity local API servers
//   - WeightedRandom:  servers of different size
//   - ConsistentHash:  one bot's requests stay on one server, which keeps its
//     update queue and downloaded files local
package loadbalance

import (
	"errors"
	"fmt"

	"mini-botapi/registry"
)

// Balancer is the interface for load balancing strategies.
// The transport calls Pick() before each request to select a target instance.
type Balancer interface {
	// Pick selects one instance from the available list. key identifies the
	// caller (the credential path segment) and is ignored by stateless strategies.
	// Called on every request, must be goroutine-safe.
	Pick(key string, instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}

// New returns the strategy called name: "round_robin" (default),
// "weighted_random" or "consistent_hash".
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

var errNoInstances = errors.New("no instances available")

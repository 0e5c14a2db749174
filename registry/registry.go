package registry

import "context"

// ServiceInstance is one mini-kv server reachable at Addr.
type ServiceInstance struct {
	Addr    string
	Weight  int // Weight for load balancing
	Version string
}

// Registry is the read side the client needs: who serves serviceName.
// Publishing instances is EtcdRegistry's job for server operators.
type Registry interface {
	Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error)
}

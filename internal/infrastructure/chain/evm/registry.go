package evmchain

import (
	"fmt"
	"sync"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
)

// Registry lazily creates and caches the rpc clients of the configured
// networks.
type Registry struct {
	networks  domain.Networks
	rateLimit int

	lock    sync.Mutex
	clients map[string]ports.ChainRpc
}

func NewRegistry(networks domain.Networks, rateLimit int) *Registry {
	return &Registry{
		networks:  networks,
		rateLimit: rateLimit,
		clients:   make(map[string]ports.ChainRpc),
	}
}

func (r *Registry) Chain(networkSlug string) (ports.ChainRpc, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if c, ok := r.clients[networkSlug]; ok {
		return c, nil
	}

	network, err := r.networks.Get(networkSlug)
	if err != nil {
		return nil, err
	}
	c, err := NewClient(network, r.rateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", networkSlug, err)
	}
	r.clients[networkSlug] = c
	return c, nil
}

package backend

import (
	"fmt"
	"sync"
)

// backend endpoint wrapper
type Endpoint struct {
	url    string
	health int32
}

// list of endpoints, enables sorting by health
type EndpointPool struct {
	endpoints []Endpoint
	lock      sync.RWMutex
}

func (pool *EndpointPool) Len() int { return len(pool.endpoints) }
func (pool *EndpointPool) Less(i, j int) bool {
	return pool.endpoints[i].health > pool.endpoints[j].health
}
func (pool *EndpointPool) Swap(i, j int) {
	pool.endpoints[i], pool.endpoints[j] = pool.endpoints[j], pool.endpoints[i]
}

func (pool *EndpointPool) activeEndpoint() (Endpoint, error) {
	pool.lock.RLock()
	defer pool.lock.RUnlock()
	if len(pool.endpoints) == 0 {
		return Endpoint{}, fmt.Errorf("no backend endpoints available")
	}
	return pool.endpoints[0], nil
}

// shift moves the active endpoint to the back of the pool, unless some other
// request already did it
func (pool *EndpointPool) shift(failed string) {
	pool.lock.Lock()
	defer pool.lock.Unlock()
	if len(pool.endpoints) < 2 || pool.endpoints[0].url != failed {
		return
	}
	pool.endpoints = append(pool.endpoints[1:], pool.endpoints[0])
}

func (pool *EndpointPool) size() int {
	pool.lock.RLock()
	defer pool.lock.RUnlock()
	return len(pool.endpoints)
}

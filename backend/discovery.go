package backend

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.vocdoni.io/dvote/crypto/ethereum"
	"go.vocdoni.io/dvote/log"
)

const (
	maxHealth = 100
	// healthPath is the resource requested to score an endpoint
	healthPath = "/elections"
)

// DiscoverEndpoints probes every url and returns the pool sorted by health.
// Unreachable endpoints are kept at the back with zero health. Probes are
// signed with signingKey, like any other request of the client.
func DiscoverEndpoints(urls []string, client *http.Client,
	signingKey *ethereum.SignKeys, timeout time.Duration) (*EndpointPool, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("no backend urls provided")
	}
	pool := &EndpointPool{}
	for _, url := range urls {
		url = strings.TrimSuffix(strings.TrimSpace(url), "/")
		if url == "" {
			continue
		}
		health := probe(url, client, signingKey, timeout)
		log.Debugf("discovered backend %s with health %d", url, health)
		pool.endpoints = append(pool.endpoints, Endpoint{url: url, health: health})
	}
	if pool.Len() == 0 {
		return nil, fmt.Errorf("no valid backend urls provided")
	}
	sort.Stable(pool)
	if pool.endpoints[0].health == 0 {
		log.Warnf("no backend endpoint answered the discovery probe, using %s", pool.endpoints[0].url)
	}
	return pool, nil
}

// probe scores an endpoint by the latency of its election listing.
// Every 10ms of latency costs one point.
func probe(url string, client *http.Client, signingKey *ethereum.SignKeys, timeout time.Duration) int32 {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+healthPath, nil)
	if err != nil {
		return 0
	}
	if err := signRequest(req, healthPath, signingKey); err != nil {
		log.Warnf("cannot sign the probe of backend %s: %v", url, err)
		return 0
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		log.Warnf("backend %s unreachable: %v", url, err)
		return 0
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Warnf("backend %s answered the probe with status %d", url, resp.StatusCode)
		return 0
	}
	health := int32(maxHealth - time.Since(start).Milliseconds()/10)
	if health < 1 {
		health = 1
	}
	return health
}

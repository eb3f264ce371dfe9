package backend

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.vocdoni.io/analytics/types"
	"go.vocdoni.io/analytics/util"
	"go.vocdoni.io/dvote/crypto/ethereum"
	"go.vocdoni.io/dvote/log"
)

const DEFAULT_TIMEOUT = 10 * time.Second

// maximum size of a backend response body
const maxResponseSize = 64 << 20

// ErrNotFound is returned when the backend does not know the requested resource
var ErrNotFound = errors.New("not found")

var requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "analytics",
	Subsystem: "backend",
	Name:      "request_seconds",
	Help:      "Latency of the requests to the backend data API",
	Buckets:   prometheus.DefBuckets,
}, []string{"resource", "code"})

// Collectors returns the prometheus collectors of the backend client
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{requestLatency}
}

type Client struct {
	pool       *EndpointPool
	http       *http.Client
	signingKey *ethereum.SignKeys
	timeout    time.Duration
}

// New initializes a new endpoint pool with the backend urls, in order of health
// returns the new Client
func New(urls []string, signingKey *ethereum.SignKeys, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DEFAULT_TIMEOUT
	}
	httpClient := &http.Client{Timeout: timeout}
	pool, err := DiscoverEndpoints(urls, httpClient, signingKey, timeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		pool:       pool,
		http:       httpClient,
		signingKey: signingKey,
		timeout:    timeout,
	}, nil
}

// ActiveEndpoint returns the address of the current active endpoint, if one exists
func (c *Client) ActiveEndpoint() string {
	ep, err := c.pool.activeEndpoint()
	if err != nil {
		return ""
	}
	return ep.url
}

// ListElections returns the short form of every election known by the backend
func (c *Client) ListElections(ctx context.Context) ([]types.ElectionRef, error) {
	var list []types.ElectionRef
	if err := c.get(ctx, "elections", "/elections", &list); err != nil {
		return nil, fmt.Errorf("could not list elections: %w", err)
	}
	return list, nil
}

// GetElection returns the full election with the given id
func (c *Client) GetElection(ctx context.Context, id int) (*types.Election, error) {
	election := new(types.Election)
	if err := c.get(ctx, "election", fmt.Sprintf("/elections/%d", id), election); err != nil {
		return nil, fmt.Errorf("could not get election %d: %w", id, err)
	}
	if election.ElectionID == 0 {
		election.ElectionID = id
	}
	if election.Candidates == nil {
		election.Candidates = []string{}
	}
	return election, nil
}

// GetResults returns the vote count per candidate of an election
func (c *Client) GetResults(ctx context.Context, id int) (types.ResultsMap, error) {
	results := types.ResultsMap{}
	if err := c.get(ctx, "results", fmt.Sprintf("/elections/%d/results", id), &results); err != nil {
		return nil, fmt.Errorf("could not get results of election %d: %w", id, err)
	}
	return results, nil
}

// GetUsers returns the registered users keyed by socialId. User addresses are
// returned checksummed, or empty when they are not valid ethereum addresses.
func (c *Client) GetUsers(ctx context.Context) (types.Users, error) {
	users := types.Users{}
	if err := c.get(ctx, "users", "/users", &users); err != nil {
		return nil, fmt.Errorf("could not get users: %w", err)
	}
	for id, u := range users {
		if u.SocialID == "" {
			u.SocialID = id
		}
		u.Address = util.NormalizeAddress(u.Address)
		users[id] = u
	}
	return users, nil
}

// HasVoted checks whether the user with socialID has cast a vote in the election
func (c *Client) HasVoted(ctx context.Context, id int, socialID string) (bool, error) {
	var resp types.HasVotedResponse
	path := fmt.Sprintf("/elections/%d/has-voted/%s", id, url.PathEscape(socialID))
	if err := c.get(ctx, "has-voted", path, &resp); err != nil {
		return false, fmt.Errorf("could not check vote of %s in election %d: %w", socialID, id, err)
	}
	return resp.HasVoted, nil
}

// get performs a GET request against the active endpoint and decodes the JSON
// body into out. On transport or server errors the pool is rotated and the
// request is retried once on the next endpoint.
func (c *Client) get(ctx context.Context, resource, path string, out interface{}) error {
	attempts := 2
	if n := c.pool.size(); n < attempts {
		attempts = n
	}
	var err error
	for i := 0; i < attempts; i++ {
		var ep Endpoint
		if ep, err = c.pool.activeEndpoint(); err != nil {
			return err
		}
		var retry bool
		if retry, err = c.do(ctx, ep.url, resource, path, out); err == nil || !retry {
			return err
		}
		log.Warnf("backend %s failed on %s: %v", ep.url, path, err)
		c.pool.shift(ep.url)
	}
	return err
}

func (c *Client) do(ctx context.Context, base, resource, path string,
	out interface{}) (retry bool, _ error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if err := signRequest(req, path, c.signingKey); err != nil {
		return false, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		requestLatency.WithLabelValues(resource, "error").Observe(time.Since(start).Seconds())
		// a cancelled caller must not rotate the pool
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	requestLatency.WithLabelValues(resource, fmt.Sprintf("%d", resp.StatusCode)).
		Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return true, fmt.Errorf("backend returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return true, fmt.Errorf("could not read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("could not decode response body: %w", err)
	}
	return false, nil
}

// signRequest adds the ethereum signature of the request path, so the backend
// can authenticate this service. A nil key leaves the request unsigned.
func signRequest(req *http.Request, path string, signingKey *ethereum.SignKeys) error {
	if signingKey == nil {
		return nil
	}
	signature, err := signingKey.SignEthereum([]byte(path))
	if err != nil {
		return fmt.Errorf("could not sign request: %w", err)
	}
	req.Header.Set("X-Signature", util.HexPrefixed(hex.EncodeToString(signature)))
	req.Header.Set("X-Address", signingKey.AddressString())
	return nil
}

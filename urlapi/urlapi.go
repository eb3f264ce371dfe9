package urlapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"go.vocdoni.io/analytics/config"
	"go.vocdoni.io/analytics/service"
	"go.vocdoni.io/analytics/types"
	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
	"go.vocdoni.io/dvote/log"
	"go.vocdoni.io/dvote/metrics"
)

const API_VERSION string = "v1"

// ADMIN_DEFAULT_QUOTA is the number of private calls granted to the admin
// token when the config does not set one
const ADMIN_DEFAULT_QUOTA = 2 << 16

type URLAPI struct {
	PrivateCalls uint64
	PublicCalls  uint64
	BaseRoute    string

	config       *config.API
	router       *httprouter.HTTProuter
	api          *bearerstdapi.BearerStandardAPI
	metricsagent *metrics.Agent
	service      *service.AnalyticsService
}

func NewURLAPI(router *httprouter.HTTProuter,
	cfg *config.API, metricsAgent *metrics.Agent) (*URLAPI, error) {
	if router == nil {
		return nil, fmt.Errorf("httprouter is nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("api config is nil")
	}
	baseRoute := cfg.Route
	if len(baseRoute) == 0 || baseRoute[0] != '/' {
		return nil, fmt.Errorf("invalid base route (%s), it must start with /", baseRoute)
	}
	// Remove trailing slash
	baseRoute = strings.TrimSuffix(baseRoute, "/")
	baseRoute += "/" + API_VERSION
	urlapi := URLAPI{
		config:       cfg,
		BaseRoute:    baseRoute,
		router:       router,
		metricsagent: metricsAgent,
	}
	log.Infof("url api available with baseRoute %s", baseRoute)
	urlapi.registerMetrics()
	var err error
	urlapi.api, err = bearerstdapi.NewBearerStandardAPI(router, baseRoute)
	if err != nil {
		return nil, err
	}
	return &urlapi, nil
}

// EnableAnalyticsHandlers registers the public analytics methods and, if an
// admin token is configured, the private ones
func (u *URLAPI) EnableAnalyticsHandlers(s *service.AnalyticsService) error {
	if s == nil {
		return fmt.Errorf("analytics service is nil")
	}
	u.service = s
	if err := u.enableElectionHandlers(); err != nil {
		return err
	}
	if err := u.enableAnalyticsHandlers(); err != nil {
		return err
	}
	if u.config.AdminToken == "" {
		log.Warnf("no admin token configured, private methods disabled")
		return nil
	}
	quota := u.config.AdminQuota
	if quota <= 0 {
		quota = ADMIN_DEFAULT_QUOTA
	}
	u.RegisterToken(u.config.AdminToken, quota)
	if err := u.enablePrivateHandlers(); err != nil {
		return err
	}
	return u.enableSnapshotHandlers()
}

func (u *URLAPI) RegisterToken(token string, requests int64) {
	log.Infof("register auth token %s...", token[:len(token)/4])
	u.api.AddAuthToken(token, requests)
}

type handlerFunc func(*bearerstdapi.BearerStandardAPIdata, *httprouter.HTTPContext) error

// registerMethod wraps the handler so every call is counted. Private methods
// require a registered bearer token.
func (u *URLAPI) registerMethod(pattern, method string, private bool, handler handlerFunc) error {
	counter := &u.PublicCalls
	access := "public"
	if private {
		counter = &u.PrivateCalls
		access = "private"
	}
	counted := func(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
		atomic.AddUint64(counter, 1)
		apiCalls.WithLabelValues(access, method, pattern).Inc()
		return handler(msg, ctx)
	}
	if private {
		return u.api.RegisterMethod(pattern, method, bearerstdapi.MethodAccessTypePrivate, counted)
	}
	return u.api.RegisterMethod(pattern, method, bearerstdapi.MethodAccessTypePublic, counted)
}

func sendResponse(response types.APIResponse, ctx *httprouter.HTTPContext) error {
	response.Ok = true
	data, err := json.Marshal(response)
	if err != nil {
		log.Errorf("error marshaling JSON: %v", err)
		return fmt.Errorf("error marshaling JSON: %w", err)
	}
	if err = ctx.Send(data); err != nil {
		log.Error(err)
		return err
	}
	return nil
}

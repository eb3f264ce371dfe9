package testcommon

import (
	"fmt"
	"net/http/httptest"
	"time"

	"go.vocdoni.io/analytics/backend"
	"go.vocdoni.io/analytics/config"
	"go.vocdoni.io/analytics/database"
	"go.vocdoni.io/analytics/database/pgsql"
	"go.vocdoni.io/analytics/database/testdb"
	"go.vocdoni.io/analytics/service"
	"go.vocdoni.io/analytics/urlapi"
	"go.vocdoni.io/dvote/crypto/ethereum"
	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/log"
)

type TestAPI struct {
	DB        database.Database
	Port      int
	Signer    *ethereum.SignKeys
	URL       string
	AuthToken string
	Backend   *TestBackend
	Server    *httptest.Server
}

// Start creates a new database connection and API endpoint for testing.
// If dbc is nil the in-memory testdb will be used.
// If route is empty the REST API and the test backend won't be initialized.
func (t *TestAPI) Start(dbc *config.DB, route, authToken string, port int) error {
	log.Init("info", "stdout")
	var err error
	if dbc != nil {
		// Postgres with sqlx
		pg, err := pgsql.New(dbc)
		if err != nil {
			return err
		}
		if err := pgsql.Migrator("upSync", pg); err != nil {
			return err
		}
		t.DB = pg
	} else if t.DB, err = testdb.New(); err != nil {
		return err
	}
	if route == "" {
		return nil
	}

	t.Signer = CreateEthRandomKeysBatch(1)[0]
	t.Backend = NewTestBackend(100)
	t.Server = t.Backend.Start()
	client, err := backend.New([]string{t.Server.URL}, t.Signer, 5*time.Second)
	if err != nil {
		return err
	}

	var httpRouter httprouter.HTTProuter
	if err = httpRouter.Init("127.0.0.1", port); err != nil {
		return err
	}
	// Rest api
	urlApi, err := urlapi.NewURLAPI(&httpRouter, &config.API{
		Route:      route,
		ListenPort: port,
		AdminToken: authToken,
	}, nil)
	if err != nil {
		return err
	}

	log.Infof("enabling analytics API methods")
	analytics := service.NewAnalyticsService(client, nil, t.DB, 4)
	if err := urlApi.EnableAnalyticsHandlers(analytics); err != nil {
		return err
	}
	t.Port = port
	t.URL = fmt.Sprintf("http://127.0.0.1:%d%s", port, route)
	t.AuthToken = authToken
	return nil
}

// Stop closes the test backend and the database
func (t *TestAPI) Stop() {
	if t.Server != nil {
		t.Server.Close()
	}
	if t.DB != nil {
		t.DB.Close()
	}
}

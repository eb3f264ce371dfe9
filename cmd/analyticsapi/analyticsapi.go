package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.vocdoni.io/analytics/backend"
	"go.vocdoni.io/analytics/config"
	"go.vocdoni.io/analytics/database"
	"go.vocdoni.io/analytics/database/kvcache"
	"go.vocdoni.io/analytics/database/pgsql"
	"go.vocdoni.io/analytics/service"
	"go.vocdoni.io/analytics/urlapi"
	"go.vocdoni.io/dvote/crypto/ethereum"
	dvotedb "go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/httprouter"
	log "go.vocdoni.io/dvote/log"
	"go.vocdoni.io/dvote/metrics"
)

func newConfig() (*config.Analytics, config.Error) {
	var err error
	var cfgError config.Error
	cfg := config.NewAnalyticsConfig()
	home, err := os.UserHomeDir()
	if err != nil {
		cfgError = config.Error{
			Critical: true,
			Message:  fmt.Sprintf("cannot get user home directory with error: %s", err),
		}
		return nil, cfgError
	}
	// flags
	flag.StringVar(&cfg.DataDir, "dataDir", home+"/.analyticsapi", "directory where data is stored")
	flag.StringVar(&cfg.LogLevel, "logLevel", "info", "Log level (debug, info, warn, error, fatal)")
	flag.StringVar(&cfg.LogOutput, "logOutput", "stdout", "Log output (stdout, stderr or filepath)")
	flag.StringVar(&cfg.LogErrorFile, "logErrorFile", "", "Log errors and warnings to a file")
	flag.BoolVar(&cfg.SaveConfig, "saveConfig", false,
		"overwrites an existing config file with the CLI provided flags")
	flag.StringVar(&cfg.SigningKey, "signingKey", "",
		"signing private key for the backend requests (if not specified, a new one will be created)")
	flag.StringVar(&cfg.API.AdminToken, "adminToken", "", "hexString token for private api calls")
	flag.Int64Var(&cfg.API.AdminQuota, "adminQuota", urlapi.ADMIN_DEFAULT_QUOTA,
		"number of private calls allowed to the admin token")
	flag.StringVar(&cfg.API.Route, "apiRoute", "/", "analytics API route")
	flag.StringVar(&cfg.API.ListenHost, "listenHost", "0.0.0.0", "API endpoint listen address")
	flag.IntVar(&cfg.API.ListenPort, "listenPort", 8000, "API endpoint http port")
	flag.StringVar(&cfg.API.Ssl.Domain, "sslDomain", "",
		"enable TLS secure domain with LetsEncrypt auto-generated certificate")
	flag.StringSliceVar(&cfg.Backend.Urls, "backendUrls", []string{"http://127.0.0.1:3000"},
		"urls of the voting backend data API")
	flag.IntVar(&cfg.Backend.Timeout, "backendTimeout", 10, "backend request timeout in seconds")
	flag.IntVar(&cfg.Backend.MaxConcurrentChecks, "maxConcurrentChecks",
		service.DefaultMaxConcurrentChecks, "parallel backend requests of a single query")
	flag.BoolVar(&cfg.Cache.Enabled, "cacheEnabled", true, "cache backend responses")
	flag.IntVar(&cfg.Cache.TTL, "cacheTTL", 30, "cached responses time to live in seconds")
	flag.StringVar(&cfg.Cache.EncryptionKey, "cacheEncryptionKey", "",
		"hexString encryption key for cached user data. Generated if empty")
	flag.BoolVar(&cfg.DB.Enabled, "dbEnabled", false, "enable the postgres snapshot storage")
	flag.StringVar(&cfg.DB.Host, "dbHost", "127.0.0.1", "DB server address")
	flag.IntVar(&cfg.DB.Port, "dbPort", 5432, "DB server port")
	flag.StringVar(&cfg.DB.User, "dbUser", "user", "DB Username")
	flag.StringVar(&cfg.DB.Password, "dbPassword", "password", "DB password")
	flag.StringVar(&cfg.DB.Dbname, "dbName", "database", "DB database name")
	flag.StringVar(&cfg.DB.Sslmode, "dbSslmode", "prefer", "DB postgres sslmode")
	flag.StringVar(&cfg.Migrate.Action, "migrateAction", "", "Migration action (up,down,status)")
	// metrics
	flag.BoolVar(&cfg.Metrics.Enabled, "metricsEnabled", true, "enable prometheus metrics")
	flag.IntVar(&cfg.Metrics.RefreshInterval, "metricsRefreshInterval", 10,
		"metrics refresh interval in seconds")

	// parse flags
	flag.Parse()

	// setting up viper
	viper := viper.New()
	viper.AddConfigPath(cfg.DataDir)
	viper.SetConfigName("analytics")
	viper.SetConfigType("yml")
	viper.SetEnvPrefix("ANALYTICS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// binding flags to viper

	// global
	viper.BindPFlag("dataDir", flag.Lookup("dataDir"))
	viper.BindPFlag("logLevel", flag.Lookup("logLevel"))
	viper.BindPFlag("logErrorFile", flag.Lookup("logErrorFile"))
	viper.BindPFlag("logOutput", flag.Lookup("logOutput"))
	viper.BindPFlag("signingKey", flag.Lookup("signingKey"))
	viper.BindPFlag("api.adminToken", flag.Lookup("adminToken"))
	viper.BindPFlag("api.adminQuota", flag.Lookup("adminQuota"))
	viper.BindPFlag("api.route", flag.Lookup("apiRoute"))
	viper.BindPFlag("api.listenHost", flag.Lookup("listenHost"))
	viper.BindPFlag("api.listenPort", flag.Lookup("listenPort"))
	viper.Set("api.ssl.dirCert", cfg.DataDir+"/tls")
	viper.BindPFlag("api.ssl.domain", flag.Lookup("sslDomain"))
	viper.BindPFlag("backend.urls", flag.Lookup("backendUrls"))
	viper.BindPFlag("backend.timeout", flag.Lookup("backendTimeout"))
	viper.BindPFlag("backend.maxConcurrentChecks", flag.Lookup("maxConcurrentChecks"))
	viper.BindPFlag("cache.enabled", flag.Lookup("cacheEnabled"))
	viper.BindPFlag("cache.ttl", flag.Lookup("cacheTTL"))
	viper.BindPFlag("cache.encryptionKey", flag.Lookup("cacheEncryptionKey"))
	viper.BindPFlag("db.enabled", flag.Lookup("dbEnabled"))
	viper.BindPFlag("db.host", flag.Lookup("dbHost"))
	viper.BindPFlag("db.port", flag.Lookup("dbPort"))
	viper.BindPFlag("db.user", flag.Lookup("dbUser"))
	viper.BindPFlag("db.password", flag.Lookup("dbPassword"))
	viper.BindPFlag("db.dbName", flag.Lookup("dbName"))
	viper.BindPFlag("db.sslMode", flag.Lookup("dbSslmode"))
	viper.BindPFlag("migrate.action", flag.Lookup("migrateAction"))
	// metrics
	viper.BindPFlag("metrics.enabled", flag.Lookup("metricsEnabled"))
	viper.BindPFlag("metrics.refreshInterval", flag.Lookup("metricsRefreshInterval"))

	// check if config file exists
	_, err = os.Stat(cfg.DataDir + "/analytics.yml")
	if os.IsNotExist(err) {
		cfgError = config.Error{
			Message: fmt.Sprintf("creating new config file in %s", cfg.DataDir),
		}
		// creting config folder if not exists
		err = os.MkdirAll(cfg.DataDir, os.ModePerm)
		if err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot create data directory: %s", err),
			}
		}
		// create config file if not exists
		if err := viper.SafeWriteConfig(); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot write config file into config dir: %s", err),
			}
		}
	} else {
		// read config file
		err = viper.ReadInConfig()
		if err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot read loaded config file in %s: %s", cfg.DataDir, err),
			}
		}
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		cfgError = config.Error{
			Message: fmt.Sprintf("cannot unmarshal loaded config file: %s", err),
		}
	}

	// Generate and save signing key if not specified
	if len(cfg.SigningKey) == 0 {
		fmt.Println("no signing keys, generating one...")
		signer := ethereum.NewSignKeys()
		if err := signer.Generate(); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot generate signing key: %s", err),
			}
			return cfg, cfgError
		}
		_, priv := signer.HexString()
		viper.Set("signingkey", priv)
		cfg.SigningKey = priv
		cfg.SaveConfig = true
	}

	// Generate and save the cache encryption key if not specified
	if cfg.Cache.Enabled {
		generated, err := cfg.Cache.EnsureEncryptionKey()
		if err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot generate cache encryption key: %s", err),
			}
			return cfg, cfgError
		}
		if generated {
			viper.Set("cache.encryptionKey", cfg.Cache.EncryptionKey)
			cfg.SaveConfig = true
		}
	}

	if cfg.SaveConfig {
		viper.Set("saveConfig", false)
		if err := viper.WriteConfig(); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot overwrite config file into config dir: %s", err),
			}
		}
	}
	return cfg, cfgError
}

func main() {
	var err error
	// setup config
	// creating config and init logger
	cfg, cfgerr := newConfig()
	if cfgerr.Critical {
		panic(cfgerr.Message)
	}
	if cfg == nil {
		panic("cannot read configuration")
	}
	log.Init(cfg.LogLevel, cfg.LogOutput)
	if path := cfg.LogErrorFile; path != "" {
		if err := log.SetFileErrorLog(path); err != nil {
			log.Fatal(err)
		}
	}
	if cfgerr.Message != "" {
		log.Warnf("%s", cfgerr.Message)
	}
	log.Debugf("initializing config: %s", cfg.String())

	// Signer
	signer := ethereum.NewSignKeys()
	if err := signer.AddHexKey(cfg.SigningKey); err != nil {
		log.Fatal(err)
	}
	log.Infof("my address: %s", signer.AddressString())

	client, err := backend.New(cfg.Backend.Urls, signer,
		time.Duration(cfg.Backend.Timeout)*time.Second)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("connected to backend %s", client.ActiveEndpoint())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Snapshot storage
	var db database.Database
	if cfg.DB.Enabled {
		// Postgres with sqlx
		pg, err := pgsql.New(cfg.DB)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()
		db = pg

		// Standalone Migrations
		if cfg.Migrate.Action != "" {
			if err := pgsql.Migrator(cfg.Migrate.Action, db); err != nil {
				log.Fatal(err)
			}
			return
		}

		// Check that all migrations are applied before proceeding
		// and if not apply them
		if err := pgsql.Migrator("upSync", db); err != nil {
			log.Fatal(err)
		}
	} else if cfg.Migrate.Action != "" {
		log.Fatal(fmt.Errorf("migrations require the snapshot storage, set dbEnabled"))
	}

	// Response cache
	var cache service.Cache
	if cfg.Cache.Enabled {
		key, err := hex.DecodeString(cfg.Cache.EncryptionKey)
		if err != nil {
			log.Fatal(fmt.Errorf("could not decode cache encryption key: %w", err))
		}
		kv, err := metadb.New(dvotedb.TypePebble, filepath.Join(cfg.DataDir, "cache"))
		if err != nil {
			log.Fatal(err)
		}
		defer kv.Close()
		cache = kvcache.New(kv, time.Duration(cfg.Cache.TTL)*time.Second, key)
	}

	analytics := service.NewAnalyticsService(client, cache, db, cfg.Backend.MaxConcurrentChecks)

	// Drop cached results when the backend announces new ones
	if cfg.DB.Enabled && cache != nil {
		notifier, err := pgsql.NewNotifier(cfg.DB, pgsql.ResultsUpdateChannel)
		if err != nil {
			log.Fatal(err)
		}
		go notifier.Listen(ctx, analytics.Invalidate)
	}

	// Router
	var httpRouter httprouter.HTTProuter
	httpRouter.TLSdomain = cfg.API.Ssl.Domain
	httpRouter.TLSdirCert = cfg.API.Ssl.DirCert
	if err = httpRouter.Init(cfg.API.ListenHost, cfg.API.ListenPort); err != nil {
		log.Fatal(err)
	}

	var metricsAgent *metrics.Agent
	// Enable metrics via proxy
	if cfg.Metrics.Enabled {
		metricsAgent = metrics.NewAgent("/metrics",
			time.Duration(cfg.Metrics.RefreshInterval)*time.Second, &httpRouter)
	}

	// Rest api
	urlApi, err := urlapi.NewURLAPI(&httpRouter, cfg.API, metricsAgent)
	if err != nil {
		log.Fatal(err)
	}

	log.Infof("enabling analytics API methods")
	if err := urlApi.EnableAnalyticsHandlers(analytics); err != nil {
		log.Fatal(err)
	}

	log.Info("startup complete")
	// close if interrupt received
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Warnf("received SIGTERM, exiting at %s", time.Now().Format(time.RFC850))
}

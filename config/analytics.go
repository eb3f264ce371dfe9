package config

import (
	"encoding/hex"
	"fmt"

	"go.vocdoni.io/analytics/util"
)

type DB struct {
	// Enabled turns on the postgres snapshot store
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Dbname   string
	Sslmode  string
}

type API struct {
	// Route is the URL router where the API will be served
	Route string
	// ListenPort port where the API server will listen on
	ListenPort int
	// ListenHost host where the API server will listen on
	ListenHost string
	// AdminToken bearer token granting access to the private methods
	AdminToken string
	// AdminQuota number of private requests allowed to the admin token
	AdminQuota int64
	// Ssl tls related config options
	Ssl struct {
		Domain  string
		DirCert string
	}
}

// Backend holds the options of the client to the elections data API
type Backend struct {
	// Urls of the backend data API, the healthiest one is used first
	Urls []string
	// Timeout per request, in seconds
	Timeout int
	// MaxConcurrentChecks limits the parallel backend requests issued by a single
	// query: election fetches, results fetches and has-voted checks alike
	MaxConcurrentChecks int
}

// Cache holds the options of the local response cache
type Cache struct {
	Enabled bool
	// TTL of cached responses, in seconds
	TTL int
	// EncryptionKey hexString symmetric key for cached user data.
	// A random one is generated and saved when empty
	EncryptionKey string
}

// EnsureEncryptionKey fills an empty EncryptionKey with a new random key and
// reports whether it did, so the caller can persist it.
func (c *Cache) EnsureEncryptionKey() (bool, error) {
	if c.EncryptionKey != "" {
		return false, nil
	}
	key, err := util.GenerateSymmetricKey()
	if err != nil {
		return false, err
	}
	c.EncryptionKey = hex.EncodeToString(key)
	return true, nil
}

type Error struct {
	// Critical indicates if the error encountered is critical and the app must be stopped
	Critical bool
	// Message error message
	Message string
}

// MetricsCfg initializes the metrics config
type MetricsCfg struct {
	Enabled         bool
	RefreshInterval int
}

type Analytics struct {
	// API api config options
	API *API
	// Backend data API options
	Backend *Backend
	// Cache options
	Cache *Cache
	// Database connection options
	DB *DB
	// LogLevel logging level
	LogLevel string
	// LogOutput logging output
	LogOutput string
	// ErrorLogFile for logging warning, error and fatal messages
	LogErrorFile string
	// Metrics config options
	Metrics *MetricsCfg
	// DataDir path where the service files will be stored
	DataDir string
	// SaveConfig overwrites the config file with the CLI provided flags
	SaveConfig bool
	// SigningKey is the ECDSA hexString private key for signing backend requests
	SigningKey string
	// Migration options
	Migrate *Migrate
}

func (a *Analytics) String() string {
	return fmt.Sprintf("API: {Route:%s ListenHost:%s ListenPort:%d}, Backend: %+v, Cache: {Enabled:%v TTL:%d}, DB: {Enabled:%v Host:%s Port:%d User:%s Dbname:%s Sslmode:%s}, LogLevel: %s, LogOutput: %s, LogErrorFile: %s, Metrics: %+v, DataDir: %s, SaveConfig: %v, Migrate: %+v",
		a.API.Route, a.API.ListenHost, a.API.ListenPort, *a.Backend, a.Cache.Enabled, a.Cache.TTL, a.DB.Enabled, a.DB.Host, a.DB.Port, a.DB.User, a.DB.Dbname, a.DB.Sslmode,
		a.LogLevel, a.LogOutput, a.LogErrorFile, *a.Metrics, a.DataDir, a.SaveConfig, *a.Migrate)
}

// NewAnalyticsConfig initializes the fields in the config stuct
func NewAnalyticsConfig() *Analytics {
	return &Analytics{
		API:     new(API),
		Backend: new(Backend),
		Cache:   new(Cache),
		DB:      new(DB),
		Migrate: new(Migrate),
		Metrics: new(MetricsCfg),
	}
}

type Migrate struct {
	// Action defines the migration action to be taken (up, down, status)
	Action string
}

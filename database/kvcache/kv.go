package kvcache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.vocdoni.io/analytics/types"
	"go.vocdoni.io/analytics/util"
	dvotedb "go.vocdoni.io/dvote/db"
)

const (
	ResultsPrefix  = "rs"
	ElectionPrefix = "el"
	UsersKey       = "us"
)

var lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "analytics",
	Subsystem: "cache",
	Name:      "lookups_total",
	Help:      "Cache lookups by entry kind and outcome",
}, []string{"kind", "outcome"})

// Collectors returns the prometheus collectors of the cache
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{lookups}
}

// Cache stores backend responses on a key-value database for a limited time.
// Entries holding user data are encrypted when a key is provided.
type Cache struct {
	Db  dvotedb.Database
	Mtx *sync.RWMutex
	ttl time.Duration
	key []byte
	now func() time.Time
}

func New(db dvotedb.Database, ttl time.Duration, encryptionKey []byte) *Cache {
	return &Cache{Db: db, Mtx: new(sync.RWMutex), ttl: ttl, key: encryptionKey, now: time.Now}
}

func electionKey(prefix string, id int) []byte {
	return []byte(prefix + strconv.Itoa(id))
}

func (kv *Cache) StoreResults(electionID int, results types.ResultsMap) error {
	return kv.store(electionKey(ResultsPrefix, electionID), Entry{Kind: ResultsEntry, Body: results}, false)
}

// GetResults returns the cached results of an election, or nil if there is no
// fresh entry
func (kv *Cache) GetResults(electionID int) (types.ResultsMap, error) {
	entry, err := kv.get(electionKey(ResultsPrefix, electionID), ResultsEntry, false)
	if entry == nil || err != nil {
		return nil, err
	}
	return entry.Body.(types.ResultsMap), nil
}

func (kv *Cache) StoreElection(election *types.Election) error {
	return kv.store(electionKey(ElectionPrefix, election.ElectionID),
		Entry{Kind: ElectionEntry, Body: election}, false)
}

func (kv *Cache) GetElection(electionID int) (*types.Election, error) {
	entry, err := kv.get(electionKey(ElectionPrefix, electionID), ElectionEntry, false)
	if entry == nil || err != nil {
		return nil, err
	}
	return entry.Body.(*types.Election), nil
}

func (kv *Cache) StoreUsers(users types.Users) error {
	return kv.store([]byte(UsersKey), Entry{Kind: UsersEntry, Body: users}, true)
}

func (kv *Cache) GetUsers() (types.Users, error) {
	entry, err := kv.get([]byte(UsersKey), UsersEntry, true)
	if entry == nil || err != nil {
		return nil, err
	}
	return entry.Body.(types.Users), nil
}

// Invalidate removes the cached results and election with the given id
func (kv *Cache) Invalidate(electionID int) error {
	kv.Mtx.Lock()
	defer kv.Mtx.Unlock()
	tx := kv.Db.WriteTx()
	for _, key := range [][]byte{electionKey(ResultsPrefix, electionID), electionKey(ElectionPrefix, electionID)} {
		if err := tx.Delete(key); err != nil {
			return fmt.Errorf("could not remove cache entry %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (kv *Cache) store(key []byte, entry Entry, private bool) error {
	entry.CreationTime = kv.now()
	entryBytes, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("could not marshal %s cache entry: %w", entry.Kind, err)
	}
	if private && len(kv.key) > 0 {
		if entryBytes, err = util.EncryptSymmetric(entryBytes, kv.key); err != nil {
			return fmt.Errorf("could not encrypt %s cache entry: %w", entry.Kind, err)
		}
	}
	kv.Mtx.Lock()
	defer kv.Mtx.Unlock()
	tx := kv.Db.WriteTx()
	if err = tx.Set(key, entryBytes); err != nil {
		return fmt.Errorf("could not cache %s entry: %w", entry.Kind, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not cache %s entry: %w", entry.Kind, err)
	}
	return nil
}

func (kv *Cache) get(key []byte, kind EntryKind, private bool) (*Entry, error) {
	kv.Mtx.RLock()
	tx := kv.Db.ReadTx()
	entryBytes, err := tx.Get(key)
	tx.Discard()
	kv.Mtx.RUnlock()
	// If key not found, don't return an error
	if err == dvotedb.ErrKeyNotFound {
		lookups.WithLabelValues(string(kind), "miss").Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get %s entry from cache: %w", kind, err)
	}
	if private && len(kv.key) > 0 {
		var ok bool
		if entryBytes, ok = util.DecryptSymmetric(entryBytes, kv.key); !ok {
			return nil, fmt.Errorf("could not decrypt %s cache entry", kind)
		}
	}
	var entry Entry
	if err = json.Unmarshal(entryBytes, &entry); err != nil {
		return nil, fmt.Errorf("could not decode %s cache entry: %w", kind, err)
	}
	if entry.Kind != kind {
		return nil, fmt.Errorf("cache entry has kind %s, expected %s", entry.Kind, kind)
	}
	if kv.now().Sub(entry.CreationTime) > kv.ttl {
		lookups.WithLabelValues(string(kind), "expired").Inc()
		return nil, nil
	}
	lookups.WithLabelValues(string(kind), "hit").Inc()
	return &entry, nil
}

package kvcache

import (
	"bytes"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/analytics/types"
	dvotedb "go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

var kv dvotedb.Database

func TestMain(m *testing.M) {
	storage, err := ioutil.TempDir("/tmp", ".kvcache-test")
	if err != nil {
		log.Fatal(err)
	}
	if kv, err = metadb.New(dvotedb.TypePebble, filepath.Join(storage, "metadb")); err != nil {
		log.Fatal(err)
	}
	code := m.Run()
	if err = os.RemoveAll(storage); err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}

func TestResults(t *testing.T) {
	c := qt.New(t)
	cache := New(kv, time.Minute, nil)

	results, err := cache.GetResults(1)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.IsNil)

	c.Assert(cache.StoreResults(1, types.ResultsMap{"Ana": 3, "Bruno": 5}), qt.IsNil)
	results, err = cache.GetResults(1)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.DeepEquals, types.ResultsMap{"Ana": 3, "Bruno": 5})

	election := &types.Election{ElectionID: 1, Name: "presidential", Candidates: []string{"Ana", "Bruno"}}
	c.Assert(cache.StoreElection(election), qt.IsNil)
	cached, err := cache.GetElection(1)
	c.Assert(err, qt.IsNil)
	c.Assert(cached, qt.DeepEquals, election)

	c.Assert(cache.Invalidate(1), qt.IsNil)
	results, err = cache.GetResults(1)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.IsNil)
	cached, err = cache.GetElection(1)
	c.Assert(err, qt.IsNil)
	c.Assert(cached, qt.IsNil)
}

func TestExpiry(t *testing.T) {
	c := qt.New(t)
	cache := New(kv, time.Minute, nil)
	now := time.Now()
	cache.now = func() time.Time { return now }
	c.Assert(cache.StoreResults(2, types.ResultsMap{"Ana": 1}), qt.IsNil)

	cache.now = func() time.Time { return now.Add(30 * time.Second) }
	results, err := cache.GetResults(2)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.HasLen, 1)

	cache.now = func() time.Time { return now.Add(2 * time.Minute) }
	results, err = cache.GetResults(2)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.IsNil)
}

func TestEncryptedUsers(t *testing.T) {
	c := qt.New(t)
	key := []byte("0123456789abcdef0123456789abcdef")
	cache := New(kv, time.Minute, key)
	users := types.Users{
		"001-1": {SocialID: "001-1", Name: "Ana", Province: "Azua"},
		"001-2": {SocialID: "001-2", Name: "Bruno", Province: "Santiago"},
	}
	c.Assert(cache.StoreUsers(users), qt.IsNil)

	// user data is not stored in clear
	tx := kv.ReadTx()
	raw, err := tx.Get([]byte(UsersKey))
	tx.Discard()
	c.Assert(err, qt.IsNil)
	c.Assert(bytes.Contains(raw, []byte("Azua")), qt.IsFalse)

	cached, err := cache.GetUsers()
	c.Assert(err, qt.IsNil)
	c.Assert(cached, qt.DeepEquals, users)

	// a cache opened with a different key cannot read the entry
	_, err = New(kv, time.Minute, []byte("another key")).GetUsers()
	c.Assert(err, qt.IsNotNil)
}

func TestEntryUnmarshal(t *testing.T) {
	c := qt.New(t)
	var entry Entry
	c.Assert(entry.UnmarshalJSON([]byte(`{"kind":"results","body":{"Ana":2}}`)), qt.IsNil)
	c.Assert(entry.Body, qt.DeepEquals, types.ResultsMap{"Ana": 2})

	c.Assert(entry.UnmarshalJSON([]byte(`{"kind":"ballots","body":{}}`)), qt.IsNotNil)
	c.Assert(entry.UnmarshalJSON([]byte(`{"kind":"results"}`)), qt.IsNotNil)
	c.Assert(entry.UnmarshalJSON([]byte(`not json`)), qt.IsNotNil)
}

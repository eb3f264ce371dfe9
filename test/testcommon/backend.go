package testcommon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.vocdoni.io/analytics/types"
)

// TestBackend serves the voting backend data API from memory
type TestBackend struct {
	lock      sync.RWMutex
	Elections map[int]*types.Election
	Results   map[int]types.ResultsMap
	Users     types.Users
	// Voted holds the socialIds that voted, per election
	Voted map[int]map[string]bool
}

// NewTestBackend creates a backend with a running, an ended and an upcoming
// election, and numUsers users spread over the first provinces
func NewTestBackend(numUsers int) *TestBackend {
	now := time.Now().Unix()
	b := &TestBackend{
		Elections: map[int]*types.Election{
			1: {ElectionID: 1, Name: "presidential", Candidates: []string{"Ana", "Bruno", "Carla"},
				StartTime: now - 3600, EndTime: now + 3600},
			2: {ElectionID: 2, Name: "senate", Candidates: []string{"Dario", "Eva"},
				StartTime: now - 7200, EndTime: now - 3600},
			3: {ElectionID: 3, Name: "mayor", Candidates: []string{"Fabio"},
				StartTime: now + 3600, EndTime: now + 7200},
		},
		Results: map[int]types.ResultsMap{
			1: {"Ana": 40, "Bruno": 25, "Carla": 35},
			2: {"Dario": 10, "Eva": 10},
			3: {},
		},
		Users: types.Users{},
		Voted: map[int]map[string]bool{1: {}, 2: {}, 3: {}},
	}
	for i := 0; i < numUsers; i++ {
		id := fmt.Sprintf("402-%07d-%d", i, i%10)
		b.Users[id] = types.User{
			SocialID: id,
			Name:     fmt.Sprintf("user %d", i),
			Province: types.Provinces[i%4],
		}
		if i%2 == 0 {
			b.Voted[1][id] = true
		}
	}
	return b
}

// SetResults replaces the results of an election
func (b *TestBackend) SetResults(electionID int, results types.ResultsMap) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.Results[electionID] = results
}

// Start serves the backend on a local random port
func (b *TestBackend) Start() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(b.serve))
}

func (b *TestBackend) serve(w http.ResponseWriter, r *http.Request) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	var resp interface{}
	switch {
	case len(parts) == 1 && parts[0] == "users":
		resp = b.Users
	case len(parts) == 1 && parts[0] == "elections":
		refs := []types.ElectionRef{}
		for id := 1; id <= len(b.Elections); id++ {
			if e, ok := b.Elections[id]; ok {
				refs = append(refs, types.ElectionRef{ElectionID: id, Name: e.Name})
			}
		}
		resp = refs
	case len(parts) >= 2 && parts[0] == "elections":
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		election, ok := b.Elections[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch {
		case len(parts) == 2:
			resp = election
		case len(parts) == 3 && parts[2] == "results":
			resp = b.Results[id]
		case len(parts) == 4 && parts[2] == "has-voted":
			resp = types.HasVotedResponse{HasVoted: b.Voted[id][parts[3]]}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

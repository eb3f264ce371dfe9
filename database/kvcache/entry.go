package kvcache

import (
	"encoding/json"
	"errors"
	"time"

	"go.vocdoni.io/analytics/types"
)

type EntryKind string

const (
	ResultsEntry  EntryKind = "results"
	UsersEntry    EntryKind = "users"
	ElectionEntry EntryKind = "election"
)

// Entry is a cached backend response, tagged with its kind so it can be
// decoded back into the right type.
type Entry struct {
	Kind         EntryKind   `json:"kind"`
	Body         interface{} `json:"body"`
	CreationTime time.Time   `json:"creationTime"`
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	// First unmarshal entire struct
	var objMap map[string]*json.RawMessage
	if err := json.Unmarshal(b, &objMap); err != nil {
		return err
	}
	if objMap["kind"] == nil || objMap["body"] == nil {
		return errors.New("incomplete cache entry")
	}
	if err := json.Unmarshal(*objMap["kind"], &e.Kind); err != nil {
		return err
	}
	if objMap["creationTime"] != nil {
		if err := json.Unmarshal(*objMap["creationTime"], &e.CreationTime); err != nil {
			return err
		}
	}

	switch e.Kind {
	case ResultsEntry:
		var body types.ResultsMap
		if err := json.Unmarshal(*objMap["body"], &body); err != nil {
			return err
		}
		e.Body = body
	case UsersEntry:
		var body types.Users
		if err := json.Unmarshal(*objMap["body"], &body); err != nil {
			return err
		}
		e.Body = body
	case ElectionEntry:
		var body types.Election
		if err := json.Unmarshal(*objMap["body"], &body); err != nil {
			return err
		}
		e.Body = &body
	default:
		return errors.New("unknown cache entry kind")
	}
	return nil
}

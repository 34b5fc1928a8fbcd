// Package roster holds the canonical data model for elected-official
// records and the pipeline that produces them: discovery of entity
// stubs, per-entity detail fetching, extraction and normalization.
package roster

import "encoding/json"

// SecondaryRoles is the structured collection of currently-held
// auxiliary roles (committee chair, minister responsibility, ...)
// distinct from the primary role. Current is never nil once a record
// passes through Normalize.
type SecondaryRoles struct {
	Current []string `json:"current"`
}

func (s SecondaryRoles) JSON() string {
	roles := s
	if roles.Current == nil {
		roles.Current = []string{}
	}
	out, err := json.Marshal(roles)
	if err != nil {
		return `{"current": []}`
	}
	return string(out)
}

// Record is the canonical schema for one elected official. Every field
// has an explicit default: the zero value means "not found", never
// "not extracted yet".
type Record struct {
	Organization   string
	Party          string
	District       string
	Name           string
	PrimaryRoleEN  string
	PrimaryRoleFR  string
	SecondaryRoles SecondaryRoles
	Email          string
	Phone          string
	Address        string
	Website        string
	PhotoURL       string
	// stable identity url for the record, the natural key used by the
	// sink to replace prior snapshots
	SourceURL string
	// source-native stable identifier, where the source provides one
	PersonID string
}

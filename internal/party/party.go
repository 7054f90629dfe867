// Package party resolves screened parties through the platform's party registry.
// Edges only need to know whether an endpoint exists and is active at creation
// time; the registry owns everything else about a party.
package party

import (
	"context"

	id "linkage/pkg/domain"
)

// Kind is the kind of a registered party.
type Kind string

const (
	KindIndividual   Kind = "individual"
	KindOrganization Kind = "organization"
)

// Ref names a party by id and kind.
type Ref struct {
	ID   id.PartyID
	Kind Kind
}

func (r Ref) String() string {
	return string(r.Kind) + "/" + string(r.ID)
}

// Resolution is the registry's answer for one party.
type Resolution struct {
	Exists bool `json:"exists"`
	Active bool `json:"active"`
}

// Usable reports whether the party may anchor a new edge.
func (r Resolution) Usable() bool {
	return r.Exists && r.Active
}

// Registry resolves parties. Implementations return sentinel.ErrUnavailable when
// the registry cannot answer.
type Registry interface {
	Resolve(ctx context.Context, ref Ref) (Resolution, error)
}

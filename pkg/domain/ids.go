package domain

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	dErrors "linkage/pkg/domain-errors"
)

// EdgeID identifies a stored relationship edge. Edges are minted by this service,
// so the id is always a UUID.
type EdgeID uuid.UUID

// EventID identifies a history event. Audit stores deduplicate on it.
type EventID uuid.UUID

// PartyID is the opaque identifier of an individual or organization owned by the
// external party registry. No format is assumed beyond the bounds enforced by
// ParsePartyID.
type PartyID string

// ActorID is the opaque identifier of whoever performed a mutation.
type ActorID string

const maxOpaqueIDLength = 128

// NewEdgeID mints a random edge id.
func NewEdgeID() EdgeID { return EdgeID(uuid.New()) }

// NewEventID mints a random event id.
func NewEventID() EventID { return EventID(uuid.New()) }

func (id EdgeID) String() string  { return uuid.UUID(id).String() }
func (id EdgeID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EventID) String() string { return uuid.UUID(id).String() }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id EdgeID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *EdgeID) UnmarshalText(b []byte) error {
	parsed, err := ParseEdgeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id EventID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *EventID) UnmarshalText(b []byte) error {
	parsed, err := ParseEventID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id PartyID) String() string { return string(id) }
func (id PartyID) IsNil() bool    { return id == "" }

func (id ActorID) String() string { return string(id) }
func (id ActorID) IsNil() bool    { return id == "" }

// ParseEdgeID parses an edge id at a trust boundary.
func ParseEdgeID(s string) (EdgeID, error) {
	u, err := parseUUID(s, "edge id")
	if err != nil {
		return EdgeID{}, err
	}
	return EdgeID(u), nil
}

// ParseEventID parses a history event id at a trust boundary.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event id")
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}

// ParsePartyID validates an opaque party id: non-empty after trimming, bounded
// length, printable characters only.
func ParsePartyID(s string) (PartyID, error) {
	v, err := parseOpaque(s, "party id")
	if err != nil {
		return "", err
	}
	return PartyID(v), nil
}

// ParseActorID validates an opaque actor id with the same rules as party ids.
func ParseActorID(s string) (ActorID, error) {
	v, err := parseOpaque(s, "actor id")
	if err != nil {
		return "", err
	}
	return ActorID(v), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is malformed")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is malformed")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be nil")
	}
	return u, nil
}

func parseOpaque(s, label string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if len(v) > maxOpaqueIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" is too long")
	}
	for _, r := range v {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, label+" contains invalid characters")
		}
	}
	return v, nil
}

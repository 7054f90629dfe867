package testutil

import (
	"net/http"
	"time"

	id "linkage/pkg/domain"
	"linkage/pkg/requestcontext"
)

// WithActor adds an authenticated actor and its roles to the request context.
// This simulates what the auth middleware does for bearer tokens.
// If actorID is not a valid actor id, the request is returned unchanged.
func WithActor(req *http.Request, actorID string, roles ...string) *http.Request {
	actor, err := id.ParseActorID(actorID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithActor(req.Context(), actor, roles))
}

// WithTime pins the request clock.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

package service

import (
	"context"
	"slices"

	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
	"linkage/pkg/requestcontext"
)

// Action names a guarded operation family.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionVerify     Action = "verify"
	ActionManageRisk Action = "manage_risk"
	ActionEscalate   Action = "escalate"
	ActionReview     Action = "review"
	ActionDelete     Action = "delete"
)

// DefaultRolePolicy is the role matrix used when role enforcement is on. Actions
// missing from the policy are open to any authenticated actor.
var DefaultRolePolicy = map[Action][]string{
	ActionVerify:     {"compliance_officer", "compliance_admin"},
	ActionManageRisk: {"risk_analyst", "compliance_officer", "compliance_admin"},
	ActionEscalate:   {"risk_analyst", "compliance_officer", "compliance_admin"},
	ActionDelete:     {"compliance_admin"},
}

// RoleAuthorizer checks the roles carried in the request context.
type RoleAuthorizer struct {
	policy map[Action][]string
}

// NewRoleAuthorizer builds an authorizer for policy (DefaultRolePolicy when nil).
func NewRoleAuthorizer(policy map[Action][]string) *RoleAuthorizer {
	if policy == nil {
		policy = DefaultRolePolicy
	}
	return &RoleAuthorizer{policy: policy}
}

func (a *RoleAuthorizer) Authorize(ctx context.Context, action Action, actor id.ActorID) error {
	allowed, guarded := a.policy[action]
	if !guarded {
		return nil
	}
	if requestcontext.ActorID(ctx) != actor {
		return dErrors.New(dErrors.CodeForbidden, "actor does not match the authenticated caller")
	}
	if slices.ContainsFunc(allowed, func(role string) bool { return requestcontext.HasRole(ctx, role) }) {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "actor may not "+string(action)+" relationships").WithConstraint("role")
}

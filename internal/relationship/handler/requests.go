package handler

import (
	"strings"

	"linkage/internal/relationship/models"
	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
	"linkage/pkg/platform/audit"
)

const (
	actionSubmit  = "submit"
	actionApprove = "approve"
	actionReject  = "reject"
	actionRevoke  = "revoke"
	actionVerify  = "verify"
)

// verificationRequest drives the verification state machine over one endpoint.
type verificationRequest struct {
	Action   string `json:"action"`
	Method   string `json:"verification_method,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Verified *bool  `json:"verified,omitempty"`
}

func (r *verificationRequest) Normalize() {
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	r.Method = strings.TrimSpace(r.Method)
	r.Reason = strings.TrimSpace(r.Reason)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *verificationRequest) Validate() error {
	if len(r.Method) > models.MaxMethodLength {
		return dErrors.New(dErrors.CodeValidation, "verification_method is too long").WithField("verification_method").WithConstraint("max_length")
	}
	if len(r.Reason) > models.MaxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason is too long").WithField("reason").WithConstraint("max_length")
	}
	if r.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "action is required").WithField("action").WithConstraint("required")
	}
	switch r.Action {
	case actionSubmit, actionApprove, actionReject, actionRevoke:
	case actionVerify:
		if r.Verified == nil {
			return dErrors.New(dErrors.CodeValidation, "verified is required for the verify action").WithField("verified").WithConstraint("required")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "action must be one of submit, approve, reject, revoke, verify").
			WithField("action").WithConstraint("enum")
	}
	return nil
}

type historyResponse struct {
	EdgeID id.EdgeID            `json:"edge_id"`
	Events []audit.HistoryEvent `json:"events"`
}

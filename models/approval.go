package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ApprovalStatus defines the publication state of an article.
type ApprovalStatus string

const (
	ApprovalDraft         ApprovalStatus = "draft"
	ApprovalPendingReview ApprovalStatus = "pending_review"
	ApprovalApproved      ApprovalStatus = "approved"
	ApprovalRejected      ApprovalStatus = "rejected"
)

// ApprovalStatuses lists every status in workflow order.
var ApprovalStatuses = []ApprovalStatus{
	ApprovalDraft,
	ApprovalPendingReview,
	ApprovalApproved,
	ApprovalRejected,
}

// Valid reports whether s is one of the known statuses.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalDraft, ApprovalPendingReview, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// ApprovalAction is a reviewer or author action on the workflow.
type ApprovalAction string

const (
	ActionSubmit  ApprovalAction = "submit"
	ActionApprove ApprovalAction = "approve"
	ActionReject  ApprovalAction = "reject"
)

var (
	ErrInvalidTransition       = errors.New("invalid approval transition")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
)

// Transition applies action to the article in place.
//
//	draft          --submit-->  pending_review
//	pending_review --approve--> approved   (records approver, clears rejection reason)
//	pending_review --reject-->  rejected   (requires reason, clears approver)
//
// Nothing leaves approved or rejected. On error the article is left untouched.
func Transition(a *KnowledgeArticle, action ApprovalAction, actorID, reason string, now time.Time) error {
	from := a.ApprovalStatus
	switch action {
	case ActionSubmit:
		if from != ApprovalDraft {
			return fmt.Errorf("%w: cannot submit an article in status %q", ErrInvalidTransition, from)
		}
		a.ApprovalStatus = ApprovalPendingReview
	case ActionApprove:
		if from != ApprovalPendingReview {
			return fmt.Errorf("%w: cannot approve an article in status %q", ErrInvalidTransition, from)
		}
		approver := actorID
		approvedAt := now
		a.ApprovalStatus = ApprovalApproved
		a.ApprovedBy = &approver
		a.ApprovedAt = &approvedAt
		a.RejectionReason = nil
	case ActionReject:
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return ErrRejectionReasonRequired
		}
		if from != ApprovalPendingReview {
			return fmt.Errorf("%w: cannot reject an article in status %q", ErrInvalidTransition, from)
		}
		a.ApprovalStatus = ApprovalRejected
		a.RejectionReason = &reason
		a.ApprovedBy = nil
		a.ApprovedAt = nil
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
	return nil
}

package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("invalid round transition")
	ErrPreconditionFailed  = errors.New("precondition failed")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrVoteRejected        = errors.New("vote rejected")
)

// VoteRejectReason identifies which vote-ledger precondition failed, so the
// caller can explain the rejection precisely.
type VoteRejectReason string

const (
	ReasonRoundNotVoting          VoteRejectReason = "RoundNotVoting"
	ReasonSelfVoteForbidden       VoteRejectReason = "SelfVoteForbidden"
	ReasonNotEligible             VoteRejectReason = "NotEligible"
	ReasonVotesFinal              VoteRejectReason = "VotesFinal"
	ReasonListenRequirementNotMet VoteRejectReason = "ListenRequirementNotMet"
	ReasonSubmissionCapExceeded   VoteRejectReason = "SubmissionCapExceeded"
	ReasonQuotaExceeded           VoteRejectReason = "QuotaExceeded"
)

// VoteRejectedError reports a failed vote precondition. BlockingSubmissionID
// is set for listen-gate rejections so the UI can point at the track that
// still needs playback.
type VoteRejectedError struct {
	Reason               VoteRejectReason
	BlockingSubmissionID string
	Detail               string
}

func (e *VoteRejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("vote rejected: %s: %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("vote rejected: %s", e.Reason)
}

func (e *VoteRejectedError) Unwrap() error {
	return ErrVoteRejected
}

func rejectVote(reason VoteRejectReason, detail string) error {
	return &VoteRejectedError{Reason: reason, Detail: detail}
}

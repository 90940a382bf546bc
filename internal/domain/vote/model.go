package vote

import (
	"errors"
	"fmt"
	"time"
)

const (
	ValueUp   = 1
	ValueDown = -1
)

// ErrQuotaExceeded is returned by Repository.Replace when the write would push
// the member's committed usage past a cap.
var ErrQuotaExceeded = errors.New("vote quota exceeded")

// Vote is one member's current verdict on one submission. There is at most
// one row per (round, submission, user): casting again replaces the prior
// vote, never duplicates it.
type Vote struct {
	RoundID      string
	SubmissionID string
	UserID       string
	Value        int
	UpdatedAt    time.Time
}

func (v Vote) Validate() error {
	if v.RoundID == "" || v.SubmissionID == "" || v.UserID == "" {
		return fmt.Errorf("vote round, submission and user ids are required")
	}
	if v.Value != ValueUp && v.Value != ValueDown {
		return fmt.Errorf("vote value must be +1 or -1")
	}

	return nil
}

// Usage is a member's vote spend inside one round.
type Usage struct {
	Upvotes   int
	Downvotes int
}

func (u Usage) Total() int {
	return u.Upvotes + u.Downvotes
}

// IsFinal reports whether the allocation exactly exhausts both caps. A final
// allocation is locked for the remainder of the round.
func (u Usage) IsFinal(maxUp, maxDown int) bool {
	return u.Upvotes == maxUp && u.Downvotes == maxDown
}

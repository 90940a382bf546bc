package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/song-league/internal/domain/submission"
)

type SubmissionRepository struct {
	mu    sync.RWMutex
	items map[string]submission.Submission
}

func NewSubmissionRepository(submissions []submission.Submission) *SubmissionRepository {
	items := make(map[string]submission.Submission, len(submissions))
	for _, s := range submissions {
		items[s.ID] = s
	}

	return &SubmissionRepository{items: items}
}

func (r *SubmissionRepository) Create(_ context.Context, s submission.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[s.ID]; exists {
		return fmt.Errorf("submission %s already exists", s.ID)
	}
	r.items[s.ID] = s

	return nil
}

func (r *SubmissionRepository) GetByID(_ context.Context, submissionID string) (submission.Submission, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[submissionID]
	if !ok {
		return submission.Submission{}, false, nil
	}

	return s, true, nil
}

func (r *SubmissionRepository) ListByRound(_ context.Context, roundID string) ([]submission.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]submission.Submission, 0)
	for _, s := range r.items {
		if s.RoundID == roundID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *SubmissionRepository) CountByRound(_ context.Context, roundID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, s := range r.items {
		if s.RoundID == roundID {
			count++
		}
	}

	return count, nil
}

func (r *SubmissionRepository) CountByRoundAndUser(_ context.Context, roundID, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, s := range r.items {
		if s.RoundID == roundID && s.UserID == userID {
			count++
		}
	}

	return count, nil
}

func (r *SubmissionRepository) DeleteByRound(_ context.Context, roundID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, s := range r.items {
		if s.RoundID == roundID {
			delete(r.items, id)
			deleted++
		}
	}

	return deleted, nil
}

func (r *SubmissionRepository) SetTrollFlag(_ context.Context, submissionID string, isTroll bool) (submission.Submission, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[submissionID]
	if !ok {
		return submission.Submission{}, false, nil
	}
	s.IsTroll = isTroll
	r.items[submissionID] = s

	return s, true, nil
}

// CommentRepository stores submission comments keyed by round for cascade
// deletion alongside submissions.
type CommentRepository struct {
	mu      sync.Mutex
	byRound map[string]int
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{byRound: make(map[string]int)}
}

// Add records a comment against a round. The lifecycle core never reads
// comments back; it only needs the cascade on resubmit.
func (r *CommentRepository) Add(_ context.Context, roundID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byRound[roundID]++
}

func (r *CommentRepository) DeleteByRound(_ context.Context, roundID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := r.byRound[roundID]
	delete(r.byRound, roundID)

	return deleted, nil
}

package memory

import (
	"context"
	"sync"

	"pretest-quiz-service/internal/domain"
)

// SubmissionRepository keeps collected submissions in memory.
type SubmissionRepository struct {
	mu       sync.RWMutex
	payloads []domain.SubmissionPayload
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{}
}

func (r *SubmissionRepository) SaveSubmission(_ context.Context, payload domain.SubmissionPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
	return nil
}

// Submissions returns a copy of everything collected so far.
func (r *SubmissionRepository) Submissions() []domain.SubmissionPayload {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.SubmissionPayload(nil), r.payloads...)
}

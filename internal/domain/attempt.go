package domain

import (
	"context"
	"time"
)

// CompletedAttempt is everything the submission adapter needs from a finished session.
type CompletedAttempt struct {
	Session    QuizSession
	Questions  []Question
	AnsweredAt []time.Time
}

// SubmitResult reports the outcome of a best-effort backend submission.
type SubmitResult struct {
	OK         bool
	StatusCode int
	Err        error
}

// Submitter forwards completed attempts to the backend collector.
// Implementations must not panic and must report failure through the result.
type Submitter interface {
	Submit(ctx context.Context, attempt CompletedAttempt) SubmitResult
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pretest-quiz-service/internal/domain"
)

// SubmissionRepository persists collector payloads: one pretest_sessions row
// and its pretest_answers rows, written in a single transaction.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

func (r *SubmissionRepository) SaveSubmission(ctx context.Context, payload domain.SubmissionPayload) error {
	return r.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		info := payload.SessionInfo
		var id int64
		err := tx.QueryRow(ctx, `
INSERT INTO pretest_sessions (session_id, learner_id, test_id, grade, gender, school)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
			info.SessionID, info.LearnerID, info.TestID, info.Grade, info.Gender, info.School,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		batch := &pgx.Batch{}
		for _, a := range payload.Answers {
			batch.Queue(`
INSERT INTO pretest_answers (submission_id, ts, session_id, learner_id, test_id, assessment_item_id,
  is_correct, seq_in_session, session_idx, grade, gender, school, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
				id, a.TS, a.SessionID, a.LearnerID, a.TestID, a.AssessmentItemID,
				a.IsCorrect, a.SeqInSession, a.SessionIdx, a.Grade, a.Gender, a.School, a.ProcessedAt,
			)
		}
		results := tx.SendBatch(ctx, batch)
		for range payload.Answers {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("insert answer: %w", err)
			}
		}
		return results.Close()
	})
}

// CountAnswers returns how many answer rows were stored for a backend session id.
func (r *SubmissionRepository) CountAnswers(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM pretest_answers WHERE session_id=$1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	return n, nil
}

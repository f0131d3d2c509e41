package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pretest-quiz-service/internal/domain"
)

// QuestionLoader loads a grade's question list from the question_sets JSONB column.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, grade domain.Grade) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE grade=$1`, string(grade)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuestionsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return questions, nil
}

package migrations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"pretest-quiz-service/internal/infra/memory"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			for grade, questions := range memory.DefaultQuestions() {
				raw, err := json.Marshal(questions)
				if err != nil {
					return fmt.Errorf("encode %s questions: %w", grade, err)
				}
				_, err = db.ExecContext(ctx,
					`INSERT INTO question_sets (grade, data) VALUES (?, ?) ON CONFLICT (grade) DO NOTHING`,
					string(grade), string(raw))
				if err != nil {
					return fmt.Errorf("seed %s questions: %w", grade, err)
				}
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DELETE FROM question_sets`)
			return err
		},
	)
}

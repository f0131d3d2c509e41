package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"pretest-quiz-service/internal/domain"
)

// QuestionLoader fetches question lists from a backing store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, grade domain.Grade) ([]domain.Question, error)
}

// QuestionRepository caches each grade's question list in Redis and falls
// back to a loader on cache miss.
// Lists are stored as JSON: SET pretest:questions:{grade} [...]
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Questions implements app.QuestionSource.
func (r *QuestionRepository) Questions(ctx context.Context, grade domain.Grade) ([]domain.Question, error) {
	if !grade.Valid() {
		return nil, domain.ErrInvalidGrade
	}
	key := r.key(grade)
	if qs, ok := r.cached(ctx, key); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if qs, ok := r.cached(ctx, key); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadQuestions(ctx, grade)
		if err != nil {
			return nil, err
		}
		if len(qs) == 0 {
			return nil, domain.ErrQuestionsNotFound
		}

		if raw, err := json.Marshal(qs); err == nil {
			// best-effort: a failed cache write only costs a reload
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached list of a grade.
func (r *QuestionRepository) Invalidate(ctx context.Context, grade domain.Grade) error {
	return r.client.Del(ctx, r.key(grade)).Err()
}

func (r *QuestionRepository) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil is a plain miss; other errors fall through to the loader
		return nil, false
	}
	var qs []domain.Question
	if err := json.Unmarshal(raw, &qs); err != nil || len(qs) == 0 {
		return nil, false
	}
	return qs, true
}

func (r *QuestionRepository) key(grade domain.Grade) string {
	return "pretest:questions:" + string(grade)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

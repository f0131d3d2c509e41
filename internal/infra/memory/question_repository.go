package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pretest-quiz-service/internal/domain"
)

// QuestionLoader fetches question lists from a backing store (static table, Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, grade domain.Grade) ([]domain.Question, error)
}

// QuestionRepository caches question lists per grade with TTL to avoid repeated loads.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[domain.Grade]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Grade]cachedQuestions),
	}
}

// Questions implements app.QuestionSource.
func (r *QuestionRepository) Questions(ctx context.Context, grade domain.Grade) ([]domain.Question, error) {
	if !grade.Valid() {
		return nil, domain.ErrInvalidGrade
	}
	if qs, ok := r.lookup(grade, r.clock()); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(string(grade), func() (interface{}, error) {
		now := r.clock()
		if qs, ok := r.lookup(grade, now); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadQuestions(ctx, grade)
		if err != nil {
			return nil, err
		}
		if len(qs) == 0 {
			return nil, domain.ErrQuestionsNotFound
		}

		r.mu.Lock()
		r.cache[grade] = cachedQuestions{
			questions: qs,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) lookup(grade domain.Grade, now time.Time) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[grade]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.questions, true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader serves question lists from an in-memory table.
type StaticQuestionLoader struct {
	questions map[domain.Grade][]domain.Question
}

func NewStaticQuestionLoader(questions map[domain.Grade][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, grade domain.Grade) ([]domain.Question, error) {
	if qs, ok := l.questions[grade]; ok && len(qs) > 0 {
		return qs, nil
	}
	return nil, domain.ErrQuestionsNotFound
}

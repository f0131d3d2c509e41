package app

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"pretest-quiz-service/internal/domain"
)

// SessionStore is a synchronous string-keyed store for JSON values. It is
// scoped to one learner profile.
type SessionStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// ProfileStores hands out the SessionStore of a learner profile
// (in-memory, Redis, SQLite).
type ProfileStores interface {
	ForProfile(profileID string) SessionStore
}

// Keys written to a profile's SessionStore.
const (
	KeySession       = "guestSession"
	KeySessionID     = "guestSessionId"
	KeyAnswers       = "quizAnswers"
	KeyStreak        = "quizStreak"
	KeyHearts        = "quizHearts"
	KeyQuestionTimes = "quizQuestionTimes"
	KeyAnswerTimes   = "quizAnswerTimes"
	KeyCursor        = "quizCursor"
	KeyLastQuiz      = "lastQuiz"
	KeyCompleted     = "quizCompleted"
)

// runKeys are the transient run meters cleared on exit or a new attempt.
var runKeys = []string{KeyAnswers, KeyStreak, KeyHearts, KeyQuestionTimes, KeyAnswerTimes, KeyCursor}

// sessionData wraps a SessionStore with JSON helpers. All failures degrade
// to "absent" on read and are dropped on write.
type sessionData struct {
	store SessionStore
	log   *zap.Logger
}

func (d sessionData) read(key string, v any) bool {
	raw, ok, err := d.store.Get(key)
	if err != nil {
		d.log.Warn("session store read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		d.log.Warn("session store value corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (d sessionData) write(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		d.log.Warn("session store encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := d.store.Set(key, raw); err != nil {
		d.log.Warn("session store write failed", zap.String("key", key), zap.Error(err))
	}
}

func (d sessionData) remove(keys ...string) {
	for _, key := range keys {
		if err := d.store.Remove(key); err != nil {
			d.log.Warn("session store remove failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (d sessionData) session() (domain.QuizSession, bool) {
	var s domain.QuizSession
	if !d.read(KeySession, &s) || s.ID == "" {
		return domain.QuizSession{}, false
	}
	return s, true
}

func (d sessionData) saveSession(s domain.QuizSession) {
	d.write(KeySession, s)
}

// savedRun is the persisted in-progress state of an attempt.
type savedRun struct {
	answers       []int
	questionTimes []int
	answerTimes   []time.Time
	meters        domain.RunMeters
	cursor        int
}

func (d sessionData) run(maxHearts int) savedRun {
	run := savedRun{meters: domain.RunMeters{Hearts: maxHearts}}
	d.read(KeyAnswers, &run.answers)
	d.read(KeyQuestionTimes, &run.questionTimes)
	d.read(KeyAnswerTimes, &run.answerTimes)
	d.read(KeyStreak, &run.meters.Streak)
	d.read(KeyHearts, &run.meters.Hearts)
	d.read(KeyCursor, &run.cursor)
	run.meters = clampMeters(run.meters, maxHearts)
	return run
}

func (d sessionData) clearRun() {
	d.remove(runKeys...)
}

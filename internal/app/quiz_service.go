package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pretest-quiz-service/internal/clock"
	"pretest-quiz-service/internal/domain"
)

// QuestionSource returns the fixed, ordered question list of a grade.
type QuestionSource interface {
	Questions(ctx context.Context, grade domain.Grade) ([]domain.Question, error)
}

// QuizService contains the pre-assessment use cases.
type QuizService struct {
	stores    ProfileStores
	questions QuestionSource
	submitter domain.Submitter
	cfg       Config
	sched     clock.Scheduler
	dispatch  func(func())
	newID     func() string
	log       *zap.Logger
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithConfig overrides the machine timing and meter settings.
func WithConfig(cfg Config) Option {
	return func(s *QuizService) { s.cfg = cfg }
}

// WithScheduler replaces the wall clock, mainly for tests.
func WithScheduler(sched clock.Scheduler) Option {
	return func(s *QuizService) { s.sched = sched }
}

// WithDispatch controls how the completion submission is run. The default
// runs it on a new goroutine.
func WithDispatch(dispatch func(func())) Option {
	return func(s *QuizService) { s.dispatch = dispatch }
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *QuizService) { s.newID = newID }
}

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *QuizService) { s.log = log }
}

func NewQuizService(stores ProfileStores, questions QuestionSource, submitter domain.Submitter, opts ...Option) *QuizService {
	s := &QuizService{
		stores:    stores,
		questions: questions,
		submitter: submitter,
		cfg:       DefaultConfig(),
		sched:     clock.System{},
		newID:     uuid.NewString,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartAttempt creates a new session for the profile, replacing any previous
// in-progress run. It returns the session and its question count.
func (s *QuizService) StartAttempt(ctx context.Context, profileID string, grade domain.Grade, learnerID string) (domain.QuizSession, int, error) {
	if profileID == "" {
		return domain.QuizSession{}, 0, domain.ErrProfileRequired
	}
	if !grade.Valid() {
		return domain.QuizSession{}, 0, domain.ErrInvalidGrade
	}
	questions, err := s.questions.Questions(ctx, grade)
	if err != nil {
		return domain.QuizSession{}, 0, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return domain.QuizSession{}, 0, domain.ErrQuestionsNotFound
	}

	session := domain.QuizSession{
		ID:        s.newID(),
		Grade:     grade,
		LearnerID: learnerID,
		StartedAt: s.sched.Now(),
	}
	data := s.data(profileID)
	data.clearRun()
	data.remove(KeyCompleted)
	data.saveSession(session)
	data.write(KeySessionID, session.ID)

	s.log.Info("attempt started",
		zap.String("profile_id", profileID),
		zap.String("session_id", session.ID),
		zap.String("grade", string(grade)))
	return session, len(questions), nil
}

// Open loads the session into a new Machine. On failure the machine is
// returned in PhaseNoSession together with the cause, and the observer has
// already received a navigation to the start screen.
func (s *QuizService) Open(ctx context.Context, profileID, sessionID string, observer func(Event)) (*Machine, error) {
	m := newMachine(s.cfg, s.sched, s.stores.ForProfile(profileID), s.submitter, s.dispatch, s.log.With(
		zap.String("profile_id", profileID),
		zap.String("session_id", sessionID),
	), observer)
	if profileID == "" {
		m.mu.Lock()
		err := m.failLocked(domain.ErrProfileRequired)
		m.mu.Unlock()
		return m, err
	}
	if err := m.load(ctx, sessionID, s.questions); err != nil {
		return m, err
	}
	return m, nil
}

// Results builds the summary of a completed session.
func (s *QuizService) Results(ctx context.Context, profileID, sessionID string) (domain.Summary, error) {
	if profileID == "" {
		return domain.Summary{}, domain.ErrProfileRequired
	}
	session, ok := s.data(profileID).session()
	if !ok || session.ID != sessionID {
		return domain.Summary{}, domain.ErrSessionNotFound
	}
	if !session.Completed {
		return domain.Summary{}, domain.ErrSessionNotCompleted
	}
	questions, err := s.questions.Questions(ctx, session.Grade)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("load questions: %w", err)
	}
	return BuildSummary(session, questions), nil
}

func (s *QuizService) data(profileID string) sessionData {
	return sessionData{store: s.stores.ForProfile(profileID), log: s.log}
}

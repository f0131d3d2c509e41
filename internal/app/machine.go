package app

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"pretest-quiz-service/internal/clock"
	"pretest-quiz-service/internal/domain"
	"pretest-quiz-service/internal/timer"
)

// Phase is the explicit state of a Machine.
type Phase string

const (
	PhaseLoading     Phase = "loading"
	PhaseNoSession   Phase = "noSession"
	PhaseActive      Phase = "active"
	PhaseAnswered    Phase = "answered"
	PhaseFeedback    Phase = "feedback"
	PhaseCompleted   Phase = "completed"
	PhaseExitConfirm Phase = "exitConfirm"
	PhaseExited      Phase = "exited"
)

// Outcome classifies how a question was locked.
type Outcome string

const (
	OutcomeAnswered Outcome = "answered"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeTimedOut Outcome = "timedOut"
)

// Destination is where the caller should route the learner.
type Destination string

const (
	DestinationStart   Destination = "start"
	DestinationResults Destination = "results"
	DestinationBack    Destination = "back"
)

// EventKind tags an Event.
type EventKind string

const (
	EventState    EventKind = "state"
	EventTick     EventKind = "tick"
	EventFeedback EventKind = "feedback"
	EventNavigate EventKind = "navigate"
)

// Event is delivered to the machine's observer.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Feedback *Feedback
	Navigate *Navigation
}

// Feedback describes the result of the locked question.
type Feedback struct {
	Index         int           `json:"index"`
	Correct       bool          `json:"correct"`
	Outcome       Outcome       `json:"outcome"`
	CorrectAnswer int           `json:"correctAnswer"`
	Concept       string        `json:"concept"`
	Explanation   string        `json:"explanation,omitempty"`
	AutoAdvance   time.Duration `json:"-"`
	AutoAdvanceMs int64         `json:"autoAdvanceMs"`
}

// Navigation is an outcome signal for the caller.
type Navigation struct {
	To        Destination `json:"to"`
	SessionID string      `json:"sessionId,omitempty"`
}

// QuestionView is the learner-facing part of a question (no answer key).
type QuestionView struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"question"`
	Options    []string `json:"options"`
	Concept    string   `json:"concept"`
	Difficulty string   `json:"difficulty"`
	Image      string   `json:"image,omitempty"`
	HasHint    bool     `json:"hasHint"`
}

// Snapshot is a read-only view of the machine.
type Snapshot struct {
	SessionID        string        `json:"sessionId"`
	Phase            Phase         `json:"phase"`
	Index            int           `json:"index"`
	Total            int           `json:"total"`
	Selected         *int          `json:"selected"`
	Locked           bool          `json:"locked"`
	Hearts           int           `json:"hearts"`
	MaxHearts        int           `json:"maxHearts"`
	Streak           int           `json:"streak"`
	Remaining        int           `json:"remaining"`
	PercentRemaining float64       `json:"percentRemaining"`
	Question         *QuestionView `json:"question,omitempty"`
	Hint             string        `json:"hint,omitempty"`
}

// Config holds the timing and meter settings of a Machine.
type Config struct {
	TimerSeconds   int
	MaxHearts      int
	RevealDelay    time.Duration
	CorrectDelay   time.Duration
	IncorrectDelay time.Duration
	TimeoutDelay   time.Duration
}

// DefaultConfig mirrors the product defaults.
func DefaultConfig() Config {
	return Config{
		TimerSeconds:   45,
		MaxHearts:      5,
		RevealDelay:    300 * time.Millisecond,
		CorrectDelay:   3 * time.Second,
		IncorrectDelay: 2500 * time.Millisecond,
		TimeoutDelay:   2 * time.Second,
	}
}

// Machine drives one attempt: question progression, locking, feedback,
// auto-advance, exit, and completion. All methods are safe for concurrent
// use; events are serialized under one lock.
type Machine struct {
	cfg       Config
	sched     clock.Scheduler
	data      sessionData
	submitter domain.Submitter
	dispatch  func(func())
	log       *zap.Logger
	observer  func(Event)
	countdown *timer.Countdown

	mu              sync.Mutex
	phase           Phase
	resumePhase     Phase
	session         domain.QuizSession
	questions       []domain.Question
	meters          domain.RunMeters
	answerTimes     []time.Time
	index           int
	selected        *int
	locked          bool
	hintShown       bool
	lastCorrect     bool
	lastOutcome     Outcome
	questionStarted time.Time
	timerEpoch      uint64
	pending         clock.Handle
	pendingGen      uint64
	submitted       bool
}

func newMachine(cfg Config, sched clock.Scheduler, store SessionStore, submitter domain.Submitter, dispatch func(func()), log *zap.Logger, observer func(Event)) *Machine {
	if observer == nil {
		observer = func(Event) {}
	}
	if dispatch == nil {
		dispatch = func(f func()) { go f() }
	}
	m := &Machine{
		cfg:       cfg,
		sched:     sched,
		data:      sessionData{store: store, log: log},
		submitter: submitter,
		dispatch:  dispatch,
		log:       log,
		observer:  observer,
		phase:     PhaseLoading,
	}
	m.countdown = timer.New(sched, cfg.TimerSeconds,
		timer.OnTick(m.onTick),
		timer.OnExpire(m.onExpire),
	)
	return m
}

// load resolves the session and its questions. It fails closed: any missing
// piece leaves the machine in PhaseNoSession.
func (m *Machine) load(ctx context.Context, sessionID string, questions QuestionSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.data.session()
	if !ok || session.ID != sessionID {
		return m.failLocked(domain.ErrSessionNotFound)
	}
	if !session.Grade.Valid() {
		return m.failLocked(domain.ErrInvalidGrade)
	}
	list, err := questions.Questions(ctx, session.Grade)
	if err != nil || len(list) == 0 {
		m.log.Warn("no questions for grade", zap.String("grade", string(session.Grade)), zap.Error(err))
		return m.failLocked(domain.ErrQuestionsNotFound)
	}
	m.session = session
	m.questions = list

	if session.Completed {
		m.phase = PhaseCompleted
		m.index = len(list) - 1
		m.emitLocked(Event{Kind: EventNavigate, Navigate: &Navigation{To: DestinationResults, SessionID: session.ID}})
		return nil
	}

	run := m.data.run(m.cfg.MaxHearts)
	m.meters = run.meters
	m.session.Answers = truncate(run.answers, len(list))
	m.session.QuestionTimes = truncate(run.questionTimes, len(m.session.Answers))
	m.answerTimes = run.answerTimes
	if len(m.answerTimes) > len(m.session.Answers) {
		m.answerTimes = m.answerTimes[:len(m.session.Answers)]
	}

	index := run.cursor
	if index > len(m.session.Answers) {
		index = len(m.session.Answers)
	}
	if index > len(list)-1 {
		index = len(list) - 1
	}
	if index < 0 {
		index = 0
	}
	m.index = index

	if index < len(m.session.Answers) {
		// Already locked before the reload; show its feedback again without
		// re-applying the meters.
		choice := m.session.Answers[index]
		m.locked = true
		if choice != domain.Unanswered {
			m.selected = &choice
		}
		m.lastCorrect = list[index].IsCorrect(choice)
		m.lastOutcome = OutcomeAnswered
		if choice == domain.Unanswered {
			m.lastOutcome = OutcomeSkipped
		}
		m.enterFeedbackLocked()
		return nil
	}
	m.startQuestionLocked()
	return nil
}

func (m *Machine) failLocked(err error) error {
	m.phase = PhaseNoSession
	m.emitLocked(Event{Kind: EventNavigate, Navigate: &Navigation{To: DestinationStart}})
	return err
}

// Select changes the tentative choice for the current question.
func (m *Machine) Select(option int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLocked(PhaseActive); err != nil {
		return err
	}
	if m.locked {
		return domain.ErrAlreadyLocked
	}
	if option < 0 || option >= len(m.questions[m.index].Options) {
		return domain.ErrInvalidOption
	}
	m.selected = &option
	m.emitStateLocked()
	return nil
}

// Submit locks the current question with the selected option.
func (m *Machine) Submit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLocked(PhaseActive); err != nil {
		if m.locked && (m.phase == PhaseAnswered || m.phase == PhaseFeedback) {
			return domain.ErrAlreadyLocked
		}
		return err
	}
	if m.locked {
		return domain.ErrAlreadyLocked
	}
	if m.selected == nil {
		return domain.ErrNoSelection
	}
	m.commitLocked(*m.selected, OutcomeAnswered)
	return nil
}

// Skip locks the current question as unanswered.
func (m *Machine) Skip() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLocked(PhaseActive); err != nil {
		return err
	}
	if m.locked {
		return domain.ErrAlreadyLocked
	}
	m.selected = nil
	m.commitLocked(domain.Unanswered, OutcomeSkipped)
	return nil
}

// Hint reveals the current question's hint.
func (m *Machine) Hint() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLocked(PhaseActive); err != nil {
		return "", err
	}
	m.hintShown = true
	m.emitStateLocked()
	return m.questions[m.index].Hint, nil
}

// Next advances manually during feedback, cancelling the scheduled auto-advance.
func (m *Machine) Next() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLocked(PhaseFeedback); err != nil {
		return err
	}
	m.advanceLocked()
	return nil
}

// RequestExit asks for confirmation before abandoning the attempt.
func (m *Machine) RequestExit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseActive && m.phase != PhaseAnswered {
		return m.phaseErrLocked()
	}
	m.resumePhase = m.phase
	m.phase = PhaseExitConfirm
	m.countdown.Stop()
	m.cancelPendingLocked()
	m.emitStateLocked()
	return nil
}

// CancelExit returns to the phase the exit was requested from.
func (m *Machine) CancelExit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLocked(PhaseExitConfirm); err != nil {
		return err
	}
	switch m.resumePhase {
	case PhaseAnswered:
		m.enterFeedbackLocked()
	default:
		m.phase = PhaseActive
		m.countdown.SetActive(true)
		m.emitStateLocked()
	}
	return nil
}

// ConfirmExit abandons the attempt and clears its run meters. The attempt
// record itself is kept and nothing is submitted.
func (m *Machine) ConfirmExit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireLocked(PhaseExitConfirm); err != nil {
		return err
	}
	m.phase = PhaseExited
	m.countdown.Stop()
	m.cancelPendingLocked()
	m.data.clearRun()
	if !m.session.Completed {
		m.session.Answers = nil
		m.session.QuestionTimes = nil
		m.data.saveSession(m.session)
	}
	m.emitLocked(Event{Kind: EventNavigate, Navigate: &Navigation{To: DestinationBack}})
	return nil
}

// Close stops timers without touching persisted state.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countdown.Stop()
	m.cancelPendingLocked()
}

// Snapshot returns the current view of the machine.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Machine) requireLocked(phase Phase) error {
	if m.phase == phase {
		return nil
	}
	return m.phaseErrLocked()
}

func (m *Machine) phaseErrLocked() error {
	switch m.phase {
	case PhaseCompleted:
		return domain.ErrSessionCompleted
	case PhaseNoSession, PhaseLoading:
		return domain.ErrSessionNotFound
	default:
		return domain.ErrInvalidTransition
	}
}

func (m *Machine) startQuestionLocked() {
	m.phase = PhaseActive
	m.selected = nil
	m.locked = false
	m.hintShown = false
	m.questionStarted = m.sched.Now()
	m.data.write(KeyCursor, m.index)
	m.timerEpoch = m.countdown.Restart()
	m.emitStateLocked()
}

// commitLocked locks the current question exactly once and records it.
func (m *Machine) commitLocked(choice int, outcome Outcome) {
	m.locked = true
	m.countdown.Stop()

	q := m.questions[m.index]
	correct := q.IsCorrect(choice)
	m.lastCorrect = correct
	m.lastOutcome = outcome
	m.meters = ApplyOutcome(m.meters, correct)

	now := m.sched.Now()
	elapsed := int(math.Round(now.Sub(m.questionStarted).Seconds()))
	m.session.Answers = setAt(m.session.Answers, m.index, choice, domain.Unanswered)
	m.session.QuestionTimes = setAt(m.session.QuestionTimes, m.index, elapsed, 0)
	m.answerTimes = setAt(m.answerTimes, m.index, now, time.Time{})

	m.data.write(KeyAnswers, m.session.Answers)
	m.data.write(KeyQuestionTimes, m.session.QuestionTimes)
	m.data.write(KeyAnswerTimes, m.answerTimes)
	m.data.write(KeyStreak, m.meters.Streak)
	m.data.write(KeyHearts, m.meters.Hearts)
	m.data.saveSession(m.session)

	if outcome == OutcomeTimedOut || m.cfg.RevealDelay <= 0 {
		m.enterFeedbackLocked()
		return
	}
	m.phase = PhaseAnswered
	m.scheduleLocked(m.cfg.RevealDelay, PhaseAnswered, m.enterFeedbackLocked)
	m.emitStateLocked()
}

func (m *Machine) enterFeedbackLocked() {
	m.phase = PhaseFeedback
	delay := m.cfg.IncorrectDelay
	switch {
	case m.lastOutcome == OutcomeTimedOut:
		delay = m.cfg.TimeoutDelay
	case m.lastCorrect:
		delay = m.cfg.CorrectDelay
	}
	q := m.questions[m.index]
	m.scheduleLocked(delay, PhaseFeedback, m.advanceLocked)
	m.emitLocked(Event{
		Kind:     EventFeedback,
		Snapshot: m.snapshotLocked(),
		Feedback: &Feedback{
			Index:         m.index,
			Correct:       m.lastCorrect,
			Outcome:       m.lastOutcome,
			CorrectAnswer: q.CorrectAnswer,
			Concept:       q.Concept,
			Explanation:   q.Explanation,
			AutoAdvance:   delay,
			AutoAdvanceMs: delay.Milliseconds(),
		},
	})
}

// scheduleLocked runs fn after d if the machine is still in phase and no
// newer schedule or cancellation happened in between.
func (m *Machine) scheduleLocked(d time.Duration, phase Phase, fn func()) {
	m.cancelPendingLocked()
	gen := m.pendingGen
	m.pending = m.sched.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.pendingGen || m.phase != phase {
			return
		}
		m.pending = nil
		fn()
	})
}

func (m *Machine) cancelPendingLocked() {
	m.pendingGen++
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

func (m *Machine) advanceLocked() {
	m.cancelPendingLocked()
	if m.index < len(m.questions)-1 {
		m.index++
		m.startQuestionLocked()
		return
	}
	m.completeLocked()
}

func (m *Machine) completeLocked() {
	m.phase = PhaseCompleted
	m.countdown.Stop()
	m.session.Completed = true
	m.data.saveSession(m.session)
	m.data.write(KeyLastQuiz, m.session.Answers)
	m.data.write(KeyCompleted, true)

	if !m.submitted && m.submitter != nil {
		m.submitted = true
		attempt := domain.CompletedAttempt{
			Session:    cloneSession(m.session),
			Questions:  m.questions,
			AnsweredAt: append([]time.Time(nil), m.answerTimes...),
		}
		submitter, log := m.submitter, m.log
		m.dispatch(func() {
			res := submitter.Submit(context.Background(), attempt)
			if !res.OK {
				log.Warn("backend submission failed",
					zap.String("session_id", attempt.Session.ID),
					zap.Int("status", res.StatusCode),
					zap.Error(res.Err))
				return
			}
			log.Info("backend submission sent", zap.String("session_id", attempt.Session.ID))
		})
	}
	m.emitLocked(Event{Kind: EventNavigate, Navigate: &Navigation{To: DestinationResults, SessionID: m.session.ID}})
}

func (m *Machine) onTick(remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseActive {
		return
	}
	m.emitLocked(Event{Kind: EventTick, Snapshot: m.snapshotLocked()})
}

// onExpire is a forced, incorrect submission. Expiry for a question that was
// already left is discarded.
func (m *Machine) onExpire(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseActive || m.locked || epoch != m.timerEpoch {
		return
	}
	m.selected = nil
	m.commitLocked(domain.Unanswered, OutcomeTimedOut)
}

func (m *Machine) emitStateLocked() {
	m.emitLocked(Event{Kind: EventState, Snapshot: m.snapshotLocked()})
}

func (m *Machine) emitLocked(ev Event) {
	if ev.Snapshot.Phase == "" {
		ev.Snapshot = m.snapshotLocked()
	}
	m.observer(ev)
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:        m.session.ID,
		Phase:            m.phase,
		Index:            m.index,
		Total:            len(m.questions),
		Locked:           m.locked,
		Hearts:           m.meters.Hearts,
		MaxHearts:        m.cfg.MaxHearts,
		Streak:           m.meters.Streak,
		Remaining:        m.countdown.Remaining(),
		PercentRemaining: m.countdown.PercentRemaining(),
	}
	if m.selected != nil {
		sel := *m.selected
		snap.Selected = &sel
	}
	if m.index < len(m.questions) {
		q := m.questions[m.index]
		snap.Question = &QuestionView{
			ID:         q.ID,
			Prompt:     q.Prompt,
			Options:    q.Options,
			Concept:    q.Concept,
			Difficulty: q.Difficulty,
			Image:      q.Image,
			HasHint:    q.Hint != "",
		}
		if m.hintShown {
			snap.Hint = q.Hint
		}
	}
	return snap
}

func setAt[T any](s []T, i int, v T, fill T) []T {
	for len(s) <= i {
		s = append(s, fill)
	}
	s[i] = v
	return s
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func cloneSession(s domain.QuizSession) domain.QuizSession {
	s.Answers = append([]int(nil), s.Answers...)
	s.QuestionTimes = append([]int(nil), s.QuestionTimes...)
	return s
}

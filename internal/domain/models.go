package domain

import "time"

// Grade is the level chosen before an attempt starts.
type Grade string

const (
	GradeMiddle1 Grade = "중1"
	GradeMiddle2 Grade = "중2"
	GradeMiddle3 Grade = "중3"
)

// Grades lists every recognized grade in display order.
var Grades = []Grade{GradeMiddle1, GradeMiddle2, GradeMiddle3}

// Valid reports whether g is one of the recognized grades.
func (g Grade) Valid() bool {
	for _, known := range Grades {
		if g == known {
			return true
		}
	}
	return false
}

// Number maps a grade to its numeric year (1..3), defaulting to 2.
func (g Grade) Number() int {
	switch g {
	case GradeMiddle1:
		return 1
	case GradeMiddle3:
		return 3
	default:
		return 2
	}
}

// ParseGrade validates a raw grade string.
func ParseGrade(raw string) (Grade, error) {
	g := Grade(raw)
	if !g.Valid() {
		return "", ErrInvalidGrade
	}
	return g, nil
}

// Unanswered is recorded for skipped or timed-out questions.
const Unanswered = -1

// Question models a multiple-choice question with one correct option.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Concept       string   `json:"concept"`
	Difficulty    string   `json:"difficulty"`
	Hint          string   `json:"hint,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Image         string   `json:"image,omitempty"`
}

// IsCorrect reports whether selected matches the answer key.
// The Unanswered sentinel is never correct.
func (q Question) IsCorrect(selected int) bool {
	if selected == Unanswered {
		return false
	}
	return selected == q.CorrectAnswer
}

// QuizSession is the unit of work for one assessment attempt.
type QuizSession struct {
	ID            string    `json:"id"`
	Grade         Grade     `json:"grade"`
	LearnerID     string    `json:"learnerId,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	Answers       []int     `json:"answers,omitempty"`
	QuestionTimes []int     `json:"questionTimes,omitempty"`
	Completed     bool      `json:"completed"`
}

// RunMeters are accumulated across a session and persisted alongside it.
type RunMeters struct {
	Hearts int `json:"hearts"`
	Streak int `json:"streak"`
}

// ConceptScore is a per-domain sub-score in the summary.
type ConceptScore struct {
	Concept  string `json:"concept"`
	Score    int    `json:"score"`
	MaxScore int    `json:"maxScore"`
}

// Summary is computed once when a session completes.
type Summary struct {
	SessionID       string         `json:"sessionId"`
	Grade           Grade          `json:"grade"`
	TotalQuestions  int            `json:"totalQuestions"`
	CorrectAnswers  int            `json:"correctAnswers"`
	Accuracy        int            `json:"accuracy"`
	EstimatedLevel  string         `json:"estimatedLevel"`
	ConceptScores   []ConceptScore `json:"conceptScores"`
	WeakAreas       []string       `json:"weakAreas"`
	Recommendations []string       `json:"recommendations"`
	TotalSeconds    int            `json:"totalSeconds"`
}

package app

import (
	"math"

	"pretest-quiz-service/internal/domain"
)

// ApplyOutcome returns the meters after one locked answer.
// Hearts reaching zero does not end the session.
func ApplyOutcome(m domain.RunMeters, correct bool) domain.RunMeters {
	if correct {
		m.Streak++
		return m
	}
	m.Streak = 0
	if m.Hearts > 0 {
		m.Hearts--
	}
	return m
}

func clampMeters(m domain.RunMeters, maxHearts int) domain.RunMeters {
	if m.Hearts > maxHearts {
		m.Hearts = maxHearts
	}
	if m.Hearts < 0 {
		m.Hearts = 0
	}
	if m.Streak < 0 {
		m.Streak = 0
	}
	return m
}

// Level bands over accuracy percentage.
const (
	LevelTop    = "A"
	LevelMiddle = "B"
	LevelBottom = "C"
)

// LevelForAccuracy maps an accuracy percentage to a coarse level.
func LevelForAccuracy(accuracy int) string {
	switch {
	case accuracy >= 80:
		return LevelTop
	case accuracy >= 60:
		return LevelMiddle
	default:
		return LevelBottom
	}
}

// Concept domains used for sub-scores, in display order.
var conceptDomains = []string{"수와 연산", "식과 계산", "함수", "기하"}

var conceptDomainOf = map[string]string{
	"정수와 유리수":     "수와 연산",
	"정수의 사칙연산":    "수와 연산",
	"거듭제곱":        "수와 연산",
	"유리수와 무리수":    "수와 연산",
	"제곱근":         "수와 연산",
	"일차방정식":       "식과 계산",
	"식의 계산":       "식과 계산",
	"이차방정식":       "식과 계산",
	"연립방정식":       "식과 계산",
	"인수분해":        "식과 계산",
	"일차함수":        "함수",
	"이차함수":        "함수",
	"이차함수와 x축의 교점": "함수",
	"평면도형":        "기하",
	"사각형의 성질":     "기하",
	"원의 성질":       "기하",
	"삼각비":         "기하",
}

// weakThreshold is the sub-score ratio under which a domain counts as weak.
const weakThreshold = 0.6

var recommendationsByLevel = map[string][]string{
	LevelTop:    {"심화 문제에 도전해보세요.", "새로운 단원 예습을 시작해보세요."},
	LevelMiddle: {"문제 유형별 연습이 필요합니다.", "틀린 개념을 다시 정리해보세요."},
	LevelBottom: {"기본 개념 복습을 권장합니다.", "쉬운 문제부터 차근차근 풀어보세요."},
}

// BuildSummary scores a session against its question list.
func BuildSummary(session domain.QuizSession, questions []domain.Question) domain.Summary {
	total := len(questions)
	correct := 0

	scores := make(map[string]*domain.ConceptScore)
	order := make([]string, 0, len(conceptDomains))
	for _, name := range conceptDomains {
		scores[name] = &domain.ConceptScore{Concept: name}
	}

	for i, q := range questions {
		name, ok := conceptDomainOf[q.Concept]
		if !ok {
			name = q.Concept
		}
		cs, ok := scores[name]
		if !ok {
			cs = &domain.ConceptScore{Concept: name}
			scores[name] = cs
			order = append(order, name)
		}
		cs.MaxScore++
		if i < len(session.Answers) && q.IsCorrect(session.Answers[i]) {
			correct++
			cs.Score++
		}
	}

	accuracy := 0
	if total > 0 {
		accuracy = int(math.Round(float64(correct) / float64(total) * 100))
	}
	level := LevelForAccuracy(accuracy)

	conceptScores := make([]domain.ConceptScore, 0, len(scores))
	weak := []string{}
	for _, name := range append(append([]string{}, conceptDomains...), order...) {
		cs := scores[name]
		if cs.MaxScore == 0 {
			continue
		}
		conceptScores = append(conceptScores, *cs)
		if float64(cs.Score)/float64(cs.MaxScore) < weakThreshold {
			weak = append(weak, cs.Concept)
		}
	}

	seconds := 0
	for _, s := range session.QuestionTimes {
		seconds += s
	}

	return domain.Summary{
		SessionID:       session.ID,
		Grade:           session.Grade,
		TotalQuestions:  total,
		CorrectAnswers:  correct,
		Accuracy:        accuracy,
		EstimatedLevel:  level,
		ConceptScores:   conceptScores,
		WeakAreas:       weak,
		Recommendations: append([]string(nil), recommendationsByLevel[level]...),
		TotalSeconds:    seconds,
	}
}

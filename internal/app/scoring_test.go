package app

import (
	"testing"

	"pretest-quiz-service/internal/domain"
)

func TestApplyOutcomeBounds(t *testing.T) {
	m := domain.RunMeters{Hearts: 5}
	for i := 0; i < 8; i++ {
		m = ApplyOutcome(m, false)
		if m.Hearts < 0 || m.Hearts > 5 || m.Streak != 0 {
			t.Fatalf("step %d: meters out of bounds %+v", i, m)
		}
	}
	if m.Hearts != 0 {
		t.Fatalf("expected hearts floored at 0, got %d", m.Hearts)
	}

	for i := 1; i <= 3; i++ {
		m = ApplyOutcome(m, true)
		if m.Streak != i || m.Hearts != 0 {
			t.Fatalf("correct answers must only grow streak, got %+v", m)
		}
	}
}

func TestClampMeters(t *testing.T) {
	got := clampMeters(domain.RunMeters{Hearts: 9, Streak: -2}, 5)
	if got.Hearts != 5 || got.Streak != 0 {
		t.Fatalf("unexpected clamp result %+v", got)
	}
	if got := clampMeters(domain.RunMeters{Hearts: -1}, 5); got.Hearts != 0 {
		t.Fatalf("expected negative hearts clamped, got %d", got.Hearts)
	}
}

func TestLevelForAccuracy(t *testing.T) {
	cases := map[int]string{100: LevelTop, 80: LevelTop, 79: LevelMiddle, 60: LevelMiddle, 59: LevelBottom, 0: LevelBottom}
	for accuracy, want := range cases {
		if got := LevelForAccuracy(accuracy); got != want {
			t.Fatalf("accuracy %d: expected %s, got %s", accuracy, want, got)
		}
	}
}

func TestBuildSummary(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Options: []string{"a", "b"}, CorrectAnswer: 0, Concept: "일차함수"},
		{ID: "q2", Options: []string{"a", "b"}, CorrectAnswer: 1, Concept: "이차함수"},
		{ID: "q3", Options: []string{"a", "b"}, CorrectAnswer: 0, Concept: "삼각비"},
		{ID: "q4", Options: []string{"a", "b"}, CorrectAnswer: 0, Concept: "통계"},
	}
	session := domain.QuizSession{
		ID:            "s1",
		Grade:         domain.GradeMiddle3,
		Answers:       []int{0, 1, domain.Unanswered, 0},
		QuestionTimes: []int{10, 20, 45, 5},
	}

	summary := BuildSummary(session, questions)
	if summary.CorrectAnswers != 3 || summary.Accuracy != 75 || summary.EstimatedLevel != LevelMiddle {
		t.Fatalf("unexpected totals %+v", summary)
	}
	if summary.TotalSeconds != 80 {
		t.Fatalf("expected 80 seconds, got %d", summary.TotalSeconds)
	}
	if len(summary.ConceptScores) != 3 {
		t.Fatalf("expected 3 concept groups, got %+v", summary.ConceptScores)
	}
	if summary.ConceptScores[0].Concept != "함수" || summary.ConceptScores[0].Score != 2 {
		t.Fatalf("expected function domain first with 2 points, got %+v", summary.ConceptScores[0])
	}
	if summary.ConceptScores[2].Concept != "통계" {
		t.Fatalf("unknown concepts should be appended, got %+v", summary.ConceptScores)
	}
	if len(summary.WeakAreas) != 1 || summary.WeakAreas[0] != "기하" {
		t.Fatalf("expected geometry as weak area, got %v", summary.WeakAreas)
	}
	if len(summary.Recommendations) == 0 {
		t.Fatalf("expected recommendations")
	}
}

func TestBuildSummaryPartialAnswers(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Options: []string{"a", "b"}, CorrectAnswer: 0, Concept: "제곱근"},
		{ID: "q2", Options: []string{"a", "b"}, CorrectAnswer: 0, Concept: "제곱근"},
	}
	summary := BuildSummary(domain.QuizSession{Answers: []int{0}}, questions)
	if summary.CorrectAnswers != 1 || summary.Accuracy != 50 || summary.EstimatedLevel != LevelBottom {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

package memory

import "pretest-quiz-service/internal/domain"

// DefaultQuestions is the built-in pre-assessment table: six questions per grade.
func DefaultQuestions() map[domain.Grade][]domain.Question {
	return map[domain.Grade][]domain.Question{
		domain.GradeMiddle1: {
			{ID: "1-1", Prompt: "다음 중 정수가 아닌 것은?", Options: []string{"-3", "0", "1/2", "5"}, CorrectAnswer: 2, Concept: "정수와 유리수", Difficulty: "easy", Hint: "분수 꼴로만 나타낼 수 있는 수를 찾아보세요."},
			{ID: "1-2", Prompt: "(-2) × 3 + 4의 값은?", Options: []string{"-2", "-1", "2", "10"}, CorrectAnswer: 0, Concept: "정수의 사칙연산", Difficulty: "easy"},
			{ID: "1-3", Prompt: "2x + 5 = 11일 때, x의 값은?", Options: []string{"2", "3", "8", "16"}, CorrectAnswer: 1, Concept: "일차방정식", Difficulty: "medium", Hint: "양변에서 5를 빼 보세요."},
			{ID: "1-4", Prompt: "직선 y = 2x + 1의 기울기는?", Options: []string{"1", "2", "-1", "1/2"}, CorrectAnswer: 1, Concept: "일차함수", Difficulty: "medium"},
			{ID: "1-5", Prompt: "삼각형의 내각의 합은?", Options: []string{"90°", "180°", "270°", "360°"}, CorrectAnswer: 1, Concept: "평면도형", Difficulty: "easy"},
			{ID: "1-6", Prompt: "2⁴의 값은?", Options: []string{"8", "16", "32", "64"}, CorrectAnswer: 1, Concept: "거듭제곱", Difficulty: "easy"},
		},
		domain.GradeMiddle2: {
			{ID: "2-1", Prompt: "다음 중 무리수는?", Options: []string{"1/3", "0.333...", "√2", "22/7"}, CorrectAnswer: 2, Concept: "유리수와 무리수", Difficulty: "medium"},
			{ID: "2-2", Prompt: "(x + 2)(x - 3)을 전개하면?", Options: []string{"x² - x - 6", "x² + x - 6", "x² - x + 6", "x² + x + 6"}, CorrectAnswer: 0, Concept: "식의 계산", Difficulty: "medium"},
			{ID: "2-3", Prompt: "x² - 5x + 6 = 0의 해는?", Options: []string{"x = 1, 6", "x = 2, 3", "x = -2, -3", "x = -1, -6"}, CorrectAnswer: 1, Concept: "이차방정식", Difficulty: "hard", Hint: "곱해서 6, 더해서 5가 되는 두 수를 찾아보세요."},
			{ID: "2-4", Prompt: "일차함수 y = -2x + 3에서 x가 1만큼 증가할 때 y의 변화량은?", Options: []string{"-2", "-1", "1", "2"}, CorrectAnswer: 0, Concept: "일차함수", Difficulty: "medium"},
			{ID: "2-5", Prompt: "평행사변형의 대각선이 교차하는 점은 각 대각선을 몇 대 몇으로 나누는가?", Options: []string{"1:1", "1:2", "2:1", "1:3"}, CorrectAnswer: 0, Concept: "사각형의 성질", Difficulty: "medium"},
			{ID: "2-6", Prompt: "연립방정식 { x + y = 5, x - y = 1 }의 해는?", Options: []string{"x=3, y=2", "x=2, y=3", "x=4, y=1", "x=1, y=4"}, CorrectAnswer: 0, Concept: "연립방정식", Difficulty: "medium"},
		},
		domain.GradeMiddle3: {
			{ID: "3-1", Prompt: "√18을 간단히 하면?", Options: []string{"3√2", "2√3", "6√2", "9√2"}, CorrectAnswer: 0, Concept: "제곱근", Difficulty: "medium", Hint: "18 = 9 × 2"},
			{ID: "3-2", Prompt: "x² - 4x + 3을 인수분해하면?", Options: []string{"(x-1)(x-3)", "(x+1)(x+3)", "(x-1)(x+3)", "(x+1)(x-3)"}, CorrectAnswer: 0, Concept: "인수분해", Difficulty: "medium"},
			{ID: "3-3", Prompt: "이차함수 y = x² - 2x + 1의 꼭짓점 좌표는?", Options: []string{"(1, 0)", "(-1, 0)", "(1, -1)", "(-1, 4)"}, CorrectAnswer: 0, Concept: "이차함수", Difficulty: "hard"},
			{ID: "3-4", Prompt: "원의 둘레가 6π일 때, 이 원의 넓이는?", Options: []string{"9π", "12π", "18π", "36π"}, CorrectAnswer: 0, Concept: "원의 성질", Difficulty: "medium"},
			{ID: "3-5", Prompt: "삼각형 ABC에서 ∠C = 90°, AB = 5, BC = 3일 때, sin A의 값은?", Options: []string{"3/5", "4/5", "3/4", "4/3"}, CorrectAnswer: 0, Concept: "삼각비", Difficulty: "hard"},
			{ID: "3-6", Prompt: "포물선 y = x² - 4x + 3과 x축과의 교점의 개수는?", Options: []string{"0개", "1개", "2개", "3개"}, CorrectAnswer: 2, Concept: "이차함수와 x축의 교점", Difficulty: "hard"},
		},
	}
}

// Package submission turns completed attempts into the backend collector
// format and sends them.
package submission

import (
	"fmt"
	"time"

	"pretest-quiz-service/internal/domain"
)

// TimestampLayout is the SQL Server datetime layout used on the wire.
const TimestampLayout = "2006-01-02 15:04:05.000"

// Identity holds the fixed learner and test attributes sent with every record.
type Identity struct {
	LearnerID string
	TestID    string
	Gender    string
	School    string
}

// DefaultIdentity is the pre-assessment identity used when none is configured.
func DefaultIdentity() Identity {
	return Identity{
		LearnerID: "A070000011",
		TestID:    "A070000043",
		Gender:    "M",
		School:    "S01",
	}
}

// GenerateSessionID builds the date-stamped backend session id:
// rt-YYYYMMDD:first6:<learnerID>:0.
func GenerateSessionID(learnerID string, now time.Time) string {
	return fmt.Sprintf("rt-%s:first6:%s:0", now.UTC().Format("20060102"), learnerID)
}

// GenerateAssessmentItemID derives the item id from the last three characters
// of testID and the 1-based question sequence.
func GenerateAssessmentItemID(testID string, questionIndex int) string {
	suffix := testID
	if len(suffix) > 3 {
		suffix = suffix[len(suffix)-3:]
	}
	return fmt.Sprintf("A070%s%03d", suffix, questionIndex+1)
}

// Transform produces the collector payload for a completed attempt. One
// answer record is emitted per recorded answer.
func Transform(id Identity, attempt domain.CompletedAttempt, now time.Time) domain.SubmissionPayload {
	learnerID := id.LearnerID
	if attempt.Session.LearnerID != "" {
		learnerID = attempt.Session.LearnerID
	}
	sessionID := GenerateSessionID(learnerID, now)
	grade := string(attempt.Session.Grade)
	processedAt := now.UTC().Format(TimestampLayout)

	payload := domain.SubmissionPayload{
		SessionInfo: domain.SessionInfo{
			SessionID: sessionID,
			LearnerID: learnerID,
			TestID:    id.TestID,
			Grade:     grade,
			Gender:    id.Gender,
			School:    id.School,
		},
		Answers: make([]domain.AnswerRecord, 0, len(attempt.Session.Answers)),
	}

	for i, selected := range attempt.Session.Answers {
		correct := 0
		if i < len(attempt.Questions) && attempt.Questions[i].IsCorrect(selected) {
			correct = 1
		}
		answeredAt := now
		if i < len(attempt.AnsweredAt) && !attempt.AnsweredAt[i].IsZero() {
			answeredAt = attempt.AnsweredAt[i]
		}
		payload.Answers = append(payload.Answers, domain.AnswerRecord{
			TS:               answeredAt.UTC().Format(TimestampLayout),
			SessionID:        sessionID,
			LearnerID:        learnerID,
			TestID:           id.TestID,
			AssessmentItemID: GenerateAssessmentItemID(id.TestID, i),
			IsCorrect:        correct,
			SeqInSession:     i + 1,
			SessionIdx:       0,
			Grade:            grade,
			Gender:           id.Gender,
			School:           id.School,
			ProcessedAt:      processedAt,
		})
	}
	return payload
}

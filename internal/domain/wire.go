package domain

// SessionInfo is the session-header record sent to the backend collector.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	LearnerID string `json:"learnerID"`
	TestID    string `json:"testID"`
	Grade     string `json:"grade"`
	Gender    string `json:"gender"`
	School    string `json:"school"`
}

// AnswerRecord is one per-question record sent to the backend collector.
type AnswerRecord struct {
	TS               string `json:"ts"`
	SessionID        string `json:"session_id"`
	LearnerID        string `json:"learnerID"`
	TestID           string `json:"testID"`
	AssessmentItemID string `json:"assessmentItemID"`
	IsCorrect        int    `json:"is_correct"`
	SeqInSession     int    `json:"seq_in_session"`
	SessionIdx       int    `json:"session_idx"`
	Grade            string `json:"grade"`
	Gender           string `json:"gender"`
	School           string `json:"school"`
	ProcessedAt      string `json:"processed_at"`
}

// SubmissionPayload is the body POSTed to the backend collector.
type SubmissionPayload struct {
	SessionInfo SessionInfo    `json:"sessionInfo"`
	Answers     []AnswerRecord `json:"answers"`
}

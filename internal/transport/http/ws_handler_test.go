package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pretest-quiz-service/internal/app"
	"pretest-quiz-service/internal/clock"
	"pretest-quiz-service/internal/domain"
	"pretest-quiz-service/internal/infra/memory"
	"pretest-quiz-service/internal/submission"
)

type testEnv struct {
	server    *httptest.Server
	clock     *clock.Manual
	collector *memory.SubmissionRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:     clock.NewManual(time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)),
		collector: memory.NewSubmissionRepository(),
	}
	var handler http.Handler
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(env.server.Close)

	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(memory.DefaultQuestions()), time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(), questions, submission.NewClient(env.server.URL),
		app.WithScheduler(env.clock),
		app.WithDispatch(func(f func()) { f() }),
	)
	handler = NewRouter(RouterConfig{Service: service, Collector: env.collector})
	return env
}

func (e *testEnv) createAttempt(t *testing.T, profileID, grade string) createAttemptResponse {
	t.Helper()
	body := bytes.NewBufferString(`{"grade":"` + grade + `"}`)
	resp, err := http.Post(e.server.URL+"/api/attempts?profileId="+profileID, "application/json", body)
	if err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var out createAttemptResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode attempt: %v", err)
	}
	return out
}

func (e *testEnv) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readUntil reads messages until one of type expect arrives and, when match
// is set, satisfies it.
func readUntil(t *testing.T, conn *websocket.Conn, expect string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	for i := 0; i < 50; i++ {
		var msg wireMessage
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", expect, err)
		}
		if msg.Type == expect && (match == nil || match(msg.Payload)) {
			return msg.Payload
		}
	}
	t.Fatalf("no %s message received", expect)
	return nil
}

func phaseIs(phase app.Phase, index int) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var snap app.Snapshot
		_ = json.Unmarshal(raw, &snap)
		return snap.Phase == phase && snap.Index == index
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func TestWebSocketQuizFlow(t *testing.T) {
	env := newTestEnv(t)
	attempt := env.createAttempt(t, "p1", "중1")
	if attempt.QuestionCount != 6 {
		t.Fatalf("expected 6 questions, got %d", attempt.QuestionCount)
	}

	conn := env.dial(t, "profileId=p1&sessionId="+attempt.SessionID)
	readUntil(t, conn, "state", phaseIs(app.PhaseActive, 0))

	questions := memory.DefaultQuestions()[domain.GradeMiddle1]
	for i, q := range questions {
		send(t, conn, "select", map[string]int{"option": q.CorrectAnswer})
		send(t, conn, "submit", nil)
		readUntil(t, conn, "state", phaseIs(app.PhaseAnswered, i))

		env.clock.Advance(300 * time.Millisecond)
		raw := readUntil(t, conn, "feedback", nil)
		var fb feedbackPayload
		if err := json.Unmarshal(raw, &fb); err != nil {
			t.Fatalf("decode feedback: %v", err)
		}
		if fb.Feedback == nil || !fb.Feedback.Correct || fb.Feedback.AutoAdvanceMs != 3000 {
			t.Fatalf("question %d: unexpected feedback %+v", i, fb.Feedback)
		}
		send(t, conn, "next", nil)
		if i < len(questions)-1 {
			readUntil(t, conn, "state", phaseIs(app.PhaseActive, i+1))
		}
	}

	raw := readUntil(t, conn, "navigate", nil)
	var nav app.Navigation
	_ = json.Unmarshal(raw, &nav)
	if nav.To != app.DestinationResults || nav.SessionID != attempt.SessionID {
		t.Fatalf("expected navigation to results, got %+v", nav)
	}

	if got := env.collector.Submissions(); len(got) != 1 || len(got[0].Answers) != 6 {
		t.Fatalf("expected one collected submission with 6 answers, got %+v", got)
	}

	resp, err := http.Get(env.server.URL + "/api/attempts/" + attempt.SessionID + "/result?profileId=p1")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	defer resp.Body.Close()
	var summary domain.Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if resp.StatusCode != http.StatusOK || summary.CorrectAnswers != 6 || summary.EstimatedLevel != app.LevelTop {
		t.Fatalf("unexpected result status=%d summary=%+v", resp.StatusCode, summary)
	}
}

func TestWebSocketTimeoutAndErrors(t *testing.T) {
	env := newTestEnv(t)
	attempt := env.createAttempt(t, "p2", "중3")
	conn := env.dial(t, "profileId=p2&sessionId="+attempt.SessionID)
	readUntil(t, conn, "state", phaseIs(app.PhaseActive, 0))

	send(t, conn, "submit", nil)
	raw := readUntil(t, conn, "error", nil)
	if !strings.Contains(string(raw), domain.ErrNoSelection.Error()) {
		t.Fatalf("expected no-selection error, got %s", raw)
	}
	send(t, conn, "dance", nil)
	readUntil(t, conn, "error", nil)

	env.clock.Advance(44 * time.Second)
	tick := readUntil(t, conn, "tick", func(raw json.RawMessage) bool {
		var p tickPayload
		_ = json.Unmarshal(raw, &p)
		return p.Remaining == 1
	})
	if !strings.Contains(string(tick), `"display":"0:01"`) {
		t.Fatalf("expected formatted display, got %s", tick)
	}

	env.clock.Advance(time.Second)
	raw = readUntil(t, conn, "feedback", nil)
	var fb feedbackPayload
	_ = json.Unmarshal(raw, &fb)
	if fb.Feedback.Outcome != app.OutcomeTimedOut || fb.State.Hearts != 4 {
		t.Fatalf("expected timeout feedback with 4 hearts, got %+v", fb)
	}
}

func TestWebSocketExit(t *testing.T) {
	env := newTestEnv(t)
	attempt := env.createAttempt(t, "p3", "중2")
	conn := env.dial(t, "profileId=p3&sessionId="+attempt.SessionID)
	readUntil(t, conn, "state", phaseIs(app.PhaseActive, 0))

	send(t, conn, "exit", nil)
	readUntil(t, conn, "state", phaseIs(app.PhaseExitConfirm, 0))
	send(t, conn, "confirmExit", nil)

	raw := readUntil(t, conn, "navigate", nil)
	var nav app.Navigation
	_ = json.Unmarshal(raw, &nav)
	if nav.To != app.DestinationBack {
		t.Fatalf("expected navigation back, got %+v", nav)
	}
	if len(env.collector.Submissions()) != 0 {
		t.Fatalf("exit must not submit")
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "profileId=p4&sessionId=missing")

	raw := readUntil(t, conn, "navigate", nil)
	var nav app.Navigation
	_ = json.Unmarshal(raw, &nav)
	if nav.To != app.DestinationStart {
		t.Fatalf("expected navigation to start, got %+v", nav)
	}
	readUntil(t, conn, "error", nil)
}

func TestWebSocketRequiresParams(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/ws?profileId=p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

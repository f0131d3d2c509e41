package http

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pretest-quiz-service/internal/app"
	"pretest-quiz-service/internal/timer"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(service *app.QuizService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option *int `json:"option"`
}

type tickPayload struct {
	Remaining        int     `json:"remaining"`
	PercentRemaining float64 `json:"percentRemaining"`
	Display          string  `json:"display"`
}

type feedbackPayload struct {
	Feedback *app.Feedback `json:"feedback"`
	State    app.Snapshot  `json:"state"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// outbox serializes machine events onto the connection writer. Sends after
// close are dropped.
type outbox struct {
	mu     sync.Mutex
	ch     chan outboundMessage[any]
	done   chan struct{}
	closed bool
}

func newOutbox(size int) *outbox {
	return &outbox{ch: make(chan outboundMessage[any], size), done: make(chan struct{})}
}

func (o *outbox) send(msg outboundMessage[any]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.ch <- msg:
	case <-o.done:
	}
}

func (o *outbox) close() {
	close(o.done)
	o.mu.Lock()
	o.closed = true
	close(o.ch)
	o.mu.Unlock()
}

func eventMessage(ev app.Event) outboundMessage[any] {
	switch ev.Kind {
	case app.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: tickPayload{
			Remaining:        ev.Snapshot.Remaining,
			PercentRemaining: ev.Snapshot.PercentRemaining,
			Display:          timer.FormatTime(ev.Snapshot.Remaining),
		}}
	case app.EventFeedback:
		return outboundMessage[any]{Type: "feedback", Payload: feedbackPayload{Feedback: ev.Feedback, State: ev.Snapshot}}
	case app.EventNavigate:
		return outboundMessage[any]{Type: "navigate", Payload: ev.Navigate}
	default:
		return outboundMessage[any]{Type: "state", Payload: ev.Snapshot}
	}
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz machine
// per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	profileID := r.URL.Query().Get("profileId")
	sessionID := r.URL.Query().Get("sessionId")
	if profileID == "" || sessionID == "" {
		http.Error(w, "missing profileId or sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.log.With(zap.String("profile_id", profileID), zap.String("session_id", sessionID))
	out := newOutbox(64)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range out.ch {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				// keep draining so senders never block on a dead connection
				for range out.ch {
				}
				return
			}
		}
	}()

	machine, err := h.service.Open(r.Context(), profileID, sessionID, func(ev app.Event) {
		out.send(eventMessage(ev))
	})
	if err != nil {
		out.send(errorMessage(err.Error()))
		out.close()
		<-writerDone
		return
	}
	out.send(eventMessage(app.Event{Kind: app.EventState, Snapshot: machine.Snapshot()}))

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(machine, inbound); err != nil {
			out.send(errorMessage(err.Error()))
		}
	}

	machine.Close()
	out.close()
	<-writerDone
}

func (h *WSHandler) dispatch(m *app.Machine, inbound inboundMessage) error {
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
			return errInvalidPayload
		}
		return m.Select(*payload.Option)
	case "submit":
		return m.Submit()
	case "skip":
		return m.Skip()
	case "next":
		return m.Next()
	case "hint":
		_, err := m.Hint()
		return err
	case "exit":
		return m.RequestExit()
	case "cancelExit":
		return m.CancelExit()
	case "confirmExit":
		return m.ConfirmExit()
	default:
		return errUnsupportedMessage
	}
}

package simulator

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quizmon-client/internal/gateway"
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithTick shortens the timer tick (tests run sub-second matches).
func WithTick(d time.Duration) ServerOption {
	return func(s *Server) { s.tick = d }
}

// Server hosts simulated match rooms over the client's own wire protocol.
// Every room plays the same configured quiz.
type Server struct {
	store           RoomStore
	quiz            Content
	questionSeconds int
	tick            time.Duration
	log             *zap.Logger
	upgrader        websocket.Upgrader
}

// New builds a simulator serving the given quiz.
func New(store RoomStore, quiz Content, questionSeconds int, log *zap.Logger, opts ...ServerOption) *Server {
	s := &Server{
		store:           store,
		quiz:            quiz,
		questionSeconds: questionSeconds,
		tick:            time.Second,
		log:             log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler exposes the simulator's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", s.ServeWS)
	return mux
}

// client is one websocket connection; a dedicated writer goroutine keeps
// writes single-threaded.
type client struct {
	conn   *websocket.Conn
	send   chan gateway.Envelope
	userID string
}

func (c *client) user() string { return c.userID }

// push queues an envelope, dropping the oldest frame instead of blocking
// the room on a slow consumer.
func (c *client) push(env gateway.Envelope) {
	select {
	case c.send <- env:
	default:
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- env:
		default:
		}
	}
}

type submitPayload struct {
	MatchID    string          `json:"matchId"`
	UserID     string          `json:"userId"`
	QuestionID string          `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
}

type requestPayload struct {
	MatchID string `json:"matchId"`
}

type answerSubmittedPayload struct {
	QuestionID string `json:"questionId"`
}

// ServeWS upgrades the connection and speaks the match protocol until the
// peer goes away.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	cl := &client{conn: conn, send: make(chan gateway.Envelope, 32)}
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for env := range cl.send {
			if err := conn.WriteJSON(env); err != nil {
				s.log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	var room *Room
	for {
		var env gateway.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			break
		}

		switch env.Type {
		case gateway.EventJoinMatch:
			var join gateway.JoinPayload
			if err := json.Unmarshal(env.Payload, &join); err != nil {
				s.pushError(cl, "invalid join payload")
				continue
			}
			cl.userID = join.UserID
			room = s.store.GetOrCreate(join.MatchID)
			roster := room.Join(cl, join.UserID, join.Username)
			room.Broadcast(gateway.EventPlayerJoined, roster)
			room.Start(s.quiz, s.questionSeconds, s.tick, s.log)
			s.log.Info("player joined",
				zap.String("matchId", join.MatchID), zap.String("userId", join.UserID))

		case gateway.EventRequestCurrentQuestion:
			var req requestPayload
			if err := json.Unmarshal(env.Payload, &req); err != nil || room == nil {
				continue
			}
			if current, ok := room.Current(); ok {
				s.push(cl, gateway.EventNextQuestion, current)
			}

		case gateway.EventSubmitAnswer:
			var sub submitPayload
			if err := json.Unmarshal(env.Payload, &sub); err != nil {
				s.pushError(cl, "invalid answer payload")
				continue
			}
			if room == nil {
				s.pushError(cl, "join a match first")
				continue
			}
			res, err := room.Submit(sub.UserID, sub.QuestionID, sub.Answer)
			if err != nil {
				s.pushError(cl, err.Error())
				continue
			}
			s.push(cl, gateway.EventAnswerSubmitted, answerSubmittedPayload{QuestionID: sub.QuestionID})
			s.push(cl, gateway.EventAnswerResult, res)
			room.Broadcast(gateway.EventUpdatedScores, room.Scoreboard())

		default:
			s.pushError(cl, "unsupported message type")
		}
	}

	if room != nil {
		roster := room.Leave(cl)
		room.Broadcast(gateway.EventPlayerLeft, roster)
		s.store.DeleteIfEmpty(room.ID)
	}
	close(cl.send)
	<-writerDone
}

func (s *Server) push(cl *client, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	cl.push(gateway.Envelope{Type: event, Payload: raw})
}

func (s *Server) pushError(cl *client, message string) {
	s.push(cl, gateway.EventError, gateway.ErrorPayload{Message: message})
}

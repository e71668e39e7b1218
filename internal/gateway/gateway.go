package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quizmon-client/internal/domain"
)

// Event names on the Quizmon match socket.
const (
	EventJoinMatch              = "joinMatch"
	EventRequestCurrentQuestion = "requestCurrentQuestion"
	EventSubmitAnswer           = "submitAnswer"

	EventPlayerJoined    = "playerJoined"
	EventPlayerLeft      = "playerLeft"
	EventNextQuestion    = "nextQuestion"
	EventTimeUpdate      = "timeUpdate"
	EventAnswerSubmitted = "answerSubmitted"
	EventAnswerResult    = "answerResult"
	EventUpdatedScores   = "updatedScores"
	EventGameOver        = "gameOver"
	EventError           = "error"
	EventNotification    = "notification"

	// EventDisconnected is synthesized locally when the transport drops; it
	// never travels on the wire.
	EventDisconnected = "disconnected"
)

// Envelope is the wire frame for every message in either direction.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler receives the raw payload of one event occurrence. Handlers run on
// the single reader goroutine, one at a time, in delivery order.
type Handler func(payload json.RawMessage)

// JoinPayload is the joinMatch intent.
type JoinPayload struct {
	MatchID  string `json:"matchId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ErrorPayload carries server error and notification messages.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithRejoin makes the gateway redial after a connection loss and re-emit
// joinMatch for the same match and user. Submissions are never replayed.
func WithRejoin(attempts int, backoff time.Duration) Option {
	return func(g *Gateway) {
		g.rejoinAttempts = attempts
		g.rejoinBackoff = backoff
	}
}

// WithDialer overrides the websocket dialer (tests shorten timeouts).
func WithDialer(d *websocket.Dialer) Option {
	return func(g *Gateway) { g.dialer = d }
}

// Gateway holds exactly one logical connection per match session and
// translates between named events and typed notifications.
type Gateway struct {
	url    string
	log    *zap.Logger
	dialer *websocket.Dialer

	rejoinAttempts int
	rejoinBackoff  time.Duration

	mu       sync.Mutex
	conn     *websocket.Conn
	join     JoinPayload
	closed   bool
	send     chan Envelope
	done     chan struct{}
	writerOn bool

	subMu sync.RWMutex
	subs  map[string][]subscription
	seq   int
}

type subscription struct {
	id int
	h  Handler
}

// New builds a gateway for the given socket URL. Connect must be called
// before Send.
func New(url string, log *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		url:           url,
		log:           log,
		dialer:        websocket.DefaultDialer,
		rejoinBackoff: time.Second,
		send:          make(chan Envelope, 16),
		done:          make(chan struct{}),
		subs:          make(map[string][]subscription),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Connect dials the socket and emits the joinMatch intent. Calling it again
// for the same matchID is a no-op; a different matchID is an error, since a
// gateway instance belongs to one session.
func (g *Gateway) Connect(ctx context.Context, matchID, userID, username string) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return domain.ErrNotConnected
	}
	if g.conn != nil {
		same := g.join.MatchID == matchID
		g.mu.Unlock()
		if same {
			return nil
		}
		return domain.ErrAlreadyConnected
	}
	g.join = JoinPayload{MatchID: matchID, UserID: userID, Username: username}
	g.mu.Unlock()

	conn, _, err := g.dialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.conn = conn
	if !g.writerOn {
		g.writerOn = true
		go g.writeLoop()
	}
	g.mu.Unlock()

	go g.readLoop(conn)
	return g.Send(EventJoinMatch, g.join)
}

// Send marshals and queues an outbound event. Delivery is fire-and-forget:
// no acknowledgement is awaited and write failures are only logged.
func (g *Gateway) Send(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	g.mu.Lock()
	if g.closed || g.conn == nil {
		g.mu.Unlock()
		return domain.ErrNotConnected
	}
	g.mu.Unlock()

	select {
	case g.send <- Envelope{Type: event, Payload: raw}:
		return nil
	case <-g.done:
		return domain.ErrNotConnected
	}
}

// Subscribe registers a handler for an event and returns its disposer.
// Independent subscribers to the same event all run, in registration order.
func (g *Gateway) Subscribe(event string, h Handler) func() {
	g.subMu.Lock()
	defer g.subMu.Unlock()
	id := g.seq
	g.seq++
	g.subs[event] = append(g.subs[event], subscription{id: id, h: h})

	return func() {
		g.subMu.Lock()
		defer g.subMu.Unlock()
		subs := g.subs[event]
		for i, s := range subs {
			if s.id == id {
				g.subs[event] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close tears the connection down. No events are dispatched after Close
// returns, including the synthetic disconnected one.
func (g *Gateway) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	conn := g.conn
	g.conn = nil
	close(g.done)
	g.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (g *Gateway) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// writeLoop owns all writes on whatever connection is current, so the conn
// never sees concurrent writers. It drains the queue until Close; messages
// queued while disconnected are dropped.
func (g *Gateway) writeLoop() {
	for {
		select {
		case <-g.done:
			return
		case env := <-g.send:
			g.mu.Lock()
			conn := g.conn
			g.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteJSON(env); err != nil {
				g.log.Warn("socket write failed", zap.String("event", env.Type), zap.Error(err))
			}
		}
	}
}

func (g *Gateway) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if g.isClosed() {
				return
			}
			g.log.Warn("socket read failed", zap.Error(err))
			g.dispatchLocal(EventDisconnected, err.Error())
			if g.rejoinAttempts <= 0 {
				return
			}
			next, ok := g.reconnect()
			if !ok {
				return
			}
			conn = next
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			g.log.Warn("malformed frame dropped", zap.Error(err))
			continue
		}
		g.dispatch(env.Type, env.Payload)
	}
}

// reconnect redials with linear backoff and re-emits joinMatch for the same
// room and identity.
func (g *Gateway) reconnect() (*websocket.Conn, bool) {
	for attempt := 1; attempt <= g.rejoinAttempts; attempt++ {
		time.Sleep(time.Duration(attempt) * g.rejoinBackoff)
		if g.isClosed() {
			return nil, false
		}
		conn, _, err := g.dialer.Dial(g.url, nil)
		if err != nil {
			g.log.Warn("rejoin dial failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			conn.Close()
			return nil, false
		}
		g.conn = conn
		join := g.join
		g.mu.Unlock()

		if err := g.Send(EventJoinMatch, join); err != nil {
			g.log.Warn("rejoin send failed", zap.Error(err))
		}
		g.log.Info("rejoined match", zap.String("matchId", join.MatchID))
		return conn, true
	}
	return nil, false
}

func (g *Gateway) dispatch(event string, payload json.RawMessage) {
	g.subMu.RLock()
	handlers := make([]Handler, 0, len(g.subs[event]))
	for _, s := range g.subs[event] {
		handlers = append(handlers, s.h)
	}
	g.subMu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}

func (g *Gateway) dispatchLocal(event, message string) {
	raw, _ := json.Marshal(ErrorPayload{Message: message})
	g.dispatch(event, raw)
}
